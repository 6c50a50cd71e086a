package scenario

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/rzzdr/var-engine/pkg/utils/errors"
	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

// eigenTolerance bounds how negative an eigenvalue may be before a
// covariance matrix is rejected outright, even under repair.
const eigenTolerance = 1e-10

// GBMConfig configures a GBMGenerator. Assets fixes the factor ordering
// contract: Cov rows/columns and generated draws follow this order.
type GBMConfig struct {
	Assets  []string
	Spot    map[string]float64
	Cov     *mat.SymDense
	Horizon float64
	Drift   map[string]float64
	// VolOfVol enables a lognormal shock on volatility itself when
	// positive; otherwise vols stay at sqrt(diag(Cov)).
	VolOfVol float64
	Seed     int64
	// RepairCovariance opts into the eigenvalue-clipping fallback when
	// the covariance is not positive definite. Off by default: a
	// non-PD covariance fails fast.
	RepairCovariance bool
}

// GBMGenerator produces terminal market scenarios at a fixed horizon
// using correlated geometric Brownian motion with constant volatility.
type GBMGenerator struct {
	generatorBase

	assets   []string
	spot     []float64
	vols     []float64
	drifts   []float64
	volOfVol float64
	factor   *mat.Dense // L with L*L^T = cov
	log      *logger.Logger
}

// NewGBMGenerator validates the inputs and factorizes the covariance.
func NewGBMGenerator(cfg GBMConfig) (*GBMGenerator, error) {
	base, err := newGeneratorBase(cfg.Horizon, cfg.Seed)
	if err != nil {
		return nil, err
	}

	n := len(cfg.Assets)
	if n == 0 {
		return nil, errors.Config("GBM generator requires at least one asset")
	}
	if cfg.Cov == nil || cfg.Cov.SymmetricDim() != n {
		return nil, errors.Dataf("covariance matrix has incorrect shape: want %dx%d", n, n)
	}

	spot := make([]float64, n)
	vols := make([]float64, n)
	drifts := make([]float64, n)
	for i, asset := range cfg.Assets {
		s, ok := cfg.Spot[asset]
		if !ok {
			return nil, errors.Dataf("spot level missing for asset %q", asset)
		}
		spot[i] = s

		variance := cfg.Cov.At(i, i)
		if variance < 0 {
			return nil, errors.Dataf("covariance diagonal must be non-negative, got %g for asset %q", variance, asset)
		}
		vols[i] = math.Sqrt(variance)

		if cfg.Drift != nil {
			d, ok := cfg.Drift[asset]
			if !ok {
				return nil, errors.Dataf("drift missing for asset %q", asset)
			}
			drifts[i] = d
		}
	}

	factor, err := factorizeCovariance(cfg.Cov, cfg.RepairCovariance)
	if err != nil {
		return nil, err
	}

	return &GBMGenerator{
		generatorBase: base,
		assets:        append([]string(nil), cfg.Assets...),
		spot:          spot,
		vols:          vols,
		drifts:        drifts,
		volOfVol:      cfg.VolOfVol,
		factor:        factor,
		log:           logger.GetLogger("scenario.gbm"),
	}, nil
}

// factorizeCovariance returns L with L*L^T = cov. Cholesky is attempted
// first; when the matrix is not positive definite the behavior depends
// on repair: fail fast, or eigen-decompose and clip negative eigenvalues
// at zero.
func factorizeCovariance(cov *mat.SymDense, repair bool) (*mat.Dense, error) {
	var chol mat.Cholesky
	if chol.Factorize(cov) {
		n := cov.SymmetricDim()
		var lower mat.TriDense
		chol.LTo(&lower)
		factor := mat.NewDense(n, n, nil)
		factor.Copy(&lower)
		return factor, nil
	}

	if !repair {
		return nil, errors.Data("covariance matrix is not positive definite; enable covariance repair or supply a corrected matrix")
	}

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return nil, errors.Data("eigenvalue decomposition of covariance failed")
	}

	values := eig.Values(nil)
	for _, v := range values {
		if v < -eigenTolerance {
			return nil, errors.Dataf("covariance matrix is not positive semi-definite: eigenvalue %g", v)
		}
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	n := len(values)
	scaled := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		root := math.Sqrt(math.Max(values[j], 0))
		for i := 0; i < n; i++ {
			scaled.Set(i, j, vectors.At(i, j)*root)
		}
	}

	return scaled, nil
}

// Generate produces n independent GBM scenarios at the terminal horizon.
// Draws consume the seeded source in a fixed order, so results are
// deterministic for a given seed.
func (g *GBMGenerator) Generate(n int) ([]*Scenario, error) {
	if err := validateCount(n); err != nil {
		return nil, err
	}

	dim := len(g.assets)
	sqrtT := math.Sqrt(g.horizon)

	z := make([]float64, dim)
	corr := make([]float64, dim)
	scenarios := make([]*Scenario, 0, n)

	for i := 0; i < n; i++ {
		for j := range z {
			z[j] = g.rng.NormFloat64()
		}
		g.correlate(z, corr)

		spot := make(map[string]float64, dim)
		for j, asset := range g.assets {
			drift := (g.drifts[j] - 0.5*g.vols[j]*g.vols[j]) * g.horizon
			spot[asset] = g.spot[j] * math.Exp(drift+sqrtT*corr[j])
		}

		vol := g.simulateVols(sqrtT)

		s, err := New(spot, vol, 0, g.horizon)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}

	return scenarios, nil
}

// correlate sets dst = factor * z.
func (g *GBMGenerator) correlate(z, dst []float64) {
	for i := range dst {
		var sum float64
		for j := range z {
			sum += g.factor.At(i, j) * z[j]
		}
		dst[i] = sum
	}
}

// simulateVols returns the volatility map for one scenario. Without
// vol-of-vol, vols stay at the covariance-implied levels.
func (g *GBMGenerator) simulateVols(sqrtT float64) map[string]float64 {
	vol := make(map[string]float64, len(g.assets))

	if g.volOfVol <= 0 {
		for j, asset := range g.assets {
			vol[asset] = g.vols[j]
		}
		return vol
	}

	eta := g.volOfVol
	drift := -0.5 * eta * eta * g.horizon
	for j, asset := range g.assets {
		zv := g.rng.NormFloat64()
		vol[asset] = g.vols[j] * math.Exp(drift+eta*sqrtT*zv)
	}
	return vol
}

// Assets returns the generator's factor ordering.
func (g *GBMGenerator) Assets() []string {
	return append([]string(nil), g.assets...)
}
