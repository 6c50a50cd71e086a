package risk

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rzzdr/var-engine/internal/marketdata"
	"github.com/rzzdr/var-engine/internal/portfolio"
	"github.com/rzzdr/var-engine/pkg/utils/errors"
	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

// syntheticGridPoints is the size of the dense probability grid the
// parametric model samples to produce a PnL vector for diagnostics.
const syntheticGridPoints = 10001

// Parametric computes delta-normal VaR in closed form: the portfolio
// spot sensitivity vector w against the sample covariance of the
// return window gives portfolio volatility sqrt(w' C w), and VaR is
// the negated normal quantile times that volatility. No scenarios are
// revalued, so tail attribution is not available.
type Parametric struct {
	opts       Options
	windowDays int
	log        *logger.Logger
}

// NewParametric builds a parametric model over a rolling window of
// windowDays return observations.
func NewParametric(opts Options, windowDays int) (*Parametric, error) {
	if opts.ConfidenceLevel <= 0 || opts.ConfidenceLevel >= 1 {
		return nil, errors.Configf("confidence level must be in (0, 1), got %g", opts.ConfidenceLevel)
	}
	if windowDays <= 0 {
		return nil, errors.Configf("window must be positive, got %d days", windowDays)
	}
	return &Parametric{opts: opts, windowDays: windowDays, log: logger.GetLogger("risk.parametric")}, nil
}

// Name identifies the model in result metadata and metrics labels.
func (p *Parametric) Name() string { return "ParametricVaR" }

// Run executes the model against a daily return window.
func (p *Parametric) Run(ctx context.Context, port *portfolio.Portfolio, md *marketdata.MarketData) (*Result, error) {
	if err := md.Validate(); err != nil {
		return nil, err
	}

	window, err := md.Returns.Tail(p.windowDays)
	if err != nil {
		return nil, err
	}
	cov, err := window.Covariance()
	if err != nil {
		return nil, err
	}

	assets := window.Assets()
	corr, err := correlationFromCovariance(assets, cov)
	if err != nil {
		return nil, err
	}

	vols, err := diagonalVols(assets, cov, marketdata.TradingDaysPerYear)
	if err != nil {
		return nil, err
	}
	base, err := baseScenario(md, vols)
	if err != nil {
		return nil, err
	}

	baseValue, err := port.Revalue(base)
	if err != nil {
		return nil, errors.Wrap(err, "base valuation failed")
	}
	if baseValue <= 0 {
		return nil, errors.Valuationf("portfolio base value must be positive, got %g", baseValue)
	}

	sens, err := port.Sensitivities(base)
	if err != nil {
		return nil, err
	}
	w := mat.NewVecDense(len(assets), nil)
	for i, asset := range assets {
		w.SetVec(i, sens[portfolio.FactorSpotPrefix+asset])
	}

	variance := mat.Inner(w, cov, w)
	if variance < 0 {
		return nil, errors.Dataf("negative portfolio variance %g, covariance is not positive semi-definite", variance)
	}
	portVol := math.Sqrt(variance)

	z := distuv.UnitNormal.Quantile(p.opts.ConfidenceLevel)
	varDollar := -z * portVol
	es := portVol * distuv.UnitNormal.Prob(z) / p.opts.ConfidenceLevel

	pnl := syntheticPnL(portVol)

	meta := map[string]interface{}{
		"model":       p.Name(),
		"window_days": p.windowDays,
		"volatility":  portVol / baseValue,
		"assets":      assets,
		"correlation": corr,
	}

	result := &Result{
		PortfolioValue:  baseValue,
		VaRDollar:       varDollar,
		VaRPercent:      varDollar / baseValue,
		ConfidenceLevel: p.opts.ConfidenceLevel,
		Diagnostics:     diagnostics(pnl, varDollar, es, meta),
	}
	result.Diagnostics.Scenarios = map[string]int{"n": 0, "synthetic": len(pnl)}

	p.log.Infow("var calculated",
		"portfolio_value", baseValue,
		"var_dollar", varDollar,
		"es_dollar", es,
		"portfolio_vol", portVol)
	return result, nil
}

// syntheticPnL samples the fitted normal PnL distribution over a dense
// probability grid, giving downstream diagnostics a vector to work
// with even though the model never revalues a scenario.
func syntheticPnL(portVol float64) []float64 {
	pnl := make([]float64, syntheticGridPoints)
	step := 1.0 / float64(syntheticGridPoints+1)
	for i := range pnl {
		pnl[i] = distuv.UnitNormal.Quantile(float64(i+1)*step) * portVol
	}
	return pnl
}

// correlationFromCovariance derives the correlation matrix. A
// zero-variance asset makes the correlation undefined and is rejected
// as a data error rather than patched over.
func correlationFromCovariance(assets []string, cov *mat.SymDense) ([][]float64, error) {
	n := cov.SymmetricDim()
	std := make([]float64, n)
	for i := 0; i < n; i++ {
		v := cov.At(i, i)
		if v <= 0 {
			return nil, errors.Dataf("zero-variance asset %q, correlation is undefined", assets[i])
		}
		std[i] = math.Sqrt(v)
	}

	corr := make([][]float64, n)
	for i := 0; i < n; i++ {
		corr[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			corr[i][j] = cov.At(i, j) / (std[i] * std[j])
		}
	}
	return corr, nil
}
