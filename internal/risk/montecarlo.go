package risk

import (
	"context"

	"github.com/rzzdr/var-engine/internal/marketdata"
	"github.com/rzzdr/var-engine/internal/portfolio"
	"github.com/rzzdr/var-engine/internal/scenario"
	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

const (
	defaultSimulations = 10000
	defaultSeed        = 42
)

// MonteCarloConfig configures the simulation stage of the Monte Carlo
// model. The zero value plus defaults gives 10,000 driftless GBM paths
// seeded with 42, so repeated runs on the same inputs are bit-identical.
type MonteCarloConfig struct {
	Simulations int
	Seed        int64
	// WindowDays bounds the drift estimation window. Ignored unless
	// UseMeanDrift is set; zero means the full history.
	WindowDays   int
	UseMeanDrift bool
	VolOfVol     float64
	// RepairCovariance enables the eigenvalue-clipping fallback for
	// covariance matrices that are not positive definite.
	RepairCovariance bool
}

// MonteCarlo computes VaR over simulated GBM scenarios driven by the
// annualized sample covariance of the return history.
type MonteCarlo struct {
	pipeline *pipeline
	cfg      MonteCarloConfig
}

// NewMonteCarlo builds a Monte Carlo model.
func NewMonteCarlo(opts Options, cfg MonteCarloConfig) (*MonteCarlo, error) {
	if cfg.Simulations == 0 {
		cfg.Simulations = defaultSimulations
	}
	if cfg.Simulations < 0 {
		return nil, errors.Configf("simulation count must be positive, got %d", cfg.Simulations)
	}
	if cfg.Seed == 0 {
		cfg.Seed = defaultSeed
	}
	if cfg.WindowDays < 0 {
		return nil, errors.Configf("window must be non-negative, got %d days", cfg.WindowDays)
	}

	p, err := newPipeline(opts, "montecarlo")
	if err != nil {
		return nil, err
	}
	return &MonteCarlo{pipeline: p, cfg: cfg}, nil
}

// Name identifies the model in result metadata and metrics labels.
func (m *MonteCarlo) Name() string { return "MonteCarloVaR" }

// Run executes the model. The daily covariance is annualized before
// generation so GBM diffusion over the horizon uses annual terms.
func (m *MonteCarlo) Run(ctx context.Context, port *portfolio.Portfolio, md *marketdata.MarketData) (*Result, error) {
	if err := md.Validate(); err != nil {
		return nil, err
	}

	assets := md.Returns.Assets()
	annualized := marketdata.ScaleCovariance(md.Cov, marketdata.TradingDaysPerYear)

	var drift map[string]float64
	if m.cfg.UseMeanDrift {
		var err error
		drift, err = m.annualizedDrift(md)
		if err != nil {
			return nil, err
		}
	}

	gen, err := scenario.NewGBMGenerator(scenario.GBMConfig{
		Assets:           assets,
		Spot:             md.Spot,
		Cov:              annualized,
		Horizon:          md.Horizon,
		Drift:            drift,
		VolOfVol:         m.cfg.VolOfVol,
		Seed:             m.cfg.Seed,
		RepairCovariance: m.cfg.RepairCovariance,
	})
	if err != nil {
		return nil, err
	}

	scenarios, err := gen.Generate(m.cfg.Simulations)
	if err != nil {
		return nil, err
	}

	vols, err := diagonalVols(assets, annualized, 1)
	if err != nil {
		return nil, err
	}
	base, err := baseScenario(md, vols)
	if err != nil {
		return nil, err
	}

	meta := map[string]interface{}{
		"model":          m.Name(),
		"n_sims":         m.cfg.Simulations,
		"random_seed":    m.cfg.Seed,
		"use_mean_drift": m.cfg.UseMeanDrift,
	}
	return m.pipeline.run(ctx, port, base, scenarios, meta)
}

// annualizedDrift estimates per-asset drift as the mean daily return
// over the configured window, scaled to annual terms.
func (m *MonteCarlo) annualizedDrift(md *marketdata.MarketData) (map[string]float64, error) {
	window := md.Returns
	if m.cfg.WindowDays > 0 {
		var err error
		window, err = md.Returns.Tail(m.cfg.WindowDays)
		if err != nil {
			return nil, err
		}
	}

	means := window.Mean()
	drift := make(map[string]float64, len(means))
	for i, asset := range window.Assets() {
		drift[asset] = means[i] * marketdata.TradingDaysPerYear
	}
	return drift, nil
}
