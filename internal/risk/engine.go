package risk

import (
	"context"
	"time"

	"github.com/rzzdr/var-engine/config"
	"github.com/rzzdr/var-engine/internal/marketdata"
	"github.com/rzzdr/var-engine/internal/portfolio"
	"github.com/rzzdr/var-engine/pkg/utils/errors"
	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

// ModelKind selects a VaR methodology.
type ModelKind string

const (
	ModelParametric ModelKind = "parametric"
	ModelHistSim    ModelKind = "histsim"
	ModelMonteCarlo ModelKind = "montecarlo"
)

// Model is the contract shared by the three methodologies.
type Model interface {
	Name() string
	Run(ctx context.Context, port *portfolio.Portfolio, md *marketdata.MarketData) (*Result, error)
}

// ModelParams are per-request overrides of the engine defaults. Zero
// values fall back to the configured defaults.
type ModelParams struct {
	ConfidenceLevel float64 `json:"confidence_level,omitempty"`
	WindowDays      int     `json:"window_days,omitempty"`
	Simulations     int     `json:"n_sims,omitempty"`
	Seed            int64   `json:"random_seed,omitempty"`
	UseMeanDrift    bool    `json:"use_mean_drift,omitempty"`
	VolOfVol        float64 `json:"vol_of_vol,omitempty"`
	RepairCov       bool    `json:"repair_covariance,omitempty"`
}

// Engine turns configured defaults plus per-request parameters into
// model runs. It is stateless apart from configuration and safe for
// concurrent use.
type Engine struct {
	cfg config.RiskConfig
	log *logger.Logger
}

// NewEngine creates an engine with the given risk defaults.
func NewEngine(cfg config.RiskConfig) *Engine {
	return &Engine{cfg: cfg, log: logger.GetLogger("risk.engine")}
}

// Calculate builds the requested model and runs it.
func (e *Engine) Calculate(ctx context.Context, kind ModelKind, port *portfolio.Portfolio, md *marketdata.MarketData, params ModelParams) (*Result, error) {
	model, err := e.newModel(kind, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := model.Run(ctx, port, md)
	if err != nil {
		return nil, err
	}

	e.log.Infow("model run complete",
		"model", model.Name(),
		"var_dollar", result.VaRDollar,
		"duration", time.Since(start))
	return result, nil
}

func (e *Engine) newModel(kind ModelKind, params ModelParams) (Model, error) {
	opts := e.options(params)
	window := e.cfg.WindowDays
	if params.WindowDays > 0 {
		window = params.WindowDays
	}

	switch kind {
	case ModelParametric:
		return NewParametric(opts, window)
	case ModelHistSim:
		return NewHistSim(opts, window)
	case ModelMonteCarlo:
		cfg := MonteCarloConfig{
			Simulations:      e.cfg.SimulationRuns,
			Seed:             e.cfg.RandomSeed,
			WindowDays:       window,
			UseMeanDrift:     params.UseMeanDrift,
			VolOfVol:         params.VolOfVol,
			RepairCovariance: params.RepairCov,
		}
		if params.Simulations > 0 {
			cfg.Simulations = params.Simulations
		}
		if params.Seed != 0 {
			cfg.Seed = params.Seed
		}
		return NewMonteCarlo(opts, cfg)
	default:
		return nil, errors.InvalidArgumentf("unknown model kind %q", kind)
	}
}

func (e *Engine) options(params ModelParams) Options {
	opts := Options{
		ConfidenceLevel:  e.cfg.ConfidenceLevel,
		TailScenarios:    e.cfg.TailScenarios,
		NearVaRScenarios: e.cfg.NearVaRScenarios,
		Attribution:      true,
		Workers:          e.cfg.Workers,
	}
	if params.ConfidenceLevel > 0 {
		opts.ConfidenceLevel = params.ConfidenceLevel
	}
	return opts
}
