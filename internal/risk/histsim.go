package risk

import (
	"context"
	"fmt"

	"github.com/rzzdr/var-engine/internal/marketdata"
	"github.com/rzzdr/var-engine/internal/portfolio"
	"github.com/rzzdr/var-engine/internal/scenario"
	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// HistSim computes historical simulation VaR: one scenario per
// observed return row, most recent window first-in. Volatility is held
// constant at the covariance-derived annualized levels, so only spot
// factors move between scenarios.
type HistSim struct {
	pipeline   *pipeline
	windowDays int
}

// NewHistSim builds a historical simulation model over a rolling
// window of windowDays return observations.
func NewHistSim(opts Options, windowDays int) (*HistSim, error) {
	if windowDays <= 0 {
		return nil, errors.Configf("window must be positive, got %d days", windowDays)
	}
	p, err := newPipeline(opts, "histsim")
	if err != nil {
		return nil, err
	}
	return &HistSim{pipeline: p, windowDays: windowDays}, nil
}

// Name identifies the model in result metadata and metrics labels.
func (h *HistSim) Name() string { return "HistSimVaR" }

// Run executes the model. It fails hard when the return history is
// shorter than the configured window; padding the window would
// silently understate risk.
func (h *HistSim) Run(ctx context.Context, port *portfolio.Portfolio, md *marketdata.MarketData) (*Result, error) {
	if err := md.Validate(); err != nil {
		return nil, err
	}

	window, err := md.Returns.Tail(h.windowDays)
	if err != nil {
		return nil, err
	}

	assets := window.Assets()
	vols, err := diagonalVols(assets, md.Cov, marketdata.TradingDaysPerYear)
	if err != nil {
		return nil, err
	}
	base, err := baseScenario(md, vols)
	if err != nil {
		return nil, err
	}

	dates := window.Dates()
	scenarios := make([]*scenario.Scenario, 0, window.Len())
	for i := 0; i < window.Len(); i++ {
		spot := make(map[string]float64, len(assets))
		for asset, ret := range window.Row(i) {
			spot[asset] = md.Spot[asset] * (1 + ret)
		}

		sc, err := scenario.New(spot, vols, 0, md.Horizon)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc.WithLabel(fmt.Sprintf("hist-%s", dates[i].Format("2006-01-02"))))
	}

	meta := map[string]interface{}{
		"model":       h.Name(),
		"window_days": h.windowDays,
	}
	return h.pipeline.run(ctx, port, base, scenarios, meta)
}
