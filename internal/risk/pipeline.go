package risk

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rzzdr/var-engine/internal/portfolio"
	"github.com/rzzdr/var-engine/internal/scenario"
	"github.com/rzzdr/var-engine/pkg/utils/errors"
	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

const (
	defaultTailScenarios    = 20
	defaultNearVaRScenarios = 10
	defaultWorkers          = 8
)

// Options are the knobs shared by every VaR model. ConfidenceLevel is
// the lower tail probability: 0.01 computes 99% VaR.
type Options struct {
	ConfidenceLevel  float64
	TailScenarios    int
	NearVaRScenarios int
	Attribution      bool
	Workers          int
}

// DefaultOptions returns the standard 99% VaR configuration with
// attribution enabled.
func DefaultOptions() Options {
	return Options{
		ConfidenceLevel:  0.01,
		TailScenarios:    defaultTailScenarios,
		NearVaRScenarios: defaultNearVaRScenarios,
		Attribution:      true,
		Workers:          defaultWorkers,
	}
}

// pipeline is the scenario-based VaR calculation shared by the
// historical simulation and Monte Carlo models: revalue the portfolio
// under every scenario, reduce the PnL vector to VaR/ES, select the
// tail and attribute it.
type pipeline struct {
	opts Options
	log  *logger.Logger
}

func newPipeline(opts Options, name string) (*pipeline, error) {
	if opts.ConfidenceLevel <= 0 || opts.ConfidenceLevel >= 1 {
		return nil, errors.Configf("confidence level must be in (0, 1), got %g", opts.ConfidenceLevel)
	}
	if opts.TailScenarios <= 0 {
		opts.TailScenarios = defaultTailScenarios
	}
	if opts.NearVaRScenarios < 0 {
		opts.NearVaRScenarios = defaultNearVaRScenarios
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &pipeline{opts: opts, log: logger.GetLogger("risk." + name)}, nil
}

// run executes the full pipeline for a pre-generated scenario set. The
// PnL vector is aligned 1:1 with the scenarios slice.
func (p *pipeline) run(ctx context.Context, port *portfolio.Portfolio, base *scenario.Scenario, scenarios []*scenario.Scenario, meta map[string]interface{}) (*Result, error) {
	if len(scenarios) == 0 {
		return nil, errors.InvalidArgument("at least one scenario is required")
	}

	baseValue, err := port.Revalue(base)
	if err != nil {
		return nil, errors.Wrap(err, "base valuation failed")
	}
	if baseValue <= 0 {
		return nil, errors.Valuationf("portfolio base value must be positive, got %g", baseValue)
	}

	pnl, err := p.revalue(ctx, port, baseValue, scenarios)
	if err != nil {
		return nil, err
	}

	varDollar, es := varAndES(pnl, p.opts.ConfidenceLevel)

	tailIdx, nearIdx := p.selectTail(pnl)
	var attribution *ComponentVaR
	if p.opts.Attribution {
		attribution, err = p.attribute(port, base, scenarios, append(tailIdx, nearIdx...))
		if err != nil {
			p.log.Warnw("tail attribution failed", "error", err)
			attribution = nil
		}
	}

	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["volatility"] = stat.StdDev(pnl, nil) / baseValue

	result := &Result{
		PortfolioValue:  baseValue,
		VaRDollar:       varDollar,
		VaRPercent:      varDollar / baseValue,
		ConfidenceLevel: p.opts.ConfidenceLevel,
		Diagnostics:     diagnostics(pnl, varDollar, es, meta),
	}
	result.Diagnostics.Scenarios = map[string]int{
		"n":                 len(scenarios),
		"tail_selected":     len(tailIdx),
		"near_var_selected": len(nearIdx),
	}
	result.Diagnostics.Attribution = attribution

	p.log.Infow("var calculated",
		"portfolio_value", baseValue,
		"var_dollar", varDollar,
		"es_dollar", es,
		"scenarios", len(scenarios))
	return result, nil
}

// revalue computes the PnL vector, preserving scenario order. Scenario
// revaluations are independent, so they fan out over a bounded worker
// pool.
func (p *pipeline) revalue(ctx context.Context, port *portfolio.Portfolio, baseValue float64, scenarios []*scenario.Scenario) ([]float64, error) {
	pnl := make([]float64, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			v, err := port.Revalue(sc)
			if err != nil {
				return errors.Wrapf(err, "scenario %s revaluation failed", sc.ID())
			}
			pnl[i] = v - baseValue
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pnl, nil
}

// selectTail picks the scenarios that explain the loss tail: the worst
// TailScenarios outcomes plus the NearVaRScenarios closest outcomes
// strictly above the VaR quantile.
func (p *pipeline) selectTail(pnl []float64) (tail, near []int) {
	order := make([]int, len(pnl))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return pnl[order[a]] < pnl[order[b]] })

	n := p.opts.TailScenarios
	if n > len(order) {
		n = len(order)
	}
	tail = append(tail, order[:n]...)

	q := quantile(pnl, p.opts.ConfidenceLevel)
	for _, idx := range order {
		if pnl[idx] <= q {
			continue
		}
		near = append(near, idx)
		if len(near) == p.opts.NearVaRScenarios {
			break
		}
	}
	return tail, near
}

// attribute averages the GBA decomposition over the selected scenarios.
// The result explains which positions and factors drive the tail; it is
// not a standalone risk measure.
func (p *pipeline) attribute(port *portfolio.Portfolio, base *scenario.Scenario, scenarios []*scenario.Scenario, selected []int) (*ComponentVaR, error) {
	seen := make(map[int]struct{}, len(selected))
	positions := make(map[string]float64)
	factors := make(map[string]float64)
	used := 0

	for _, idx := range selected {
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}

		att, err := port.AttributeScenario(scenarios[idx], base, portfolio.AttributionGBA)
		if err != nil {
			return nil, err
		}
		for id, pos := range att.Positions {
			positions[id] += pos.Total
		}
		for factor, contrib := range att.PortfolioFactors {
			factors[factor] += contrib
		}
		used++
	}
	if used == 0 {
		return nil, errors.InvalidArgument("no scenarios selected for attribution")
	}

	for id := range positions {
		positions[id] /= float64(used)
	}
	for factor := range factors {
		factors[factor] /= float64(used)
	}
	return &ComponentVaR{Positions: positions, Factors: factors, ScenariosUsed: used}, nil
}

// quantile returns the empirical cl-quantile of the PnL vector.
func quantile(pnl []float64, cl float64) float64 {
	sorted := append([]float64(nil), pnl...)
	sort.Float64s(sorted)
	return stat.Quantile(cl, stat.Empirical, sorted, nil)
}

// varAndES reduces a PnL vector to dollar VaR and expected shortfall.
// VaR is the negated lower-tail quantile; ES is the negated mean of
// the outcomes at or below that quantile, so ES >= VaR always holds.
func varAndES(pnl []float64, cl float64) (varDollar, es float64) {
	q := quantile(pnl, cl)

	var sum float64
	var n int
	for _, v := range pnl {
		if v <= q {
			sum += v
			n++
		}
	}

	varDollar = -q
	es = varDollar
	if n > 0 {
		es = -sum / float64(n)
	}
	return varDollar, es
}

// diagnostics builds the drill-down bundle shared by all models.
func diagnostics(pnl []float64, varDollar, es float64, meta map[string]interface{}) Diagnostics {
	return Diagnostics{
		Distribution: Distribution{
			Mean:     stat.Mean(pnl, nil),
			Std:      stat.StdDev(pnl, nil),
			Skew:     stat.Skew(pnl, nil),
			Kurtosis: stat.ExKurtosis(pnl, nil),
			Min:      floats.Min(pnl),
			Max:      floats.Max(pnl),
		},
		Tail:      Tail{VaR: varDollar, ES: es},
		Scenarios: map[string]int{"n": len(pnl)},
		PnL:       append([]float64(nil), pnl...),
		Model:     meta,
	}
}
