package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rzzdr/var-engine/config"
	"github.com/rzzdr/var-engine/internal/marketdata"
)

// marketDataFromReturns builds a single-asset bundle from a daily
// return vector.
func marketDataFromReturns(t *testing.T, asset string, spot float64, rets []float64) *marketdata.MarketData {
	t.Helper()

	dates := make([]time.Time, len(rets))
	data := make([][]float64, len(rets))
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, r := range rets {
		dates[i] = start.AddDate(0, 0, i)
		data[i] = []float64{r}
	}

	rs, err := marketdata.NewReturnSeries(dates, []string{asset}, data)
	require.NoError(t, err)
	cov, err := rs.Covariance()
	require.NoError(t, err)

	return &marketdata.MarketData{
		Spot:    map[string]float64{asset: spot},
		Returns: rs,
		Cov:     cov,
		Horizon: 1.0 / marketdata.TradingDaysPerYear,
	}
}

// spreadReturns yields n distinct daily returns with the worst forced
// to `worst`.
func spreadReturns(n int, worst float64) []float64 {
	rets := make([]float64, n)
	for i := range rets {
		rets[i] = -0.04 + 0.0008*float64(i)
	}
	rets[0] = worst
	return rets
}

func TestHistSimVaRIsWorstWindowLoss(t *testing.T) {
	md := marketDataFromReturns(t, "AAPL", 100.0, spreadReturns(100, -0.05))
	port := singleStockPortfolio(t, 1)

	model, err := NewHistSim(DefaultOptions(), 100)
	require.NoError(t, err)
	assert.Equal(t, "HistSimVaR", model.Name())

	result, err := model.Run(context.Background(), port, md)
	require.NoError(t, err)

	// At the 1% level over 100 scenarios the empirical quantile is the
	// single worst outcome: a -5% day on a $100 position.
	assert.InDelta(t, 100.0, result.PortfolioValue, 1e-12)
	assert.InDelta(t, 5.0, result.VaRDollar, 1e-9)
	assert.InDelta(t, 5.0, result.Diagnostics.Tail.ES, 1e-9)
	assert.InDelta(t, 0.05, result.VaRPercent, 1e-11)
	assert.Equal(t, 100, result.Diagnostics.Scenarios["n"])
	assert.Equal(t, "HistSimVaR", result.Diagnostics.Model["model"])
	assert.Equal(t, 100, result.Diagnostics.Model["window_days"])
}

func TestHistSimWindowRespectsTail(t *testing.T) {
	// 100 observations with the catastrophic day outside the 50-day
	// window: the windowed VaR must not see it.
	rets := spreadReturns(100, -0.5)
	md := marketDataFromReturns(t, "AAPL", 100.0, rets)
	port := singleStockPortfolio(t, 1)

	model, err := NewHistSim(DefaultOptions(), 50)
	require.NoError(t, err)

	result, err := model.Run(context.Background(), port, md)
	require.NoError(t, err)
	assert.Less(t, result.VaRDollar, 10.0)
	assert.Equal(t, 50, result.Diagnostics.Scenarios["n"])
}

func TestHistSimFailsOnShortHistory(t *testing.T) {
	md := marketDataFromReturns(t, "AAPL", 100.0, spreadReturns(100, -0.05))
	port := singleStockPortfolio(t, 1)

	model, err := NewHistSim(DefaultOptions(), 101)
	require.NoError(t, err)

	_, err = model.Run(context.Background(), port, md)
	assert.Error(t, err)

	_, err = NewHistSim(DefaultOptions(), 0)
	assert.Error(t, err)
}

func TestParametricMatchesClosedForm(t *testing.T) {
	rets := spreadReturns(100, -0.05)
	quantity, spot := 3.0, 50.0
	md := marketDataFromReturns(t, "AAPL", spot, rets)
	port := singleStockPortfolio(t, quantity)

	model, err := NewParametric(DefaultOptions(), 100)
	require.NoError(t, err)
	assert.Equal(t, "ParametricVaR", model.Name())

	result, err := model.Run(context.Background(), port, md)
	require.NoError(t, err)

	portVol := quantity * spot * stat.StdDev(rets, nil)
	z := distuv.UnitNormal.Quantile(0.01)
	wantVaR := -z * portVol
	wantES := portVol * distuv.UnitNormal.Prob(z) / 0.01

	assert.InDelta(t, quantity*spot, result.PortfolioValue, 1e-12)
	assert.InDelta(t, wantVaR, result.VaRDollar, 1e-9)
	assert.InDelta(t, wantES, result.Diagnostics.Tail.ES, 1e-9)
	assert.Greater(t, result.Diagnostics.Tail.ES, result.VaRDollar)

	// No scenarios are revalued; the PnL vector is the synthetic grid
	// and tail attribution is absent.
	assert.Equal(t, 0, result.Diagnostics.Scenarios["n"])
	assert.Equal(t, syntheticGridPoints, result.Diagnostics.Scenarios["synthetic"])
	assert.Len(t, result.Diagnostics.PnL, syntheticGridPoints)
	assert.Nil(t, result.Diagnostics.Attribution)
	assert.Contains(t, result.Diagnostics.Model, "correlation")
}

func TestParametricRejectsZeroVarianceAsset(t *testing.T) {
	rets := make([]float64, 50)
	for i := range rets {
		rets[i] = 0.01
	}
	md := marketDataFromReturns(t, "AAPL", 100.0, rets)
	port := singleStockPortfolio(t, 1)

	model, err := NewParametric(DefaultOptions(), 50)
	require.NoError(t, err)

	_, err = model.Run(context.Background(), port, md)
	assert.Error(t, err)
}

func TestMonteCarloDeterministicPerSeed(t *testing.T) {
	md := marketDataFromReturns(t, "AAPL", 100.0, spreadReturns(100, -0.05))
	port := singleStockPortfolio(t, 1)

	run := func(seed int64) *Result {
		model, err := NewMonteCarlo(DefaultOptions(), MonteCarloConfig{Simulations: 500, Seed: seed})
		require.NoError(t, err)
		result, err := model.Run(context.Background(), port, md)
		require.NoError(t, err)
		return result
	}

	first := run(7)
	second := run(7)
	assert.Equal(t, first.VaRDollar, second.VaRDollar)
	assert.Equal(t, first.Diagnostics.PnL, second.Diagnostics.PnL)

	other := run(8)
	assert.NotEqual(t, first.VaRDollar, other.VaRDollar)
}

func TestMonteCarloDefaults(t *testing.T) {
	model, err := NewMonteCarlo(DefaultOptions(), MonteCarloConfig{})
	require.NoError(t, err)
	assert.Equal(t, "MonteCarloVaR", model.Name())
	assert.Equal(t, defaultSimulations, model.cfg.Simulations)
	assert.Equal(t, int64(defaultSeed), model.cfg.Seed)

	_, err = NewMonteCarlo(DefaultOptions(), MonteCarloConfig{Simulations: -1})
	assert.Error(t, err)
}

func TestMonteCarloMetadata(t *testing.T) {
	md := marketDataFromReturns(t, "AAPL", 100.0, spreadReturns(100, -0.05))
	port := singleStockPortfolio(t, 1)

	model, err := NewMonteCarlo(DefaultOptions(), MonteCarloConfig{Simulations: 200, Seed: 11, UseMeanDrift: true})
	require.NoError(t, err)

	result, err := model.Run(context.Background(), port, md)
	require.NoError(t, err)
	assert.Equal(t, 200, result.Diagnostics.Model["n_sims"])
	assert.Equal(t, int64(11), result.Diagnostics.Model["random_seed"])
	assert.Equal(t, true, result.Diagnostics.Model["use_mean_drift"])
	assert.Equal(t, 200, result.Diagnostics.Scenarios["n"])
}

func engineConfig() config.RiskConfig {
	return config.RiskConfig{
		ConfidenceLevel:  0.01,
		WindowDays:       100,
		SimulationRuns:   200,
		RandomSeed:       42,
		TailScenarios:    20,
		NearVaRScenarios: 10,
		Workers:          4,
	}
}

func TestEngineCalculate(t *testing.T) {
	md := marketDataFromReturns(t, "AAPL", 100.0, spreadReturns(100, -0.05))
	port := singleStockPortfolio(t, 1)
	engine := NewEngine(engineConfig())

	for _, kind := range []ModelKind{ModelParametric, ModelHistSim, ModelMonteCarlo} {
		result, err := engine.Calculate(context.Background(), kind, port, md, ModelParams{})
		require.NoError(t, err, "model %s", kind)
		assert.Positive(t, result.VaRDollar, "model %s", kind)
		assert.Equal(t, 0.01, result.ConfidenceLevel, "model %s", kind)
	}
}

func TestEngineRejectsUnknownModel(t *testing.T) {
	md := marketDataFromReturns(t, "AAPL", 100.0, spreadReturns(100, -0.05))
	port := singleStockPortfolio(t, 1)
	engine := NewEngine(engineConfig())

	_, err := engine.Calculate(context.Background(), ModelKind("delta-gamma"), port, md, ModelParams{})
	assert.Error(t, err)
}

func TestEngineAppliesOverrides(t *testing.T) {
	md := marketDataFromReturns(t, "AAPL", 100.0, spreadReturns(100, -0.05))
	port := singleStockPortfolio(t, 1)
	engine := NewEngine(engineConfig())

	result, err := engine.Calculate(context.Background(), ModelHistSim, port, md, ModelParams{
		ConfidenceLevel: 0.05,
		WindowDays:      50,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.05, result.ConfidenceLevel)
	assert.Equal(t, 50, result.Diagnostics.Scenarios["n"])
}
