package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/var-engine/internal/scenario"
)

func marketScenario(t *testing.T, spot map[string]float64, rate float64) *scenario.Scenario {
	t.Helper()
	vol := make(map[string]float64, len(spot))
	for asset := range spot {
		vol[asset] = 0.2
	}
	sc, err := scenario.New(spot, vol, rate, 0)
	require.NoError(t, err)
	return sc
}

func TestPortfolioConstruction(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	s1, err := NewStock("p1", "AAPL", 10)
	require.NoError(t, err)
	s2, err := NewStock("p1", "MSFT", 5)
	require.NoError(t, err)

	_, err = New([]Product{s1, s2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate product id")

	s2dup, err := NewStock("p2", "MSFT", 5)
	require.NoError(t, err)
	port, err := New([]Product{s1, s2dup})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, port.ProductIDs())
}

func TestPortfolioRevalue(t *testing.T) {
	s1, _ := NewStock("p1", "AAPL", 10)
	s2, _ := NewStock("p2", "MSFT", 5)
	port, err := New([]Product{s1, s2})
	require.NoError(t, err)

	sc := marketScenario(t, map[string]float64{"AAPL": 100, "MSFT": 200}, 0)
	v, err := port.Revalue(sc)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, v)
}

func TestPortfolioRevalueMissingTickerFails(t *testing.T) {
	s1, _ := NewStock("p1", "GOOG", 10)
	port, err := New([]Product{s1})
	require.NoError(t, err)

	sc := marketScenario(t, map[string]float64{"AAPL": 100}, 0)
	_, err = port.Revalue(sc)
	assert.Error(t, err)
}

func TestPortfolioPnL(t *testing.T) {
	s1, _ := NewStock("p1", "AAPL", 10)
	port, err := New([]Product{s1})
	require.NoError(t, err)

	base := marketScenario(t, map[string]float64{"AAPL": 100}, 0)
	shocked := marketScenario(t, map[string]float64{"AAPL": 95}, 0)

	pnl, err := port.PnL(shocked, base)
	require.NoError(t, err)
	assert.InDelta(t, -50, pnl, 1e-12)
}

func TestPortfolioSensitivitiesAggregate(t *testing.T) {
	s1, _ := NewStock("p1", "AAPL", 10)
	s2, _ := NewStock("p2", "AAPL", -4)
	port, err := New([]Product{s1, s2})
	require.NoError(t, err)

	sc := marketScenario(t, map[string]float64{"AAPL": 100}, 0)
	sens, err := port.Sensitivities(sc)
	require.NoError(t, err)

	// Dollar delta nets across positions on the same ticker.
	assert.InDelta(t, 600, sens["spot:AAPL"], 1e-12)
}

func TestAttributeScenarioGBA(t *testing.T) {
	s1, _ := NewStock("p1", "AAPL", 2)
	bond, err := NewBond("p2", "UST", 1000, 0.05, 10, 2)
	require.NoError(t, err)
	port, err := New([]Product{s1, bond})
	require.NoError(t, err)

	base := marketScenario(t, map[string]float64{"AAPL": 100}, 0.05)
	shocked := marketScenario(t, map[string]float64{"AAPL": 110}, 0.05)

	att, err := port.AttributeScenario(shocked, base, AttributionGBA)
	require.NoError(t, err)

	// Stock: dollar delta 200 times a 10 point move.
	pos := att.Positions["p1"]
	assert.InDelta(t, 2000, pos.Total, 1e-9)
	assert.InDelta(t, 2000, pos.Factors["spot:AAPL"], 1e-9)

	// Bond factor did not move, so its contribution is dropped.
	assert.Empty(t, att.Positions["p2"].Factors)
	assert.Zero(t, att.Positions["p2"].Total)

	assert.InDelta(t, 2000, att.PortfolioTotal, 1e-9)
	assert.InDelta(t, att.PortfolioFactors["spot:AAPL"], att.PortfolioTotal, 1e-9)
}

func TestAttributeScenarioRejectsUnknownMethod(t *testing.T) {
	s1, _ := NewStock("p1", "AAPL", 2)
	port, err := New([]Product{s1})
	require.NoError(t, err)

	base := marketScenario(t, map[string]float64{"AAPL": 100}, 0)
	_, err = port.AttributeScenario(base, base, "reval")
	assert.Error(t, err)
}

func TestPositionGreeks(t *testing.T) {
	s1, _ := NewStock("p1", "AAPL", 10)
	opt, err := NewOption("p2", "AAPL", 100, 1, Call, 3, nil)
	require.NoError(t, err)
	port, err := New([]Product{s1, opt})
	require.NoError(t, err)

	sc := marketScenario(t, map[string]float64{"AAPL": 100}, 0.05)
	positions, err := port.PositionGreeks(sc)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	assert.Equal(t, "p1", positions[0].ProductID)
	assert.InDelta(t, 1000, positions[0].Greeks.Delta, 1e-9)
	assert.Zero(t, positions[0].Greeks.Vega)

	assert.Equal(t, "equity_option", positions[1].ProductType)
	assert.Greater(t, positions[1].Greeks.Delta, 0.0)
	assert.Greater(t, positions[1].Greeks.Vega, 0.0)

	totals, err := port.PortfolioGreeks(sc)
	require.NoError(t, err)
	assert.InDelta(t, positions[0].Greeks.Delta+positions[1].Greeks.Delta, totals.Delta, 1e-9)
}

func TestFactorExposures(t *testing.T) {
	s1, _ := NewStock("p1", "AAPL", 10)
	bond, err := NewBond("p2", "UST", 1000, 0.05, 5, 2)
	require.NoError(t, err)
	port, err := New([]Product{s1, bond})
	require.NoError(t, err)

	sc := marketScenario(t, map[string]float64{"AAPL": 100}, 0.04)
	exposures, err := port.FactorExposures(sc)
	require.NoError(t, err)

	factors := make(map[string]float64, len(exposures))
	for _, e := range exposures {
		factors[e.Factor] = e.Exposure
	}
	assert.Contains(t, factors, "spot:AAPL")
	assert.Contains(t, factors, "rate:UST")
	assert.Less(t, factors["rate:UST"], 0.0)
}
