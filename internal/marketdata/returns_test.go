package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tradingDates(n int) []time.Time {
	dates := make([]time.Time, n)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func TestNewReturnSeriesValidation(t *testing.T) {
	_, err := NewReturnSeries(tradingDates(2), nil, [][]float64{{}, {}})
	assert.Error(t, err)

	_, err = NewReturnSeries(tradingDates(2), []string{"AAPL"}, [][]float64{{0.01}})
	assert.Error(t, err)

	_, err = NewReturnSeries(tradingDates(2), []string{"AAPL", "MSFT"}, [][]float64{{0.01}, {0.02}})
	assert.Error(t, err)

	rs, err := NewReturnSeries(tradingDates(2), []string{"AAPL"}, [][]float64{{0.01}, {-0.02}})
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Len())
}

func TestTailWindow(t *testing.T) {
	data := make([][]float64, 10)
	for i := range data {
		data[i] = []float64{float64(i)}
	}
	rs, err := NewReturnSeries(tradingDates(10), []string{"AAPL"}, data)
	require.NoError(t, err)

	tail, err := rs.Tail(3)
	require.NoError(t, err)
	require.Equal(t, 3, tail.Len())
	assert.Equal(t, map[string]float64{"AAPL": 7}, tail.Row(0))
	assert.Equal(t, map[string]float64{"AAPL": 9}, tail.Row(2))

	// Never padded: asking for more rows than exist is a hard failure.
	_, err = rs.Tail(11)
	assert.Error(t, err)
	_, err = rs.Tail(0)
	assert.Error(t, err)
}

func TestSelectColumns(t *testing.T) {
	rs, err := NewReturnSeries(tradingDates(2), []string{"AAPL", "MSFT"}, [][]float64{{0.01, 0.02}, {-0.01, 0.03}})
	require.NoError(t, err)

	sub, err := rs.Select([]string{"MSFT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT"}, sub.Assets())
	assert.Equal(t, map[string]float64{"MSFT": 0.02}, sub.Row(0))

	_, err = rs.Select([]string{"GOOG"})
	assert.Error(t, err)
}

func TestCovariance(t *testing.T) {
	// Perfectly anti-correlated columns.
	rs, err := NewReturnSeries(tradingDates(4), []string{"A", "B"}, [][]float64{
		{0.01, -0.01},
		{-0.01, 0.01},
		{0.02, -0.02},
		{-0.02, 0.02},
	})
	require.NoError(t, err)

	cov, err := rs.Covariance()
	require.NoError(t, err)

	assert.InDelta(t, cov.At(0, 0), cov.At(1, 1), 1e-15)
	assert.InDelta(t, -cov.At(0, 0), cov.At(0, 1), 1e-15)
	assert.Greater(t, cov.At(0, 0), 0.0)

	scaled := ScaleCovariance(cov, 252)
	assert.InDelta(t, cov.At(0, 0)*252, scaled.At(0, 0), 1e-15)

	short, err := NewReturnSeries(tradingDates(1), []string{"A"}, [][]float64{{0.01}})
	require.NoError(t, err)
	_, err = short.Covariance()
	assert.Error(t, err)
}

func TestFilterRange(t *testing.T) {
	rs, err := NewReturnSeries(tradingDates(5), []string{"A"}, [][]float64{{1}, {2}, {3}, {4}, {5}})
	require.NoError(t, err)

	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	sub := rs.FilterRange(start, end)

	require.Equal(t, 3, sub.Len())
	assert.Equal(t, map[string]float64{"A": 2}, sub.Row(0))
}

func TestMean(t *testing.T) {
	rs, err := NewReturnSeries(tradingDates(3), []string{"A", "B"}, [][]float64{
		{0.01, 0.1},
		{0.02, 0.2},
		{0.03, 0.3},
	})
	require.NoError(t, err)

	means := rs.Mean()
	require.Len(t, means, 2)
	assert.InDelta(t, 0.02, means[0], 1e-15)
	assert.InDelta(t, 0.2, means[1], 1e-15)
}
