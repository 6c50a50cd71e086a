package portfolio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlackScholesKnownValue(t *testing.T) {
	bs := NewBlackScholes()

	// S=100 K=100 T=1 vol=20% r=5%: standard textbook inputs.
	call, err := bs.Price(100, 100, 1, 0.2, 0.05, Call)
	require.NoError(t, err)
	assert.InDelta(t, 10.4506, call, 1e-3)

	put, err := bs.Price(100, 100, 1, 0.2, 0.05, Put)
	require.NoError(t, err)
	assert.InDelta(t, 5.5735, put, 1e-3)
}

func TestBlackScholesPutCallParity(t *testing.T) {
	bs := NewBlackScholes()

	cases := []struct {
		spot, strike, maturity, vol, rate float64
	}{
		{100, 100, 1, 0.2, 0.05},
		{120, 100, 0.5, 0.35, 0.02},
		{80, 100, 2, 0.15, 0.0},
		{100, 90, 0.25, 0.6, 0.1},
	}

	for _, c := range cases {
		call, err := bs.Price(c.spot, c.strike, c.maturity, c.vol, c.rate, Call)
		require.NoError(t, err)
		put, err := bs.Price(c.spot, c.strike, c.maturity, c.vol, c.rate, Put)
		require.NoError(t, err)

		parity := c.spot - c.strike*math.Exp(-c.rate*c.maturity)
		assert.InDelta(t, parity, call-put, 1e-9)
	}
}

func TestBlackScholesExpiredIsIntrinsic(t *testing.T) {
	bs := NewBlackScholes()

	call, err := bs.Price(110, 100, 0, 0.2, 0.05, Call)
	require.NoError(t, err)
	assert.Equal(t, 10.0, call)

	put, err := bs.Price(110, 100, -0.1, 0.2, 0.05, Put)
	require.NoError(t, err)
	assert.Equal(t, 0.0, put)
}

func TestBlackScholesZeroVolIsDiscountedForwardIntrinsic(t *testing.T) {
	bs := NewBlackScholes()

	spot, strike, maturity, rate := 100.0, 95.0, 1.0, 0.05
	call, err := bs.Price(spot, strike, maturity, 0, rate, Call)
	require.NoError(t, err)

	forward := spot * math.Exp(rate*maturity)
	want := math.Exp(-rate*maturity) * (forward - strike)
	assert.InDelta(t, want, call, 1e-12)

	// Deep out of the money with no vol: worthless.
	put, err := bs.Price(spot, strike, maturity, 0, rate, Put)
	require.NoError(t, err)
	assert.Equal(t, 0.0, put)
}

func TestBlackScholesPriceConvergesToIntrinsic(t *testing.T) {
	bs := NewBlackScholes()

	ref, err := bs.Price(120, 100, 0, 0.2, 0.05, Call)
	require.NoError(t, err)

	short, err := bs.Price(120, 100, 1e-9, 0.2, 0.05, Call)
	require.NoError(t, err)
	assert.InDelta(t, ref, short, 1e-4)
}

func TestBlackScholesGreeks(t *testing.T) {
	bs := NewBlackScholes()

	call, err := bs.Greeks(100, 100, 1, 0.2, 0.05, Call)
	require.NoError(t, err)
	put, err := bs.Greeks(100, 100, 1, 0.2, 0.05, Put)
	require.NoError(t, err)

	assert.Greater(t, call.Delta, 0.0)
	assert.Less(t, call.Delta, 1.0)
	assert.Less(t, put.Delta, 0.0)
	assert.InDelta(t, 1.0, call.Delta-put.Delta, 1e-12)

	// Gamma and vega are shared between calls and puts.
	assert.InDelta(t, call.Gamma, put.Gamma, 1e-12)
	assert.InDelta(t, call.Vega, put.Vega, 1e-12)
	assert.Greater(t, call.Gamma, 0.0)
	assert.Greater(t, call.Vega, 0.0)

	assert.Greater(t, call.Rho, 0.0)
	assert.Less(t, put.Rho, 0.0)
}

func TestBlackScholesGreeksDegenerateAreZero(t *testing.T) {
	bs := NewBlackScholes()

	for _, c := range []struct{ maturity, vol float64 }{{0, 0.2}, {-1, 0.2}, {1, 0}, {1, -0.5}} {
		g, err := bs.Greeks(100, 100, c.maturity, c.vol, 0.05, Call)
		require.NoError(t, err)
		assert.Equal(t, Greeks{}, *g)
	}
}

func TestBlackScholesDeltaMatchesFiniteDifference(t *testing.T) {
	bs := NewBlackScholes()

	h := 1e-4
	up, err := bs.Price(100+h, 100, 1, 0.2, 0.05, Call)
	require.NoError(t, err)
	down, err := bs.Price(100-h, 100, 1, 0.2, 0.05, Call)
	require.NoError(t, err)

	g, err := bs.Greeks(100, 100, 1, 0.2, 0.05, Call)
	require.NoError(t, err)
	assert.InDelta(t, (up-down)/(2*h), g.Delta, 1e-6)
}

func TestBlackScholesRejectsUnknownType(t *testing.T) {
	bs := NewBlackScholes()

	_, err := bs.Price(100, 100, 1, 0.2, 0.05, OptionType("straddle"))
	assert.Error(t, err)
	_, err = bs.Greeks(100, 100, 1, 0.2, 0.05, OptionType(""))
	assert.Error(t, err)
}
