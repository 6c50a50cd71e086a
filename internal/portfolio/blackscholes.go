package portfolio

import (
	"math"

	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// OptionType discriminates European calls and puts.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// BlackScholes is the closed-form pricing model for European options.
// It is stateless: every input arrives per call so the same instance
// serves any number of revaluations concurrently.
type BlackScholes struct{}

// NewBlackScholes creates a Black-Scholes pricing model.
func NewBlackScholes() *BlackScholes {
	return &BlackScholes{}
}

// Price returns the option value per unit.
//
// Edge cases: maturity <= 0 collapses to intrinsic value; vol <= 0
// collapses to the discounted forward intrinsic value.
func (bs *BlackScholes) Price(spot, strike, maturity, vol, rate float64, optType OptionType) (float64, error) {
	if optType != Call && optType != Put {
		return 0, errors.Valuationf("unsupported option type %q", optType)
	}

	if maturity <= 0 {
		if optType == Call {
			return math.Max(spot-strike, 0), nil
		}
		return math.Max(strike-spot, 0), nil
	}

	if vol <= 0 {
		forward := spot * math.Exp(rate*maturity)
		discount := math.Exp(-rate * maturity)
		if optType == Call {
			return discount * math.Max(forward-strike, 0), nil
		}
		return discount * math.Max(strike-forward, 0), nil
	}

	sqrtT := math.Sqrt(maturity)
	d1 := (math.Log(spot/strike) + (rate+0.5*vol*vol)*maturity) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT

	if optType == Call {
		return spot*normCDF(d1) - strike*math.Exp(-rate*maturity)*normCDF(d2), nil
	}
	return strike*math.Exp(-rate*maturity)*normCDF(-d2) - spot*normCDF(-d1), nil
}

// Greeks returns the per-unit Black-Scholes Greeks. All Greeks are
// exactly zero when maturity <= 0 or vol <= 0.
func (bs *BlackScholes) Greeks(spot, strike, maturity, vol, rate float64, optType OptionType) (*Greeks, error) {
	if optType != Call && optType != Put {
		return nil, errors.Valuationf("unsupported option type %q", optType)
	}

	if maturity <= 0 || vol <= 0 {
		return &Greeks{}, nil
	}

	sqrtT := math.Sqrt(maturity)
	d1 := (math.Log(spot/strike) + (rate+0.5*vol*vol)*maturity) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT
	discount := math.Exp(-rate * maturity)

	g := &Greeks{
		Gamma: normPDF(d1) / (spot * vol * sqrtT),
		Vega:  spot * normPDF(d1) * sqrtT,
	}

	if optType == Call {
		g.Delta = normCDF(d1)
		g.Theta = -spot*normPDF(d1)*vol/(2*sqrtT) - rate*strike*discount*normCDF(d2)
		g.Rho = strike * maturity * discount * normCDF(d2)
	} else {
		g.Delta = normCDF(d1) - 1
		g.Theta = -spot*normPDF(d1)*vol/(2*sqrtT) + rate*strike*discount*normCDF(-d2)
		g.Rho = -strike * maturity * discount * normCDF(-d2)
	}

	return g, nil
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normPDF is the standard normal probability density function.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
