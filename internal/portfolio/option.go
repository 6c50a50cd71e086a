package portfolio

import (
	"math"

	"github.com/rzzdr/var-engine/internal/scenario"
	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// Option is a European equity option priced with Black-Scholes. The
// effective maturity of every valuation is the contractual maturity
// reduced by the scenario time offset, floored at zero.
type Option struct {
	productID  string
	underlying string
	strike     float64
	maturity   float64
	optType    OptionType
	quantity   float64
	model      *BlackScholes
}

// NewOption creates a European option position.
func NewOption(productID, underlying string, strike, maturity float64, optType OptionType, quantity float64, model *BlackScholes) (*Option, error) {
	if productID == "" {
		return nil, errors.InvalidArgument("option requires a product_id")
	}
	if underlying == "" {
		return nil, errors.InvalidArgumentf("option %q requires an underlying ticker", productID)
	}
	if strike <= 0 {
		return nil, errors.InvalidArgumentf("option %q requires a positive strike, got %g", productID, strike)
	}
	if optType != Call && optType != Put {
		return nil, errors.InvalidArgumentf("option %q has unsupported option type %q", productID, optType)
	}
	if model == nil {
		model = NewBlackScholes()
	}

	return &Option{
		productID:  productID,
		underlying: underlying,
		strike:     strike,
		maturity:   maturity,
		optType:    optType,
		quantity:   quantity,
		model:      model,
	}, nil
}

// ProductID returns the caller-supplied identifier.
func (o *Option) ProductID() string { return o.productID }

// Type returns the product type discriminator.
func (o *Option) Type() string { return "equity_option" }

// Underlying returns the underlying equity ticker.
func (o *Option) Underlying() string { return o.underlying }

// marketInputs pulls spot and vol for the underlying out of the
// scenario, failing hard when either is absent.
func (o *Option) marketInputs(sc *scenario.Scenario) (spot, vol, maturity float64, err error) {
	s, ok := sc.Spot(o.underlying)
	if !ok {
		return 0, 0, 0, errors.Dataf("scenario %s has no spot level for underlying %q (product %q)", sc.ID(), o.underlying, o.productID)
	}
	v, ok := sc.Vol(o.underlying)
	if !ok {
		return 0, 0, 0, errors.Dataf("scenario %s has no vol level for underlying %q (product %q)", sc.ID(), o.underlying, o.productID)
	}
	return s, v, math.Max(o.maturity-sc.DT(), 0), nil
}

// Revalue prices the position under the scenario.
func (o *Option) Revalue(sc *scenario.Scenario) (float64, error) {
	spot, vol, maturity, err := o.marketInputs(sc)
	if err != nil {
		return 0, err
	}

	price, err := o.model.Price(spot, o.strike, maturity, vol, sc.Rate(), o.optType)
	if err != nil {
		return 0, err
	}
	return price * o.quantity, nil
}

// Sensitivities reports dollar exposures: spot:{u} = delta*S*qty,
// vol:{u} = vega*qty, rate = rho*qty.
func (o *Option) Sensitivities(sc *scenario.Scenario) (map[string]float64, error) {
	spot, vol, maturity, err := o.marketInputs(sc)
	if err != nil {
		return nil, err
	}

	g, err := o.model.Greeks(spot, o.strike, maturity, vol, sc.Rate(), o.optType)
	if err != nil {
		return nil, err
	}

	return map[string]float64{
		FactorSpotPrefix + o.underlying: g.Delta * spot * o.quantity,
		FactorVolPrefix + o.underlying:  g.Vega * o.quantity,
		FactorRate:                      g.Rho * o.quantity,
	}, nil
}

// DollarGreeks scales the per-unit Greeks into dollar terms.
func (o *Option) DollarGreeks(sc *scenario.Scenario) (*Greeks, error) {
	spot, vol, maturity, err := o.marketInputs(sc)
	if err != nil {
		return nil, err
	}

	g, err := o.model.Greeks(spot, o.strike, maturity, vol, sc.Rate(), o.optType)
	if err != nil {
		return nil, err
	}

	return &Greeks{
		Delta: g.Delta * spot * o.quantity,
		Gamma: g.Gamma * spot * spot * o.quantity,
		Vega:  g.Vega * o.quantity,
		Theta: g.Theta * o.quantity,
		Rho:   g.Rho * o.quantity,
	}, nil
}
