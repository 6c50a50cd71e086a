package portfolio

import (
	"math"

	"github.com/rzzdr/var-engine/internal/scenario"
	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// basisPoint is the rate bump used for DV01 finite differences.
const basisPoint = 0.0001

// Bond is a fixed-coupon bond discounted at a flat issuer rate taken
// from the scenario.
type Bond struct {
	productID string
	issuer    string
	notional  float64
	coupon    float64
	maturity  float64
	frequency int
}

// NewBond creates a fixed-coupon bond position.
func NewBond(productID, issuer string, notional, coupon, maturity float64, frequency int) (*Bond, error) {
	if productID == "" {
		return nil, errors.InvalidArgument("bond requires a product_id")
	}
	if issuer == "" {
		return nil, errors.InvalidArgumentf("bond %q requires an issuer", productID)
	}
	if maturity <= 0 {
		return nil, errors.InvalidArgumentf("bond %q requires a positive maturity, got %g", productID, maturity)
	}
	if frequency <= 0 {
		return nil, errors.InvalidArgumentf("bond %q requires a positive coupon frequency, got %d", productID, frequency)
	}

	return &Bond{
		productID: productID,
		issuer:    issuer,
		notional:  notional,
		coupon:    coupon,
		maturity:  maturity,
		frequency: frequency,
	}, nil
}

// ProductID returns the caller-supplied identifier.
func (b *Bond) ProductID() string { return b.productID }

// Type returns the product type discriminator.
func (b *Bond) Type() string { return "bond" }

// Issuer returns the issuer whose flat rate discounts the cashflows.
func (b *Bond) Issuer() string { return b.issuer }

// presentValue prices the bond as the annuity PV of coupons plus the
// discounted principal. A zero period rate degenerates to undiscounted
// cashflows.
func (b *Bond) presentValue(discountRate float64) float64 {
	nPayments := int(math.Floor(b.maturity * float64(b.frequency)))
	couponPayment := b.notional * b.coupon / float64(b.frequency)
	periodRate := discountRate / float64(b.frequency)

	if periodRate == 0 {
		return couponPayment*float64(nPayments) + b.notional
	}

	pvCoupons := couponPayment * (1 - math.Pow(1+periodRate, -float64(nPayments))) / periodRate
	pvPrincipal := b.notional / math.Pow(1+periodRate, float64(nPayments))
	return pvCoupons + pvPrincipal
}

// Revalue prices the bond at the scenario's flat rate.
func (b *Bond) Revalue(sc *scenario.Scenario) (float64, error) {
	return b.presentValue(sc.Rate()), nil
}

// DV01 returns the dollar price change for a +1bp parallel shift in
// the discount rate (forward finite difference).
func (b *Bond) DV01(sc *scenario.Scenario) float64 {
	rate := sc.Rate()
	return b.presentValue(rate+basisPoint) - b.presentValue(rate)
}

// Sensitivities reports the issuer rate exposure scaled to a
// per-unit-rate sensitivity.
func (b *Bond) Sensitivities(sc *scenario.Scenario) (map[string]float64, error) {
	return map[string]float64{
		FactorRatePrefix + b.issuer: b.DV01(sc) / basisPoint,
	}, nil
}

// DollarGreeks approximates the bond risk profile: only rho is
// non-zero, reported per unit rate change.
func (b *Bond) DollarGreeks(sc *scenario.Scenario) (*Greeks, error) {
	return &Greeks{Rho: b.DV01(sc) / basisPoint}, nil
}

// cashflows returns the payment schedule: times in years and amounts,
// with the principal folded into the final payment.
func (b *Bond) cashflows() (times []float64, amounts []float64) {
	nPayments := int(math.Floor(b.maturity * float64(b.frequency)))
	couponPayment := b.notional * b.coupon / float64(b.frequency)

	times = make([]float64, nPayments)
	amounts = make([]float64, nPayments)
	for i := 1; i <= nPayments; i++ {
		times[i-1] = float64(i) / float64(b.frequency)
		amounts[i-1] = couponPayment
	}
	if nPayments > 0 {
		amounts[nPayments-1] += b.notional
	}
	return times, amounts
}

// curvePV prices the cashflows with continuous discounting off a rate
// curve, optionally bumping the rate at a single cashflow time.
func (b *Bond) curvePV(curve RateCurve, bumpTime float64, bump float64) float64 {
	times, amounts := b.cashflows()

	var pv float64
	for i, t := range times {
		rate := curve.Rate(t)
		if bump != 0 && t == bumpTime {
			rate += bump
		}
		pv += amounts[i] * math.Exp(-rate*t)
	}
	return pv
}

// BucketedDV01 bumps the discount rate by +1bp only at the cashflow
// time nearest each requested tenor bucket, holding the rest of the
// curve at base, and reports the price change per bucket.
func (b *Bond) BucketedDV01(curve RateCurve, buckets []float64) (map[float64]float64, error) {
	if curve == nil {
		return nil, errors.InvalidArgumentf("bond %q bucketed DV01 requires a rate curve", b.productID)
	}
	times, _ := b.cashflows()
	if len(times) == 0 {
		return nil, errors.Valuationf("bond %q has no cashflows before maturity", b.productID)
	}

	base := b.curvePV(curve, 0, 0)

	result := make(map[float64]float64, len(buckets))
	for _, bucket := range buckets {
		nearest := times[0]
		for _, t := range times[1:] {
			if math.Abs(t-bucket) < math.Abs(nearest-bucket) {
				nearest = t
			}
		}
		result[bucket] = b.curvePV(curve, nearest, basisPoint) - base
	}
	return result, nil
}
