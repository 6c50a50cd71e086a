package portfolio

import "sort"

// RateCurve supplies a discount rate per maturity. Only flat and
// piecewise-linear curves exist; real curve building is out of scope.
type RateCurve interface {
	Rate(maturity float64) float64
}

// FlatRateCurve returns the same rate for every maturity.
type FlatRateCurve struct {
	rate float64
}

// NewFlatRateCurve creates a flat rate curve.
func NewFlatRateCurve(rate float64) *FlatRateCurve {
	return &FlatRateCurve{rate: rate}
}

// Rate returns the flat rate.
func (c *FlatRateCurve) Rate(float64) float64 { return c.rate }

// PiecewiseRateCurve interpolates linearly between tenor points and
// clamps outside the tenor range.
type PiecewiseRateCurve struct {
	tenors []float64
	rates  []float64
}

// NewPiecewiseRateCurve creates a piecewise-linear curve. Tenor points
// are sorted on construction.
func NewPiecewiseRateCurve(tenors, rates []float64) *PiecewiseRateCurve {
	type point struct{ tenor, rate float64 }
	points := make([]point, len(tenors))
	for i := range tenors {
		points[i] = point{tenors[i], rates[i]}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].tenor < points[j].tenor })

	c := &PiecewiseRateCurve{
		tenors: make([]float64, len(points)),
		rates:  make([]float64, len(points)),
	}
	for i, p := range points {
		c.tenors[i] = p.tenor
		c.rates[i] = p.rate
	}
	return c
}

// Rate interpolates the rate at the given maturity.
func (c *PiecewiseRateCurve) Rate(maturity float64) float64 {
	n := len(c.tenors)
	if n == 0 {
		return 0
	}
	if maturity <= c.tenors[0] {
		return c.rates[0]
	}
	if maturity >= c.tenors[n-1] {
		return c.rates[n-1]
	}

	i := sort.SearchFloat64s(c.tenors, maturity)
	if c.tenors[i] == maturity {
		return c.rates[i]
	}
	t0, t1 := c.tenors[i-1], c.tenors[i]
	r0, r1 := c.rates[i-1], c.rates[i]
	return r0 + (r1-r0)*(maturity-t0)/(t1-t0)
}
