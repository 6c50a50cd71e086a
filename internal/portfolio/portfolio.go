package portfolio

import (
	"strings"

	"github.com/rzzdr/var-engine/internal/scenario"
	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// AttributionGBA is the only supported attribution method:
// Greeks-Based Attribution, a first-order approximation that multiplies
// base-scenario sensitivities by factor moves. It never replaces full
// revaluation for the VaR number itself.
const AttributionGBA = "GBA"

// PositionAttribution is the per-position slice of a scenario
// attribution.
type PositionAttribution struct {
	Factors map[string]float64 `json:"factors"`
	Total   float64            `json:"total"`
}

// Attribution decomposes an approximate scenario PnL into per-position
// and per-factor contributions.
type Attribution struct {
	Positions        map[string]PositionAttribution `json:"positions"`
	PortfolioFactors map[string]float64             `json:"portfolio_factors"`
	PortfolioTotal   float64                        `json:"portfolio_total"`
}

// PositionGreeks pairs a product with its dollar Greeks.
type PositionGreeks struct {
	ProductID   string `json:"product_id"`
	ProductType string `json:"product_type"`
	Greeks      Greeks `json:"greeks"`
}

// FactorExposure is a single aggregated factor sensitivity.
type FactorExposure struct {
	Factor   string  `json:"factor"`
	Exposure float64 `json:"exposure"`
}

// Portfolio owns an ordered, non-empty list of products. Product order
// is the contract used by downstream factor alignment and is preserved
// across the pipeline.
type Portfolio struct {
	products []Product
}

// New creates a portfolio. Construction fails on an empty product list
// or on duplicate product ids, which would silently merge positions in
// attribution aggregates.
func New(products []Product) (*Portfolio, error) {
	if len(products) == 0 {
		return nil, errors.InvalidArgument("portfolio must contain at least one product")
	}

	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ProductID()]; dup {
			return nil, errors.InvalidArgumentf("duplicate product id %q in portfolio", p.ProductID())
		}
		seen[p.ProductID()] = struct{}{}
	}

	return &Portfolio{products: append([]Product(nil), products...)}, nil
}

// FromSpecs builds a portfolio from raw product specifications.
func FromSpecs(specs []ProductSpec) (*Portfolio, error) {
	if len(specs) == 0 {
		return nil, errors.InvalidArgument("portfolio must contain at least one product")
	}

	products := make([]Product, 0, len(specs))
	for _, spec := range specs {
		p, err := ProductFromSpec(spec)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return New(products)
}

// Products returns the ordered product list.
func (p *Portfolio) Products() []Product {
	return append([]Product(nil), p.products...)
}

// ProductIDs returns the ordered product ids. This ordering is the
// contract used by risk models.
func (p *Portfolio) ProductIDs() []string {
	ids := make([]string, len(p.products))
	for i, prod := range p.products {
		ids[i] = prod.ProductID()
	}
	return ids
}

// Revalue fully revalues the portfolio under a scenario.
func (p *Portfolio) Revalue(sc *scenario.Scenario) (float64, error) {
	var total float64
	for _, prod := range p.products {
		v, err := prod.Revalue(sc)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// PnL returns the scenario profit or loss relative to the base
// scenario.
func (p *Portfolio) PnL(sc, base *scenario.Scenario) (float64, error) {
	v, err := p.Revalue(sc)
	if err != nil {
		return 0, err
	}
	baseValue, err := p.Revalue(base)
	if err != nil {
		return 0, err
	}
	return v - baseValue, nil
}

// Sensitivities sums per-product dollar exposures keyed by factor id.
func (p *Portfolio) Sensitivities(sc *scenario.Scenario) (map[string]float64, error) {
	total := make(map[string]float64)
	for _, prod := range p.products {
		sens, err := prod.Sensitivities(sc)
		if err != nil {
			return nil, err
		}
		for factor, value := range sens {
			total[factor] += value
		}
	}
	return total, nil
}

// AttributeScenario decomposes the scenario-vs-base PnL with GBA: each
// product's base-scenario sensitivity per factor is multiplied by the
// factor's move and aggregated to position and portfolio level.
func (p *Portfolio) AttributeScenario(sc, base *scenario.Scenario, method string) (*Attribution, error) {
	if method != AttributionGBA {
		return nil, errors.InvalidArgumentf("unsupported attribution method %q", method)
	}

	moves := factorMoves(sc, base)

	attribution := &Attribution{
		Positions:        make(map[string]PositionAttribution, len(p.products)),
		PortfolioFactors: make(map[string]float64),
	}

	for _, prod := range p.products {
		sens, err := prod.Sensitivities(base)
		if err != nil {
			return nil, err
		}

		factorPnLs := make(map[string]float64)
		var total float64
		for factor, sensitivity := range sens {
			pnl := sensitivity * moves[factor]
			if pnl == 0 {
				continue
			}
			factorPnLs[factor] = pnl
			total += pnl
			attribution.PortfolioFactors[factor] += pnl
		}

		attribution.Positions[prod.ProductID()] = PositionAttribution{
			Factors: factorPnLs,
			Total:   total,
		}
	}

	for _, pnl := range attribution.PortfolioFactors {
		attribution.PortfolioTotal += pnl
	}

	return attribution, nil
}

// factorMoves converts scenario vs base into factor moves keyed the
// same way sensitivities are.
func factorMoves(sc, base *scenario.Scenario) map[string]float64 {
	moves := make(map[string]float64)

	baseSpot := base.SpotMap()
	for asset, s := range sc.SpotMap() {
		if b, ok := baseSpot[asset]; ok {
			moves[FactorSpotPrefix+asset] = s - b
		}
	}

	baseVol := base.VolMap()
	for asset, v := range sc.VolMap() {
		if b, ok := baseVol[asset]; ok {
			moves[FactorVolPrefix+asset] = v - b
		}
	}

	moves[FactorRate] = sc.Rate() - base.Rate()

	return moves
}

// PositionGreeks returns per-position dollar Greeks, falling back to
// sensitivity-derived delta and rho for products without full Greeks.
func (p *Portfolio) PositionGreeks(sc *scenario.Scenario) ([]PositionGreeks, error) {
	positions := make([]PositionGreeks, 0, len(p.products))

	for _, prod := range p.products {
		var g *Greeks
		if provider, ok := prod.(GreeksProvider); ok {
			full, err := provider.DollarGreeks(sc)
			if err != nil {
				return nil, err
			}
			g = full
		} else {
			approx, err := approximateGreeks(prod, sc)
			if err != nil {
				return nil, err
			}
			g = approx
		}

		positions = append(positions, PositionGreeks{
			ProductID:   prod.ProductID(),
			ProductType: prod.Type(),
			Greeks:      *g,
		})
	}

	return positions, nil
}

// approximateGreeks derives delta and rho from the sensitivity map.
func approximateGreeks(prod Product, sc *scenario.Scenario) (*Greeks, error) {
	sens, err := prod.Sensitivities(sc)
	if err != nil {
		return nil, err
	}

	g := &Greeks{}
	for factor, value := range sens {
		switch {
		case strings.HasPrefix(factor, FactorSpotPrefix):
			g.Delta += value
		case factor == FactorRate || strings.HasPrefix(factor, FactorRatePrefix):
			g.Rho += value
		}
	}
	return g, nil
}

// PortfolioGreeks aggregates dollar Greeks across all positions.
func (p *Portfolio) PortfolioGreeks(sc *scenario.Scenario) (*Greeks, error) {
	positions, err := p.PositionGreeks(sc)
	if err != nil {
		return nil, err
	}

	totals := &Greeks{}
	for i := range positions {
		totals.Add(&positions[i].Greeks)
	}
	return totals, nil
}

// FactorExposures aggregates factor sensitivities across products.
func (p *Portfolio) FactorExposures(sc *scenario.Scenario) ([]FactorExposure, error) {
	totals, err := p.Sensitivities(sc)
	if err != nil {
		return nil, err
	}

	exposures := make([]FactorExposure, 0, len(totals))
	for factor, value := range totals {
		exposures = append(exposures, FactorExposure{Factor: factor, Exposure: value})
	}
	return exposures, nil
}
