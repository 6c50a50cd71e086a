package portfolio

import (
	"github.com/rzzdr/var-engine/internal/scenario"
	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// Factor id prefixes. Sensitivities are keyed by namespaced factor ids,
// e.g. "spot:AAPL", "vol:AAPL", "rate".
const (
	FactorSpotPrefix = "spot:"
	FactorVolPrefix  = "vol:"
	FactorRatePrefix = "rate:"
	FactorRate       = "rate"
)

// Greeks holds dollar Greeks for a position.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// Add accumulates another set of Greeks into the receiver.
func (g *Greeks) Add(other *Greeks) {
	if other == nil {
		return
	}
	g.Delta += other.Delta
	g.Gamma += other.Gamma
	g.Vega += other.Vega
	g.Theta += other.Theta
	g.Rho += other.Rho
}

// Product is the revaluation contract shared by every instrument. The
// instrument set is closed over the domain: Stock, Option and Bond.
// Missing scenario data for a product's factor is always a hard
// failure, signalling an inconsistent scenario/portfolio pairing.
type Product interface {
	// ProductID returns the caller-supplied identifier.
	ProductID() string

	// Type returns the product type discriminator ("stock",
	// "equity_option" or "bond").
	Type() string

	// Revalue returns the monetary value under the scenario.
	Revalue(s *scenario.Scenario) (float64, error)

	// Sensitivities returns dollar exposures keyed by factor id.
	Sensitivities(s *scenario.Scenario) (map[string]float64, error)
}

// GreeksProvider is the optional capability for products that expose
// full dollar Greeks. Aggregations fall back to sensitivity-derived
// approximations for products without it.
type GreeksProvider interface {
	DollarGreeks(s *scenario.Scenario) (*Greeks, error)
}

// Stock is a linear equity position.
type Stock struct {
	productID string
	ticker    string
	quantity  float64
}

// NewStock creates a stock position.
func NewStock(productID, ticker string, quantity float64) (*Stock, error) {
	if productID == "" {
		return nil, errors.InvalidArgument("stock requires a product_id")
	}
	if ticker == "" {
		return nil, errors.InvalidArgumentf("stock %q requires a ticker", productID)
	}
	return &Stock{productID: productID, ticker: ticker, quantity: quantity}, nil
}

// ProductID returns the caller-supplied identifier.
func (s *Stock) ProductID() string { return s.productID }

// Type returns the product type discriminator.
func (s *Stock) Type() string { return "stock" }

// Ticker returns the underlying equity ticker.
func (s *Stock) Ticker() string { return s.ticker }

// Quantity returns the position size in shares.
func (s *Stock) Quantity() float64 { return s.quantity }

// Revalue returns quantity times the scenario spot level.
func (s *Stock) Revalue(sc *scenario.Scenario) (float64, error) {
	spot, ok := sc.Spot(s.ticker)
	if !ok {
		return 0, errors.Dataf("scenario %s has no spot level for ticker %q (product %q)", sc.ID(), s.ticker, s.productID)
	}
	return s.quantity * spot, nil
}

// Sensitivities reports the dollar delta against the spot factor.
func (s *Stock) Sensitivities(sc *scenario.Scenario) (map[string]float64, error) {
	spot, ok := sc.Spot(s.ticker)
	if !ok {
		return nil, errors.Dataf("scenario %s has no spot level for ticker %q (product %q)", sc.ID(), s.ticker, s.productID)
	}
	return map[string]float64{
		FactorSpotPrefix + s.ticker: s.quantity * spot,
	}, nil
}

// DollarGreeks reports the dollar delta; all other Greeks are zero for
// a linear position.
func (s *Stock) DollarGreeks(sc *scenario.Scenario) (*Greeks, error) {
	spot, ok := sc.Spot(s.ticker)
	if !ok {
		return nil, errors.Dataf("scenario %s has no spot level for ticker %q (product %q)", sc.ID(), s.ticker, s.productID)
	}
	return &Greeks{Delta: s.quantity * spot}, nil
}
