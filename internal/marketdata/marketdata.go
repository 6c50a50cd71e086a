package marketdata

import (
	"gonum.org/v1/gonum/mat"

	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// TradingDaysPerYear is the annualization factor for daily returns.
const TradingDaysPerYear = 252

// MarketData is the standard input bundle consumed by the risk models:
// current spot levels, the historical log-return table, the sample (or
// supplied) covariance over the same asset universe, and the risk
// horizon in years.
type MarketData struct {
	Spot    map[string]float64
	Returns *ReturnSeries
	Cov     *mat.SymDense
	Horizon float64
}

// FromPrices derives the bundle from a price history: latest prices as
// spot, log returns, and their sample covariance.
func FromPrices(prices *PriceSeries, horizon float64) (*MarketData, error) {
	if horizon <= 0 {
		return nil, errors.Configf("horizon must be positive, got %g", horizon)
	}

	spot, err := prices.Latest()
	if err != nil {
		return nil, err
	}

	returns, err := prices.LogReturns()
	if err != nil {
		return nil, err
	}

	cov, err := returns.Covariance()
	if err != nil {
		return nil, err
	}

	return &MarketData{
		Spot:    spot,
		Returns: returns,
		Cov:     cov,
		Horizon: horizon,
	}, nil
}

// Validate checks internal consistency: every returns column needs a
// spot level and the covariance must match the asset universe.
func (m *MarketData) Validate() error {
	if m.Returns == nil || m.Returns.Len() == 0 {
		return errors.Data("market data has empty returns")
	}
	if m.Horizon <= 0 {
		return errors.Configf("horizon must be positive, got %g", m.Horizon)
	}

	assets := m.Returns.Assets()
	for _, asset := range assets {
		if _, ok := m.Spot[asset]; !ok {
			return errors.Dataf("spot level missing for asset %q", asset)
		}
	}

	if m.Cov == nil || m.Cov.SymmetricDim() != len(assets) {
		return errors.Dataf("covariance matrix does not match asset universe of size %d", len(assets))
	}
	for i := range assets {
		if m.Cov.At(i, i) < 0 {
			return errors.Dataf("covariance diagonal must be non-negative for asset %q", assets[i])
		}
	}

	return nil
}
