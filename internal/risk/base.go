package risk

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/rzzdr/var-engine/internal/marketdata"
	"github.com/rzzdr/var-engine/internal/scenario"
	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// diagonalVols extracts per-asset volatilities from a covariance
// matrix, scaling variances by factor first. Pass
// marketdata.TradingDaysPerYear to annualize a daily covariance, or 1
// when the matrix is already annualized.
func diagonalVols(assets []string, cov *mat.SymDense, factor float64) (map[string]float64, error) {
	if cov.SymmetricDim() != len(assets) {
		return nil, errors.Dataf("covariance dimension %d does not match %d assets", cov.SymmetricDim(), len(assets))
	}

	vols := make(map[string]float64, len(assets))
	for i, asset := range assets {
		variance := cov.At(i, i) * factor
		if variance < 0 {
			return nil, errors.Dataf("negative variance for asset %q", asset)
		}
		vols[asset] = math.Sqrt(variance)
	}
	return vols, nil
}

// BaseScenario builds the dt=0 pricing scenario for a market data
// bundle, with per-asset vols annualized from its daily covariance.
func BaseScenario(md *marketdata.MarketData) (*scenario.Scenario, error) {
	if err := md.Validate(); err != nil {
		return nil, err
	}
	vols, err := diagonalVols(md.Returns.Assets(), md.Cov, marketdata.TradingDaysPerYear)
	if err != nil {
		return nil, err
	}
	return baseScenario(md, vols)
}

// baseScenario builds the dt=0 valuation scenario every model prices
// the portfolio against before shocking it.
func baseScenario(md *marketdata.MarketData, vols map[string]float64) (*scenario.Scenario, error) {
	sc, err := scenario.New(md.Spot, vols, 0, 0)
	if err != nil {
		return nil, err
	}
	return sc.WithLabel("base"), nil
}
