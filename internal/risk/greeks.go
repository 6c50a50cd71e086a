package risk

import (
	"time"

	"github.com/rzzdr/var-engine/internal/portfolio"
	"github.com/rzzdr/var-engine/internal/scenario"
	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

// GreeksReport aggregates dollar Greeks and factor exposures for a
// portfolio priced against a single scenario.
type GreeksReport struct {
	Portfolio       portfolio.Greeks           `json:"portfolio"`
	Positions       []portfolio.PositionGreeks `json:"positions"`
	FactorExposures []portfolio.FactorExposure `json:"factor_exposures"`
	GeneratedAt     time.Time                  `json:"generated_at"`
}

// GreeksService builds Greeks reports.
type GreeksService struct {
	log *logger.Logger
}

// NewGreeksService creates a Greeks report service.
func NewGreeksService() *GreeksService {
	return &GreeksService{log: logger.GetLogger("risk.greeks")}
}

// Report prices the portfolio against the scenario and collects
// per-position dollar Greeks, their portfolio totals and the
// first-order factor exposures.
func (s *GreeksService) Report(port *portfolio.Portfolio, sc *scenario.Scenario) (*GreeksReport, error) {
	positions, err := port.PositionGreeks(sc)
	if err != nil {
		return nil, err
	}

	total := portfolio.Greeks{}
	for _, pos := range positions {
		total.Add(&pos.Greeks)
	}

	exposures, err := port.FactorExposures(sc)
	if err != nil {
		return nil, err
	}

	s.log.Debugw("greeks report built", "positions", len(positions), "factors", len(exposures))
	return &GreeksReport{
		Portfolio:       total,
		Positions:       positions,
		FactorExposures: exposures,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}
