package scenario

import (
	"github.com/google/uuid"

	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// Scenario is an immutable market-state snapshot consumed by every
// valuation call. Spot and vol hold absolute market levels at the
// scenario horizon; DT is the time offset from the valuation date
// in years.
type Scenario struct {
	spot     map[string]float64
	vol      map[string]float64
	rate     float64
	dt       float64
	id       string
	label    string
	metadata map[string]interface{}
}

// New constructs a validated Scenario with a generated ID.
func New(spot map[string]float64, vol map[string]float64, rate float64, dt float64) (*Scenario, error) {
	return NewWithID(uuid.NewString(), spot, vol, rate, dt)
}

// NewWithID constructs a validated Scenario carrying the given ID.
func NewWithID(id string, spot map[string]float64, vol map[string]float64, rate float64, dt float64) (*Scenario, error) {
	if len(spot) == 0 {
		return nil, errors.Data("scenario spot map cannot be empty")
	}
	if len(vol) == 0 {
		return nil, errors.Data("scenario vol map cannot be empty")
	}
	if dt < 0 {
		return nil, errors.Dataf("scenario dt must be non-negative, got %g", dt)
	}
	if id == "" {
		id = uuid.NewString()
	}

	return &Scenario{
		spot: copyMap(spot),
		vol:  copyMap(vol),
		rate: rate,
		dt:   dt,
		id:   id,
	}, nil
}

// Spot returns the spot level for an asset. The boolean reports whether
// the asset is present; callers treat absence as a hard data error.
func (s *Scenario) Spot(asset string) (float64, bool) {
	v, ok := s.spot[asset]
	return v, ok
}

// Vol returns the volatility level for an asset.
func (s *Scenario) Vol(asset string) (float64, bool) {
	v, ok := s.vol[asset]
	return v, ok
}

// SpotMap returns a copy of the full spot map.
func (s *Scenario) SpotMap() map[string]float64 {
	return copyMap(s.spot)
}

// VolMap returns a copy of the full vol map.
func (s *Scenario) VolMap() map[string]float64 {
	return copyMap(s.vol)
}

// Rate returns the flat discount rate.
func (s *Scenario) Rate() float64 { return s.rate }

// DT returns the time offset from the valuation date in years.
func (s *Scenario) DT() float64 { return s.dt }

// ID returns the unique scenario identifier.
func (s *Scenario) ID() string { return s.id }

// Label returns the optional human-readable label.
func (s *Scenario) Label() string { return s.label }

// Metadata returns a copy of the attached metadata, or nil.
func (s *Scenario) Metadata() map[string]interface{} {
	if s.metadata == nil {
		return nil
	}
	out := make(map[string]interface{}, len(s.metadata))
	for k, v := range s.metadata {
		out[k] = v
	}
	return out
}

// WithLabel returns a copy of the scenario carrying the label. The
// receiver is never mutated.
func (s *Scenario) WithLabel(label string) *Scenario {
	derived := s.clone()
	derived.label = label
	return derived
}

// WithMetadata returns a copy of the scenario carrying the metadata.
func (s *Scenario) WithMetadata(metadata map[string]interface{}) *Scenario {
	derived := s.clone()
	if metadata == nil {
		derived.metadata = nil
		return derived
	}
	derived.metadata = make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		derived.metadata[k] = v
	}
	return derived
}

func (s *Scenario) clone() *Scenario {
	c := *s
	c.spot = copyMap(s.spot)
	c.vol = copyMap(s.vol)
	if s.metadata != nil {
		c.metadata = make(map[string]interface{}, len(s.metadata))
		for k, v := range s.metadata {
			c.metadata[k] = v
		}
	}
	return &c
}

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
