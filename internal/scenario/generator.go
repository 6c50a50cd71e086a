package scenario

import (
	"math/rand"

	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// Generator produces ordered sequences of market scenarios at a fixed
// future horizon. Generators are model-aware but portfolio-agnostic.
type Generator interface {
	// Generate produces n independent scenarios. n must be positive.
	Generate(n int) ([]*Scenario, error)

	// Horizon returns the scenario horizon in years.
	Horizon() float64

	// ResetRNG reseeds the generator's random source.
	ResetRNG(seed int64)
}

// generatorBase carries the horizon and the seeded random source shared
// by concrete generators.
type generatorBase struct {
	horizon float64
	seed    int64
	rng     *rand.Rand
}

func newGeneratorBase(horizon float64, seed int64) (generatorBase, error) {
	if horizon <= 0 {
		return generatorBase{}, errors.Configf("scenario horizon must be positive, got %g", horizon)
	}

	return generatorBase{
		horizon: horizon,
		seed:    seed,
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// Horizon returns the scenario horizon in years.
func (g *generatorBase) Horizon() float64 { return g.horizon }

// ResetRNG reseeds the random source, restoring reproducibility for a
// fresh generation pass.
func (g *generatorBase) ResetRNG(seed int64) {
	g.seed = seed
	g.rng = rand.New(rand.NewSource(seed))
}

func validateCount(n int) error {
	if n <= 0 {
		return errors.Configf("number of scenarios must be positive, got %d", n)
	}
	return nil
}
