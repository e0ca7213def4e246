package evolution

import (
	"fmt"

	"github.com/pthm-cable/evosoup/config"
)

// FitnessPolicy selects the fitness formula.
type FitnessPolicy uint8

const (
	// FitnessWeighted scores energy_weight*gained + age_weight*seconds.
	FitnessWeighted FitnessPolicy = iota
	// FitnessProduct scores gained*seconds.
	FitnessProduct
)

// ParseFitnessPolicy converts a config name into a policy.
func ParseFitnessPolicy(s string) (FitnessPolicy, error) {
	switch s {
	case config.FitnessWeighted:
		return FitnessWeighted, nil
	case config.FitnessProduct:
		return FitnessProduct, nil
	default:
		return 0, fmt.Errorf("unknown fitness policy %q", s)
	}
}

// Fitness scores a finished life.
type Fitness struct {
	Policy       FitnessPolicy
	EnergyWeight float64
	AgeWeight    float64
	DT           float64 // seconds per tick
}

// FitnessFromConfig builds the configured fitness function.
func FitnessFromConfig(cfg *config.Config) (Fitness, error) {
	p, err := ParseFitnessPolicy(cfg.Fitness.Policy)
	if err != nil {
		return Fitness{}, err
	}
	return Fitness{
		Policy:       p,
		EnergyWeight: cfg.Fitness.EnergyWeight,
		AgeWeight:    cfg.Fitness.AgeWeight,
		DT:           cfg.Sim.DT,
	}, nil
}

// Score returns the fitness for total energy gained over ageTicks.
func (f Fitness) Score(energyGained float64, ageTicks int) float64 {
	seconds := float64(ageTicks) * f.DT
	switch f.Policy {
	case FitnessProduct:
		return energyGained * seconds
	default:
		return f.EnergyWeight*energyGained + f.AgeWeight*seconds
	}
}
