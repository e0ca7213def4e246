package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Brain kinds accepted by brain.kind.
const (
	BrainMLP         = "mlp"
	BrainTransformer = "transformer"
)

// Policy names.
const (
	FitnessWeighted      = "weighted"
	FitnessProduct       = "product"
	CrossoverUniform     = "uniform"
	CrossoverInterpolate = "interpolate"
	PlacementNearPool    = "near_pool"
	PlacementRandom      = "random"
)

// Validate checks the configuration once at startup. All problems are
// reported together; the simulation must not start when this fails.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			bad("%s must be > 0, got %v", name, v)
		}
	}
	nonNegative := func(name string, v float64) {
		if !(v >= 0) || math.IsInf(v, 0) {
			bad("%s must be >= 0, got %v", name, v)
		}
	}
	probability := func(name string, v float64) {
		if !(v >= 0 && v <= 1) {
			bad("%s must be in [0, 1], got %v", name, v)
		}
	}

	positive("world.width", c.World.Width)
	positive("world.height", c.World.Height)
	positive("sim.dt", c.Sim.DT)
	if c.Sim.Workers < 0 {
		bad("sim.workers must be >= 0, got %d", c.Sim.Workers)
	}

	if c.Population.Pools < 1 {
		bad("population.pools must be >= 1, got %d", c.Population.Pools)
	}
	if c.Population.PoolSize < 1 {
		bad("population.pool_size must be >= 1, got %d", c.Population.PoolSize)
	}

	positive("organism.body_radius", c.Organism.BodyRadius)
	positive("organism.initial_energy", c.Organism.InitialEnergy)
	positive("organism.max_energy", c.Organism.MaxEnergy)
	positive("organism.age_scale", c.Organism.AgeScale)
	if c.Organism.InitialEnergy > c.Organism.MaxEnergy {
		bad("organism.initial_energy (%v) exceeds organism.max_energy (%v)", c.Organism.InitialEnergy, c.Organism.MaxEnergy)
	}

	nonNegative("energy.upkeep", c.Energy.Upkeep)
	nonNegative("movement.max_speed", c.Movement.MaxSpeed)
	nonNegative("movement.max_turn_rate", c.Movement.MaxTurnRate)
	nonNegative("movement.move_cost", c.Movement.MoveCost)
	nonNegative("movement.turn_cost", c.Movement.TurnCost)

	nonNegative("attack.range", c.Attack.Range)
	nonNegative("attack.damage", c.Attack.Damage)
	nonNegative("attack.cost", c.Attack.Cost)
	probability("attack.steal_fraction", c.Attack.StealFraction)
	if c.Attack.Cooldown < 0 {
		bad("attack.cooldown must be >= 0, got %d", c.Attack.Cooldown)
	}

	nonNegative("share.radius", c.Share.Radius)
	nonNegative("share.amount", c.Share.Amount)
	probability("share.max_fraction", c.Share.MaxFraction)

	if c.Food.Initial < 0 || c.Food.Max < 0 {
		bad("food.initial and food.max must be >= 0")
	}
	nonNegative("food.energy", c.Food.Energy)
	nonNegative("food.radius", c.Food.Radius)
	nonNegative("food.spawn_rate", c.Food.SpawnRate)
	nonNegative("food.lifetime", c.Food.Lifetime)
	nonNegative("food.corpse_energy", c.Food.CorpseEnergy)
	positive("food.noise_scale", c.Food.NoiseScale)
	probability("food.noise_bias", c.Food.NoiseBias)
	if c.Food.NoiseOctaves < 1 {
		bad("food.noise_octaves must be >= 1, got %d", c.Food.NoiseOctaves)
	}

	p := c.Perception
	if p.Rays < 1 {
		bad("perception.rays must be >= 1, got %d", p.Rays)
	}
	positive("perception.vision_range", p.VisionRange)
	if !(p.FOV >= 0 && p.FOV <= 2*math.Pi) {
		bad("perception.fov must be in [0, 2pi], got %v", p.FOV)
	}
	if len(p.ScentRadii) == 0 {
		bad("perception.scent_radii must not be empty")
	}
	for i, r := range p.ScentRadii {
		positive(fmt.Sprintf("perception.scent_radii[%d]", i), r)
		if i > 0 && r <= p.ScentRadii[i-1] {
			bad("perception.scent_radii must be strictly increasing")
			break
		}
	}
	positive("perception.scent_density_scale", p.ScentDensityScale)

	// Minimum-image distances are only well defined below half the arena.
	half := math.Min(c.World.Width, c.World.Height) / 2
	type namedRadius struct {
		name string
		r    float64
	}
	radii := []namedRadius{
		{"perception.vision_range", p.VisionRange},
		{"attack.range", c.Attack.Range},
		{"share.radius", c.Share.Radius},
	}
	if n := len(p.ScentRadii); n > 0 {
		radii = append(radii, namedRadius{"perception.scent_radii", p.ScentRadii[n-1]})
	}
	for _, rr := range radii {
		if rr.r >= half {
			bad("%s (%v) must be below half the arena size (%v)", rr.name, rr.r, half)
		}
	}

	b := c.Brain
	switch b.Kind {
	case BrainMLP:
		for i, h := range b.Hidden {
			if h < 1 {
				bad("brain.hidden[%d] must be >= 1, got %d", i, h)
			}
		}
	case BrainTransformer:
		t := b.Transformer
		if t.ModelDim < 1 || t.Blocks < 1 || t.Heads < 1 || t.HeadDim < 1 || t.FFDim < 1 {
			bad("brain.transformer dimensions must all be >= 1")
		}
	default:
		bad("brain.kind must be %q or %q, got %q", BrainMLP, BrainTransformer, b.Kind)
	}
	if b.MemorySize < 0 {
		bad("brain.memory_size must be >= 0, got %d", b.MemorySize)
	}
	if b.SignalSize < 0 {
		bad("brain.signal_size must be >= 0, got %d", b.SignalSize)
	}
	positive("brain.init_scale", b.InitScale)

	m := c.Mutation
	probability("mutation.rate", m.Rate)
	positive("mutation.sigma_min", m.SigmaMin)
	positive("mutation.sigma_max", m.SigmaMax)
	if m.SigmaMax < m.SigmaMin {
		bad("mutation.sigma_max (%v) is below mutation.sigma_min (%v)", m.SigmaMax, m.SigmaMin)
	}
	probability("mutation.big_rate", m.BigRate)
	nonNegative("mutation.big_sigma", m.BigSigma)
	nonNegative("mutation.rate_drift", m.RateDrift)
	nonNegative("mutation.inter_pool_sigma_scale", m.InterPoolSigmaScale)

	r := c.Reproduction
	if !(r.TopFraction > 0 && r.TopFraction <= 1) {
		bad("reproduction.top_fraction must be in (0, 1], got %v", r.TopFraction)
	}
	nonNegative("reproduction.asexual", r.Asexual)
	nonNegative("reproduction.sexual", r.Sexual)
	nonNegative("reproduction.inter_pool", r.InterPool)
	if !(r.Asexual+r.Sexual+r.InterPool > 0) {
		bad("reproduction strategy weights must not all be zero")
	}
	if r.MaxPairRetries < 0 {
		bad("reproduction.max_pair_retries must be >= 0, got %d", r.MaxPairRetries)
	}
	if r.Placement != PlacementNearPool && r.Placement != PlacementRandom {
		bad("reproduction.placement must be %q or %q, got %q", PlacementNearPool, PlacementRandom, r.Placement)
	}
	nonNegative("reproduction.spawn_jitter", r.SpawnJitter)

	if c.Graveyard.Capacity < 1 {
		bad("graveyard.capacity must be >= 1, got %d", c.Graveyard.Capacity)
	}
	if c.Graveyard.MinAgeTicks < 0 {
		bad("graveyard.min_age_ticks must be >= 0, got %d", c.Graveyard.MinAgeTicks)
	}

	switch c.Fitness.Policy {
	case FitnessWeighted:
		nonNegative("fitness.energy_weight", c.Fitness.EnergyWeight)
		nonNegative("fitness.age_weight", c.Fitness.AgeWeight)
	case FitnessProduct:
	default:
		bad("fitness.policy must be %q or %q, got %q", FitnessWeighted, FitnessProduct, c.Fitness.Policy)
	}

	switch c.Crossover.Policy {
	case CrossoverUniform:
	case CrossoverInterpolate:
		probability("crossover.interpolate_min", c.Crossover.InterpolateMin)
		probability("crossover.interpolate_max", c.Crossover.InterpolateMax)
		if c.Crossover.InterpolateMax < c.Crossover.InterpolateMin {
			bad("crossover.interpolate_max is below crossover.interpolate_min")
		}
	default:
		bad("crossover.policy must be %q or %q, got %q", CrossoverUniform, CrossoverInterpolate, c.Crossover.Policy)
	}

	positive("telemetry.stats_window", c.Telemetry.StatsWindow)
	if c.Telemetry.DiversitySample < 2 {
		bad("telemetry.diversity_sample must be >= 2, got %d", c.Telemetry.DiversitySample)
	}
	if c.Telemetry.EventLogSize < 0 {
		bad("telemetry.event_log_size must be >= 0, got %d", c.Telemetry.EventLogSize)
	}

	return errors.Join(errs...)
}
