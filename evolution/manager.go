// Package evolution refills genetic pools from the graveyard of dead
// organisms using asexual, sexual and inter-pool reproduction.
package evolution

import (
	"errors"
	"log/slog"
	"math/rand/v2"

	"github.com/pthm-cable/evosoup/components"
	"github.com/pthm-cable/evosoup/config"
	"github.com/pthm-cable/evosoup/neural"
)

// Strategy indices into config.DerivedConfig.StrategyP.
const (
	strategyAsexual = iota
	strategySexual
	strategyInterPool
)

// Death is the record of an organism that died this tick.
type Death struct {
	Genome        *neural.Genome
	Pool          int
	AgeTicks      int
	EnergyGained  float64
	Method        components.Method
	ParentFitness float64
}

// Spawn is a newborn the world should create. Position is chosen by the
// world with Place.
type Spawn struct {
	Genome        *neural.Genome
	Pool          int
	Method        components.Method
	ParentFitness float64
}

// Manager owns the pools, the graveyard and reproduction policy.
type Manager struct {
	pools     []*Pool
	graveyard *Graveyard
	stats     ReproductionStats
	fitness   Fitness
	crossover neural.Crossover
	rng       *rand.Rand

	strategyP      [3]float64
	topFraction    float64
	maxRetries     int
	minAge         int
	sigmaMin       float64
	sigmaMax       float64
	interPoolScale float64
	mutation       neural.Mutation
	diversity      int
	spec           neural.Spec // shape of reseeded genomes
	seedRate       float64     // mutation rate of reseeded genomes
}

// NewManager creates a manager with empty pools sized from cfg.
func NewManager(cfg *config.Config, rng *rand.Rand) (*Manager, error) {
	fit, err := FitnessFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	policy, err := neural.ParseCrossoverPolicy(cfg.Crossover.Policy)
	if err != nil {
		return nil, err
	}
	spec, err := neural.SpecFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		pools:     make([]*Pool, cfg.Population.Pools),
		graveyard: NewGraveyard(cfg.Graveyard.Capacity),
		fitness:   fit,
		crossover: neural.Crossover{
			Policy: policy,
			Min:    cfg.Crossover.InterpolateMin,
			Max:    cfg.Crossover.InterpolateMax,
		},
		rng:            rng,
		strategyP:      cfg.Derived.StrategyP,
		topFraction:    cfg.Reproduction.TopFraction,
		maxRetries:     cfg.Reproduction.MaxPairRetries,
		minAge:         cfg.Graveyard.MinAgeTicks,
		sigmaMin:       cfg.Mutation.SigmaMin,
		sigmaMax:       cfg.Mutation.SigmaMax,
		interPoolScale: cfg.Mutation.InterPoolSigmaScale,
		mutation: neural.Mutation{
			BigRate:   cfg.Mutation.BigRate,
			BigSigma:  cfg.Mutation.BigSigma,
			RateDrift: cfg.Mutation.RateDrift,
		},
		diversity: cfg.Telemetry.DiversitySample,
		spec:      spec,
		seedRate:  cfg.Mutation.Rate,
	}
	for i := range m.pools {
		m.pools[i] = &Pool{ID: i, Target: cfg.Population.PoolSize}
	}
	return m, nil
}

// Pools returns the genetic pools in id order.
func (m *Manager) Pools() []*Pool { return m.pools }

// Graveyard returns the shared graveyard.
func (m *Manager) Graveyard() *Graveyard { return m.graveyard }

// Stats returns reproduction statistics.
func (m *Manager) Stats() *ReproductionStats { return &m.stats }

// Fitness returns the configured fitness function.
func (m *Manager) Fitness() Fitness { return m.fitness }

// RecordBirth counts a newborn in its pool.
func (m *Manager) RecordBirth(pool int, method components.Method) {
	if p := m.pool(pool); p != nil {
		p.Births++
		p.Alive++
	}
	if int(method) < len(m.stats.Births) {
		m.stats.Births[method]++
	}
}

// RecordDeath scores a dead organism, counts it against its pool and, if it
// lived long enough, stores it in the graveyard. Returns the fitness.
func (m *Manager) RecordDeath(d Death) float64 {
	fitness := m.fitness.Score(d.EnergyGained, d.AgeTicks)
	if p := m.pool(d.Pool); p != nil {
		p.Deaths++
		p.Alive = max(p.Alive-1, 0)
	}
	m.stats.RecordDelta(d.Method, fitness-d.ParentFitness)

	if d.AgeTicks >= m.minAge && d.Genome != nil {
		m.graveyard.Push(Entry{
			Genome:        d.Genome,
			Fitness:       fitness,
			Pool:          d.Pool,
			AgeTicks:      d.AgeTicks,
			EnergyGained:  d.EnergyGained,
			Method:        d.Method,
			ParentFitness: d.ParentFitness,
		})
	}
	return fitness
}

// Plan returns the spawns needed to bring every pool back to its target.
// alive holds the live count per pool. Spawns that cannot be bred because
// the graveyard is empty are deferred to a later tick and counted, unless
// nothing is alive either: then no death can ever refill the graveyard and
// the pools are reseeded with random genomes.
func (m *Manager) Plan(alive []int) (spawns []Spawn, deferred int) {
	ranked := make([][]Entry, len(m.pools))
	for i := range m.pools {
		ranked[i] = m.graveyard.Ranked(i)
	}
	var all []Entry
	total := 0
	for _, n := range alive {
		total += n
	}

	for i, p := range m.pools {
		if i < len(alive) {
			p.Alive = alive[i]
		}
		shortfall := p.Target - p.Alive
		if shortfall <= 0 {
			continue
		}

		own := ranked[i]
		if len(own) == 0 {
			if all == nil {
				all = m.graveyard.Ranked(-1)
			}
			own = all
		}
		if len(own) == 0 && total == 0 {
			slog.Warn("population_reseeded", "pool", p.ID, "count", shortfall)
			m.stats.Reseeded += shortfall
			for n := 0; n < shortfall; n++ {
				spawns = append(spawns, Spawn{
					Genome: neural.NewGenome(m.rng, m.spec, m.seedRate),
					Pool:   p.ID,
					Method: components.MethodSeed,
				})
			}
			continue
		}
		if len(own) == 0 {
			deferred += shortfall
			m.stats.Deferred += shortfall
			slog.Debug("spawn_deferred", "pool", p.ID, "count", shortfall)
			continue
		}

		for n := 0; n < shortfall; n++ {
			spawns = append(spawns, m.breed(p.ID, own, ranked))
		}
	}
	return spawns, deferred
}

// breed produces one child for pool from its ranked candidates.
func (m *Manager) breed(pool int, own []Entry, ranked [][]Entry) Spawn {
	switch m.chooseStrategy() {
	case strategySexual:
		if s, ok := m.breedPair(pool, own, own, true, components.MethodSexual); ok {
			return s
		}
		m.stats.Fallbacks++
	case strategyInterPool:
		if other := m.otherPool(pool, ranked); other != nil {
			if s, ok := m.breedPair(pool, own, other, false, components.MethodInterPool); ok {
				return s
			}
			m.stats.Fallbacks++
		} else if s, ok := m.breedPair(pool, own, own, true, components.MethodSexual); ok {
			return s
		} else {
			m.stats.Fallbacks++
		}
	}
	return m.breedAsexual(pool, own)
}

func (m *Manager) chooseStrategy() int {
	u := m.rng.Float64()
	acc := 0.0
	for i, p := range m.strategyP {
		acc += p
		if u < acc {
			return i
		}
	}
	return strategyAsexual
}

// otherPool picks a random pool other than pool that has graveyard entries.
func (m *Manager) otherPool(pool int, ranked [][]Entry) []Entry {
	var candidates []int
	for i, r := range ranked {
		if i != pool && len(r) > 0 {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return ranked[candidates[m.rng.IntN(len(candidates))]]
}

func (m *Manager) breedAsexual(pool int, own []Entry) Spawn {
	idx := SelectParents(m.rng, own, m.topFraction, 1)
	parent := own[idx[0]]
	child := parent.Genome.Clone()
	m.mutate(child, 1)
	return Spawn{
		Genome:        child,
		Pool:          pool,
		Method:        components.MethodAsexual,
		ParentFitness: parent.Fitness,
	}
}

// breedPair crosses one parent from a with one from b. With same set the
// two parents are distinct entries of a. A shape mismatch rejects the pair;
// after maxRetries rejections ok is false.
func (m *Manager) breedPair(pool int, a, b []Entry, same bool, method components.Method) (Spawn, bool) {
	if same && TopK(len(a), m.topFraction) < 2 {
		return Spawn{}, false
	}

	for try := 0; try <= m.maxRetries; try++ {
		var pa, pb Entry
		if same {
			idx := SelectParents(m.rng, a, m.topFraction, 2)
			pa, pb = a[idx[0]], a[idx[1]]
		} else {
			pa = a[SelectParents(m.rng, a, m.topFraction, 1)[0]]
			pb = b[SelectParents(m.rng, b, m.topFraction, 1)[0]]
		}

		child, err := m.crossover.Cross(m.rng, pa.Genome, pb.Genome)
		if errors.Is(err, neural.ErrShapeMismatch) {
			continue
		}
		if err != nil {
			return Spawn{}, false
		}

		scale := 1.0
		if method == components.MethodInterPool {
			scale = m.interPoolScale
		}
		m.mutate(child, scale)
		return Spawn{
			Genome:        child,
			Pool:          pool,
			Method:        method,
			ParentFitness: (pa.Fitness + pb.Fitness) / 2,
		}, true
	}
	return Spawn{}, false
}

func (m *Manager) mutate(g *neural.Genome, scale float64) {
	mut := m.mutation
	mut.Sigma = neural.SampleSigma(m.rng, m.sigmaMin, m.sigmaMax) * scale
	mut.BigSigma *= scale
	g.Mutate(m.rng, mut)
}

// PoolStats summarises every pool.
func (m *Manager) PoolStats() []PoolStats {
	out := make([]PoolStats, len(m.pools))
	for i, p := range m.pools {
		out[i] = summarise(p, m.graveyard.Ranked(i), m.diversity)
	}
	return out
}

func (m *Manager) pool(id int) *Pool {
	if id < 0 || id >= len(m.pools) {
		return nil
	}
	return m.pools[id]
}
