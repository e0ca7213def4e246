package evolution

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/evosoup/components"
	"github.com/pthm-cable/evosoup/config"
	"github.com/pthm-cable/evosoup/neural"
	"github.com/pthm-cable/evosoup/systems"
)

func newRNG(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, seed^0x9e3779b9)) }

func smallSpec(kind neural.Kind) neural.Spec {
	return neural.Spec{
		Kind:      kind,
		Inputs:    3,
		Outputs:   config.NumActions + 1,
		Hidden:    []int{4},
		ModelDim:  4,
		Blocks:    1,
		Heads:     1,
		HeadDim:   2,
		FFDim:     4,
		InitScale: 1,
	}
}

func testConfig(t *testing.T, mutate func(c *config.Config)) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newManager(t *testing.T, cfg *config.Config, seed uint64) *Manager {
	t.Helper()
	m, err := NewManager(cfg, newRNG(seed))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestGraveyardEvictsOldest(t *testing.T) {
	g := NewGraveyard(3)
	for i := 0; i < 5; i++ {
		g.Push(Entry{Fitness: float64(100 - i)})
	}
	if g.Len() != 3 {
		t.Fatalf("Len = %d, want 3", g.Len())
	}
	got := g.Entries()
	for i, e := range got {
		if want := uint64(i + 3); e.Seq != want {
			t.Errorf("entry %d seq = %d, want %d", i, e.Seq, want)
		}
	}
	// The fittest entries were the oldest and are gone.
	if best := g.Ranked(-1)[0].Fitness; best != 98 {
		t.Errorf("best remaining fitness = %v, want 98", best)
	}
}

func TestGraveyardRanking(t *testing.T) {
	g := NewGraveyard(10)
	g.Push(Entry{Fitness: 1, Pool: 0})
	g.Push(Entry{Fitness: 5, Pool: 1})
	g.Push(Entry{Fitness: 5, Pool: 0})
	g.Push(Entry{Fitness: 3, Pool: 0})

	ranked := g.Ranked(0)
	if len(ranked) != 3 {
		t.Fatalf("pool 0 has %d entries, want 3", len(ranked))
	}
	wantSeq := []uint64{3, 4, 1}
	for i, e := range ranked {
		if e.Seq != wantSeq[i] {
			t.Errorf("rank %d seq = %d, want %d", i, e.Seq, wantSeq[i])
		}
	}

	all := g.Ranked(-1)
	// Equal fitness: the newer entry (seq 3) ranks first.
	if all[0].Seq != 3 || all[1].Seq != 2 {
		t.Errorf("tie order = %d, %d; want 3, 2", all[0].Seq, all[1].Seq)
	}
	if g.CountPool(1) != 1 {
		t.Errorf("CountPool(1) = %d, want 1", g.CountPool(1))
	}
}

func TestGraveyardRestore(t *testing.T) {
	g := NewGraveyard(2)
	g.Restore([]Entry{{Fitness: 1}, {Fitness: 2}, {Fitness: 3}})
	got := g.Entries()
	if len(got) != 2 || got[0].Fitness != 2 || got[1].Fitness != 3 {
		t.Errorf("restored = %+v, want fitness 2 then 3", got)
	}
}

func TestTopK(t *testing.T) {
	tests := []struct {
		n    int
		frac float64
		want int
	}{
		{100, 0.1, 10},
		{5, 0.1, 1},
		{0, 0.1, 0},
		{10, 1, 10},
		{3, 0.5, 2},
		{7, 0.3, 3},
		{1, 0.01, 1},
	}
	for _, tt := range tests {
		if got := TopK(tt.n, tt.frac); got != tt.want {
			t.Errorf("TopK(%d, %v) = %d, want %d", tt.n, tt.frac, got, tt.want)
		}
	}
}

func rankedEntries(n int) []Entry {
	g := NewGraveyard(n)
	for i := 0; i < n; i++ {
		g.Push(Entry{Fitness: float64(i)})
	}
	return g.Ranked(-1)
}

func TestSelectionStaysInTopFraction(t *testing.T) {
	ranked := rankedEntries(100)
	rng := newRNG(1)
	counts := make([]int, 10)
	for trial := 0; trial < 1000; trial++ {
		idx := SelectParents(rng, ranked, 0.1, 1)
		if len(idx) != 1 {
			t.Fatalf("got %d parents, want 1", len(idx))
		}
		if idx[0] >= 10 {
			t.Fatalf("trial %d picked rank %d (fitness %v) outside the top 10", trial, idx[0], ranked[idx[0]].Fitness)
		}
		counts[idx[0]]++
	}
	if counts[0] <= counts[9] {
		t.Errorf("fittest picked %d times, tenth %d times; want fitness weighting", counts[0], counts[9])
	}
}

func TestSelectParentsDistinct(t *testing.T) {
	ranked := rankedEntries(20)
	rng := newRNG(2)
	for trial := 0; trial < 200; trial++ {
		idx := SelectParents(rng, ranked, 0.2, 2)
		if len(idx) != 2 || idx[0] == idx[1] {
			t.Fatalf("parents %v are not two distinct entries", idx)
		}
	}
	// Top fraction of one entry cannot yield two parents.
	if idx := SelectParents(rng, ranked, 0.01, 2); len(idx) != 1 {
		t.Errorf("got %v from a single-entry top fraction", idx)
	}
}

func TestSelectionUniformOnEqualFitness(t *testing.T) {
	w := selectionWeights([]Entry{{Fitness: 2}, {Fitness: 2}, {Fitness: 2}})
	for i, v := range w {
		if v != 1 {
			t.Errorf("weight %d = %v, want 1", i, v)
		}
	}
	w = selectionWeights([]Entry{{Fitness: -5}, {Fitness: -10}})
	for i, v := range w {
		if !(v > 0) {
			t.Errorf("weight %d = %v, want positive", i, v)
		}
	}
}

func TestFitnessPolicies(t *testing.T) {
	tests := []struct {
		name string
		f    Fitness
		want float64
	}{
		{"weighted", Fitness{Policy: FitnessWeighted, EnergyWeight: 2, AgeWeight: 0.5, DT: 0.1}, 2*3 + 0.5*10},
		{"product", Fitness{Policy: FitnessProduct, DT: 0.1}, 3 * 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Score(3, 100); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
	if _, err := ParseFitnessPolicy("kills"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func seedGraveyard(m *Manager, rng *rand.Rand, pool, n int, kind neural.Kind) {
	for i := 0; i < n; i++ {
		m.graveyard.Push(Entry{
			Genome:  neural.NewGenome(rng, smallSpec(kind), 0.1),
			Fitness: rng.Float64() * 10,
			Pool:    pool,
		})
	}
}

func atTarget(m *Manager) []int {
	alive := make([]int, len(m.pools))
	for i, p := range m.pools {
		alive[i] = p.Target
	}
	return alive
}

func TestPlanFillsShortfall(t *testing.T) {
	cfg := testConfig(t, nil)
	m := newManager(t, cfg, 3)
	rng := newRNG(4)
	seedGraveyard(m, rng, 0, 20, neural.KindMLP)

	alive := atTarget(m)
	alive[0] -= 3 // three deaths in pool 0
	spawns, deferred := m.Plan(alive)

	if deferred != 0 {
		t.Errorf("deferred = %d, want 0", deferred)
	}
	if len(spawns) != 3 {
		t.Fatalf("got %d spawns, want 3", len(spawns))
	}
	parents := m.graveyard.Entries()
	for i, s := range spawns {
		if s.Pool != 0 {
			t.Errorf("spawn %d in pool %d, want 0", i, s.Pool)
		}
		if !s.Genome.Shape().Equal(parents[0].Genome.Shape()) {
			t.Errorf("spawn %d changed genome shape", i)
		}
		for _, p := range parents {
			if s.Genome == p.Genome {
				t.Errorf("spawn %d shares its genome with a graveyard entry", i)
			}
		}
		if s.Method == components.MethodSeed {
			t.Errorf("spawn %d has seed method", i)
		}
	}
}

func TestPlanDefersOnEmptyGraveyard(t *testing.T) {
	cfg := testConfig(t, nil)
	m := newManager(t, cfg, 5)

	// One survivor can still die into the graveyard, so nothing is reseeded.
	alive := make([]int, cfg.Population.Pools)
	alive[0] = 1
	spawns, deferred := m.Plan(alive)
	if len(spawns) != 0 {
		t.Errorf("got %d spawns from an empty graveyard", len(spawns))
	}
	if want := cfg.Derived.TotalTarget - 1; deferred != want {
		t.Errorf("deferred = %d, want %d", deferred, want)
	}
	if m.Stats().Deferred != deferred {
		t.Errorf("stats deferred = %d, want %d", m.Stats().Deferred, deferred)
	}
	if m.Stats().Reseeded != 0 {
		t.Errorf("reseeded %d with a survivor alive", m.Stats().Reseeded)
	}
}

func TestPlanReseedsAfterExtinction(t *testing.T) {
	cfg := testConfig(t, nil)
	m := newManager(t, cfg, 5)
	spec, err := neural.SpecFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}

	spawns, deferred := m.Plan(make([]int, cfg.Population.Pools))
	if deferred != 0 {
		t.Errorf("deferred = %d, want 0", deferred)
	}
	if len(spawns) != cfg.Derived.TotalTarget {
		t.Fatalf("got %d spawns, want %d", len(spawns), cfg.Derived.TotalTarget)
	}
	perPool := make([]int, cfg.Population.Pools)
	for i, s := range spawns {
		if s.Method != components.MethodSeed {
			t.Errorf("spawn %d method = %s, want seed", i, s.Method)
		}
		if s.Genome == nil || s.Genome.Spec().Inputs != spec.Inputs || s.Genome.Spec().Outputs != spec.Outputs {
			t.Fatalf("spawn %d genome does not match the configured brain", i)
		}
		if i > 0 && s.Genome == spawns[i-1].Genome {
			t.Errorf("spawn %d reuses the previous genome", i)
		}
		perPool[s.Pool]++
	}
	for pool, n := range perPool {
		if n != cfg.Population.PoolSize {
			t.Errorf("pool %d got %d spawns, want %d", pool, n, cfg.Population.PoolSize)
		}
	}
	if m.Stats().Reseeded != cfg.Derived.TotalTarget {
		t.Errorf("stats reseeded = %d, want %d", m.Stats().Reseeded, cfg.Derived.TotalTarget)
	}
}

func TestPlanSeedsEmptyPoolFromWholeGraveyard(t *testing.T) {
	cfg := testConfig(t, nil)
	m := newManager(t, cfg, 6)
	seedGraveyard(m, newRNG(7), 1, 10, neural.KindMLP)

	alive := atTarget(m)
	alive[0] = cfg.Population.PoolSize - 2
	spawns, deferred := m.Plan(alive)
	if deferred != 0 || len(spawns) != 2 {
		t.Fatalf("spawns = %d, deferred = %d; want 2 and 0", len(spawns), deferred)
	}
	for _, s := range spawns {
		if s.Pool != 0 {
			t.Errorf("spawn joined pool %d, want the pool with the shortfall", s.Pool)
		}
	}
}

func TestSexualMismatchFallsBackToAsexual(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Reproduction.Asexual, c.Reproduction.Sexual, c.Reproduction.InterPool = 0, 1, 0
		c.Reproduction.TopFraction = 1
		c.Reproduction.MaxPairRetries = 3
	})
	m := newManager(t, cfg, 8)
	rng := newRNG(9)
	seedGraveyard(m, rng, 0, 1, neural.KindMLP)
	seedGraveyard(m, rng, 0, 1, neural.KindTransformer)

	alive := atTarget(m)
	alive[0]--
	spawns, _ := m.Plan(alive)
	if len(spawns) != 1 {
		t.Fatalf("got %d spawns, want 1", len(spawns))
	}
	if spawns[0].Method != components.MethodAsexual {
		t.Errorf("method = %v, want asexual fallback", spawns[0].Method)
	}
	if m.Stats().Fallbacks != 1 {
		t.Errorf("fallbacks = %d, want 1", m.Stats().Fallbacks)
	}
}

func TestSexualReproduction(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Reproduction.Asexual, c.Reproduction.Sexual, c.Reproduction.InterPool = 0, 1, 0
		c.Reproduction.TopFraction = 0.5
	})
	m := newManager(t, cfg, 10)
	seedGraveyard(m, newRNG(11), 2, 10, neural.KindTransformer)

	alive := atTarget(m)
	alive[2] -= 4
	spawns, _ := m.Plan(alive)
	if len(spawns) != 4 {
		t.Fatalf("got %d spawns, want 4", len(spawns))
	}
	for _, s := range spawns {
		if s.Method != components.MethodSexual || s.Pool != 2 {
			t.Errorf("spawn = %v in pool %d, want sexual in pool 2", s.Method, s.Pool)
		}
	}
	if m.Stats().Fallbacks != 0 {
		t.Errorf("unexpected fallbacks: %d", m.Stats().Fallbacks)
	}
}

func TestInterPoolReproduction(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Reproduction.Asexual, c.Reproduction.Sexual, c.Reproduction.InterPool = 0, 0, 1
	})
	m := newManager(t, cfg, 12)
	rng := newRNG(13)
	seedGraveyard(m, rng, 0, 5, neural.KindMLP)
	seedGraveyard(m, rng, 3, 5, neural.KindMLP)

	alive := atTarget(m)
	alive[3]--
	spawns, _ := m.Plan(alive)
	if len(spawns) != 1 {
		t.Fatalf("got %d spawns, want 1", len(spawns))
	}
	if spawns[0].Method != components.MethodInterPool || spawns[0].Pool != 3 {
		t.Errorf("spawn = %v in pool %d, want inter_pool in pool 3", spawns[0].Method, spawns[0].Pool)
	}
}

func TestRecordDeath(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) { c.Graveyard.MinAgeTicks = 5 })
	m := newManager(t, cfg, 14)
	g := neural.NewGenome(newRNG(15), smallSpec(neural.KindMLP), 0.1)

	m.RecordBirth(1, components.MethodAsexual)
	m.RecordBirth(1, components.MethodAsexual)
	m.RecordDeath(Death{Genome: g, Pool: 1, AgeTicks: 4, EnergyGained: 1, Method: components.MethodAsexual})
	if m.graveyard.Len() != 0 {
		t.Error("too-young death entered the graveyard")
	}
	fit := m.RecordDeath(Death{Genome: g, Pool: 1, AgeTicks: 100, EnergyGained: 2, Method: components.MethodAsexual, ParentFitness: 1})
	if m.graveyard.Len() != 1 {
		t.Fatal("death not recorded in graveyard")
	}
	if want := m.fitness.Score(2, 100); fit != want {
		t.Errorf("fitness = %v, want %v", fit, want)
	}

	p := m.pools[1]
	if p.Births != 2 || p.Deaths != 2 || p.Alive != 0 {
		t.Errorf("pool counters = %+v", *p)
	}
	sum := m.Stats().Summary()
	if sum[0].Method != "asexual" || sum[0].Samples != 2 || sum[0].Births != 2 {
		t.Errorf("asexual summary = %+v", sum[0])
	}
}

func TestPoolStats(t *testing.T) {
	cfg := testConfig(t, nil)
	m := newManager(t, cfg, 16)
	seedGraveyard(m, newRNG(17), 0, 6, neural.KindMLP)

	stats := m.PoolStats()
	if len(stats) != cfg.Population.Pools {
		t.Fatalf("got %d pool rows, want %d", len(stats), cfg.Population.Pools)
	}
	s := stats[0]
	if s.Entries != 6 || !(s.Diversity > 0) || s.MaxFitness < s.MeanFitness {
		t.Errorf("pool 0 stats = %+v", s)
	}
	if stats[1].Entries != 0 || stats[1].Diversity != 0 {
		t.Errorf("empty pool stats = %+v", stats[1])
	}
}

func TestPlace(t *testing.T) {
	rng := newRNG(18)
	const w, h = 200.0, 100.0
	members := [][2]float64{{5, 5}}
	for i := 0; i < 200; i++ {
		x, y := Place(rng, PlaceNearPool, members, 10, w, h)
		if d := systems.ToroidalDistSq(5, 5, x, y, w, h); d > 2*10*10+1e-9 {
			t.Fatalf("near_pool spawn (%v, %v) is %v away", x, y, math.Sqrt(d))
		}
		if x < 0 || x >= w || y < 0 || y >= h {
			t.Fatalf("spawn (%v, %v) outside the arena", x, y)
		}
	}
	// Empty pool falls back to a random position.
	x, y := Place(rng, PlaceNearPool, nil, 10, w, h)
	if x < 0 || x >= w || y < 0 || y >= h {
		t.Errorf("fallback spawn (%v, %v) outside the arena", x, y)
	}
}
