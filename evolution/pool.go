package evolution

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/evosoup/config"
	"github.com/pthm-cable/evosoup/neural"
	"github.com/pthm-cable/evosoup/systems"
)

// Pool is one genetic pool: a sub-population with its own target size.
type Pool struct {
	ID     int
	Target int
	Alive  int
	Births int
	Deaths int
}

// PoolStats summarises a pool for telemetry.
type PoolStats struct {
	Pool        int     `csv:"pool"`
	Alive       int     `csv:"alive"`
	Births      int     `csv:"births"`
	Deaths      int     `csv:"deaths"`
	Entries     int     `csv:"graveyard_entries"`
	MeanFitness float64 `csv:"mean_fitness"`
	MaxFitness  float64 `csv:"max_fitness"`
	Diversity   float64 `csv:"diversity"`
}

// summarise computes fitness and diversity statistics over a pool's ranked
// graveyard entries. Diversity is the mean pairwise genome distance over at
// most sample of the best entries; incompatible pairs are skipped.
func summarise(p *Pool, ranked []Entry, sample int) PoolStats {
	s := PoolStats{
		Pool:    p.ID,
		Alive:   p.Alive,
		Births:  p.Births,
		Deaths:  p.Deaths,
		Entries: len(ranked),
	}
	if len(ranked) == 0 {
		return s
	}

	fit := make([]float64, len(ranked))
	for i, e := range ranked {
		fit[i] = e.Fitness
	}
	s.MeanFitness = stat.Mean(fit, nil)
	s.MaxFitness = floats.Max(fit)

	top := ranked[:min(sample, len(ranked))]
	var dists []float64
	for i := range top {
		for j := i + 1; j < len(top); j++ {
			if d, err := neural.Distance(top[i].Genome, top[j].Genome); err == nil {
				dists = append(dists, d)
			}
		}
	}
	if len(dists) > 0 {
		s.Diversity = stat.Mean(dists, nil)
	}
	return s
}

// Placement selects where newborns appear.
type Placement uint8

const (
	// PlaceNearPool jitters around a random live member of the pool.
	PlaceNearPool Placement = iota
	// PlaceRandom picks a uniform position in the arena.
	PlaceRandom
)

// ParsePlacement converts a config name into a placement policy.
func ParsePlacement(s string) (Placement, error) {
	switch s {
	case config.PlacementNearPool:
		return PlaceNearPool, nil
	case config.PlacementRandom:
		return PlaceRandom, nil
	default:
		return 0, fmt.Errorf("unknown placement %q", s)
	}
}

// Place returns a spawn position. members are the pool's live positions;
// PlaceNearPool falls back to a random position when there are none.
func Place(rng *rand.Rand, policy Placement, members [][2]float64, jitter, width, height float64) (x, y float64) {
	if policy == PlaceNearPool && len(members) > 0 {
		m := members[rng.IntN(len(members))]
		x = m[0] + (rng.Float64()*2-1)*jitter
		y = m[1] + (rng.Float64()*2-1)*jitter
		return systems.Wrap(x, width), systems.Wrap(y, height)
	}
	return rng.Float64() * width, rng.Float64() * height
}
