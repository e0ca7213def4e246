package game

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/evosoup/components"
	"github.com/pthm-cable/evosoup/neural"
)

// seedPopulation fills every pool with random genomes at uniform positions.
func (w *World) seedPopulation() {
	cfg := w.cfg
	for pool := 0; pool < cfg.Population.Pools; pool++ {
		for i := 0; i < cfg.Population.PoolSize; i++ {
			x := w.rng.Float64() * w.width
			y := w.rng.Float64() * w.height
			heading := w.rng.Float64()*2*math.Pi - math.Pi
			genome := neural.NewGenome(w.rng, w.spec, cfg.Mutation.Rate)
			w.spawnOrganism(x, y, heading, genome, pool, components.MethodSeed, 0)
		}
	}
	slog.Info("population seeded",
		"pools", cfg.Population.Pools,
		"pool_size", cfg.Population.PoolSize,
		"brain", cfg.Brain.Kind,
		"params", w.reference.Shape().NumParams(),
	)
}
