package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/evosoup/config"
	"github.com/pthm-cable/evosoup/game"
	"github.com/pthm-cable/evosoup/neural"
	"github.com/pthm-cable/evosoup/telemetry"
)

// Score component weights.
const (
	weightProgress = 0.5  // best fitness reached
	weightSlope    = 0.3  // trend of mean graveyard fitness
	weightDeferred = 0.2  // penalty for spawns the graveyard could not fill
	warmupWindows  = 2    // skipped before measuring the trend
	deferredScale  = 50.0 // deferrals per window that cost the full penalty
)

// FitnessEvaluator runs headless simulations and scores a parameter vector.
type FitnessEvaluator struct {
	params   *ParamVector
	maxTicks int
	seeds    []uint64
	base     *config.Config

	mu          sync.Mutex
	bestScore   float64
	bestGenomes []*neural.Genome
	lastQuality float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []uint64, base *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:    params,
		maxTicks:  maxTicks,
		seeds:     seeds,
		base:      base,
		bestScore: math.Inf(1),
	}
}

// BestGenomes returns the living genomes at the end of the best run.
func (fe *FitnessEvaluator) BestGenomes() []*neural.Genome {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestGenomes
}

// LastQuality returns the quality of the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

type runResult struct {
	windows []telemetry.WindowStats
	genomes []*neural.Genome
	err     error
}

// Evaluate returns the score for x (lower is better). Seeds run in parallel.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	var bestGenomes []*neural.Genome
	bestQuality := -1.0
	for _, r := range results {
		if r.err != nil {
			slog.Warn("evaluation failed", "error", r.err)
			continue
		}
		q := Quality(r.windows)
		total += q
		if q > bestQuality {
			bestQuality, bestGenomes = q, r.genomes
		}
	}
	quality := total / float64(len(fe.seeds))
	score := -quality

	fe.mu.Lock()
	if score < fe.bestScore {
		fe.bestScore = score
		fe.bestGenomes = bestGenomes
	}
	fe.lastQuality = quality
	fe.mu.Unlock()
	return score
}

// runSimulation runs one headless world for maxTicks.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed uint64) runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	var r runResult
	w, err := game.New(cfg, game.Options{
		Seed:    seed,
		OnStats: func(s telemetry.WindowStats) { r.windows = append(r.windows, s) },
	})
	if err != nil {
		r.err = err
		return r
	}
	defer w.Close()

	for w.Tick() < fe.maxTicks {
		w.Advance(cfg.Sim.DT)
	}
	r.genomes = w.Genomes()
	return r
}

// copyConfig returns a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.base
	cfg.Perception.ScentRadii = append([]float64(nil), fe.base.Perception.ScentRadii...)
	cfg.Brain.Hidden = append([]int(nil), fe.base.Brain.Hidden...)
	// Phase 1 workers would compete with the parallel seeds.
	cfg.Sim.Workers = 1
	return &cfg
}

// Quality scores a run in [0, 1]: high best fitness, a rising mean
// graveyard fitness and few deferred spawns.
func Quality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= warmupWindows {
		return 0
	}
	valid := windows[warmupWindows:]

	xs := make([]float64, len(valid))
	means := make([]float64, len(valid))
	var best, deferred float64
	for i, w := range valid {
		xs[i] = float64(i)
		means[i] = w.MeanFitness
		best = max(best, w.BestFitness)
		deferred += float64(w.Deferred)
	}

	progress := 1 - math.Exp(-best)

	slope := 0.0
	if len(valid) >= 2 {
		_, beta := stat.LinearRegression(xs, means, nil, false)
		slope = 1 / (1 + math.Exp(-10*beta))
	}

	deferPenalty := math.Min(deferred/float64(len(valid))/deferredScale, 1)

	return clamp01(weightProgress*progress + weightSlope*slope + weightDeferred*(1-deferPenalty))
}

func clamp01(x float64) float64 {
	return math.Min(math.Max(x, 0), 1)
}
