package neural

import (
	"math"
	"math/rand/v2"
)

const (
	minMutationRate = 1e-4
	maxMutationRate = 1.0
)

// Mutation holds the per-child mutation parameters.
// The per-weight probability comes from the genome's own MutationRate.
type Mutation struct {
	Sigma     float64 // std of normal perturbation
	BigRate   float64 // probability a mutated weight takes a big jump
	BigSigma  float64 // std of big jumps
	RateDrift float64 // std of the log-normal drift applied to MutationRate
}

// SampleSigma draws a log-uniform sigma in [lo, hi].
func SampleSigma(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	l, h := math.Log(lo), math.Log(hi)
	return math.Exp(l + rng.Float64()*(h-l))
}

// Mutate applies sparse per-weight mutation in place. Column vectors (biases
// and layer-norm parameters) mutate at half the rate. The genome's mutation
// rate drifts first so the new rate applies to this mutation. Returns the
// average absolute delta of the applied changes.
func (g *Genome) Mutate(rng *rand.Rand, m Mutation) float64 {
	if m.RateDrift > 0 {
		r := g.MutationRate * math.Exp(rng.NormFloat64()*m.RateDrift)
		g.MutationRate = min(max(r, minMutationRate), maxMutationRate)
	}

	var total float64
	var count int
	for _, t := range g.tensors() {
		rate := g.MutationRate
		if _, c := t.M.Dims(); c == 1 {
			rate *= 0.5
		}
		data := t.M.RawMatrix().Data
		for i := range data {
			if rng.Float64() >= rate {
				continue
			}
			var delta float64
			if rng.Float64() < m.BigRate {
				delta = rng.NormFloat64() * m.BigSigma
			} else {
				delta = rng.NormFloat64() * m.Sigma
			}
			data[i] += delta
			total += math.Abs(delta)
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return total / float64(count)
}
