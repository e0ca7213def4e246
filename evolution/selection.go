package evolution

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// TopK returns how many of n ranked entries form the top fraction frac.
// At least one entry is selected when n > 0.
func TopK(n int, frac float64) int {
	if n <= 0 {
		return 0
	}
	k := int(math.Ceil(frac*float64(n) - 1e-9))
	return min(max(k, 1), n)
}

// selectionWeights turns fitness values into positive sampling weights.
// Equal fitness gives a uniform distribution.
func selectionWeights(ranked []Entry) []float64 {
	w := make([]float64, len(ranked))
	for i, e := range ranked {
		w[i] = e.Fitness
	}
	lo, hi := floats.Min(w), floats.Max(w)
	spread := hi - lo
	if !(spread > 0) || math.IsInf(spread, 0) {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	eps := spread * 1e-3
	for i := range w {
		w[i] = w[i] - lo + eps
	}
	return w
}

// SelectParents draws n distinct parents from the top fraction of ranked,
// weighted by fitness. ranked must already be in rank order. Fewer than n
// indices are returned when the top fraction is smaller than n.
func SelectParents(rng *rand.Rand, ranked []Entry, frac float64, n int) []int {
	top := ranked[:TopK(len(ranked), frac)]
	if len(top) == 0 || n <= 0 {
		return nil
	}
	sampler := sampleuv.NewWeighted(selectionWeights(top), rng)
	picked := make([]int, 0, n)
	for len(picked) < n {
		idx, ok := sampler.Take()
		if !ok {
			break
		}
		picked = append(picked, idx)
	}
	return picked
}
