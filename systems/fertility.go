package systems

import (
	"math/rand/v2"

	"github.com/ojrac/opensimplex-go"
)

// maxPlacementTries bounds rejection sampling before falling back to a
// uniform position.
const maxPlacementTries = 16

// Fertility is a static fractal noise field in [0, 1] that biases where
// food appears.
type Fertility struct {
	noise   opensimplex.Noise
	scale   float64
	bias    float64
	octaves int
}

// NewFertility creates a fertility field. scale is the base frequency in
// 1/units; bias is the acceptance floor in barren areas.
func NewFertility(seed int64, scale, bias float64, octaves int) *Fertility {
	return &Fertility{
		noise:   opensimplex.NewNormalized(seed),
		scale:   scale,
		bias:    bias,
		octaves: max(octaves, 1),
	}
}

// At returns the fertility at (x, y).
func (f *Fertility) At(x, y float64) float64 {
	var sum, norm float64
	amp, freq := 1.0, f.scale
	for o := 0; o < f.octaves; o++ {
		sum += amp * f.noise.Eval2(x*freq, y*freq)
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return clamp01(sum / norm)
}

// Accept is the probability that a candidate at (x, y) is kept.
func (f *Fertility) Accept(x, y float64) float64 {
	return f.bias + (1-f.bias)*f.At(x, y)
}

// Sample draws a position weighted by fertility.
func (f *Fertility) Sample(rng *rand.Rand, width, height float64) (x, y float64) {
	for try := 0; try < maxPlacementTries; try++ {
		x, y = rng.Float64()*width, rng.Float64()*height
		if rng.Float64() < f.Accept(x, y) {
			return x, y
		}
	}
	return x, y
}
