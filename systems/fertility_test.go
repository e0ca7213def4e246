package systems

import (
	"math/rand/v2"
	"testing"
)

func TestFertilityRange(t *testing.T) {
	f := NewFertility(42, 0.01, 0.2, 3)
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 2000; i++ {
		x, y := rng.Float64()*1000, rng.Float64()*1000
		v := f.At(x, y)
		if v < 0 || v > 1 {
			t.Fatalf("At(%v, %v) = %v outside [0, 1]", x, y, v)
		}
		if a := f.Accept(x, y); a < 0.2 || a > 1 {
			t.Fatalf("Accept(%v, %v) = %v below bias", x, y, a)
		}
	}
}

func TestFertilityDeterministic(t *testing.T) {
	a := NewFertility(7, 0.005, 0.1, 2)
	b := NewFertility(7, 0.005, 0.1, 2)
	c := NewFertility(8, 0.005, 0.1, 2)

	differs := false
	for i := 0; i < 50; i++ {
		x, y := float64(i)*13.7, float64(i)*5.3
		if a.At(x, y) != b.At(x, y) {
			t.Fatalf("same seed differs at (%v, %v)", x, y)
		}
		if a.At(x, y) != c.At(x, y) {
			differs = true
		}
	}
	if !differs {
		t.Error("different seeds produced the same field")
	}
}

func TestFertilitySampleBias(t *testing.T) {
	const w, h = 800.0, 800.0
	f := NewFertility(3, 0.004, 0, 2)
	rng := rand.New(rand.NewPCG(3, 4))

	var sampled, uniform float64
	const n = 4000
	for i := 0; i < n; i++ {
		x, y := f.Sample(rng, w, h)
		if x < 0 || x >= w || y < 0 || y >= h {
			t.Fatalf("sample (%v, %v) outside arena", x, y)
		}
		sampled += f.At(x, y)
		uniform += f.At(rng.Float64()*w, rng.Float64()*h)
	}
	if sampled <= uniform {
		t.Errorf("mean sampled fertility %v not above uniform %v", sampled/n, uniform/n)
	}
}

func TestFertilityOctavesFloor(t *testing.T) {
	f := NewFertility(1, 0.01, 0, 0)
	if f.octaves != 1 {
		t.Fatalf("octaves = %d, want 1", f.octaves)
	}
}
