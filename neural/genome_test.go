package neural

import (
	"errors"
	"math"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/evosoup/config"
)

const (
	testSensors = 12
	testMemory  = 3
	testSignal  = 2
)

func testSpec(kind Kind) Spec {
	return Spec{
		Kind:      kind,
		Inputs:    testSensors + testMemory,
		Outputs:   config.NumActions + testSignal + testMemory,
		Hidden:    []int{10, 6},
		ModelDim:  8,
		Blocks:    2,
		Heads:     2,
		HeadDim:   4,
		FFDim:     12,
		InitScale: 0.8,
	}
}

func newTestRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func testInputs(rng *rand.Rand) (sensory, memory []float64) {
	sensory = make([]float64, testSensors)
	for i := range sensory {
		sensory[i] = rng.Float64()*2 - 1
	}
	memory = make([]float64, testMemory)
	for i := range memory {
		memory[i] = rng.Float64()*2 - 1
	}
	return sensory, memory
}

var kinds = []Kind{KindMLP, KindTransformer}

func TestSpecFromConfig(t *testing.T) {
	cfg := config.MustDefault()
	spec, err := SpecFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if spec.Inputs != cfg.Derived.NumInputs || spec.Outputs != cfg.Derived.NumOutputs {
		t.Errorf("spec io = %d/%d, want %d/%d", spec.Inputs, spec.Outputs, cfg.Derived.NumInputs, cfg.Derived.NumOutputs)
	}

	cfg.Brain.Kind = "lstm"
	if _, err := SpecFromConfig(cfg); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("SpecFromConfig(lstm) error = %v, want ErrUnknownKind", err)
	}
}

func TestInferRanges(t *testing.T) {
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			rng := newTestRNG(1)
			g := NewGenome(rng, testSpec(kind), 0.1)
			s := NewScratch()

			for i := 0; i < 50; i++ {
				sensory, memory := testInputs(rng)
				act, signal, mem := g.Infer(sensory, memory, s)

				if len(mem) != testMemory {
					t.Fatalf("memory length = %d, want %d", len(mem), testMemory)
				}
				if len(signal) != testSignal {
					t.Fatalf("signal length = %d, want %d", len(signal), testSignal)
				}
				for _, v := range signal {
					if v < 0 || v > 1 {
						t.Errorf("signal out of range: %v", v)
					}
				}
				if act.Turn < -1 || act.Turn > 1 {
					t.Errorf("turn out of range: %v", act.Turn)
				}
				for name, v := range map[string]float64{"move": act.Move, "attack": act.Attack, "share": act.Share} {
					if v < 0 || v > 1 {
						t.Errorf("%s out of range: %v", name, v)
					}
				}
				for _, m := range mem {
					if m < -1 || m > 1 {
						t.Errorf("memory out of range: %v", m)
					}
				}
			}
		})
	}
}

func TestInferDeterministic(t *testing.T) {
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			a := NewGenome(newTestRNG(7), testSpec(kind), 0.1)
			b := NewGenome(newTestRNG(7), testSpec(kind), 0.1)
			sensory, memory := testInputs(newTestRNG(3))

			// Separate scratch areas must not influence results.
			actA, sigA, memA := a.Infer(sensory, memory, NewScratch())
			memA = append([]float64(nil), memA...)
			sigA = append([]float64(nil), sigA...)
			actB, sigB, memB := b.Infer(sensory, memory, NewScratch())

			if actA != actB {
				t.Errorf("actions differ: %+v vs %+v", actA, actB)
			}
			for i := range memA {
				if memA[i] != memB[i] {
					t.Errorf("memory[%d] differs: %v vs %v", i, memA[i], memB[i])
				}
			}
			for i := range sigA {
				if sigA[i] != sigB[i] {
					t.Errorf("signal[%d] differs: %v vs %v", i, sigA[i], sigB[i])
				}
			}
		})
	}
}

func TestMemoryFeedsBack(t *testing.T) {
	g := NewGenome(newTestRNG(11), testSpec(KindMLP), 0.1)
	s := NewScratch()
	sensory, _ := testInputs(newTestRNG(5))

	zero := make([]float64, testMemory)
	ones := []float64{1, 1, 1}
	a, _, _ := g.Infer(sensory, zero, s)
	b, _, _ := g.Infer(sensory, ones, s)
	if a == b {
		t.Error("memory input had no effect on the action")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			rng := newTestRNG(2)
			g := NewGenome(rng, testSpec(kind), 0.5)
			c := g.Clone()

			if d, err := Distance(g, c); err != nil || d != 0 {
				t.Fatalf("clone distance = %v, %v; want 0", d, err)
			}
			c.Mutate(rng, Mutation{Sigma: 0.3})
			if d, _ := Distance(g, c); d == 0 {
				t.Error("mutating the clone did not change it")
			}
			if !Compatible(g, c) {
				t.Error("mutation changed the shape")
			}
		})
	}
}

func TestCrossoverUniformPicksParentWeights(t *testing.T) {
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			rng := newTestRNG(4)
			a := NewGenome(rng, testSpec(kind), 0.1)
			b := NewGenome(rng, testSpec(kind), 0.3)
			flatA, flatB := a.Flat(), b.Flat()

			child, err := Crossover{Policy: CrossoverUniform}.Cross(rng, a, b)
			if err != nil {
				t.Fatal(err)
			}
			if !child.Shape().Equal(a.Shape()) {
				t.Fatal("child shape differs from parents")
			}

			var fromA, fromB int
			for i, w := range child.Flat() {
				switch w {
				case flatA[i]:
					fromA++
				case flatB[i]:
					fromB++
				default:
					t.Fatalf("weight %d = %v is from neither parent", i, w)
				}
			}
			if fromA == 0 || fromB == 0 {
				t.Errorf("uniform crossover took %d from a and %d from b", fromA, fromB)
			}
			if child.MutationRate != a.MutationRate && child.MutationRate != b.MutationRate {
				t.Errorf("child rate %v from neither parent", child.MutationRate)
			}
			// Parents are untouched.
			if d, _ := Distance(a, child); d == 0 {
				t.Error("child identical to parent a")
			}
		})
	}
}

func TestCrossoverInterpolateStaysBetweenParents(t *testing.T) {
	rng := newTestRNG(8)
	a := NewGenome(rng, testSpec(KindTransformer), 0.1)
	b := NewGenome(rng, testSpec(KindTransformer), 0.1)

	child, err := Crossover{Policy: CrossoverInterpolate, Min: 0.25, Max: 0.75}.Cross(rng, a, b)
	if err != nil {
		t.Fatal(err)
	}
	flatA, flatB := a.Flat(), b.Flat()
	for i, w := range child.Flat() {
		lo, hi := math.Min(flatA[i], flatB[i]), math.Max(flatA[i], flatB[i])
		if w < lo-1e-12 || w > hi+1e-12 {
			t.Fatalf("weight %d = %v outside [%v, %v]", i, w, lo, hi)
		}
	}
}

func TestCrossoverRejectsMismatch(t *testing.T) {
	rng := newTestRNG(9)
	mlp := NewGenome(rng, testSpec(KindMLP), 0.1)
	tf := NewGenome(rng, testSpec(KindTransformer), 0.1)

	wide := testSpec(KindMLP)
	wide.Hidden = []int{11, 6}
	mlpWide := NewGenome(rng, wide, 0.1)

	tests := []struct {
		name string
		a, b *Genome
	}{
		{"kind", mlp, tf},
		{"hidden width", mlp, mlpWide},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, policy := range []CrossoverPolicy{CrossoverUniform, CrossoverInterpolate} {
				child, err := Crossover{Policy: policy, Min: 0.5, Max: 0.5}.Cross(rng, tt.a, tt.b)
				if !errors.Is(err, ErrShapeMismatch) {
					t.Errorf("policy %d: err = %v, want ErrShapeMismatch", policy, err)
				}
				if child != nil {
					t.Errorf("policy %d: got a child on mismatch", policy)
				}
			}
			if _, err := Distance(tt.a, tt.b); !errors.Is(err, ErrShapeMismatch) {
				t.Errorf("Distance err = %v, want ErrShapeMismatch", err)
			}
		})
	}
}

func TestMutateRateDriftBounded(t *testing.T) {
	rng := newTestRNG(10)
	g := NewGenome(rng, testSpec(KindMLP), 0.5)
	for i := 0; i < 500; i++ {
		g.Mutate(rng, Mutation{Sigma: 0.01, RateDrift: 2})
		if g.MutationRate < minMutationRate || g.MutationRate > maxMutationRate {
			t.Fatalf("mutation rate %v escaped bounds", g.MutationRate)
		}
	}
}

func TestMutateZeroRateIsNoop(t *testing.T) {
	rng := newTestRNG(12)
	g := NewGenome(rng, testSpec(KindTransformer), 0)
	before := g.Clone()
	if delta := g.Mutate(rng, Mutation{Sigma: 1, BigRate: 1, BigSigma: 1}); delta != 0 {
		t.Errorf("avg delta = %v, want 0", delta)
	}
	if d, _ := Distance(before, g); d != 0 {
		t.Errorf("weights moved by %v with zero rate", d)
	}
}

func TestSampleSigma(t *testing.T) {
	rng := newTestRNG(13)
	lo, hi := 0.002, 0.2
	var below, above int
	mid := math.Sqrt(lo * hi) // log-space midpoint
	for i := 0; i < 2000; i++ {
		s := SampleSigma(rng, lo, hi)
		if s < lo || s > hi {
			t.Fatalf("sigma %v outside [%v, %v]", s, lo, hi)
		}
		if s < mid {
			below++
		} else {
			above++
		}
	}
	if below < 800 || above < 800 {
		t.Errorf("log-uniform split %d/%d is lopsided", below, above)
	}
	if got := SampleSigma(rng, 0.1, 0.1); got != 0.1 {
		t.Errorf("degenerate range = %v, want 0.1", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	rng := newTestRNG(14)
	genomes := []*Genome{
		NewGenome(rng, testSpec(KindMLP), 0.1),
		NewGenome(rng, testSpec(KindTransformer), 0.2),
	}
	path := filepath.Join(t.TempDir(), "genomes.json")
	if err := SaveGenomes(path, genomes); err != nil {
		t.Fatalf("SaveGenomes: %v", err)
	}
	loaded, err := LoadGenomes(path)
	if err != nil {
		t.Fatalf("LoadGenomes: %v", err)
	}
	if len(loaded) != len(genomes) {
		t.Fatalf("loaded %d genomes, want %d", len(loaded), len(genomes))
	}

	sensory, memory := testInputs(rng)
	for i := range genomes {
		if loaded[i].Kind != genomes[i].Kind || loaded[i].MutationRate != genomes[i].MutationRate {
			t.Errorf("genome %d header mismatch", i)
		}
		want, _, _ := genomes[i].Infer(sensory, memory, NewScratch())
		got, _, _ := loaded[i].Infer(sensory, memory, NewScratch())
		if want != got {
			t.Errorf("genome %d behaves differently after reload: %+v vs %+v", i, got, want)
		}
	}
}

func TestUnmarshalRejects(t *testing.T) {
	g := NewGenome(newTestRNG(15), testSpec(KindMLP), 0.1)
	data, err := MarshalGenome(g)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mangle  func(string) string
		wantErr error
	}{
		{"unknown kind", func(s string) string {
			return strings.Replace(s, `"kind":"mlp"`, `"kind":"lstm"`, 1)
		}, ErrUnknownKind},
		{"wrong rows", func(s string) string {
			return strings.Replace(s, `"rows":10`, `"rows":9`, 1)
		}, ErrShapeMismatch},
		{"bad spec", func(s string) string {
			return strings.Replace(s, `"inputs":15`, `"inputs":0`, 1)
		}, ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mangled := tt.mangle(string(data))
			if mangled == string(data) {
				t.Fatal("mangle did not change the document")
			}
			if _, err := UnmarshalGenome([]byte(mangled)); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func BenchmarkInfer(b *testing.B) {
	for _, kind := range kinds {
		b.Run(kind.String(), func(b *testing.B) {
			rng := newTestRNG(1)
			g := NewGenome(rng, testSpec(kind), 0.1)
			s := NewScratch()
			sensory, memory := testInputs(rng)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				g.Infer(sensory, memory, s)
			}
		})
	}
}
