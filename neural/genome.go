// Package neural provides the evolvable brains that drive organisms.
//
// A Genome is a closed tagged variant over two fixed-topology architectures,
// an MLP and a small Transformer. Both store their parameters as an ordered
// list of gonum dense matrices so that mutation, crossover, distance and
// serialisation are written once over the tensor list.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/evosoup/config"
)

// Kind identifies a brain architecture.
type Kind uint8

const (
	KindMLP Kind = iota
	KindTransformer
)

var (
	// ErrShapeMismatch is returned when two genomes (or a genome and a
	// serialised tensor set) do not share kind and tensor dimensions.
	ErrShapeMismatch = errors.New("genome shape mismatch")
	// ErrUnknownKind is returned for brain kinds outside the variant.
	ErrUnknownKind = errors.New("unknown brain kind")
)

func (k Kind) String() string {
	switch k {
	case KindMLP:
		return config.BrainMLP
	case KindTransformer:
		return config.BrainTransformer
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind converts a config or file name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case config.BrainMLP:
		return KindMLP, nil
	case config.BrainTransformer:
		return KindTransformer, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Spec fully describes a genome's architecture.
type Spec struct {
	Kind      Kind    `json:"-"`
	Inputs    int     `json:"inputs"`
	Outputs   int     `json:"outputs"`
	Hidden    []int   `json:"hidden,omitempty"`
	ModelDim  int     `json:"model_dim,omitempty"`
	Blocks    int     `json:"blocks,omitempty"`
	Heads     int     `json:"heads,omitempty"`
	HeadDim   int     `json:"head_dim,omitempty"`
	FFDim     int     `json:"ff_dim,omitempty"`
	InitScale float64 `json:"init_scale"`
}

// SpecFromConfig derives the brain architecture from the loaded config.
func SpecFromConfig(cfg *config.Config) (Spec, error) {
	kind, err := ParseKind(cfg.Brain.Kind)
	if err != nil {
		return Spec{}, err
	}
	t := cfg.Brain.Transformer
	return Spec{
		Kind:      kind,
		Inputs:    cfg.Derived.NumInputs,
		Outputs:   cfg.Derived.NumOutputs,
		Hidden:    append([]int(nil), cfg.Brain.Hidden...),
		ModelDim:  t.ModelDim,
		Blocks:    t.Blocks,
		Heads:     t.Heads,
		HeadDim:   t.HeadDim,
		FFDim:     t.FFDim,
		InitScale: cfg.Brain.InitScale,
	}, nil
}

// Genome is the evolvable parameter set of one brain.
// Exactly one of the architecture bodies is non-nil, selected by Kind.
type Genome struct {
	Kind         Kind
	MutationRate float64 // per-weight mutation probability

	spec Spec
	mlp  *MLP
	tf   *Transformer
}

// NewGenome creates a randomly initialised genome for spec.
func NewGenome(rng *rand.Rand, spec Spec, mutationRate float64) *Genome {
	g := newZeroGenome(spec)
	g.MutationRate = mutationRate
	switch g.Kind {
	case KindMLP:
		g.mlp.init(rng, spec.InitScale)
	case KindTransformer:
		g.tf.init(rng, spec.InitScale)
	}
	return g
}

// newZeroGenome allocates a genome of the given architecture with all
// weights zero (layer-norm gains are one).
func newZeroGenome(spec Spec) *Genome {
	g := &Genome{Kind: spec.Kind, spec: spec}
	switch spec.Kind {
	case KindMLP:
		g.mlp = newMLP(spec)
	case KindTransformer:
		g.tf = newTransformer(spec)
	default:
		panic(fmt.Sprintf("neural: %v", spec.Kind))
	}
	return g
}

// Spec returns the genome's architecture.
func (g *Genome) Spec() Spec { return g.spec }

// tensors returns the genome's parameters in a fixed order.
func (g *Genome) tensors() []namedTensor {
	switch g.Kind {
	case KindMLP:
		return g.mlp.tensors()
	case KindTransformer:
		return g.tf.tensors()
	default:
		return nil
	}
}

// namedTensor is a parameter matrix and its stable serialisation name.
// Vectors are stored as n×1 matrices.
type namedTensor struct {
	Name string
	M    *mat.Dense
}

// Shape describes a genome's kind and tensor dimensions.
type Shape struct {
	Kind Kind
	Dims [][2]int
}

// Shape returns the genome's shape.
func (g *Genome) Shape() Shape {
	ts := g.tensors()
	s := Shape{Kind: g.Kind, Dims: make([][2]int, len(ts))}
	for i, t := range ts {
		r, c := t.M.Dims()
		s.Dims[i] = [2]int{r, c}
	}
	return s
}

// Equal reports whether two shapes are identical.
func (s Shape) Equal(o Shape) bool {
	if s.Kind != o.Kind || len(s.Dims) != len(o.Dims) {
		return false
	}
	for i := range s.Dims {
		if s.Dims[i] != o.Dims[i] {
			return false
		}
	}
	return true
}

// NumParams returns the total number of scalar parameters.
func (s Shape) NumParams() int {
	n := 0
	for _, d := range s.Dims {
		n += d[0] * d[1]
	}
	return n
}

// Compatible reports whether two genomes can be crossed over.
func Compatible(a, b *Genome) bool {
	return a.Shape().Equal(b.Shape())
}

// Clone creates a deep copy of the genome.
func (g *Genome) Clone() *Genome {
	c := newZeroGenome(g.spec)
	c.MutationRate = g.MutationRate
	src, dst := g.tensors(), c.tensors()
	for i := range src {
		dst[i].M.Copy(src[i].M)
	}
	return c
}

// Flat returns all parameters concatenated in tensor order.
func (g *Genome) Flat() []float64 {
	ts := g.tensors()
	out := make([]float64, 0, g.Shape().NumParams())
	for _, t := range ts {
		out = append(out, t.M.RawMatrix().Data...)
	}
	return out
}

// Distance returns the Euclidean distance between two genomes in weight space.
func Distance(a, b *Genome) (float64, error) {
	if !Compatible(a, b) {
		return 0, ErrShapeMismatch
	}
	return floats.Distance(a.Flat(), b.Flat(), 2), nil
}

// randomize fills m with N(0, 1) * scale / sqrt(fanIn) values.
func randomize(rng *rand.Rand, m *mat.Dense, scale float64) {
	_, fanIn := m.Dims()
	std := scale / math.Sqrt(float64(fanIn))
	data := m.RawMatrix().Data
	for i := range data {
		data[i] = rng.NormFloat64() * std
	}
}

// fill sets every element of m to v.
func fill(m *mat.Dense, v float64) {
	data := m.RawMatrix().Data
	for i := range data {
		data[i] = v
	}
}
