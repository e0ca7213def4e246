package neural

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// dense is one fully connected tanh layer: out = tanh(W·x + b).
type dense struct {
	W *mat.Dense // out × in
	B *mat.Dense // out × 1
}

func newDense(in, out int) dense {
	return dense{W: mat.NewDense(out, in, nil), B: mat.NewDense(out, 1, nil)}
}

// forward writes tanh(W·x + b) into buf and returns it as a vector.
func (d dense) forward(x *mat.VecDense, buf []float64) *mat.VecDense {
	n, _ := d.W.Dims()
	out := mat.NewVecDense(n, buf[:n])
	out.MulVec(d.W, x)
	data := out.RawVector().Data
	floats.Add(data, d.B.RawMatrix().Data)
	tanhInPlace(data)
	return out
}

// MLP is a fixed-topology multilayer perceptron with tanh on every layer.
type MLP struct {
	layers []dense
}

func newMLP(spec Spec) *MLP {
	sizes := make([]int, 0, len(spec.Hidden)+2)
	sizes = append(sizes, spec.Inputs)
	sizes = append(sizes, spec.Hidden...)
	sizes = append(sizes, spec.Outputs)

	m := &MLP{layers: make([]dense, len(sizes)-1)}
	for i := range m.layers {
		m.layers[i] = newDense(sizes[i], sizes[i+1])
	}
	return m
}

func (m *MLP) init(rng *rand.Rand, scale float64) {
	for _, l := range m.layers {
		randomize(rng, l.W, scale)
	}
}

func (m *MLP) tensors() []namedTensor {
	ts := make([]namedTensor, 0, 2*len(m.layers))
	for i, l := range m.layers {
		ts = append(ts,
			namedTensor{fmt.Sprintf("layers.%d.w", i), l.W},
			namedTensor{fmt.Sprintf("layers.%d.b", i), l.B},
		)
	}
	return ts
}

func (m *MLP) forward(x []float64, s *Scratch) []float64 {
	v := mat.NewVecDense(len(x), x)
	for i, l := range m.layers {
		n, _ := l.W.Dims()
		v = l.forward(v, s.buf(i, n))
	}
	return v.RawVector().Data
}

func tanhInPlace(x []float64) {
	for i, v := range x {
		x[i] = math.Tanh(v)
	}
}
