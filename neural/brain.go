package neural

import (
	"fmt"

	"github.com/pthm-cable/evosoup/config"
)

// Action is the decoded behaviour for one tick.
// Turn is in [-1, 1]; the drives are in [0, 1].
type Action struct {
	Turn   float64
	Move   float64
	Attack float64
	Share  float64
}

// DecodeAction maps raw tanh outputs onto action ranges.
func DecodeAction(out []float64) Action {
	return Action{
		Turn:   out[0],
		Move:   unit(out[1]),
		Attack: unit(out[2]),
		Share:  unit(out[3]),
	}
}

func unit(x float64) float64 { return (x + 1) / 2 }

// Scratch holds reusable activation buffers for one inference goroutine.
// A Scratch must not be shared between goroutines.
type Scratch struct {
	input []float64
	bufs  [][]float64
}

// NewScratch returns an empty scratch area; buffers grow on first use.
func NewScratch() *Scratch { return &Scratch{} }

func (s *Scratch) buf(i, n int) []float64 {
	for len(s.bufs) <= i {
		s.bufs = append(s.bufs, nil)
	}
	if cap(s.bufs[i]) < n {
		s.bufs[i] = make([]float64, n)
	}
	return s.bufs[i][:n]
}

// Forward runs the network on a raw input vector. The returned slice is
// owned by s and is only valid until the next call with the same scratch.
func (g *Genome) Forward(input []float64, s *Scratch) []float64 {
	if len(input) != g.spec.Inputs {
		panic(fmt.Sprintf("neural: got %d inputs, want %d", len(input), g.spec.Inputs))
	}
	switch g.Kind {
	case KindMLP:
		return g.mlp.forward(input, s)
	case KindTransformer:
		return g.tf.forward(input, s)
	default:
		panic(fmt.Sprintf("neural: %v", g.Kind))
	}
}

// Infer feeds sensors and the previous memory through the brain and returns
// the decoded action, the broadcast signal in [0, 1] and the next memory
// vector. Outputs beyond the actions and memory are the signal. Both slices
// are owned by s; callers that keep them must copy them.
func (g *Genome) Infer(sensory, memory []float64, s *Scratch) (act Action, signal, next []float64) {
	n := len(sensory) + len(memory)
	if cap(s.input) < n {
		s.input = make([]float64, n)
	}
	in := s.input[:n]
	copy(in, sensory)
	copy(in[len(sensory):], memory)

	out := g.Forward(in, s)
	split := len(out) - len(memory)
	signal = out[config.NumActions:split]
	for i, v := range signal {
		signal[i] = unit(v)
	}
	return DecodeAction(out), signal, out[split:]
}
