package neural

import (
	"fmt"
	"math/rand/v2"

	"github.com/pthm-cable/evosoup/config"
)

// CrossoverPolicy selects how two parents' weights are combined.
type CrossoverPolicy uint8

const (
	// CrossoverUniform takes each weight from either parent with equal odds.
	CrossoverUniform CrossoverPolicy = iota
	// CrossoverInterpolate blends parents as w*a + (1-w)*b.
	CrossoverInterpolate
)

// ParseCrossoverPolicy converts a config name into a policy.
func ParseCrossoverPolicy(s string) (CrossoverPolicy, error) {
	switch s {
	case config.CrossoverUniform:
		return CrossoverUniform, nil
	case config.CrossoverInterpolate:
		return CrossoverInterpolate, nil
	default:
		return 0, fmt.Errorf("unknown crossover policy %q", s)
	}
}

// Crossover configures recombination.
type Crossover struct {
	Policy CrossoverPolicy
	// Blend weight range for CrossoverInterpolate; w ~ U[Min, Max].
	Min, Max float64
}

// Cross produces a child from two parents of identical shape.
// Parents are not modified. Returns ErrShapeMismatch when the parents differ
// in kind or any tensor dimension.
func (c Crossover) Cross(rng *rand.Rand, a, b *Genome) (*Genome, error) {
	if !Compatible(a, b) {
		return nil, fmt.Errorf("crossover %v with %v: %w", a.Kind, b.Kind, ErrShapeMismatch)
	}

	child := newZeroGenome(a.spec)
	ta, tb, tc := a.tensors(), b.tensors(), child.tensors()

	switch c.Policy {
	case CrossoverInterpolate:
		w := c.Min + rng.Float64()*(c.Max-c.Min)
		for i := range tc {
			da, db, dc := ta[i].M.RawMatrix().Data, tb[i].M.RawMatrix().Data, tc[i].M.RawMatrix().Data
			for j := range dc {
				dc[j] = w*da[j] + (1-w)*db[j]
			}
		}
		child.MutationRate = w*a.MutationRate + (1-w)*b.MutationRate
	default:
		for i := range tc {
			da, db, dc := ta[i].M.RawMatrix().Data, tb[i].M.RawMatrix().Data, tc[i].M.RawMatrix().Data
			for j := range dc {
				if rng.IntN(2) == 0 {
					dc[j] = da[j]
				} else {
					dc[j] = db[j]
				}
			}
		}
		child.MutationRate = a.MutationRate
		if rng.IntN(2) == 1 {
			child.MutationRate = b.MutationRate
		}
	}
	return child, nil
}
