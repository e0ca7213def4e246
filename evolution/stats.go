package evolution

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/evosoup/components"
)

// deltaWindow is how many recent deaths per method are kept.
const deltaWindow = 100

// deltaRing holds the most recent child-minus-parent fitness deltas.
type deltaRing struct {
	vals []float64
	next int
}

func (r *deltaRing) add(v float64) {
	if len(r.vals) < deltaWindow {
		r.vals = append(r.vals, v)
		return
	}
	r.vals[r.next] = v
	r.next = (r.next + 1) % deltaWindow
}

// ReproductionStats tracks how well each reproduction method performs,
// measured as the child's fitness minus its parents' mean fitness.
type ReproductionStats struct {
	deltas    [len(methods)]deltaRing
	Births    [len(methods)]int
	Fallbacks int // sexual or inter-pool attempts that fell back to asexual
	Deferred  int // spawns postponed because the graveyard was empty
	Reseeded  int // random genomes created after total extinction
}

var methods = [...]components.Method{
	components.MethodSeed,
	components.MethodAsexual,
	components.MethodSexual,
	components.MethodInterPool,
}

// RecordDelta stores a fitness delta for a dead organism born by method.
// Seeded organisms have no parents and are ignored.
func (s *ReproductionStats) RecordDelta(m components.Method, delta float64) {
	if m == components.MethodSeed || int(m) >= len(s.deltas) {
		return
	}
	s.deltas[m].add(delta)
}

// MethodSummary is the delta summary for one method.
type MethodSummary struct {
	Method    string  `csv:"method"`
	Births    int     `csv:"births"`
	Samples   int     `csv:"samples"`
	MeanDelta float64 `csv:"mean_delta"`
	MaxDelta  float64 `csv:"max_delta"`
}

// Summary returns one row per non-seed method.
func (s *ReproductionStats) Summary() []MethodSummary {
	out := make([]MethodSummary, 0, len(s.deltas)-1)
	for _, m := range methods[1:] {
		vals := s.deltas[m].vals
		row := MethodSummary{Method: m.String(), Births: s.Births[m], Samples: len(vals)}
		if len(vals) > 0 {
			row.MeanDelta = stat.Mean(vals, nil)
			row.MaxDelta = floats.Max(vals)
		}
		out = append(out, row)
	}
	return out
}
