package evolution

import (
	"cmp"
	"slices"

	"github.com/pthm-cable/evosoup/components"
	"github.com/pthm-cable/evosoup/neural"
)

// Entry is a dead organism's genome with the record it earned.
type Entry struct {
	Genome        *neural.Genome
	Fitness       float64
	Pool          int
	Seq           uint64 // insertion order; higher is newer
	AgeTicks      int
	EnergyGained  float64
	Method        components.Method
	ParentFitness float64
}

// Graveyard is a bounded ring buffer of dead organisms. When full, the
// oldest entry is evicted regardless of fitness.
type Graveyard struct {
	entries []Entry
	head    int // next write position
	size    int
	seq     uint64
}

// NewGraveyard creates a graveyard holding at most capacity entries.
func NewGraveyard(capacity int) *Graveyard {
	if capacity < 1 {
		capacity = 1
	}
	return &Graveyard{entries: make([]Entry, capacity)}
}

// Push stores e, evicting the oldest entry when full. The entry's Seq is
// assigned here.
func (g *Graveyard) Push(e Entry) {
	g.seq++
	e.Seq = g.seq
	g.entries[g.head] = e
	g.head = (g.head + 1) % len(g.entries)
	if g.size < len(g.entries) {
		g.size++
	}
}

// Len returns the number of stored entries.
func (g *Graveyard) Len() int { return g.size }

// Capacity returns the maximum number of entries.
func (g *Graveyard) Capacity() int { return len(g.entries) }

// Entries returns the stored entries from oldest to newest.
func (g *Graveyard) Entries() []Entry {
	out := make([]Entry, 0, g.size)
	start := (g.head - g.size + len(g.entries)) % len(g.entries)
	for i := 0; i < g.size; i++ {
		out = append(out, g.entries[(start+i)%len(g.entries)])
	}
	return out
}

// Ranked returns the entries of pool sorted by fitness descending, ties
// broken by recency (newer first). A negative pool selects every entry.
func (g *Graveyard) Ranked(pool int) []Entry {
	var out []Entry
	for i := 0; i < g.size; i++ {
		e := g.entries[i]
		if pool < 0 || e.Pool == pool {
			out = append(out, e)
		}
	}
	rank(out)
	return out
}

// CountPool returns the number of entries belonging to pool.
func (g *Graveyard) CountPool(pool int) int {
	n := 0
	for i := 0; i < g.size; i++ {
		if g.entries[i].Pool == pool {
			n++
		}
	}
	return n
}

// Restore replaces the contents with entries, oldest first, keeping the
// newest when there are more than fit.
func (g *Graveyard) Restore(entries []Entry) {
	clear(g.entries)
	g.head, g.size, g.seq = 0, 0, 0
	if over := len(entries) - len(g.entries); over > 0 {
		entries = entries[over:]
	}
	for _, e := range entries {
		g.Push(e)
	}
}

func rank(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Fitness, a.Fitness); c != 0 {
			return c
		}
		return cmp.Compare(b.Seq, a.Seq)
	})
}
