package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType names a kind of notable moment.
type BookmarkType string

const (
	BookmarkCombatBreakthrough   BookmarkType = "combat_breakthrough"
	BookmarkSharingSurge         BookmarkType = "sharing_surge"
	BookmarkLifespanBreakthrough BookmarkType = "lifespan_breakthrough"
	BookmarkFitnessRecord        BookmarkType = "fitness_record"
)

const (
	minBookmarkHistory = 3   // windows before surge rules fire
	surgeFactor        = 2   // current value vs rolling mean
	recordMargin       = 1.1 // new best vs old best
)

// Bookmark marks a stats window worth a snapshot.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int          `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark reports b at info level.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark", "type", string(b.Type), "tick", b.Tick, "description", b.Description)
}

// surgeRule fires when a metric jumps well above its recent mean.
type surgeRule struct {
	kind   BookmarkType
	label  string
	metric func(*WindowStats) float64
	floor  float64 // absolute minimum for the current value
}

var surgeRules = []surgeRule{
	{BookmarkCombatBreakthrough, "attacks", func(s *WindowStats) float64 { return float64(s.Attacks) }, 5},
	{BookmarkSharingSurge, "shares", func(s *WindowStats) float64 { return float64(s.Shares) }, 5},
	{BookmarkLifespanBreakthrough, "mean age", func(s *WindowStats) float64 { return s.AgeMean }, 0},
}

// BookmarkDetector compares each stats window with the ones before it.
type BookmarkDetector struct {
	size    int
	recent  []WindowStats // oldest first, at most size entries
	record  float64       // best fitness seen so far
	samples []float64
}

// NewBookmarkDetector keeps historySize windows of context.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	size := max(historySize, minBookmarkHistory+1)
	return &BookmarkDetector{size: size, recent: make([]WindowStats, 0, size)}
}

// Check returns the bookmarks triggered by stats and then adds it to the
// history.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var out []Bookmark
	if len(bd.recent) >= minBookmarkHistory {
		for i := range surgeRules {
			if b, ok := bd.surge(&surgeRules[i], &stats); ok {
				out = append(out, b)
			}
		}
		if bd.record > 0 && stats.BestFitness > bd.record*recordMargin {
			out = append(out, Bookmark{
				Type:        BookmarkFitnessRecord,
				Tick:        stats.WindowEndTick,
				Description: fmt.Sprintf("best fitness %.2f beats previous record %.2f", stats.BestFitness, bd.record),
			})
		}
	}

	bd.record = max(bd.record, stats.BestFitness)
	if len(bd.recent) == bd.size {
		bd.recent = append(bd.recent[:0], bd.recent[1:]...)
	}
	bd.recent = append(bd.recent, stats)
	return out
}

func (bd *BookmarkDetector) surge(r *surgeRule, stats *WindowStats) (Bookmark, bool) {
	bd.samples = bd.samples[:0]
	for i := range bd.recent {
		bd.samples = append(bd.samples, r.metric(&bd.recent[i]))
	}
	mean := stat.Mean(bd.samples, nil)
	cur := r.metric(stats)
	if mean <= 0 || cur <= surgeFactor*mean || cur < r.floor {
		return Bookmark{}, false
	}
	return Bookmark{
		Type:        r.kind,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%s %.1f is %.1fx the recent mean %.1f", r.label, cur, cur/mean, mean),
	}, true
}
