package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one timed section of a tick.
type Phase uint8

// Phases in tick order. Perception covers the whole parallel decision pass;
// the rest run serially on the tick goroutine.
const (
	PhaseSpatialIndex Phase = iota
	PhasePerception
	PhaseMotion
	PhaseInteraction
	PhaseUpkeep
	PhaseFood
	PhaseDeath
	PhaseReproduction
	PhaseTelemetry

	NumPhases
)

var phaseNames = [NumPhases]string{
	"spatial_index", "perception", "motion", "interaction",
	"upkeep", "food", "death", "reproduction", "telemetry",
}

func (p Phase) String() string {
	if p < NumPhases {
		return phaseNames[p]
	}
	return "unknown"
}

var phaseOrder = func() []Phase {
	out := make([]Phase, NumPhases)
	for i := range out {
		out[i] = Phase(i)
	}
	return out
}()

// Phases returns every phase in tick order.
func Phases() []Phase { return phaseOrder }

// tickTiming is the timing of one completed tick.
type tickTiming struct {
	total  time.Duration
	phases [NumPhases]time.Duration
}

// PerfCollector times tick phases over a rolling window of ticks and, in
// graphical mode, the interval between frames.
type PerfCollector struct {
	ring  []tickTiming
	next  int
	count int

	cur        tickTiming
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector keeps the last window ticks. A window below one is
// replaced by 60.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]tickTiming, window)}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.cur = tickTiming{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
// A phase entered twice in one tick accumulates.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase, p.phaseStart, p.inPhase = phase, now, true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase < NumPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// EndTick closes the last phase and stores the tick in the window.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
}

// RecordFrame marks the end of a rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarizes the window. Phase arrays are indexed by Phase.
type PerfStats struct {
	Ticks           int
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration
	TicksPerSecond  float64

	PhaseAvg [NumPhases]time.Duration
	PhasePct [NumPhases]float64 // share of the average tick, 0-100

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Ticks: p.count, FrameDuration: p.frame}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return s
	}

	totals := make([]float64, p.count)
	var sum time.Duration
	var phaseSum [NumPhases]time.Duration
	for i, t := range p.ring[:p.count] {
		totals[i] = float64(t.total)
		sum += t.total
		for ph, d := range t.phases {
			phaseSum[ph] += d
		}
	}
	slices.Sort(totals)

	n := time.Duration(p.count)
	s.AvgTickDuration = sum / n
	s.MinTickDuration = time.Duration(totals[0])
	s.MaxTickDuration = time.Duration(totals[len(totals)-1])
	s.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil))
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[ph] = 100 * float64(s.PhaseAvg[ph]) / float64(s.AvgTickDuration)
		}
	}
	return s
}

// Bottleneck returns the phase with the largest average duration.
func (s PerfStats) Bottleneck() Phase {
	best := Phase(0)
	for ph := range s.PhaseAvg {
		if s.PhaseAvg[ph] > s.PhaseAvg[best] {
			best = Phase(ph)
		}
	}
	return best
}

// LogStats logs the summary at info level. Phases under 0.1% are omitted.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
		"bottleneck", s.Bottleneck().String(),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, ph := range phaseOrder {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, ph.String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, ph := range phaseOrder {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd       int     `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	P95TickUS       int64   `csv:"p95_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	FPS             float64 `csv:"fps"`
	SpatialIndexPct float64 `csv:"spatial_index_pct"`
	PerceptionPct   float64 `csv:"perception_pct"`
	MotionPct       float64 `csv:"motion_pct"`
	InteractionPct  float64 `csv:"interaction_pct"`
	UpkeepPct       float64 `csv:"upkeep_pct"`
	FoodPct         float64 `csv:"food_pct"`
	DeathPct        float64 `csv:"death_pct"`
	ReproductionPct float64 `csv:"reproduction_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s into a row for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	pct := s.PhasePct
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTickDuration.Microseconds(),
		MinTickUS:       s.MinTickDuration.Microseconds(),
		MaxTickUS:       s.MaxTickDuration.Microseconds(),
		P95TickUS:       s.P95TickDuration.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		FPS:             s.FPS,
		SpatialIndexPct: pct[PhaseSpatialIndex],
		PerceptionPct:   pct[PhasePerception],
		MotionPct:       pct[PhaseMotion],
		InteractionPct:  pct[PhaseInteraction],
		UpkeepPct:       pct[PhaseUpkeep],
		FoodPct:         pct[PhaseFood],
		DeathPct:        pct[PhaseDeath],
		ReproductionPct: pct[PhaseReproduction],
		TelemetryPct:    pct[PhaseTelemetry],
	}
}
