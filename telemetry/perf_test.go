package telemetry

import (
	"testing"
	"time"
)

func runTicks(pc *PerfCollector, n int, sleeps map[Phase]time.Duration, order ...Phase) {
	for i := 0; i < n; i++ {
		pc.StartTick()
		for _, ph := range order {
			pc.StartPhase(ph)
			if d := sleeps[ph]; d > 0 {
				time.Sleep(d)
			}
		}
		pc.EndTick()
	}
}

func TestPhaseNames(t *testing.T) {
	if len(Phases()) != int(NumPhases) {
		t.Fatalf("Phases() has %d entries, want %d", len(Phases()), NumPhases)
	}
	seen := map[string]bool{}
	for _, ph := range Phases() {
		name := ph.String()
		if name == "unknown" || seen[name] {
			t.Errorf("phase %d has bad or duplicate name %q", ph, name)
		}
		seen[name] = true
	}
	if NumPhases.String() != "unknown" {
		t.Error("out-of-range phase should be unknown")
	}
}

func TestPerfCollectorTracksPhases(t *testing.T) {
	pc := NewPerfCollector(10)
	runTicks(pc, 5, map[Phase]time.Duration{
		PhaseSpatialIndex: 100 * time.Microsecond,
		PhasePerception:   200 * time.Microsecond,
	}, PhaseSpatialIndex, PhasePerception)

	s := pc.Stats()
	if s.Ticks != 5 {
		t.Errorf("Ticks = %d, want 5", s.Ticks)
	}
	if s.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	for _, ph := range []Phase{PhaseSpatialIndex, PhasePerception} {
		if s.PhaseAvg[ph] <= 0 {
			t.Errorf("phase %s not tracked", ph)
		}
	}
	if s.PhaseAvg[PhaseFood] != 0 {
		t.Error("untouched phase has time")
	}
	if !(s.MinTickDuration <= s.P95TickDuration && s.P95TickDuration <= s.MaxTickDuration) {
		t.Errorf("min %v, p95 %v, max %v out of order", s.MinTickDuration, s.P95TickDuration, s.MaxTickDuration)
	}
}

func TestPerfCollectorRepeatedPhaseAccumulates(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.StartTick()
	pc.StartPhase(PhaseMotion)
	time.Sleep(time.Millisecond)
	pc.StartPhase(PhaseFood)
	pc.StartPhase(PhaseMotion)
	time.Sleep(time.Millisecond)
	pc.EndTick()

	if got := pc.Stats().PhaseAvg[PhaseMotion]; got < 2*time.Millisecond {
		t.Errorf("motion = %v, want >= 2ms", got)
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)
	runTicks(pc, 12, nil, PhaseMotion)

	s := pc.Stats()
	if s.Ticks != 5 {
		t.Errorf("Ticks = %d, want 5", s.Ticks)
	}
	if s.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollectorPercentages(t *testing.T) {
	pc := NewPerfCollector(10)
	runTicks(pc, 5, map[Phase]time.Duration{
		PhaseFood:  10 * time.Microsecond,
		PhaseDeath: 2 * time.Millisecond,
	}, PhaseFood, PhaseDeath)

	s := pc.Stats()
	if s.PhasePct[PhaseDeath] <= s.PhasePct[PhaseFood] {
		t.Errorf("death %v%% should exceed food %v%%", s.PhasePct[PhaseDeath], s.PhasePct[PhaseFood])
	}
	if s.Bottleneck() != PhaseDeath {
		t.Errorf("Bottleneck = %s, want death", s.Bottleneck())
	}

	row := s.ToCSV(300)
	if row.WindowEnd != 300 {
		t.Errorf("WindowEnd = %d", row.WindowEnd)
	}
	if row.DeathPct != s.PhasePct[PhaseDeath] || row.FoodPct != s.PhasePct[PhaseFood] {
		t.Error("ToCSV dropped phase percentages")
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	s := NewPerfCollector(0).Stats()
	if s.Ticks != 0 || s.AvgTickDuration != 0 || s.TicksPerSecond != 0 {
		t.Errorf("empty collector reported %+v", s)
	}
}

func TestPerfCollectorFrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)
	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	s := pc.Stats()
	if s.FrameDuration < 15*time.Millisecond {
		t.Errorf("frame duration = %v, want >= 15ms", s.FrameDuration)
	}
	if s.FPS <= 0 || s.FPS > 70 {
		t.Errorf("FPS = %v", s.FPS)
	}
}
