package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evosoup/evolution"
	"github.com/pthm-cable/evosoup/renderer"
	"github.com/pthm-cable/evosoup/telemetry"
)

// HUDData holds the values shown in the top-left HUD.
type HUDData struct {
	Tick          int
	SimTime       float64 // seconds
	Population    int
	Target        int
	Food          int
	GraveyardSize int
	BestFitness   float64
	Speed         int
	FPS           int32
	Paused        bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText("evosoup", 10, 10, 20, rl.White)
	rl.DrawText(
		fmt.Sprintf("Organisms: %d/%d | Food: %d | Graveyard: %d (best %.2f)",
			data.Population, data.Target, data.Food, data.GraveyardSize, data.BestFitness),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d (%.0fs) | Speed: %dx | FPS: %d", data.Tick, data.SimTime, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)
	if data.Paused {
		rl.DrawText("PAUSED", 10, 75, 16, rl.Yellow)
	}
}

// DrawLegend renders the key legend along the bottom edge.
func (h *HUD) DrawLegend(screenHeight int32, legend string) {
	rl.DrawText(legend, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-phase tick timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x, p.y = x, y
}

// Draw renders the panel and returns its bottom edge.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) int32 {
	r := p.renderer
	pad := r.Theme.Padding
	height := pad*2 + 20 + 16 + int32(len(telemetry.Phases()))*14
	r.DrawPanel(p.x, p.y, p.width, height)

	x, y := p.x+pad, p.y+pad
	rl.DrawText("Tick Phases", x, y, 16, rl.White)
	y += 20
	rl.DrawText(fmt.Sprintf("Avg: %s | p95: %s | %.0f ticks/s",
		stats.AvgTickDuration.Round(time.Microsecond), stats.P95TickDuration.Round(time.Microsecond), stats.TicksPerSecond),
		x, y, 14, rl.Yellow)
	y += 16

	for _, phase := range telemetry.Phases() {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(fmt.Sprintf("%-14s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color)
		y += 14
	}
	return p.y + height
}

// PoolPanel renders per-pool census and graveyard statistics.
type PoolPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPoolPanel creates a pool statistics panel.
func NewPoolPanel(x, y, width int32) *PoolPanel {
	return &PoolPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *PoolPanel) SetPosition(x, y int32) {
	p.x, p.y = x, y
}

// Draw renders one row per pool and returns the bottom edge.
func (p *PoolPanel) Draw(pools []evolution.PoolStats, target int) int32 {
	r := p.renderer
	pad := r.Theme.Padding
	line := r.Theme.LineHeight
	height := pad*2 + 20 + line + int32(len(pools))*line
	r.DrawPanel(p.x, p.y, p.width, height)

	x, y := p.x+pad, p.y+pad
	rl.DrawText("Pools", x, y, 16, rl.White)
	y += 20
	rl.DrawText("    alive  births deaths  grave  mean   max   div", x, y, 12, r.Theme.SectionHeader)
	y += line

	for _, s := range pools {
		rl.DrawRectangle(x, y+2, 10, 10, renderer.PoolColor(s.Pool, len(pools)))
		color := r.Theme.LabelColor
		if s.Alive < target {
			color = r.Theme.BarFillMedium
		}
		if s.Alive == 0 {
			color = r.Theme.BarFillLow
		}
		rl.DrawText(fmt.Sprintf("%5d %6d %6d %6d %5.2f %5.2f %5.2f",
			s.Alive, s.Births, s.Deaths, s.Entries, s.MeanFitness, s.MaxFitness, s.Diversity),
			x+16, y, 12, color)
		y += line
	}
	return p.y + height
}

// eventColors tints event log lines by category.
var eventColors = [...]rl.Color{
	telemetry.LogReproduction: {R: 120, G: 220, B: 120, A: 255},
	telemetry.LogCombat:       {R: 235, G: 90, B: 80, A: 255},
	telemetry.LogSharing:      {R: 90, G: 170, B: 240, A: 255},
	telemetry.LogDeath:        {R: 150, G: 150, B: 150, A: 255},
	telemetry.LogFood:         {R: 230, G: 200, B: 90, A: 255},
}

func eventColor(c telemetry.LogCategory) rl.Color {
	if int(c) < len(eventColors) {
		return eventColors[c]
	}
	return rl.LightGray
}

// EventLogPanel renders the most recent world events, newest on top. It is
// anchored by its bottom edge so it grows upwards.
type EventLogPanel struct {
	renderer *Renderer
	x        int32
	bottom   int32
	width    int32
}

// NewEventLogPanel creates an event log panel.
func NewEventLogPanel(x, bottom, width int32) *EventLogPanel {
	return &EventLogPanel{renderer: NewRenderer(), x: x, bottom: bottom, width: width}
}

// SetPosition updates the left and bottom edges.
func (p *EventLogPanel) SetPosition(x, bottom int32) {
	p.x, p.bottom = x, bottom
}

// Draw renders entries and returns the panel's top edge.
func (p *EventLogPanel) Draw(entries []telemetry.LogEntry) int32 {
	r := p.renderer
	pad := r.Theme.Padding
	line := r.Theme.LineHeight
	height := pad*2 + 20 + int32(max(len(entries), 1))*line
	y0 := p.bottom - height
	r.DrawPanel(p.x, y0, p.width, height)

	x, y := p.x+pad, y0+pad
	rl.DrawText("Events", x, y, 16, rl.White)
	y += 20
	if len(entries) == 0 {
		rl.DrawText("nothing yet", x, y, 12, r.Theme.LabelColor)
		return y0
	}
	for _, e := range entries {
		rl.DrawText(fmt.Sprintf("%6d  %s", e.Tick, e.Description()), x, y, 12, eventColor(e.Category))
		y += line
	}
	return y0
}
