package ui

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evosoup/camera"
	"github.com/pthm-cable/evosoup/evolution"
	"github.com/pthm-cable/evosoup/game"
	"github.com/pthm-cable/evosoup/renderer"
)

const (
	pickRadius      = 12.0 // pixels
	followRate      = 0.15
	fertilityTexels = 512
	poolRefreshSec  = 1.0
	legend          = "Space: pause | ,/.: speed | Click: select | Tab: next | Esc: clear | Arrows: pan | Wheel: zoom | Home: reset | F11: fullscreen"
)

// AppOptions configures the viewer.
type AppOptions struct {
	Speed    int // ticks per frame
	MaxTicks int // 0 = unlimited
}

// App is the graphical viewer. It drives the world from the render loop
// and reads it only through Snapshot and Inspect.
type App struct {
	world *game.World
	opts  AppOptions

	cam       *camera.Camera
	fertility *renderer.FertilityRenderer
	scene     *renderer.WorldRenderer

	overlays  *OverlayRegistry
	hud       *HUD
	controls  *ControlsPanel
	inspector *Inspector
	pools     *PoolPanel
	perf      *PerfPanel
	events    *EventLogPanel

	state    ControlsState
	selected uint32
	snap     game.Snapshot

	poolStats   []evolution.PoolStats
	poolElapsed float64
}

// NewApp creates a viewer for w. The window is opened by Run.
func NewApp(w *game.World, opts AppOptions) *App {
	if opts.Speed < 1 {
		opts.Speed = 1
	}
	return &App{
		world:    w,
		opts:     opts,
		overlays: NewOverlayRegistry(),
		state:    ControlsState{Speed: min(opts.Speed, MaxSpeed)},
	}
}

// Run opens the window and loops until it is closed or MaxTicks is reached.
func (a *App) Run() {
	cfg := a.world.Config()
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "evosoup")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	sw, sh := float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight())
	a.cam = camera.New(sw, sh, cfg.World.Width, cfg.World.Height)
	a.fertility = renderer.NewFertilityRenderer()
	a.fertility.Bake(a.world.Fertility(), cfg.World.Width, cfg.World.Height, fertilityTexels)
	defer a.fertility.Unload()
	a.scene = renderer.NewWorldRenderer(cfg)

	a.hud = NewHUD()
	a.controls = NewControlsPanel(10, 100, 220)
	a.inspector = NewInspector(0, 10, 300, cfg.Population.Pools)
	a.pools = NewPoolPanel(0, 0, 360)
	a.perf = NewPerfPanel(0, 0, 300)
	a.events = NewEventLogPanel(0, 0, 340)
	a.layout()

	a.snap = a.world.Snapshot()
	a.poolStats = a.world.Manager().PoolStats()

	for !rl.WindowShouldClose() {
		a.handleInput()
		if a.step() {
			slog.Info("max ticks reached", "tick", a.world.Tick())
			return
		}
		a.world.Perf().RecordFrame()
		a.snap = a.world.Snapshot()
		a.refreshPools()
		a.followSelection()

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 10, G: 12, B: 18, A: 255})
		a.draw()
		rl.EndDrawing()
	}
}

// step advances the world for this frame and reports whether the tick
// limit was reached.
func (a *App) step() bool {
	n := a.state.Speed
	if a.state.Paused {
		if !a.state.Step {
			return false
		}
		n = 1
	}
	dt := a.world.Config().Sim.DT
	for i := 0; i < n; i++ {
		a.world.Advance(dt)
		if a.opts.MaxTicks > 0 && a.world.Tick() >= a.opts.MaxTicks {
			return true
		}
	}
	return false
}

// refreshPools recomputes pool statistics about once a second; diversity
// sampling is too slow to run every frame.
func (a *App) refreshPools() {
	a.poolElapsed += float64(rl.GetFrameTime())
	if a.poolElapsed < poolRefreshSec {
		return
	}
	a.poolElapsed = 0
	a.poolStats = a.world.Manager().PoolStats()
}

func (a *App) followSelection() {
	if a.selected == 0 {
		return
	}
	o, ok := FindOrganism(&a.snap, a.selected)
	if !ok {
		a.selected = 0
		return
	}
	if a.overlays.IsEnabled(OverlayFollow) {
		a.cam.Follow(o.X, o.Y, followRate)
	}
}

// layout anchors the right-hand panels to the current screen size.
func (a *App) layout() {
	sw := int32(rl.GetScreenWidth())
	sh := int32(rl.GetScreenHeight())
	a.inspector.SetPosition(sw-a.inspector.Width()-10, 10)
	a.pools.SetPosition(sw-370, sh-40-int32(a.world.Config().Population.Pools+3)*16-20)
	a.perf.SetPosition(240, 100)
	a.events.SetPosition(10, sh-35)
}

func (a *App) handleInput() {
	if rl.IsWindowResized() {
		a.cam.Resize(float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()))
		a.layout()
	}
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.state.Paused = !a.state.Paused
	}
	if rl.IsKeyPressed(rl.KeyComma) && a.state.Speed > 1 {
		a.state.Speed--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && a.state.Speed < MaxSpeed {
		a.state.Speed++
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		a.selected = CycleOrganism(&a.snap, a.selected)
	}
	if rl.IsKeyPressed(rl.KeyEscape) {
		a.selected = 0
	}
	if key := rl.GetKeyPressed(); key != 0 {
		a.overlays.HandleKey(key)
	}

	a.handleCamera()

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		m := rl.GetMousePosition()
		if a.controls.Contains(a.overlays, m.X, m.Y) {
			return
		}
		wx, wy := a.cam.ScreenToWorld(m.X, m.Y)
		if o, ok := PickOrganism(&a.snap, wx, wy, pickRadius/a.cam.Zoom); ok {
			a.selected = o.ID
		} else {
			a.selected = 0
		}
	}
}

func (a *App) handleCamera() {
	const panSpeed = 8.0
	if rl.IsKeyDown(rl.KeyRight) {
		a.cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		a.cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		a.cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		a.cam.Pan(0, -panSpeed)
	}
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		d := rl.GetMouseDelta()
		a.cam.Pan(-float64(d.X), -float64(d.Y))
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		m := rl.GetMousePosition()
		a.cam.ZoomAt(1+float64(wheel)*0.1, m.X, m.Y)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		a.cam.SetZoom(a.cam.Zoom * 1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		a.cam.SetZoom(a.cam.Zoom * 0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		a.cam.Reset()
	}
}

func (a *App) draw() {
	if a.overlays.IsEnabled(OverlayFertility) {
		a.fertility.Draw(a.cam)
	}
	if a.overlays.IsEnabled(OverlayFood) {
		a.scene.DrawFood(a.cam, a.snap.Food)
	}

	sel, hasSel := FindOrganism(&a.snap, a.selected)
	if hasSel {
		if a.overlays.IsEnabled(OverlayVision) {
			a.scene.DrawVision(a.cam, sel)
		}
		if a.overlays.IsEnabled(OverlayScent) {
			a.scene.DrawScent(a.cam, sel)
		}
		if a.overlays.IsEnabled(OverlayRanges) {
			a.scene.DrawInteraction(a.cam, sel)
		}
	}
	a.scene.DrawOrganisms(a.cam, &a.snap, a.selected)

	a.drawPanels(hasSel)
}

func (a *App) drawPanels(hasSel bool) {
	cfg := a.world.Config()
	graveyard := a.world.Manager().Graveyard()
	best := 0.0
	for _, s := range a.poolStats {
		best = max(best, s.MaxFitness)
	}
	a.hud.Draw(HUDData{
		Tick:          a.snap.Tick,
		SimTime:       float64(a.snap.Tick) * cfg.Sim.DT,
		Population:    len(a.snap.Organisms),
		Target:        cfg.Derived.TotalTarget,
		Food:          len(a.snap.Food),
		GraveyardSize: graveyard.Len(),
		BestFitness:   best,
		Speed:         a.state.Speed,
		FPS:           rl.GetFPS(),
		Paused:        a.state.Paused,
	})

	a.state = a.controls.Draw(a.state, a.overlays)

	if hasSel && a.overlays.IsEnabled(OverlayInspector) {
		if d, ok := a.world.Inspect(a.selected); ok {
			a.inspector.Draw(&d)
		}
	}
	if a.overlays.IsEnabled(OverlayPools) {
		a.pools.Draw(a.poolStats, cfg.Population.PoolSize)
	}
	if a.overlays.IsEnabled(OverlayPerf) {
		a.perf.Draw(a.world.Perf().Stats())
	}
	if a.overlays.IsEnabled(OverlayEvents) {
		a.events.Draw(a.world.Events())
	}
	if a.overlays.IsEnabled(OverlayControlsBar) {
		a.hud.DrawLegend(int32(rl.GetScreenHeight()), legend)
	}
}
