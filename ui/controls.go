package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxSpeed is the largest number of ticks advanced per frame.
const MaxSpeed = 30

// ControlsState is what the user asked for this frame.
type ControlsState struct {
	Paused bool
	Step   bool // advance one tick while paused
	Speed  int  // ticks per frame
}

// ControlsPanel renders simulation controls and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{renderer: NewRenderer(), x: x, y: y, width: width, visible: true}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point falls on the panel, so clicks
// there are not treated as world selections.
func (c *ControlsPanel) Contains(overlays *OverlayRegistry, x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x <= float32(c.x+c.width) &&
		y >= float32(c.y) && y <= float32(c.y+c.height(overlays))
}

func (c *ControlsPanel) height(overlays *OverlayRegistry) int32 {
	t := c.renderer.Theme
	rows := int32(len(overlays.All()) + len(overlays.Categories()))
	return t.Padding*2 + 20 + 36 + 34 + rows*(t.LineHeight+6)
}

// Draw renders the panel and applies button presses to state and overlays.
func (c *ControlsPanel) Draw(state ControlsState, overlays *OverlayRegistry) ControlsState {
	state.Step = false
	if !c.visible {
		return state
	}

	r := c.renderer
	pad := r.Theme.Padding
	r.DrawPanel(c.x, c.y, c.width, c.height(overlays))

	x := float32(c.x + pad)
	y := float32(c.y + pad)
	w := float32(c.width - pad*2)

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += 20

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w/2 - 4, Height: 26}, toggleText(state.Paused, "Resume", "Pause")) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + w/2 + 4, Y: y, Width: w/2 - 4, Height: 26}, "Step") {
		state.Paused = true
		state.Step = true
	}
	y += 36

	speed := gui.SliderBar(
		rl.Rectangle{X: x + 40, Y: y, Width: w - 80, Height: 18},
		"Speed", fmt.Sprintf("%dx", state.Speed),
		float32(state.Speed), 1, MaxSpeed,
	)
	state.Speed = min(max(int(speed+0.5), 1), MaxSpeed)
	y += 34

	for _, cat := range overlays.Categories() {
		rl.DrawText(categoryLabel(cat), int32(x), int32(y), r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += float32(r.Theme.LineHeight + 6)
		for _, d := range overlays.ByCategory(cat) {
			label := fmt.Sprintf("%s %s [%s]", toggleText(overlays.IsEnabled(d.ID), "[x]", "[ ]"), d.Name, d.KeyLabel)
			if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: float32(r.Theme.LineHeight + 2)}, label) {
				overlays.Toggle(d.ID)
			}
			y += float32(r.Theme.LineHeight + 6)
		}
	}
	return state
}

func categoryLabel(cat string) string {
	switch cat {
	case "world":
		return "World"
	case "selection":
		return "Selection"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
