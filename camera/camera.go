// Package camera maps the toroidal arena onto the screen.
package camera

import (
	"math"

	"github.com/pthm-cable/evosoup/systems"
)

// Camera controls the viewport into the arena. Positions are world units;
// the view wraps with the torus so there is no edge to pan past.
type Camera struct {
	// Center of the view in world coordinates
	X, Y float64

	// Zoom level (1.0 = one world unit per pixel)
	Zoom float64

	ViewportW, ViewportH float64
	WorldW, WorldH       float64

	MinZoom, MaxZoom float64
}

// ScreenPos is a position in pixels.
type ScreenPos struct{ X, Y float32 }

// New creates a camera centered on the arena, zoomed to fit it.
func New(viewportW, viewportH, worldW, worldH float64) *Camera {
	c := &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MaxZoom:   8.0,
	}
	c.MinZoom = c.fitZoom() / 2
	c.Zoom = c.fitZoom()
	return c
}

// fitZoom is the zoom at which the whole arena just fits the viewport.
func (c *Camera) fitZoom() float64 {
	return math.Min(c.ViewportW/c.WorldW, c.ViewportH/c.WorldH)
}

// WorldToScreen converts a world position to screen pixels using the
// nearest image of the point.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float32) {
	dx, dy := systems.ToroidalDelta(c.X, c.Y, wx, wy, c.WorldW, c.WorldH)
	return float32(c.ViewportW/2 + dx*c.Zoom), float32(c.ViewportH/2 + dy*c.Zoom)
}

// ScreenToWorld converts screen pixels to a wrapped world position.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float64) {
	dx := (float64(sx) - c.ViewportW/2) / c.Zoom
	dy := (float64(sy) - c.ViewportH/2) / c.Zoom
	return systems.Wrap(c.X+dx, c.WorldW), systems.Wrap(c.Y+dy, c.WorldH)
}

// Scale converts a world length to pixels.
func (c *Camera) Scale(length float64) float32 {
	return float32(length * c.Zoom)
}

// Images returns every on-screen position of a circle at (wx, wy). When
// zoomed out past the arena size, or near the wrap seam, one body can
// appear more than once.
func (c *Camera) Images(dst []ScreenPos, wx, wy, radius float64) []ScreenPos {
	dst = dst[:0]
	dx, dy := systems.ToroidalDelta(c.X, c.Y, wx, wy, c.WorldW, c.WorldH)
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius

	for _, ox := range [3]float64{0, -c.WorldW, c.WorldW} {
		x := dx + ox
		if math.Abs(x) > halfW {
			continue
		}
		for _, oy := range [3]float64{0, -c.WorldH, c.WorldH} {
			y := dy + oy
			if math.Abs(y) > halfH {
				continue
			}
			dst = append(dst, ScreenPos{
				X: float32(c.ViewportW/2 + x*c.Zoom),
				Y: float32(c.ViewportH/2 + y*c.Zoom),
			})
		}
	}
	return dst
}

// IsVisible reports whether any image of the circle could be on screen.
func (c *Camera) IsVisible(wx, wy, radius float64) bool {
	var buf [9]ScreenPos
	return len(c.Images(buf[:0], wx, wy, radius)) > 0
}

// Resize updates the viewport and the zoom limits.
func (c *Camera) Resize(viewportW, viewportH float64) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = c.fitZoom() / 2
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by a delta in screen pixels.
func (c *Camera) Pan(dx, dy float64) {
	c.X = systems.Wrap(c.X+dx/c.Zoom, c.WorldW)
	c.Y = systems.Wrap(c.Y+dy/c.Zoom, c.WorldH)
}

// Follow eases the camera toward (wx, wy) along the shortest wrapped path.
// rate is the fraction of the remaining distance covered per call.
func (c *Camera) Follow(wx, wy, rate float64) {
	rate = math.Min(math.Max(rate, 0), 1)
	dx, dy := systems.ToroidalDelta(c.X, c.Y, wx, wy, c.WorldW, c.WorldH)
	c.X = systems.Wrap(c.X+dx*rate, c.WorldW)
	c.Y = systems.Wrap(c.Y+dy*rate, c.WorldH)
}

// SetZoom sets the zoom level, clamped to the limits.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = math.Min(math.Max(zoom, c.MinZoom), c.MaxZoom)
}

// ZoomAt multiplies the zoom by factor, keeping the world point under the
// screen position (sx, sy) fixed.
func (c *Camera) ZoomAt(factor float64, sx, sy float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.SetZoom(c.Zoom * factor)
	nx, ny := c.ScreenToWorld(sx, sy)
	dx, dy := systems.ToroidalDelta(nx, ny, wx, wy, c.WorldW, c.WorldH)
	c.X = systems.Wrap(c.X+dx, c.WorldW)
	c.Y = systems.Wrap(c.Y+dy, c.WorldH)
}

// Reset centers the camera and fits the arena.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = c.fitZoom()
}
