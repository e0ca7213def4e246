package camera

import (
	"math"
	"testing"
)

func TestNewFitsArena(t *testing.T) {
	cam := New(1280, 720, 1600, 1000)

	if cam.X != 800 || cam.Y != 500 {
		t.Errorf("expected camera at (800, 500), got (%f, %f)", cam.X, cam.Y)
	}
	// min(1280/1600, 720/1000) = 0.72
	if math.Abs(cam.Zoom-0.72) > 1e-9 {
		t.Errorf("expected fit zoom 0.72, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(1)

	sx, sy := cam.WorldToScreen(1280, 720)
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-360)) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(1.5)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestToroidalWrap(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(1)
	cam.X = 100

	// The right edge of the arena is closer through the seam.
	sx, _ := cam.WorldToScreen(2500, 720)
	if sx >= 640 {
		t.Errorf("expected entity on left of screen, got x=%f", sx)
	}
}

func TestPanWraps(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(1)
	cam.X = 100

	cam.Pan(-200, 0)
	if math.Abs(cam.X-2460) > 1e-9 {
		t.Errorf("expected X to wrap to 2460, got %f", cam.X)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	cam.SetZoom(0.01)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}
	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(1)

	wx, wy := cam.ScreenToWorld(200, 150)
	cam.ZoomAt(2, 200, 150)
	sx, sy := cam.WorldToScreen(wx, wy)
	if math.Abs(float64(sx-200)) > 0.01 || math.Abs(float64(sy-150)) > 0.01 {
		t.Errorf("anchor moved to (%f, %f)", sx, sy)
	}
}

func TestImages(t *testing.T) {
	tests := []struct {
		name   string
		zoom   float64
		camX   float64
		wx, wy float64
		want   int
	}{
		{"center", 1, 1280, 1280, 720, 1},
		{"off screen", 1, 1280, 100, 100, 0},
		{"seam", 1, 10, 2555, 720, 1},
		// The view spans two arenas each way, so the edge copies show too.
		{"zoomed out", 0.25, 1280, 1280, 720, 9},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cam := New(1280, 720, 2560, 1440)
			cam.MinZoom = 0.1
			cam.SetZoom(tc.zoom)
			cam.X = tc.camX
			got := cam.Images(nil, tc.wx, tc.wy, 5)
			if len(got) != tc.want {
				t.Errorf("got %d images, want %d: %v", len(got), tc.want, got)
			}
		})
	}
}

func TestFollowTakesShortPath(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.X = 2500

	cam.Follow(60, 720, 0.5)
	// Half of the 120 unit gap across the seam.
	if math.Abs(cam.X-0) > 1e-9 && math.Abs(cam.X-2560) > 1e-9 {
		t.Errorf("expected X at the seam, got %f", cam.X)
	}
	cam.Follow(60, 720, 1)
	if math.Abs(cam.X-60) > 1e-9 {
		t.Errorf("expected X = 60, got %f", cam.X)
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.X = 500
	cam.Y = 500
	cam.SetZoom(2.5)

	cam.Reset()

	if cam.X != 1280 || cam.Y != 720 {
		t.Errorf("expected position (1280, 720), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 0.5 {
		t.Errorf("expected fit zoom 0.5, got %f", cam.Zoom)
	}
}
