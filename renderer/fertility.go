// Package renderer draws the arena: the fertility background, food and
// organisms.
package renderer

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evosoup/camera"
	"github.com/pthm-cable/evosoup/systems"
)

// FertilityRenderer draws the static fertility field as a tiled background.
// The field never changes during a run, so it is baked into a texture once.
type FertilityRenderer struct {
	tex         rl.Texture2D
	texW, texH  int
	initialized bool
}

// NewFertilityRenderer creates a renderer; call Bake after the window exists.
func NewFertilityRenderer() *FertilityRenderer {
	return &FertilityRenderer{}
}

// BakeGrid samples field over a worldW x worldH arena into a grid of at
// most res texels on the long side.
func BakeGrid(field *systems.Fertility, worldW, worldH float64, res int) (pixels []color.RGBA, w, h int) {
	scale := float64(res) / math.Max(worldW, worldH)
	w = max(int(worldW*scale), 1)
	h = max(int(worldH*scale), 1)
	pixels = make([]color.RGBA, w*h)
	for y := 0; y < h; y++ {
		wy := (float64(y) + 0.5) / float64(h) * worldH
		for x := 0; x < w; x++ {
			wx := (float64(x) + 0.5) / float64(w) * worldW
			pixels[y*w+x] = FertilityColor(field.At(wx, wy))
		}
	}
	return pixels, w, h
}

// Bake uploads the field to the GPU.
func (f *FertilityRenderer) Bake(field *systems.Fertility, worldW, worldH float64, res int) {
	f.Unload()
	pixels, w, h := BakeGrid(field, worldW, worldH, res)
	img := rl.GenImageColor(w, h, rl.Black)
	f.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.UpdateTexture(f.tex, pixels)
	rl.SetTextureFilter(f.tex, rl.FilterBilinear)
	f.texW, f.texH = w, h
	f.initialized = true
}

// Draw tiles the arena texture across the viewport.
func (f *FertilityRenderer) Draw(cam *camera.Camera) {
	if !f.initialized {
		return
	}
	tileW := cam.WorldW * cam.Zoom
	tileH := cam.WorldH * cam.Zoom
	// Screen position of the arena origin in the image holding the camera.
	ox := cam.ViewportW/2 - cam.X*cam.Zoom
	oy := cam.ViewportH/2 - cam.Y*cam.Zoom
	startX := ox - math.Ceil(ox/tileW)*tileW
	startY := oy - math.Ceil(oy/tileH)*tileH

	src := rl.Rectangle{Width: float32(f.texW), Height: float32(f.texH)}
	for y := startY; y < cam.ViewportH; y += tileH {
		for x := startX; x < cam.ViewportW; x += tileW {
			dst := rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(tileW), Height: float32(tileH)}
			rl.DrawTexturePro(f.tex, src, dst, rl.Vector2{}, 0, rl.White)
		}
	}
}

// Unload frees GPU resources.
func (f *FertilityRenderer) Unload() {
	if !f.initialized {
		return
	}
	rl.UnloadTexture(f.tex)
	f.initialized = false
}
