package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// FertilityColor maps a fertility value in [0, 1] onto a dark-to-green
// gradient that stays dim enough for organisms to read on top of it.
func FertilityColor(v float64) color.RGBA {
	v = min(max(v, 0), 1)
	var r, g, b float64
	switch {
	case v < 0.33:
		t := v / 0.33
		r, g, b = 12+t*6, 16+t*14, 24+t*10
	case v < 0.66:
		t := (v - 0.33) / 0.33
		r, g, b = 18+t*4, 30+t*24, 34-t*6
	default:
		t := (v - 0.66) / 0.34
		r, g, b = 22+t*20, 54+t*36, 28+t*4
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}

// PoolColor returns a distinct hue for a genetic pool.
func PoolColor(pool, pools int) rl.Color {
	if pools < 1 {
		pools = 1
	}
	hue := float32(pool%pools) / float32(pools) * 360
	return rl.ColorFromHSV(hue, 0.65, 0.95)
}

// energyShade darkens c as energy drops, down to 35% brightness.
func energyShade(c rl.Color, frac float64) rl.Color {
	frac = min(max(frac, 0), 1)
	k := 0.35 + 0.65*frac
	return rl.Color{R: uint8(float64(c.R) * k), G: uint8(float64(c.G) * k), B: uint8(float64(c.B) * k), A: c.A}
}
