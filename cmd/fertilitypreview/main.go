// Fertility field preview tool - tune the food spawn field with sliders.
//
// Usage:
//
//	go run ./cmd/fertilitypreview [-config config.yaml]
//	go run ./cmd/fertilitypreview -out field.png
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evosoup/config"
	"github.com/pthm-cable/evosoup/renderer"
	"github.com/pthm-cable/evosoup/systems"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	previewMax   = 700
	gridRes      = 256
	samples      = 600
)

// FieldParams holds the editable food-field parameters.
type FieldParams struct {
	Scale   float32
	Bias    float32
	Octaves int
	Seed    int64
}

func paramsFromConfig(cfg *config.Config, seed int64) FieldParams {
	return FieldParams{
		Scale:   float32(cfg.Food.NoiseScale),
		Bias:    float32(cfg.Food.NoiseBias),
		Octaves: cfg.Food.NoiseOctaves,
		Seed:    seed,
	}
}

func (p FieldParams) field() *systems.Fertility {
	return systems.NewFertility(p.Seed, float64(p.Scale), float64(p.Bias), p.Octaves)
}

func main() {
	configPath := flag.String("config", "", "Config YAML to start from (empty = defaults)")
	seed := flag.Int64("seed", 1, "Noise seed")
	outPath := flag.String("out", "", "Write the field to this PNG and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	worldW, worldH := cfg.World.Width, cfg.World.Height
	defaults := paramsFromConfig(cfg, *seed)

	if *outPath != "" {
		if err := exportPNG(defaults.field(), worldW, worldH, *outPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("Saved %s\n", *outPath)
		return
	}

	rl.InitWindow(windowWidth, windowHeight, "Fertility Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	// Preview rectangle keeps the arena's aspect ratio.
	scale := previewMax / max(worldW, worldH)
	previewW, previewH := float32(worldW*scale), float32(worldH*scale)
	panelX := previewW + 30
	panelWidth := float32(windowWidth) - panelX - 20

	params := defaults
	var texture rl.Texture2D
	var texW, texH int
	var points [][2]float64
	showSamples := true
	needsRegen := true
	rng := rand.New(rand.NewPCG(uint64(*seed), 7))

	for !rl.WindowShouldClose() {
		if needsRegen {
			f := params.field()
			px, w, h := renderer.BakeGrid(f, worldW, worldH, gridRes)
			if w != texW || h != texH {
				if texW > 0 {
					rl.UnloadTexture(texture)
				}
				img := rl.GenImageColor(w, h, rl.Black)
				texture = rl.LoadTextureFromImage(img)
				rl.UnloadImage(img)
				rl.SetTextureFilter(texture, rl.FilterBilinear)
				texW, texH = w, h
			}
			rl.UpdateTexture(texture, px)

			points = points[:0]
			for i := 0; i < samples; i++ {
				x, y := f.Sample(rng, worldW, worldH)
				points = append(points, [2]float64{x, y})
			}
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{Width: float32(texW), Height: float32(texH)},
			rl.Rectangle{X: 10, Y: 10, Width: previewW, Height: previewH},
			rl.Vector2{}, 0, rl.White,
		)
		if showSamples {
			for _, p := range points {
				rl.DrawCircleV(rl.Vector2{X: 10 + float32(p[0]*scale), Y: 10 + float32(p[1]*scale)}, 1.5, rl.Yellow)
			}
		}
		rl.DrawRectangleLines(10, 10, int32(previewW), int32(previewH), rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Arena %.0f x %.0f, %d spawn samples", worldW, worldH, samples),
			15, int32(previewH)+20, 16, rl.DarkGray)

		y := float32(10)
		rl.DrawText("Food Fertility", int32(panelX), int32(y), 20, rl.DarkGray)
		y += 35

		slider := func(label, lo, hi, value string, v, vmin, vmax float32) float32 {
			rl.DrawText(label, int32(panelX), int32(y), 14, rl.Gray)
			y += 18
			out := gui.SliderBar(rl.Rectangle{X: panelX, Y: y, Width: panelWidth - 80, Height: 20}, lo, hi, v, vmin, vmax)
			rl.DrawText(value, int32(panelX+panelWidth-70), int32(y+2), 16, rl.DarkGray)
			y += 35
			return out
		}

		if v := slider("Scale (base frequency, 1/units)", "0.0005", "0.02",
			fmt.Sprintf("%.4f", params.Scale), params.Scale, 0.0005, 0.02); v != params.Scale {
			params.Scale = v
			needsRegen = true
		}
		if v := slider("Bias (acceptance in barren areas)", "0", "1",
			fmt.Sprintf("%.2f", params.Bias), params.Bias, 0, 1); v != params.Bias {
			params.Bias = v
			needsRegen = true
		}
		if v := slider("Octaves", "1", "6",
			fmt.Sprint(params.Octaves), float32(params.Octaves), 1, 6); int(v) != params.Octaves {
			params.Octaves = int(v)
			needsRegen = true
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: y, Width: 120, Height: 30}, "Reset") {
			params = defaults
			needsRegen = true
		}
		y += 40
		if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 250, Height: 30}, toggleText(showSamples, "Hide Samples", "Show Samples")) {
			showSamples = !showSamples
		}
		y += 55

		yaml := fieldYAML(params)
		rl.DrawText("YAML Config:", int32(panelX), int32(y), 16, rl.DarkGray)
		y += 25
		rl.DrawText(yaml, int32(panelX), int32(y), 14, rl.Gray)
		rl.DrawText(fmt.Sprintf("seed: %d (pass -seed to the runner)", params.Seed), int32(panelX), int32(y)+70, 12, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), windowHeight-30, 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
	if texW > 0 {
		rl.UnloadTexture(texture)
	}
}

func fieldYAML(p FieldParams) string {
	return fmt.Sprintf("food:\n  noise_scale: %.4f\n  noise_bias: %.2f\n  noise_octaves: %d", p.Scale, p.Bias, p.Octaves)
}

// exportPNG renders the field at full grid resolution without a window.
func exportPNG(f *systems.Fertility, worldW, worldH float64, path string) error {
	pixels, w, h := renderer.BakeGrid(f, worldW, worldH, 1024)
	img := rl.GenImageColor(w, h, rl.Black)
	defer rl.UnloadImage(img)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rl.ImageDrawPixel(img, int32(x), int32(y), pixels[y*w+x])
		}
	}
	if !rl.ExportImage(*img, path) {
		return fmt.Errorf("failed to export %s", path)
	}
	return nil
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
