package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evosoup/camera"
	"github.com/pthm-cable/evosoup/config"
	"github.com/pthm-cable/evosoup/game"
	"github.com/pthm-cable/evosoup/systems"
)

var (
	foodColor   = rl.Color{R: 120, G: 210, B: 90, A: 255}
	corpseColor = rl.Color{R: 170, G: 90, B: 70, A: 255}
	rayColor    = rl.Color{R: 255, G: 255, B: 255, A: 50}
	scentColor  = rl.Color{R: 250, G: 220, B: 120, A: 70}
	selectColor = rl.Color{R: 255, G: 255, B: 255, A: 220}
)

// WorldRenderer draws food and organisms from a world snapshot.
type WorldRenderer struct {
	cfg    *config.Config
	images []camera.ScreenPos
}

// NewWorldRenderer creates a renderer for worlds built from cfg.
func NewWorldRenderer(cfg *config.Config) *WorldRenderer {
	return &WorldRenderer{cfg: cfg}
}

// DrawFood draws every food item; corpses use a separate color.
func (r *WorldRenderer) DrawFood(cam *camera.Camera, food []game.FoodView) {
	for i := range food {
		f := &food[i]
		c := foodColor
		if f.Corpse {
			c = corpseColor
		}
		radius := max(cam.Scale(f.Radius), 1)
		r.images = cam.Images(r.images, f.X, f.Y, f.Radius)
		for _, p := range r.images {
			rl.DrawCircleV(rl.Vector2{X: p.X, Y: p.Y}, radius, c)
		}
	}
}

// DrawOrganisms draws bodies colored by pool and shaded by energy, with a
// heading tick. selected (if nonzero) gets an outline.
func (r *WorldRenderer) DrawOrganisms(cam *camera.Camera, s *game.Snapshot, selected uint32) {
	pools := r.cfg.Population.Pools
	maxEnergy := r.cfg.Organism.MaxEnergy
	radius := max(cam.Scale(s.BodyRadius), 1.5)

	for i := range s.Organisms {
		o := &s.Organisms[i]
		c := energyShade(PoolColor(o.Pool, pools), o.Energy/maxEnergy)
		hx := float32(math.Cos(o.Heading)) * radius * 1.6
		hy := float32(math.Sin(o.Heading)) * radius * 1.6

		r.images = cam.Images(r.images, o.X, o.Y, s.BodyRadius*1.6)
		for _, p := range r.images {
			center := rl.Vector2{X: p.X, Y: p.Y}
			rl.DrawCircleV(center, radius, c)
			rl.DrawLineV(center, rl.Vector2{X: p.X + hx, Y: p.Y + hy}, rl.RayWhite)
			if o.ID == selected {
				rl.DrawCircleLinesV(center, radius+3, selectColor)
			}
		}
	}
}

// DrawVision draws the vision rays of one organism.
func (r *WorldRenderer) DrawVision(cam *camera.Camera, o game.OrganismView) {
	p := r.cfg.Perception
	length := cam.Scale(p.VisionRange)
	r.images = cam.Images(r.images, o.X, o.Y, p.VisionRange)
	for _, img := range r.images {
		from := rl.Vector2{X: img.X, Y: img.Y}
		for i := 0; i < p.Rays; i++ {
			a := o.Heading + systems.RayAngle(i, p.Rays, p.FOV)
			to := rl.Vector2{
				X: img.X + float32(math.Cos(a))*length,
				Y: img.Y + float32(math.Sin(a))*length,
			}
			rl.DrawLineV(from, to, rayColor)
		}
	}
}

// DrawScent draws the scent rings of one organism.
func (r *WorldRenderer) DrawScent(cam *camera.Camera, o game.OrganismView) {
	radii := r.cfg.Perception.ScentRadii
	if len(radii) == 0 {
		return
	}
	r.images = cam.Images(r.images, o.X, o.Y, radii[len(radii)-1])
	for _, img := range r.images {
		center := rl.Vector2{X: img.X, Y: img.Y}
		for _, rad := range radii {
			rl.DrawCircleLinesV(center, cam.Scale(rad), scentColor)
		}
	}
}

// DrawInteraction draws the attack and share ranges of one organism.
func (r *WorldRenderer) DrawInteraction(cam *camera.Camera, o game.OrganismView) {
	attack := r.cfg.Attack.Range
	share := r.cfg.Share.Radius
	r.images = cam.Images(r.images, o.X, o.Y, max(attack, share))
	for _, img := range r.images {
		center := rl.Vector2{X: img.X, Y: img.Y}
		rl.DrawCircleLinesV(center, cam.Scale(attack), rl.Fade(rl.Red, 0.5))
		rl.DrawCircleLinesV(center, cam.Scale(share), rl.Fade(rl.SkyBlue, 0.5))
	}
}
