package systems

import (
	"math"

	"github.com/pthm-cable/evosoup/config"
)

// Body is one visible entity in the per-tick snapshot. Bodies are stored in
// the same order as the points handed to the matching SpatialIndex.
type Body struct {
	ID     uint32
	X, Y   float64
	Radius float64
	Energy float64
	Pool   int
	Signal []float64 // organisms only; shared with the snapshot
}

// Self is the perceiving organism.
type Self struct {
	ID      uint32
	X, Y    float64
	Heading float64
	Energy  float64
	Age     int
	Pool    int
}

// SenseParams are the perception constants taken from config.
type SenseParams struct {
	Rays         int
	VisionRange  float64
	FOV          float64
	ScentRadii   []float64
	DensityScale float64
	MaxEnergy    float64
	AgeScale     float64
	SignalSize   int
}

// SenseParamsFromConfig extracts perception constants.
func SenseParamsFromConfig(cfg *config.Config) SenseParams {
	p := cfg.Perception
	return SenseParams{
		Rays:         p.Rays,
		VisionRange:  p.VisionRange,
		FOV:          p.FOV,
		ScentRadii:   p.ScentRadii,
		DensityScale: p.ScentDensityScale,
		MaxEnergy:    cfg.Organism.MaxEnergy,
		AgeScale:     cfg.Organism.AgeScale,
		SignalSize:   cfg.Brain.SignalSize,
	}
}

// RayStride is the number of values each vision ray contributes.
func (p SenseParams) RayStride() int { return config.ValuesPerRay + p.SignalSize }

// NumSensors is the sensory vector length for p.
func (p SenseParams) NumSensors() int {
	return p.Rays*p.RayStride() + config.ProprioSize +
		len(p.ScentRadii)*config.ValuesPerScent + config.GradientSize
}

// Environment is the read-only world view shared by all perceivers in a tick.
type Environment struct {
	Width, Height float64
	Params        SenseParams

	Organisms  *SpatialIndex
	OrgBodies  []Body
	Food       *SpatialIndex
	FoodBodies []Body

	// Largest body radius in each set; widens vision queries so rays can
	// hit bodies whose centres lie just beyond range.
	MaxOrgRadius  float64
	MaxFoodRadius float64
}

// PerceptionScratch holds per-goroutine query buffers.
type PerceptionScratch struct {
	orgHits  []Hit
	foodHits []Hit
	rayDirs  [][2]float64
}

// Perceive fills out with self's sensory vector and returns it. out is
// resized as needed. Perceive has no side effects on env.
func Perceive(self Self, env *Environment, scratch *PerceptionScratch, out []float64) []float64 {
	p := env.Params
	n := p.NumSensors()
	if cap(out) < n {
		out = make([]float64, n)
	}
	out = out[:n]
	clear(out)

	vision := out[:p.Rays*p.RayStride()]
	proprio := out[len(vision) : len(vision)+config.ProprioSize]
	scent := out[len(vision)+config.ProprioSize:]

	senseVision(self, env, scratch, vision)
	senseProprio(self, p, proprio)
	senseScent(self, env, scratch, scent)
	return out
}

// RayAngle returns the offset of ray i from the heading.
func RayAngle(i, rays int, fov float64) float64 {
	if rays <= 1 {
		return 0
	}
	return (float64(i)/float64(rays-1) - 0.5) * fov
}

func senseVision(self Self, env *Environment, s *PerceptionScratch, out []float64) {
	p := env.Params
	s.orgHits = env.Organisms.NearestWithinInto(s.orgHits, self.X, self.Y, p.VisionRange+env.MaxOrgRadius)
	s.foodHits = env.Food.NearestWithinInto(s.foodHits, self.X, self.Y, p.VisionRange+env.MaxFoodRadius)

	if cap(s.rayDirs) < p.Rays {
		s.rayDirs = make([][2]float64, p.Rays)
	}
	s.rayDirs = s.rayDirs[:p.Rays]
	for i := range s.rayDirs {
		a := self.Heading + RayAngle(i, p.Rays, p.FOV)
		s.rayDirs[i] = [2]float64{math.Cos(a), math.Sin(a)}
	}

	for i, dir := range s.rayDirs {
		best := p.VisionRange
		var hit *Body
		organism := false

		for _, h := range s.orgHits {
			b := &env.OrgBodies[h.Index]
			if b.ID == self.ID {
				continue
			}
			if d, ok := rayCircle(dir, h.DX, h.DY, b.Radius); ok && d < best {
				best, hit, organism = d, b, true
			}
		}
		for _, h := range s.foodHits {
			b := &env.FoodBodies[h.Index]
			if d, ok := rayCircle(dir, h.DX, h.DY, b.Radius); ok && d < best {
				best, hit, organism = d, b, false
			}
		}
		if hit == nil {
			continue
		}

		stride := p.RayStride()
		v := out[i*stride : (i+1)*stride]
		v[0] = 1 - best/p.VisionRange
		if organism {
			v[1] = 1
			if hit.Pool == self.Pool {
				v[2] = 1
			}
			copy(v[config.ValuesPerRay:], hit.Signal)
		}
		v[3] = clamp01(hit.Energy / p.MaxEnergy)
	}
}

// rayCircle returns the distance along a unit ray from the origin to the
// first intersection with a circle centred at (cx, cy). A ray starting
// inside the circle hits at distance 0.
func rayCircle(dir [2]float64, cx, cy, r float64) (float64, bool) {
	t := cx*dir[0] + cy*dir[1]
	perpSq := cx*cx + cy*cy - t*t
	rSq := r * r
	if perpSq > rSq {
		return 0, false
	}
	half := math.Sqrt(rSq - perpSq)
	if t+half < 0 {
		return 0, false // behind
	}
	return math.Max(t-half, 0), true
}

func senseProprio(self Self, p SenseParams, out []float64) {
	age := float64(self.Age)
	out[0] = clamp01(self.Energy / p.MaxEnergy)
	out[1] = age / (age + p.AgeScale)
	out[2] = math.Sin(self.Heading)
	out[3] = math.Cos(self.Heading)
}

func senseScent(self Self, env *Environment, s *PerceptionScratch, out []float64) {
	p := env.Params
	radii := p.ScentRadii
	rMax := radii[len(radii)-1]

	s.orgHits = env.Organisms.NearestWithinInto(s.orgHits, self.X, self.Y, rMax)
	s.foodHits = env.Food.NearestWithinInto(s.foodHits, self.X, self.Y, rMax)

	var foodCounts, orgCounts [16]int
	fc, oc := foodCounts[:0], orgCounts[:0]
	for range radii {
		fc, oc = append(fc, 0), append(oc, 0)
	}

	var gx, gy float64
	for _, h := range s.foodHits {
		d := math.Sqrt(h.DistSq)
		fc[ring(radii, d)]++
		if d > 0 {
			w := 1 - d/rMax
			gx += w * h.DX / d
			gy += w * h.DY / d
		}
	}
	for _, h := range s.orgHits {
		if h.ID == self.ID {
			continue
		}
		oc[ring(radii, math.Sqrt(h.DistSq))]++
	}

	inner := 0.0
	for i, r := range radii {
		area := math.Pi * (r*r - inner*inner)
		out[i*config.ValuesPerScent] = squash(float64(fc[i]) / area * p.DensityScale)
		out[i*config.ValuesPerScent+1] = squash(float64(oc[i]) / area * p.DensityScale)
		inner = r
	}

	// Gradient in the local frame: forward, then lateral.
	sin, cos := math.Sincos(self.Heading)
	g := out[len(radii)*config.ValuesPerScent:]
	g[0] = math.Tanh(gx*cos + gy*sin)
	g[1] = math.Tanh(-gx*sin + gy*cos)
}

// ring returns the index of the first radius that contains distance d.
func ring(radii []float64, d float64) int {
	for i, r := range radii {
		if d <= r {
			return i
		}
	}
	return len(radii) - 1
}

func squash(x float64) float64 { return x / (1 + x) }

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
