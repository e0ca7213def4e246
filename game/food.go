package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evosoup/components"
)

// newFood creates a food item at (x, y). Corpses share the food lifetime.
func (w *World) newFood(x, y, energy float64, corpse bool) ecs.Entity {
	id := w.nextFoodID
	w.nextFoodID++

	pos := components.Position{X: x, Y: y}
	body := components.Body{Radius: w.cfg.Food.Radius}
	food := components.Food{
		ID:       id,
		Energy:   energy,
		Lifetime: w.foodLifetime,
		Corpse:   corpse,
	}
	w.foodCount++
	return w.foodMapper.NewEntity(&pos, &body, &food)
}

// removeFood destroys a food entity so any event still naming it goes stale.
func (w *World) removeFood(e ecs.Entity) {
	w.world.RemoveEntity(e)
	w.foodCount--
}

// seedFood scatters the initial food over the fertility field.
func (w *World) seedFood() {
	for i := 0; i < w.cfg.Food.Initial; i++ {
		x, y := w.fertility.Sample(w.rng, w.width, w.height)
		w.newFood(x, y, w.cfg.Food.Energy, false)
	}
}

// ageFood ages every item by one tick and removes the expired ones.
func (w *World) ageFood() {
	var expired []ecs.Entity
	query := w.foodFilter.Query()
	for query.Next() {
		_, _, food := query.Get()
		food.Age++
		if food.Lifetime > 0 && food.Age >= food.Lifetime {
			expired = append(expired, query.Entity())
		}
	}
	for _, e := range expired {
		w.removeFood(e)
	}
}

// spawnFood adds floor(rate*dt) items plus one more with probability equal
// to the fractional part, never exceeding food.max.
func (w *World) spawnFood(dt float64) {
	expected := w.cfg.Food.SpawnRate * dt
	n := int(math.Floor(expected))
	if w.rng.Float64() < expected-float64(n) {
		n++
	}
	n = min(n, w.cfg.Food.Max-w.foodCount)

	for i := 0; i < n; i++ {
		x, y := w.fertility.Sample(w.rng, w.width, w.height)
		w.newFood(x, y, w.cfg.Food.Energy, false)
	}
}
