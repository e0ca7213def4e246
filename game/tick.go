package game

import (
	"github.com/pthm-cable/evosoup/systems"
	"github.com/pthm-cable/evosoup/telemetry"
)

// TickSummary reports what one call to Advance did.
type TickSummary struct {
	Tick       int
	Population int
	Deaths     int
	Spawns     int
	Deferred   int
	Attacks    int
	Shares     int
	Eaten      int
	Food       int
}

// Advance runs one full tick: phase 1 perceives and decides in parallel
// against a frozen snapshot, phase 2 applies the resulting events serially.
// The population only changes in the death and spawn steps of phase 2.
func (w *World) Advance(dt float64) TickSummary {
	var sum TickSummary
	w.perf.StartTick()

	w.perf.StartPhase(telemetry.PhaseSpatialIndex)
	w.buildSnapshot(dt)

	w.perf.StartPhase(telemetry.PhasePerception)
	events := w.parallel.run()
	w.applyMemory()

	w.resolve(events, dt, &sum)

	w.tick++
	sum.Tick = w.tick

	w.perf.StartPhase(telemetry.PhaseTelemetry)
	w.flushTelemetry()
	w.perf.EndTick()
	return sum
}

// buildSnapshot copies organism and food state into the phase 1 buffers and
// rebuilds both spatial indexes.
func (w *World) buildSnapshot(dt float64) {
	p := w.parallel
	p.snapshots = p.snapshots[:0]
	p.orgPoints = p.orgPoints[:0]
	p.orgBodies = p.orgBodies[:0]
	p.foodEntities = p.foodEntities[:0]
	p.foodPoints = p.foodPoints[:0]
	p.foodBodies = p.foodBodies[:0]

	env := &systems.Environment{
		Width:  w.width,
		Height: w.height,
		Params: w.sense,
	}

	query := w.orgFilter.Query()
	for query.Next() {
		pos, rot, body, energy, brain, org, _ := query.Get()
		p.snapshots = append(p.snapshots, orgSnapshot{
			Entity:   query.Entity(),
			ID:       org.ID,
			Pool:     org.Pool,
			X:        pos.X,
			Y:        pos.Y,
			Heading:  rot.Heading,
			Energy:   energy.Value,
			Radius:   body.Radius,
			Age:      org.Age,
			Cooldown: org.AttackCooldown,
			Genome:   brain.Genome,
			Memory:   brain.Memory,
		})
		p.orgPoints = append(p.orgPoints, systems.Point{ID: org.ID, X: pos.X, Y: pos.Y})
		p.orgBodies = append(p.orgBodies, systems.Body{
			ID:     org.ID,
			X:      pos.X,
			Y:      pos.Y,
			Radius: body.Radius,
			Energy: energy.Value,
			Pool:   org.Pool,
			Signal: brain.Signal,
		})
		env.MaxOrgRadius = max(env.MaxOrgRadius, body.Radius)
	}

	foodQuery := w.foodFilter.Query()
	for foodQuery.Next() {
		pos, body, food := foodQuery.Get()
		p.foodEntities = append(p.foodEntities, foodQuery.Entity())
		p.foodPoints = append(p.foodPoints, systems.Point{ID: food.ID, X: pos.X, Y: pos.Y})
		p.foodBodies = append(p.foodBodies, systems.Body{
			ID:     food.ID,
			X:      pos.X,
			Y:      pos.Y,
			Radius: body.Radius,
			Energy: food.Energy,
		})
		env.MaxFoodRadius = max(env.MaxFoodRadius, body.Radius)
	}

	env.Organisms = systems.NewSpatialIndex(p.orgPoints, w.width, w.height)
	env.OrgBodies = p.orgBodies
	env.Food = systems.NewSpatialIndex(p.foodPoints, w.width, w.height)
	env.FoodBodies = p.foodBodies
	p.env = env

	cfg := w.cfg
	p.params = decideParams{
		dt:              dt,
		maxTurnRate:     cfg.Movement.MaxTurnRate,
		maxSpeed:        cfg.Movement.MaxSpeed,
		attackRange:     cfg.Attack.Range,
		attackDamage:    cfg.Attack.Damage,
		attackThreshold: cfg.Attack.Threshold,
		shareRadius:     cfg.Share.Radius,
		shareAmount:     cfg.Share.Amount,
		shareThreshold:  cfg.Share.Threshold,
	}
}

// applyMemory stores each organism's next memory and signal. Runs after
// phase 1 so no worker can observe a half-updated brain.
func (w *World) applyMemory() {
	p := w.parallel
	for i := range p.snapshots {
		brain := w.brainMap.Get(p.snapshots[i].Entity)
		copy(brain.Memory, p.intents[i].Memory)
		copy(brain.Signal, p.intents[i].Signal)
	}
}
