package game

import (
	"fmt"

	"github.com/pthm-cable/evosoup/components"
	"github.com/pthm-cable/evosoup/evolution"
	"github.com/pthm-cable/evosoup/neural"
	"github.com/pthm-cable/evosoup/telemetry"
)

// Checkpoint captures everything needed to resume the run: organisms with
// their genomes and memory, food, the graveyard and the id counters.
// Organisms and food are ordered by id. bm may be nil.
func (w *World) Checkpoint(bm *telemetry.Bookmark) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		Seed:       w.seed,
		Tick:       w.tick,
		Width:      w.width,
		Height:     w.height,
		NextID:     w.nextID,
		NextFoodID: w.nextFoodID,
		Bookmark:   bm,
	}

	query := w.orgFilter.Query()
	for query.Next() {
		pos, rot, body, energy, brain, org, life := query.Get()
		snap.Organisms = append(snap.Organisms, telemetry.OrganismState{
			ID:             org.ID,
			Pool:           org.Pool,
			X:              pos.X,
			Y:              pos.Y,
			Heading:        rot.Heading,
			Radius:         body.Radius,
			Energy:         energy.Value,
			Age:            org.Age,
			BirthTick:      org.BirthTick,
			AttackCooldown: org.AttackCooldown,
			Method:         org.Method.String(),
			ParentFitness:  org.ParentFitness,
			Genome:         brain.Genome,
			Memory:         append([]float64(nil), brain.Memory...),
			Signal:         append([]float64(nil), brain.Signal...),
			Lifetime: telemetry.LifetimeState{
				EnergyGained:   life.EnergyGained,
				EnergySpent:    life.EnergySpent,
				FoodEaten:      life.FoodEaten,
				AttacksLanded:  life.AttacksLanded,
				DamageDealt:    life.DamageDealt,
				DamageTaken:    life.DamageTaken,
				EnergyShared:   life.EnergyShared,
				EnergyReceived: life.EnergyReceived,
			},
		})
	}

	foodQuery := w.foodFilter.Query()
	for foodQuery.Next() {
		pos, body, food := foodQuery.Get()
		snap.Food = append(snap.Food, telemetry.FoodState{
			ID:       food.ID,
			X:        pos.X,
			Y:        pos.Y,
			Radius:   body.Radius,
			Energy:   food.Energy,
			Age:      food.Age,
			Lifetime: food.Lifetime,
			Corpse:   food.Corpse,
		})
	}

	for _, e := range w.manager.Graveyard().Entries() {
		snap.Graveyard = append(snap.Graveyard, telemetry.GraveState{
			Genome:        e.Genome,
			Fitness:       e.Fitness,
			Pool:          e.Pool,
			AgeTicks:      e.AgeTicks,
			EnergyGained:  e.EnergyGained,
			Method:        e.Method.String(),
			ParentFitness: e.ParentFitness,
		})
	}

	sortByID(snap.Organisms, func(o telemetry.OrganismState) uint32 { return o.ID })
	sortByID(snap.Food, func(f telemetry.FoodState) uint32 { return f.ID })
	return snap
}

// restore rebuilds the world from a checkpoint. Every genome must have the
// shape the current config produces.
func (w *World) restore(snap *telemetry.Snapshot) error {
	if snap.Width != w.width || snap.Height != w.height {
		return fmt.Errorf("arena %gx%g does not match config %gx%g", snap.Width, snap.Height, w.width, w.height)
	}
	pools := w.cfg.Population.Pools

	for i := range snap.Organisms {
		s := &snap.Organisms[i]
		if err := w.checkGenome(s.Genome); err != nil {
			return fmt.Errorf("organism %d: %w", s.ID, err)
		}
		if s.Pool < 0 || s.Pool >= pools {
			return fmt.Errorf("organism %d: pool %d out of range", s.ID, s.Pool)
		}
		method, err := components.ParseMethod(s.Method)
		if err != nil {
			return fmt.Errorf("organism %d: %w", s.ID, err)
		}

		memory := make([]float64, w.cfg.Brain.MemorySize)
		copy(memory, s.Memory)
		signal := make([]float64, w.cfg.Brain.SignalSize)
		copy(signal, s.Signal)

		pos := components.Position{X: s.X, Y: s.Y}
		rot := components.Rotation{Heading: s.Heading}
		body := components.Body{Radius: s.Radius}
		energy := components.Energy{Value: s.Energy, Max: w.cfg.Organism.MaxEnergy}
		brain := components.Brain{Genome: s.Genome, Memory: memory, Signal: signal}
		org := components.Organism{
			ID:             s.ID,
			Pool:           s.Pool,
			Age:            s.Age,
			BirthTick:      s.BirthTick,
			AttackCooldown: s.AttackCooldown,
			Method:         method,
			ParentFitness:  s.ParentFitness,
		}
		life := components.Lifetime{
			EnergyGained:   s.Lifetime.EnergyGained,
			EnergySpent:    s.Lifetime.EnergySpent,
			FoodEaten:      s.Lifetime.FoodEaten,
			AttacksLanded:  s.Lifetime.AttacksLanded,
			DamageDealt:    s.Lifetime.DamageDealt,
			DamageTaken:    s.Lifetime.DamageTaken,
			EnergyShared:   s.Lifetime.EnergyShared,
			EnergyReceived: s.Lifetime.EnergyReceived,
		}
		w.orgMapper.NewEntity(&pos, &rot, &body, &energy, &brain, &org, &life)
		w.manager.Pools()[s.Pool].Alive++
	}

	for _, f := range snap.Food {
		pos := components.Position{X: f.X, Y: f.Y}
		body := components.Body{Radius: f.Radius}
		food := components.Food{
			ID:       f.ID,
			Energy:   f.Energy,
			Age:      f.Age,
			Lifetime: f.Lifetime,
			Corpse:   f.Corpse,
		}
		w.foodMapper.NewEntity(&pos, &body, &food)
		w.foodCount++
	}

	entries := make([]evolution.Entry, 0, len(snap.Graveyard))
	for i, g := range snap.Graveyard {
		if err := w.checkGenome(g.Genome); err != nil {
			return fmt.Errorf("graveyard entry %d: %w", i, err)
		}
		method, err := components.ParseMethod(g.Method)
		if err != nil {
			return fmt.Errorf("graveyard entry %d: %w", i, err)
		}
		entries = append(entries, evolution.Entry{
			Genome:        g.Genome,
			Fitness:       g.Fitness,
			Pool:          g.Pool,
			AgeTicks:      g.AgeTicks,
			EnergyGained:  g.EnergyGained,
			Method:        method,
			ParentFitness: g.ParentFitness,
		})
	}
	w.manager.Graveyard().Restore(entries)

	w.tick = snap.Tick
	w.nextID = snap.NextID
	w.nextFoodID = snap.NextFoodID
	w.collector.Reset(w.tick)
	return nil
}

func (w *World) checkGenome(g *neural.Genome) error {
	if g == nil {
		return fmt.Errorf("missing genome: %w", neural.ErrShapeMismatch)
	}
	if !neural.Compatible(w.reference, g) {
		return fmt.Errorf("%v genome does not match configured brain: %w", g.Kind, neural.ErrShapeMismatch)
	}
	return nil
}
