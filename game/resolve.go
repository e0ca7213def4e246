package game

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evosoup/components"
	"github.com/pthm-cable/evosoup/evolution"
	"github.com/pthm-cable/evosoup/neural"
	"github.com/pthm-cable/evosoup/systems"
	"github.com/pthm-cable/evosoup/telemetry"
)

// resolve applies the merged phase 1 events and then runs the serial
// upkeep, food, death and spawn steps. It is the only code that mutates
// ECS state during a tick.
func (w *World) resolve(events []Event, dt float64, sum *TickSummary) {
	w.perf.StartPhase(telemetry.PhaseMotion)
	for i := range events {
		switch events[i].Kind {
		case EventRotate:
			w.applyRotate(events[i])
		case EventMove:
			w.applyMove(events[i])
		}
	}

	// Interactions run as separate passes so every eat lands before any
	// attack and every attack before any share, each pass in actor order.
	w.perf.StartPhase(telemetry.PhaseInteraction)
	for i := range events {
		if events[i].Kind == EventEat {
			if _, ok := w.applyEat(events[i]); ok {
				sum.Eaten++
			}
		}
	}
	for i := range events {
		if events[i].Kind == EventAttack {
			if _, ok := w.applyAttack(events[i]); ok {
				sum.Attacks++
			}
		}
	}
	for i := range events {
		if events[i].Kind == EventShare {
			if _, ok := w.applyShare(events[i]); ok {
				sum.Shares++
			}
		}
	}

	w.perf.StartPhase(telemetry.PhaseUpkeep)
	w.applyUpkeep(dt)

	w.perf.StartPhase(telemetry.PhaseFood)
	w.ageFood()
	w.spawnFood(dt)

	w.perf.StartPhase(telemetry.PhaseDeath)
	sum.Deaths = w.applyDeaths(w.collectDeaths())

	w.perf.StartPhase(telemetry.PhaseReproduction)
	alive, members := w.census()
	spawns, deferred := w.manager.Plan(alive)
	if deferred > 0 {
		w.collector.RecordDeferred(deferred)
	}
	for _, s := range spawns {
		w.applySpawn(w.placeSpawn(s, members))
	}

	sum.Spawns = len(spawns)
	sum.Deferred = deferred
	for _, n := range alive {
		sum.Population += n
	}
	sum.Population += len(spawns)
	sum.Food = w.foodCount
}

// alive reports whether e refers to a live entity.
func (w *World) alive(e ecs.Entity) bool {
	return !e.IsZero() && w.world.Alive(e)
}

// isOrganism reports whether e is a live organism. Liveness is checked
// first; component lookups on a removed entity are not allowed.
func (w *World) isOrganism(e ecs.Entity) bool {
	return w.alive(e) && w.orgMap.HasAll(e)
}

// isFood reports whether e is a live food item.
func (w *World) isFood(e ecs.Entity) bool {
	return w.alive(e) && w.foodMap.HasAll(e)
}

func (w *World) chargeEnergy(e ecs.Entity, cost float64) {
	energy := w.energyMap.Get(e)
	w.lifeMap.Get(e).EnergySpent += spend(&energy.Value, cost)
}

// applyRotate turns the actor and charges the turning cost.
func (w *World) applyRotate(ev Event) {
	if !w.isOrganism(ev.Actor) {
		return
	}
	rot := w.rotMap.Get(ev.Actor)
	rot.Heading = normalizeAngle(rot.Heading + ev.Amount)
	w.chargeEnergy(ev.Actor, w.cfg.Movement.TurnCost*math.Abs(ev.Amount))
}

// applyMove advances the actor along its current heading, wrapping at the
// arena edges, and charges the movement cost.
func (w *World) applyMove(ev Event) {
	if !w.isOrganism(ev.Actor) {
		return
	}
	heading := w.rotMap.Get(ev.Actor).Heading
	pos := w.posMap.Get(ev.Actor)
	pos.X = systems.Wrap(pos.X+math.Cos(heading)*ev.Amount, w.width)
	pos.Y = systems.Wrap(pos.Y+math.Sin(heading)*ev.Amount, w.height)
	w.chargeEnergy(ev.Actor, w.cfg.Movement.MoveCost*ev.Amount)
}

// applyEat consumes the target food item. The first claimant wins; the item
// is removed at once so later claimants see a stale entity.
func (w *World) applyEat(ev Event) (float64, bool) {
	if !w.isOrganism(ev.Actor) || !w.isFood(ev.Target) {
		return 0, false
	}
	energy := w.energyMap.Get(ev.Actor)
	if energy.Value <= 0 {
		return 0, false
	}

	food := w.foodMap.Get(ev.Target)
	gained := gain(&energy.Value, food.Energy, energy.Max)
	life := w.lifeMap.Get(ev.Actor)
	life.EnergyGained += gained
	life.FoodEaten++

	w.logEvent(telemetry.LogFood, ev.ActorID, food.ID, gained)
	w.removeFood(ev.Target)
	w.collector.RecordEat(gained)
	return gained, true
}

// applyAttack removes min(amount, energy) from a live target. Targets that
// are stale or already drained this tick are left alone and cost nothing.
func (w *World) applyAttack(ev Event) (float64, bool) {
	if ev.Actor == ev.Target || !w.isOrganism(ev.Actor) || !w.isOrganism(ev.Target) {
		return 0, false
	}
	attacker := w.energyMap.Get(ev.Actor)
	target := w.energyMap.Get(ev.Target)
	if attacker.Value <= 0 || target.Value <= 0 {
		return 0, false
	}

	dealt := spend(&target.Value, ev.Amount)
	w.lifeMap.Get(ev.Target).DamageTaken += dealt
	if target.Value <= 0 {
		w.orgMap.Get(ev.Target).KilledInCombat = true
	}

	cfg := &w.cfg.Attack
	life := w.lifeMap.Get(ev.Actor)
	life.EnergySpent += spend(&attacker.Value, cfg.Cost*ev.Amount)
	life.EnergyGained += gain(&attacker.Value, cfg.StealFraction*dealt, attacker.Max)
	life.AttacksLanded++
	life.DamageDealt += dealt
	w.orgMap.Get(ev.Actor).AttackCooldown = cfg.Cooldown

	w.logEvent(telemetry.LogCombat, ev.ActorID, w.orgMap.Get(ev.Target).ID, dealt)
	w.collector.RecordAttack(dealt)
	return dealt, true
}

// applyShare moves energy from the actor to a live target. The giver never
// gives more than share.max_fraction of its energy, and the receiver never
// exceeds its maximum.
func (w *World) applyShare(ev Event) (float64, bool) {
	if ev.Actor == ev.Target || !w.isOrganism(ev.Actor) || !w.isOrganism(ev.Target) {
		return 0, false
	}
	giver := w.energyMap.Get(ev.Actor)
	receiver := w.energyMap.Get(ev.Target)
	if giver.Value <= 0 || receiver.Value <= 0 {
		return 0, false
	}

	amount := math.Min(ev.Amount, w.cfg.Share.MaxFraction*giver.Value)
	amount = math.Min(amount, receiver.Max-receiver.Value)
	if amount <= 0 {
		return 0, false
	}
	giver.Value -= amount
	receiver.Value += amount

	w.lifeMap.Get(ev.Actor).EnergyShared += amount
	recv := w.lifeMap.Get(ev.Target)
	recv.EnergyReceived += amount
	recv.EnergyGained += amount

	w.logEvent(telemetry.LogSharing, ev.ActorID, w.orgMap.Get(ev.Target).ID, amount)
	w.collector.RecordShare(amount)
	return amount, true
}

// applyUpkeep charges the metabolic cost, ages every organism by one tick
// and counts down attack cooldowns.
func (w *World) applyUpkeep(dt float64) {
	cost := w.cfg.Energy.Upkeep * dt
	query := w.orgFilter.Query()
	for query.Next() {
		_, _, _, energy, _, org, life := query.Get()
		life.EnergySpent += spend(&energy.Value, cost)
		org.Age++
		if org.AttackCooldown > 0 {
			org.AttackCooldown--
		}
	}
}

// collectDeaths emits a Death event for every organism with no energy
// left, in id order.
func (w *World) collectDeaths() []Event {
	var dead []Event
	query := w.orgFilter.Query()
	for query.Next() {
		_, _, _, energy, _, org, _ := query.Get()
		if energy.Value > 0 {
			continue
		}
		dead = append(dead, Event{Kind: EventDeath, Actor: query.Entity(), ActorID: org.ID})
	}
	sortByID(dead, func(ev Event) uint32 { return ev.ActorID })
	return dead
}

// applyDeaths archives and removes the organisms named by Death events.
// Combat deaths leave a corpse. Events naming an entity that is already
// gone are skipped. It returns the number of organisms removed.
func (w *World) applyDeaths(dead []Event) int {
	n := 0
	for _, ev := range dead {
		if ev.Kind != EventDeath || !w.isOrganism(ev.Actor) {
			continue
		}
		pos := w.posMap.Get(ev.Actor)
		org := w.orgMap.Get(ev.Actor)
		life := w.lifeMap.Get(ev.Actor)
		combat := org.KilledInCombat
		fitness := w.manager.RecordDeath(evolution.Death{
			Genome:        w.brainMap.Get(ev.Actor).Genome,
			Pool:          org.Pool,
			AgeTicks:      org.Age,
			EnergyGained:  life.EnergyGained,
			Method:        org.Method,
			ParentFitness: org.ParentFitness,
		})
		w.collector.RecordDeath(combat)
		w.events.Add(telemetry.LogEntry{
			Tick:     w.tick,
			Category: telemetry.LogDeath,
			Actor:    org.ID,
			Pool:     org.Pool,
			Amount:   fitness,
			Combat:   combat,
		})
		slog.Debug("death", "id", org.ID, "pool", org.Pool, "age", org.Age, "fitness", fitness, "combat", combat)

		if combat && w.cfg.Food.CorpseEnergy > 0 {
			w.newFood(pos.X, pos.Y, w.cfg.Food.CorpseEnergy, true)
		}
		w.world.RemoveEntity(ev.Actor)
		n++
	}
	return n
}

// census counts live organisms per pool and gathers their positions.
func (w *World) census() (alive []int, members [][][2]float64) {
	pools := len(w.manager.Pools())
	alive = make([]int, pools)
	members = make([][][2]float64, pools)

	query := w.orgFilter.Query()
	for query.Next() {
		pos, _, _, _, _, org, _ := query.Get()
		if org.Pool < 0 || org.Pool >= pools {
			continue
		}
		alive[org.Pool]++
		members[org.Pool] = append(members[org.Pool], [2]float64{pos.X, pos.Y})
	}

	for i, n := range alive {
		if n == 0 && !w.extinct[i] {
			slog.Warn("pool_extinct", "pool", i, "tick", w.tick)
		}
		w.extinct[i] = n == 0
	}
	return alive, members
}

// placeSpawn turns a planned child into a Spawn event with a position.
func (w *World) placeSpawn(s evolution.Spawn, members [][][2]float64) Event {
	var near [][2]float64
	if s.Pool >= 0 && s.Pool < len(members) {
		near = members[s.Pool]
	}
	x, y := evolution.Place(w.rng, w.placement, near, w.cfg.Reproduction.SpawnJitter, w.width, w.height)
	return Event{
		Kind:          EventSpawn,
		Genome:        s.Genome,
		Pool:          s.Pool,
		Method:        s.Method,
		ParentFitness: s.ParentFitness,
		X:             x,
		Y:             y,
	}
}

// applySpawn creates the newborn described by a Spawn event.
func (w *World) applySpawn(ev Event) ecs.Entity {
	heading := w.rng.Float64()*2*math.Pi - math.Pi
	return w.spawnOrganism(ev.X, ev.Y, heading, ev.Genome, ev.Pool, ev.Method, ev.ParentFitness)
}

// spawnOrganism creates a newborn with full initial energy, zero age and
// zero memory, and counts the birth.
func (w *World) spawnOrganism(x, y, heading float64, genome *neural.Genome, pool int, method components.Method, parentFitness float64) ecs.Entity {
	id := w.nextID
	w.nextID++

	pos := components.Position{X: x, Y: y}
	rot := components.Rotation{Heading: heading}
	body := components.Body{Radius: w.cfg.Organism.BodyRadius}
	energy := components.Energy{Value: w.cfg.Organism.InitialEnergy, Max: w.cfg.Organism.MaxEnergy}
	brain := components.Brain{
		Genome: genome,
		Memory: make([]float64, w.cfg.Brain.MemorySize),
		Signal: make([]float64, w.cfg.Brain.SignalSize),
	}
	org := components.Organism{
		ID:            id,
		Pool:          pool,
		BirthTick:     w.tick,
		Method:        method,
		ParentFitness: parentFitness,
	}
	life := components.Lifetime{}

	entity := w.orgMapper.NewEntity(&pos, &rot, &body, &energy, &brain, &org, &life)
	w.manager.RecordBirth(pool, method)
	w.collector.RecordBirth(method)
	w.events.Add(telemetry.LogEntry{
		Tick:     w.tick,
		Category: telemetry.LogReproduction,
		Actor:    id,
		Pool:     pool,
		Amount:   parentFitness,
		Method:   method.String(),
	})
	return entity
}

// logEvent records a two-party interaction in the event log.
func (w *World) logEvent(c telemetry.LogCategory, actor, target uint32, amount float64) {
	w.events.Add(telemetry.LogEntry{Tick: w.tick, Category: c, Actor: actor, Target: target, Amount: amount})
}
