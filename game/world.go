// Package game runs the evolutionary soup: organisms with neural brains
// sensing, moving, eating, fighting and sharing on a toroidal arena, with
// pools refilled from the graveyard every tick.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evosoup/components"
	"github.com/pthm-cable/evosoup/config"
	"github.com/pthm-cable/evosoup/evolution"
	"github.com/pthm-cable/evosoup/neural"
	"github.com/pthm-cable/evosoup/systems"
	"github.com/pthm-cable/evosoup/telemetry"
)

// Options configures a World beyond what config.Config covers.
type Options struct {
	Seed       uint64                      // RNG seed for the whole run
	ResumeFrom string                      // snapshot path to restore instead of seeding
	Output     *telemetry.OutputManager    // nil disables CSV output
	LogStats   bool                        // log every stats window
	OnStats    func(telemetry.WindowStats) // called after every stats window
}

// World owns the simulation state. It is not safe for concurrent use; the
// phase 1 workers it starts only read a per-tick snapshot.
type World struct {
	cfg  *config.Config
	rng  *rand.Rand
	seed uint64

	width, height float64

	world *ecs.World

	orgMapper *ecs.Map7[
		components.Position,
		components.Rotation,
		components.Body,
		components.Energy,
		components.Brain,
		components.Organism,
		components.Lifetime,
	]
	orgFilter *ecs.Filter7[
		components.Position,
		components.Rotation,
		components.Body,
		components.Energy,
		components.Brain,
		components.Organism,
		components.Lifetime,
	]
	posMap    *ecs.Map1[components.Position]
	rotMap    *ecs.Map1[components.Rotation]
	energyMap *ecs.Map1[components.Energy]
	brainMap  *ecs.Map1[components.Brain]
	orgMap    *ecs.Map1[components.Organism]
	lifeMap   *ecs.Map1[components.Lifetime]

	foodMapper *ecs.Map3[components.Position, components.Body, components.Food]
	foodFilter *ecs.Filter3[components.Position, components.Body, components.Food]
	foodMap    *ecs.Map1[components.Food]

	manager   *evolution.Manager
	spec      neural.Spec
	reference *neural.Genome // shape every resumed genome must match
	sense     systems.SenseParams
	placement evolution.Placement
	fertility *systems.Fertility
	parallel  *parallelState

	tick         int
	nextID       uint32
	nextFoodID   uint32
	foodLifetime int // ticks
	foodCount    int
	extinct      []bool

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	bookmarks *telemetry.BookmarkDetector
	events    *telemetry.EventLog
	output    *telemetry.OutputManager
	logStats  bool
	onStats   func(telemetry.WindowStats)
}

// New creates a world from cfg. The config is validated and its derived
// values computed first; an invalid config is refused. Without ResumeFrom
// the pools are seeded with random genomes and the arena with food.
func New(cfg *config.Config, opts Options) (*World, error) {
	if cfg == nil {
		return nil, errors.New("game: nil config")
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	spec, err := neural.SpecFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	placement, err := evolution.ParsePlacement(cfg.Reproduction.Placement)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	manager, err := evolution.NewManager(cfg, rng)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	w := &World{
		cfg:    cfg,
		rng:    rng,
		seed:   opts.Seed,
		width:  cfg.World.Width,
		height: cfg.World.Height,
		world:  world,
		orgMapper: ecs.NewMap7[
			components.Position,
			components.Rotation,
			components.Body,
			components.Energy,
			components.Brain,
			components.Organism,
			components.Lifetime,
		](world),
		orgFilter: ecs.NewFilter7[
			components.Position,
			components.Rotation,
			components.Body,
			components.Energy,
			components.Brain,
			components.Organism,
			components.Lifetime,
		](world),
		posMap:     ecs.NewMap1[components.Position](world),
		rotMap:     ecs.NewMap1[components.Rotation](world),
		energyMap:  ecs.NewMap1[components.Energy](world),
		brainMap:   ecs.NewMap1[components.Brain](world),
		orgMap:     ecs.NewMap1[components.Organism](world),
		lifeMap:    ecs.NewMap1[components.Lifetime](world),
		foodMapper: ecs.NewMap3[components.Position, components.Body, components.Food](world),
		foodFilter: ecs.NewFilter3[components.Position, components.Body, components.Food](world),
		foodMap:    ecs.NewMap1[components.Food](world),

		manager:   manager,
		spec:      spec,
		reference: neural.NewGenome(rand.New(rand.NewPCG(0, 0)), spec, 0),
		sense:     systems.SenseParamsFromConfig(cfg),
		placement: placement,
		fertility: systems.NewFertility(int64(opts.Seed), cfg.Food.NoiseScale, cfg.Food.NoiseBias, cfg.Food.NoiseOctaves),
		parallel:  newParallelState(cfg.Sim.Workers, cfg.Sim.ParallelThreshold),
		extinct:   make([]bool, cfg.Population.Pools),

		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Sim.DT),
		perf:      telemetry.NewPerfCollector(max(int(cfg.Telemetry.StatsWindow/cfg.Sim.DT), 1)),
		bookmarks: telemetry.NewBookmarkDetector(10),
		events:    telemetry.NewEventLog(cfg.Telemetry.EventLogSize),
		output:    opts.Output,
		logStats:  opts.LogStats,
		onStats:   opts.OnStats,
	}
	if cfg.Food.Lifetime > 0 {
		w.foodLifetime = max(int(cfg.Food.Lifetime/cfg.Sim.DT), 1)
	}

	if opts.ResumeFrom != "" {
		snap, err := telemetry.LoadSnapshot(opts.ResumeFrom)
		if err != nil {
			return nil, err
		}
		if err := w.restore(snap); err != nil {
			return nil, fmt.Errorf("resume from %s: %w", opts.ResumeFrom, err)
		}
	} else {
		w.seedPopulation()
		w.seedFood()
	}
	return w, nil
}

// Close stops the phase 1 workers. The world must not be advanced afterwards.
func (w *World) Close() {
	w.parallel.stopWorkers()
}

// Tick returns the number of completed ticks.
func (w *World) Tick() int { return w.tick }

// Config returns the world's configuration.
func (w *World) Config() *config.Config { return w.cfg }

// Manager returns the reproduction manager.
func (w *World) Manager() *evolution.Manager { return w.manager }

// Perf returns the per-phase timing collector.
func (w *World) Perf() *telemetry.PerfCollector { return w.perf }

// Events returns the recent event log entries, newest first.
func (w *World) Events() []telemetry.LogEntry { return w.events.Entries() }

// OrganismView is the read-only state of one organism.
type OrganismView struct {
	ID      uint32
	X, Y    float64
	Heading float64
	Energy  float64
	Pool    int
}

// FoodView is the read-only state of one food item.
type FoodView struct {
	ID     uint32
	X, Y   float64
	Radius float64
	Energy float64
	Corpse bool
}

// Snapshot is a copy of the visible world state between ticks.
type Snapshot struct {
	Tick          int
	Width, Height float64
	BodyRadius    float64
	Organisms     []OrganismView
	Food          []FoodView
}

// Snapshot copies the current organisms and food, ordered by id.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Tick:       w.tick,
		Width:      w.width,
		Height:     w.height,
		BodyRadius: w.cfg.Organism.BodyRadius,
	}

	query := w.orgFilter.Query()
	for query.Next() {
		pos, rot, _, energy, _, org, _ := query.Get()
		s.Organisms = append(s.Organisms, OrganismView{
			ID:      org.ID,
			X:       pos.X,
			Y:       pos.Y,
			Heading: rot.Heading,
			Energy:  energy.Value,
			Pool:    org.Pool,
		})
	}

	foodQuery := w.foodFilter.Query()
	for foodQuery.Next() {
		pos, body, food := foodQuery.Get()
		s.Food = append(s.Food, FoodView{
			ID:     food.ID,
			X:      pos.X,
			Y:      pos.Y,
			Radius: body.Radius,
			Energy: food.Energy,
			Corpse: food.Corpse,
		})
	}

	sortByID(s.Organisms, func(o OrganismView) uint32 { return o.ID })
	sortByID(s.Food, func(f FoodView) uint32 { return f.ID })
	return s
}

// Genomes returns the genomes of all living organisms in id order. The
// genomes are shared with the world and must not be modified.
func (w *World) Genomes() []*neural.Genome {
	type pair struct {
		id uint32
		g  *neural.Genome
	}
	var pairs []pair
	query := w.orgFilter.Query()
	for query.Next() {
		_, _, _, _, brain, org, _ := query.Get()
		pairs = append(pairs, pair{org.ID, brain.Genome})
	}
	sortByID(pairs, func(p pair) uint32 { return p.id })

	out := make([]*neural.Genome, len(pairs))
	for i, p := range pairs {
		out[i] = p.g
	}
	return out
}

// Population returns the number of living organisms.
func (w *World) Population() int {
	n := 0
	query := w.orgFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Fertility returns the field that biases where food appears.
func (w *World) Fertility() *systems.Fertility { return w.fertility }

// OrganismDetail is the full read-only record of one organism.
type OrganismDetail struct {
	OrganismView
	Radius         float64
	MaxEnergy      float64
	Age            int
	BirthTick      int
	AttackCooldown int
	Method         components.Method
	ParentFitness  float64
	Fitness        float64 // score if it died now
	Lifetime       components.Lifetime
	Memory         []float64
	Signal         []float64
	Shape          neural.Shape
}

// Inspect returns the detail of the organism with the given id.
func (w *World) Inspect(id uint32) (OrganismDetail, bool) {
	query := w.orgFilter.Query()
	for query.Next() {
		pos, rot, body, energy, brain, org, life := query.Get()
		if org.ID != id {
			continue
		}
		d := OrganismDetail{
			OrganismView: OrganismView{
				ID:      org.ID,
				X:       pos.X,
				Y:       pos.Y,
				Heading: rot.Heading,
				Energy:  energy.Value,
				Pool:    org.Pool,
			},
			Radius:         body.Radius,
			MaxEnergy:      energy.Max,
			Age:            org.Age,
			BirthTick:      org.BirthTick,
			AttackCooldown: org.AttackCooldown,
			Method:         org.Method,
			ParentFitness:  org.ParentFitness,
			Fitness:        w.manager.Fitness().Score(life.EnergyGained, org.Age),
			Lifetime:       *life,
			Memory:         append([]float64(nil), brain.Memory...),
			Signal:         append([]float64(nil), brain.Signal...),
			Shape:          brain.Genome.Shape(),
		}
		query.Close()
		return d, true
	}
	return OrganismDetail{}, false
}
