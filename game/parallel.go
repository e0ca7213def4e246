package game

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evosoup/neural"
	"github.com/pthm-cable/evosoup/systems"
)

// orgSnapshot captures read-only organism state for phase 1.
type orgSnapshot struct {
	Entity   ecs.Entity
	ID       uint32
	Pool     int
	X, Y     float64
	Heading  float64
	Energy   float64
	Radius   float64
	Age      int
	Cooldown int
	Genome   *neural.Genome
	Memory   []float64
}

// intent is the non-event output of phase 1: the next memory vector and
// the signal to broadcast.
type intent struct {
	Memory []float64
	Signal []float64
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	perception systems.PerceptionScratch
	brain      *neural.Scratch
	sensory    []float64
	hits       []systems.Hit
	events     []Event
}

// workChunk represents a range of organisms for a worker to process.
type workChunk struct {
	start, end int
	worker     int
}

// decideParams are the per-tick constants phase 1 needs.
type decideParams struct {
	dt              float64
	maxTurnRate     float64
	maxSpeed        float64
	attackRange     float64
	attackDamage    float64
	attackThreshold float64
	shareRadius     float64
	shareAmount     float64
	shareThreshold  float64
}

// parallelState holds the phase 1 snapshot and the worker pool.
type parallelState struct {
	snapshots    []orgSnapshot
	intents      []intent
	foodEntities []ecs.Entity
	orgPoints    []systems.Point
	orgBodies    []systems.Body
	foodPoints   []systems.Point
	foodBodies   []systems.Body
	env          *systems.Environment
	params       decideParams
	merged       []Event

	scratches  []workerScratch
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState(workers, threshold int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	scratches := make([]workerScratch, workers)
	for i := range scratches {
		scratches[i].brain = neural.NewScratch()
	}
	return &parallelState{
		numWorkers: workers,
		threshold:  threshold,
		scratches:  scratches,
		snapshots:  make([]orgSnapshot, 0, 512),
		intents:    make([]intent, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers() {
	if p.running {
		return
	}
	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *parallelState) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.computeChunk(chunk.start, chunk.end, &p.scratches[chunk.worker])
			p.doneChan <- struct{}{}
		}
	}
}

// run computes every organism's events and next memory, then merges the
// per-worker buffers in actor order.
func (p *parallelState) run() []Event {
	n := len(p.snapshots)
	if cap(p.intents) < n {
		p.intents = make([]intent, n)
	}
	p.intents = p.intents[:n]
	for i := range p.scratches {
		p.scratches[i].events = p.scratches[i].events[:0]
	}

	if n < p.threshold || p.numWorkers == 1 {
		p.computeChunk(0, n, &p.scratches[0])
	} else {
		p.computeParallel(n)
	}

	p.merged = p.merged[:0]
	for i := range p.scratches {
		p.merged = append(p.merged, p.scratches[i].events...)
	}
	sortEvents(p.merged)
	return p.merged
}

// computeParallel dispatches contiguous chunks to the worker pool, one per
// worker so each chunk owns its scratch.
func (p *parallelState) computeParallel(n int) {
	p.startWorkers()

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end, worker: w}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// computeChunk runs perception and inference for organisms [i0, i1). It only
// reads the snapshot and writes to its own scratch and intents slots.
func (p *parallelState) computeChunk(i0, i1 int, s *workerScratch) {
	env := p.env
	prm := &p.params

	for i := i0; i < i1; i++ {
		snap := &p.snapshots[i]

		self := systems.Self{
			ID:      snap.ID,
			X:       snap.X,
			Y:       snap.Y,
			Heading: snap.Heading,
			Energy:  snap.Energy,
			Age:     snap.Age,
			Pool:    snap.Pool,
		}
		s.sensory = systems.Perceive(self, env, &s.perception, s.sensory)
		act, signal, memory := snap.Genome.Infer(s.sensory, snap.Memory, s.brain)

		in := &p.intents[i]
		in.Memory = append(in.Memory[:0], memory...)
		in.Signal = append(in.Signal[:0], signal...)

		actor := Event{Actor: snap.Entity, ActorID: snap.ID}

		if angle := act.Turn * prm.maxTurnRate * prm.dt; angle != 0 {
			ev := actor
			ev.Kind, ev.Amount = EventRotate, angle
			s.events = append(s.events, ev)
		}
		if dist := act.Move * prm.maxSpeed * prm.dt; dist > 0 {
			ev := actor
			ev.Kind, ev.Amount = EventMove, dist
			s.events = append(s.events, ev)
		}

		if food, ok := p.touchingFood(s, snap); ok {
			ev := actor
			ev.Kind, ev.Target = EventEat, food
			s.events = append(s.events, ev)
		}

		if act.Attack > prm.attackThreshold && snap.Cooldown == 0 {
			if target, ok := p.nearestOther(s, snap, prm.attackRange); ok {
				ev := actor
				ev.Kind, ev.Target, ev.Amount = EventAttack, target, prm.attackDamage*act.Attack
				s.events = append(s.events, ev)
			}
		}

		if act.Share > prm.shareThreshold {
			if target, ok := p.nearestOther(s, snap, prm.shareRadius); ok {
				ev := actor
				ev.Kind, ev.Target, ev.Amount = EventShare, target, prm.shareAmount*act.Share
				s.events = append(s.events, ev)
			}
		}
	}
}

// touchingFood returns the nearest food item overlapping the organism.
func (p *parallelState) touchingFood(s *workerScratch, snap *orgSnapshot) (ecs.Entity, bool) {
	reach := snap.Radius + p.env.MaxFoodRadius
	s.hits = p.env.Food.NearestWithinInto(s.hits, snap.X, snap.Y, reach)
	for _, h := range s.hits {
		r := snap.Radius + p.foodBodies[h.Index].Radius
		if h.DistSq <= r*r {
			return p.foodEntities[h.Index], true
		}
	}
	return ecs.Entity{}, false
}

// nearestOther returns the closest other organism within r, ties broken by id.
func (p *parallelState) nearestOther(s *workerScratch, snap *orgSnapshot, r float64) (ecs.Entity, bool) {
	s.hits = p.env.Organisms.NearestWithinInto(s.hits, snap.X, snap.Y, r)
	for _, h := range s.hits {
		if h.ID != snap.ID {
			return p.snapshots[h.Index].Entity, true
		}
	}
	return ecs.Entity{}, false
}
