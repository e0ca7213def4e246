package game

import (
	"cmp"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evosoup/components"
	"github.com/pthm-cable/evosoup/neural"
)

// EventKind identifies what an event does. The order is the order in which
// one actor's events are applied.
type EventKind uint8

const (
	EventRotate EventKind = iota
	EventMove
	EventEat
	EventAttack
	EventShare
	EventDeath
	EventSpawn
)

var eventNames = [...]string{"rotate", "move", "eat", "attack", "share", "death", "spawn"}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is a requested state change. Phase 1 emits Rotate, Move, Eat,
// Attack and Share; phase 2 produces Death and Spawn.
type Event struct {
	Kind    EventKind
	Actor   ecs.Entity
	ActorID uint32
	Target  ecs.Entity // food item for Eat, organism for Attack and Share
	Amount  float64    // radians, distance or energy depending on Kind

	// Spawn only
	Genome        *neural.Genome
	Pool          int
	Method        components.Method
	ParentFitness float64
	X, Y          float64
}

// sortEvents orders events by actor id, then kind. The sort is stable so
// equal keys keep their emission order.
func sortEvents(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		if c := cmp.Compare(a.ActorID, b.ActorID); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
}
