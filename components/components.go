// Package components defines ECS components for the simulation.
package components

import "github.com/pthm-cable/evosoup/neural"

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Rotation holds an organism's heading in radians.
type Rotation struct {
	Heading float64
}

// Body holds physical properties of an entity.
type Body struct {
	Radius float64
}

// Brain owns an organism's genome and the recurrent memory fed back into it
// every tick.
type Brain struct {
	Genome *neural.Genome
	Memory []float64
	Signal []float64 // last broadcast colour, each channel in [0, 1]
}

// Food is an edible item. Corpses are food dropped by combat deaths.
type Food struct {
	ID       uint32
	Energy   float64
	Age      int // ticks
	Lifetime int // ticks; 0 never expires
	Corpse   bool
}
