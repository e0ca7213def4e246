package components

import "fmt"

// Energy tracks an organism's metabolic state. Value never drops below zero;
// an organism at zero dies at the end of the tick.
type Energy struct {
	Value float64
	Max   float64
}

// Method records how an organism was created.
type Method uint8

const (
	MethodSeed Method = iota
	MethodAsexual
	MethodSexual
	MethodInterPool
)

var methodNames = [...]string{"seed", "asexual", "sexual", "inter_pool"}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return "unknown"
}

// ParseMethod is the inverse of Method.String.
func ParseMethod(s string) (Method, error) {
	for i, name := range methodNames {
		if name == s {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("unknown reproduction method %q", s)
}

// Organism bundles identity, pool membership and reproduction bookkeeping.
type Organism struct {
	ID             uint32
	Pool           int
	Age            int // ticks
	BirthTick      int
	AttackCooldown int // ticks until the next attack is allowed
	Method         Method
	ParentFitness  float64
	KilledInCombat bool // last energy loss came from an attack
}

// Lifetime accumulates per-organism statistics used for fitness and
// telemetry.
type Lifetime struct {
	EnergyGained   float64 // food, steals and received shares
	EnergySpent    float64 // movement, upkeep and attack costs
	FoodEaten      int
	AttacksLanded  int
	DamageDealt    float64
	DamageTaken    float64
	EnergyShared   float64
	EnergyReceived float64
}
