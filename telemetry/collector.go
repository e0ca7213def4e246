// Package telemetry provides windowed population statistics, bookmarks,
// performance timing, CSV output and population snapshots.
package telemetry

import "github.com/pthm-cable/evosoup/components"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int
	dt                  float64

	windowStartTick int

	births       [4]int // by components.Method
	deaths       int
	combatDeaths int
	deferred     int
	attacks      int
	damage       float64
	shares       int
	shared       float64
	eaten        int
	foodEnergy   float64
}

// NewCollector creates a collector whose windows last windowDurationSec of
// simulated time at dt seconds per tick.
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticks := 1
	if dt > 0 {
		ticks = max(int(windowDurationSec/dt), 1)
	}
	return &Collector{
		windowDurationTicks: ticks,
		dt:                  dt,
	}
}

// RecordBirth records a newborn.
func (c *Collector) RecordBirth(m components.Method) {
	if int(m) < len(c.births) {
		c.births[m]++
	}
}

// RecordDeath records a death.
func (c *Collector) RecordDeath(combat bool) {
	c.deaths++
	if combat {
		c.combatDeaths++
	}
}

// RecordDeferred records spawns postponed for lack of graveyard entries.
func (c *Collector) RecordDeferred(n int) { c.deferred += n }

// RecordAttack records an attack that dealt damage.
func (c *Collector) RecordAttack(dealt float64) {
	c.attacks++
	c.damage += dealt
}

// RecordShare records an energy transfer.
func (c *Collector) RecordShare(amount float64) {
	c.shares++
	c.shared += amount
}

// RecordEat records a consumed food item.
func (c *Collector) RecordEat(energy float64) {
	c.eaten++
	c.foodEnergy += energy
}

// Births returns births in the current window for one method.
func (c *Collector) Births(m components.Method) int {
	if int(m) < len(c.births) {
		return c.births[m]
	}
	return 0
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int { return c.windowDurationTicks }

// Sample is the world state measured at the end of a window.
type Sample struct {
	Population    int
	Food          int
	Energies      []float64
	Ages          []float64 // ticks
	GraveyardSize int
	MeanFitness   float64
	BestFitness   float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int, s Sample) WindowStats {
	energy := Describe(s.Energies)
	age := Describe(s.Ages)

	var births int
	for _, n := range c.births {
		births += n
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Population: s.Population,
		Food:       s.Food,

		Births:       births,
		Deaths:       c.deaths,
		CombatDeaths: c.combatDeaths,
		Deferred:     c.deferred,

		Attacks:      c.attacks,
		DamageDealt:  c.damage,
		Shares:       c.shares,
		EnergyShared: c.shared,
		FoodEaten:    c.eaten,
		FoodEnergy:   c.foodEnergy,

		EnergyMean: energy.Mean,
		EnergyStd:  energy.Std,
		EnergyP10:  energy.P10,
		EnergyP50:  energy.P50,
		EnergyP90:  energy.P90,

		AgeMean: age.Mean,
		AgeP90:  age.P90,

		GraveyardSize: s.GraveyardSize,
		MeanFitness:   s.MeanFitness,
		BestFitness:   s.BestFitness,
	}

	c.Reset(currentTick)
	return stats
}

// Reset discards the current window's counters and starts a new window at
// tick.
func (c *Collector) Reset(tick int) {
	*c = Collector{
		windowDurationTicks: c.windowDurationTicks,
		dt:                  c.dt,
		windowStartTick:     tick,
	}
}
