// Package main tunes simulation parameters with CMA-ES so that evolution
// makes steady fitness progress.
package main

import (
	"github.com/pthm-cable/evosoup/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Column name in the log
	Path    string  // Config path
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64
	get     func(*config.Config) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Metabolism
			{Name: "upkeep", Path: "energy.upkeep", Min: 0.005, Max: 0.08, Default: 0.02,
				get: func(c *config.Config) *float64 { return &c.Energy.Upkeep }},
			{Name: "move_cost", Path: "movement.move_cost", Min: 0, Max: 0.002, Default: 0.0004,
				get: func(c *config.Config) *float64 { return &c.Movement.MoveCost }},
			// Food
			{Name: "food_energy", Path: "food.energy", Min: 0.05, Max: 0.8, Default: 0.3,
				get: func(c *config.Config) *float64 { return &c.Food.Energy }},
			{Name: "food_spawn_rate", Path: "food.spawn_rate", Min: 2, Max: 60, Default: 15,
				get: func(c *config.Config) *float64 { return &c.Food.SpawnRate }},
			// Combat and sharing
			{Name: "attack_damage", Path: "attack.damage", Min: 0, Max: 0.6, Default: 0.2,
				get: func(c *config.Config) *float64 { return &c.Attack.Damage }},
			{Name: "attack_cost", Path: "attack.cost", Min: 0, Max: 0.5, Default: 0.1,
				get: func(c *config.Config) *float64 { return &c.Attack.Cost }},
			{Name: "steal_fraction", Path: "attack.steal_fraction", Min: 0, Max: 1, Default: 0.5,
				get: func(c *config.Config) *float64 { return &c.Attack.StealFraction }},
			{Name: "share_amount", Path: "share.amount", Min: 0, Max: 0.2, Default: 0.05,
				get: func(c *config.Config) *float64 { return &c.Share.Amount }},
			// Reproduction
			{Name: "top_fraction", Path: "reproduction.top_fraction", Min: 0.02, Max: 0.5, Default: 0.1,
				get: func(c *config.Config) *float64 { return &c.Reproduction.TopFraction }},
			{Name: "sigma_max", Path: "mutation.sigma_max", Min: 0.02, Max: 0.6, Default: 0.2,
				get: func(c *config.Config) *float64 { return &c.Mutation.SigmaMax }},
			{Name: "mutation_rate", Path: "mutation.rate", Min: 0.01, Max: 0.5, Default: 0.1,
				get: func(c *config.Config) *float64 { return &c.Mutation.Rate }},
			{Name: "big_rate", Path: "mutation.big_rate", Min: 0, Max: 0.1, Default: 0.02,
				get: func(c *config.Config) *float64 { return &c.Mutation.BigRate }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].get(cfg) = v
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = *spec.get(cfg)
	}
	return out
}
