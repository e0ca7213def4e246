package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID identifies a toggleable layer or panel.
type OverlayID string

const (
	OverlayFertility   OverlayID = "fertility"
	OverlayFood        OverlayID = "food"
	OverlayVision      OverlayID = "vision"
	OverlayScent       OverlayID = "scent"
	OverlayRanges      OverlayID = "ranges"
	OverlayFollow      OverlayID = "follow"
	OverlayPools       OverlayID = "pools"
	OverlayPerf        OverlayID = "perf"
	OverlayEvents      OverlayID = "events"
	OverlayInspector   OverlayID = "inspector"
	OverlayControlsBar OverlayID = "controls_bar"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID       OverlayID
	Name     string
	Key      int32  // 0 = no key
	KeyLabel string // e.g. "V"
	Category string // "world", "selection" or "panels"
	Default  bool
}

// OverlayRegistry tracks overlay state in registration order.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with the viewer's overlays.
func NewOverlayRegistry() *OverlayRegistry {
	r := &OverlayRegistry{enabled: make(map[OverlayID]bool)}
	for _, d := range []OverlayDescriptor{
		{ID: OverlayFertility, Name: "Fertility", Key: rl.KeyF, KeyLabel: "F", Category: "world", Default: true},
		{ID: OverlayFood, Name: "Food", Key: rl.KeyO, KeyLabel: "O", Category: "world", Default: true},
		{ID: OverlayVision, Name: "Vision Rays", Key: rl.KeyV, KeyLabel: "V", Category: "selection", Default: true},
		{ID: OverlayScent, Name: "Scent Rings", Key: rl.KeyS, KeyLabel: "S", Category: "selection"},
		{ID: OverlayRanges, Name: "Attack/Share", Key: rl.KeyR, KeyLabel: "R", Category: "selection"},
		{ID: OverlayFollow, Name: "Follow", Key: rl.KeyC, KeyLabel: "C", Category: "selection"},
		{ID: OverlayInspector, Name: "Inspector", Key: rl.KeyI, KeyLabel: "I", Category: "panels", Default: true},
		{ID: OverlayPools, Name: "Pools", Key: rl.KeyG, KeyLabel: "G", Category: "panels", Default: true},
		{ID: OverlayPerf, Name: "Performance", Key: rl.KeyP, KeyLabel: "P", Category: "panels"},
		{ID: OverlayEvents, Name: "Event Log", Key: rl.KeyL, KeyLabel: "L", Category: "panels", Default: true},
		{ID: OverlayControlsBar, Name: "Key Legend", Key: rl.KeyH, KeyLabel: "H", Category: "panels", Default: true},
	} {
		r.Register(d)
	}
	return r
}

// Register adds an overlay in its default state.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.enabled[desc.ID] = desc.Default
}

// Toggle flips an overlay and returns its new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.enabled[id]; !ok {
		return false
	}
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// SetEnabled sets an overlay's state. Unknown ids are ignored.
func (r *OverlayRegistry) SetEnabled(id OverlayID, on bool) {
	if _, ok := r.enabled[id]; ok {
		r.enabled[id] = on
	}
}

// IsEnabled reports whether an overlay is on.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// All returns the overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// ByCategory returns the overlays of one category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var out []OverlayDescriptor
	for _, d := range r.descriptors {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// Categories returns the categories in first-seen order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, d := range r.descriptors {
		if !seen[d.Category] {
			seen[d.Category] = true
			cats = append(cats, d.Category)
		}
	}
	return cats
}

// HandleKey toggles the overlay bound to key, if any.
func (r *OverlayRegistry) HandleKey(key int32) (id OverlayID, on, handled bool) {
	for _, d := range r.descriptors {
		if d.Key == key {
			return d.ID, r.Toggle(d.ID), true
		}
	}
	return "", false, false
}
