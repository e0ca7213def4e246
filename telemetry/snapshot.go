package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/evosoup/neural"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the population, food and graveyard needed to resume a run.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    uint64 `json:"seed"`
	Tick    int    `json:"tick"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	NextID     uint32 `json:"next_id"`
	NextFoodID uint32 `json:"next_food_id"`

	Organisms []OrganismState `json:"organisms"`
	Food      []FoodState     `json:"food"`
	Graveyard []GraveState    `json:"graveyard"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// OrganismState holds one organism's complete state.
type OrganismState struct {
	ID      uint32  `json:"id"`
	Pool    int     `json:"pool"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	Radius  float64 `json:"radius"`
	Energy  float64 `json:"energy"`

	Age            int     `json:"age"`
	BirthTick      int     `json:"birth_tick"`
	AttackCooldown int     `json:"attack_cooldown"`
	Method         string  `json:"method"`
	ParentFitness  float64 `json:"parent_fitness"`

	Genome *neural.Genome `json:"genome"`
	Memory []float64      `json:"memory"`
	Signal []float64      `json:"signal,omitempty"`

	Lifetime LifetimeState `json:"lifetime"`
}

// LifetimeState is the serialized per-organism accumulator.
type LifetimeState struct {
	EnergyGained   float64 `json:"energy_gained"`
	EnergySpent    float64 `json:"energy_spent"`
	FoodEaten      int     `json:"food_eaten"`
	AttacksLanded  int     `json:"attacks_landed"`
	DamageDealt    float64 `json:"damage_dealt"`
	DamageTaken    float64 `json:"damage_taken"`
	EnergyShared   float64 `json:"energy_shared"`
	EnergyReceived float64 `json:"energy_received"`
}

// FoodState holds one food item.
type FoodState struct {
	ID       uint32  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	Energy   float64 `json:"energy"`
	Age      int     `json:"age"`
	Lifetime int     `json:"lifetime"`
	Corpse   bool    `json:"corpse,omitempty"`
}

// GraveState is one archived graveyard entry, oldest first in Snapshot.
type GraveState struct {
	Genome        *neural.Genome `json:"genome"`
	Fitness       float64        `json:"fitness"`
	Pool          int            `json:"pool"`
	AgeTicks      int            `json:"age_ticks"`
	EnergyGained  float64        `json:"energy_gained"`
	Method        string         `json:"method"`
	ParentFitness float64        `json:"parent_fitness"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk. Snapshots from a newer format
// version are rejected.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version > SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
