package telemetry

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pthm-cable/evosoup/neural"
)

func testGenome(t *testing.T) *neural.Genome {
	t.Helper()
	rng := rand.New(rand.NewPCG(7, 7))
	return neural.NewGenome(rng, neural.Spec{
		Kind:      neural.KindMLP,
		Inputs:    5,
		Outputs:   6,
		Hidden:    []int{4},
		InitScale: 0.5,
	}, 0.1)
}

func TestSnapshotSaveLoad(t *testing.T) {
	dir := t.TempDir()
	g := testGenome(t)

	snapshot := &Snapshot{
		Version:    SnapshotVersion,
		Seed:       42,
		Tick:       1000,
		Width:      800,
		Height:     600,
		NextID:     17,
		NextFoodID: 90,
		Organisms: []OrganismState{{
			ID:       3,
			Pool:     1,
			X:        150,
			Y:        250,
			Heading:  1.2,
			Radius:   6,
			Energy:   0.75,
			Age:      30,
			Method:   "sexual",
			Genome:   g,
			Memory:   []float64{0.1, -0.2},
			Lifetime: LifetimeState{EnergyGained: 5.5, FoodEaten: 2},
		}},
		Food:      []FoodState{{ID: 4, X: 1, Y: 2, Radius: 3, Energy: 0.4, Lifetime: 600, Corpse: true}},
		Graveyard: []GraveState{{Genome: g.Clone(), Fitness: 9, Pool: 1, AgeTicks: 40, Method: "asexual"}},
		Bookmark: &Bookmark{
			Type:        BookmarkCombatBreakthrough,
			Tick:        1000,
			Description: "test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, dir)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if loaded.Seed != 42 || loaded.Tick != 1000 || loaded.NextID != 17 || loaded.NextFoodID != 90 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if len(loaded.Organisms) != 1 || len(loaded.Food) != 1 || len(loaded.Graveyard) != 1 {
		t.Fatalf("counts: %d organisms, %d food, %d graves", len(loaded.Organisms), len(loaded.Food), len(loaded.Graveyard))
	}

	org := loaded.Organisms[0]
	if org.Lifetime.EnergyGained != 5.5 || org.Method != "sexual" || !slices.Equal(org.Memory, []float64{0.1, -0.2}) {
		t.Errorf("organism state mismatch: %+v", org)
	}
	if org.Genome == nil || !org.Genome.Shape().Equal(g.Shape()) {
		t.Fatal("genome shape not restored")
	}
	if !slices.Equal(org.Genome.Flat(), g.Flat()) {
		t.Error("genome weights not restored")
	}
	if !loaded.Food[0].Corpse {
		t.Error("corpse flag lost")
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkCombatBreakthrough {
		t.Errorf("bookmark = %+v", loaded.Bookmark)
	}
}

func TestSnapshotFilename(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		snapshot *Snapshot
		want     string
	}{
		{"plain", &Snapshot{Version: SnapshotVersion, Tick: 3000}, "snapshot_3000.json"},
		{"bookmark", &Snapshot{
			Version:  SnapshotVersion,
			Tick:     5000,
			Bookmark: &Bookmark{Type: BookmarkFitnessRecord, Tick: 5000},
		}, "snapshot_5000_fitness_record.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := SaveSnapshot(tt.snapshot, dir)
			if err != nil {
				t.Fatalf("SaveSnapshot: %v", err)
			}
			if want := filepath.Join(dir, tt.want); path != want {
				t.Errorf("path = %s, want %s", path, want)
			}
		})
	}
}

func TestLoadSnapshotRejectsNewerVersion(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveSnapshot(&Snapshot{Version: SnapshotVersion + 1, Tick: 1}, dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected error for newer snapshot version")
	}
}
