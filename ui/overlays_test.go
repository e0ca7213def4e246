package ui

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestOverlayDefaults(t *testing.T) {
	r := NewOverlayRegistry()
	tests := []struct {
		id   OverlayID
		want bool
	}{
		{OverlayFertility, true},
		{OverlayFood, true},
		{OverlayScent, false},
		{OverlayPerf, false},
		{OverlayEvents, true},
	}
	for _, tc := range tests {
		t.Run(string(tc.id), func(t *testing.T) {
			if got := r.IsEnabled(tc.id); got != tc.want {
				t.Errorf("IsEnabled = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOverlayHandleKey(t *testing.T) {
	r := NewOverlayRegistry()

	id, on, handled := r.HandleKey(rl.KeyS)
	if !handled || id != OverlayScent || !on {
		t.Fatalf("HandleKey(S) = %q, %v, %v", id, on, handled)
	}
	if id, on, handled := r.HandleKey(rl.KeyL); !handled || id != OverlayEvents || on {
		t.Errorf("HandleKey(L) = %q, %v, %v; want events toggled off", id, on, handled)
	}
	if _, _, handled := r.HandleKey(rl.KeyZ); handled {
		t.Error("unbound key was handled")
	}
	r.Toggle(OverlayScent)
	if r.IsEnabled(OverlayScent) {
		t.Error("second toggle left overlay on")
	}
}

func TestOverlayKeysUnique(t *testing.T) {
	seen := make(map[int32]OverlayID)
	for _, d := range NewOverlayRegistry().All() {
		if prev, ok := seen[d.Key]; ok {
			t.Errorf("key %s bound to %q and %q", d.KeyLabel, prev, d.ID)
		}
		seen[d.Key] = d.ID
	}
}

func TestOverlayCategories(t *testing.T) {
	r := NewOverlayRegistry()
	cats := r.Categories()
	if len(cats) != 3 || cats[0] != "world" {
		t.Fatalf("categories = %v", cats)
	}
	total := 0
	for _, c := range cats {
		total += len(r.ByCategory(c))
	}
	if total != len(r.All()) {
		t.Errorf("categories cover %d overlays, want %d", total, len(r.All()))
	}
}
