package ui

import (
	"testing"

	"github.com/pthm-cable/evosoup/game"
	"github.com/pthm-cable/evosoup/telemetry"
)

func TestDetailSections(t *testing.T) {
	tests := []struct {
		name   string
		detail game.OrganismDetail
		extra  []string
	}{
		{"bare", game.OrganismDetail{}, nil},
		{"memory only", game.OrganismDetail{Memory: []float64{0.1, -0.2}}, []string{"Memory"}},
		{"signal and memory", game.OrganismDetail{
			Signal: []float64{0.2, 0.4, 0.6, 0.8},
			Memory: []float64{0.1},
		}, []string{"Signal", "Memory"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detailSections(&tt.detail)
			if len(got) != len(inspectorSections)+len(tt.extra) {
				t.Fatalf("got %d sections, want %d", len(got), len(inspectorSections)+len(tt.extra))
			}
			for i, title := range tt.extra {
				if sd := got[len(inspectorSections)+i]; sd.Title != title {
					t.Errorf("section %d = %q, want %q", i, sd.Title, title)
				}
			}
		})
	}
}

func TestSignalSectionLabels(t *testing.T) {
	d := game.OrganismDetail{Signal: []float64{0.1, 0.2, 0.3, 0.9}}
	sd := signalSection(&d)
	want := []string{"Red", "Green", "Blue", "s3"}
	if len(sd.Fields) != len(want) {
		t.Fatalf("got %d fields", len(sd.Fields))
	}
	for i, f := range sd.Fields {
		if f.Label != want[i] {
			t.Errorf("field %d label = %q, want %q", i, f.Label, want[i])
		}
		if got := f.Value(&d); got != d.Signal[i] {
			t.Errorf("field %d value = %v, want %v", i, got, d.Signal[i])
		}
	}
}

func TestEventColorsDistinct(t *testing.T) {
	cats := []telemetry.LogCategory{
		telemetry.LogReproduction, telemetry.LogCombat, telemetry.LogSharing, telemetry.LogDeath, telemetry.LogFood,
	}
	seen := make(map[[4]uint8]telemetry.LogCategory)
	for _, c := range cats {
		col := eventColor(c)
		key := [4]uint8{col.R, col.G, col.B, col.A}
		if prev, ok := seen[key]; ok {
			t.Errorf("%s and %s share a color", prev, c)
		}
		seen[key] = c
	}
}
