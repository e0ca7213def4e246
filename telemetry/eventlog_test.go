package telemetry

import (
	"strings"
	"testing"
)

func TestEventLogNewestFirst(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		add      int
		want     []uint32 // actor ids, newest first
	}{
		{"empty", 3, 0, []uint32{}},
		{"partial", 3, 2, []uint32{2, 1}},
		{"exactly full", 3, 3, []uint32{3, 2, 1}},
		{"wrapped", 3, 7, []uint32{7, 6, 5}},
		{"zero capacity", 0, 4, []uint32{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewEventLog(tt.capacity)
			for i := 1; i <= tt.add; i++ {
				l.Add(LogEntry{Tick: i, Actor: uint32(i)})
			}
			got := l.Entries()
			if len(got) != len(tt.want) || l.Len() != len(tt.want) {
				t.Fatalf("got %d entries (Len %d), want %d", len(got), l.Len(), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].Actor != id {
					t.Errorf("entry %d actor = %d, want %d", i, got[i].Actor, id)
				}
			}
		})
	}
}

func TestEventLogEntriesIsCopy(t *testing.T) {
	l := NewEventLog(2)
	l.Add(LogEntry{Actor: 1})
	got := l.Entries()
	got[0].Actor = 99
	if l.Entries()[0].Actor != 1 {
		t.Error("Entries shares storage with the log")
	}

	l.Clear()
	if l.Len() != 0 || len(l.Entries()) != 0 {
		t.Error("Clear left entries behind")
	}
}

func TestLogEntryDescription(t *testing.T) {
	tests := []struct {
		entry LogEntry
		want  string
	}{
		{LogEntry{Category: LogReproduction, Actor: 4, Pool: 1, Method: "sexual"}, "#4 born in pool 1 (sexual)"},
		{LogEntry{Category: LogCombat, Actor: 4, Target: 9, Amount: 0.25}, "#4 hit #9 for 0.25"},
		{LogEntry{Category: LogSharing, Actor: 4, Target: 9, Amount: 0.1}, "#4 gave #9 0.10"},
		{LogEntry{Category: LogDeath, Actor: 9, Amount: 1.5, Combat: true}, "#9 killed in combat (fitness 1.50)"},
		{LogEntry{Category: LogDeath, Actor: 9, Amount: 1.5}, "#9 starved (fitness 1.50)"},
		{LogEntry{Category: LogFood, Actor: 4, Target: 12, Amount: 0.3}, "#4 ate food 12 (+0.30)"},
	}
	for _, tt := range tests {
		t.Run(tt.entry.Category.String(), func(t *testing.T) {
			if got := tt.entry.Description(); got != tt.want {
				t.Errorf("Description = %q, want %q", got, tt.want)
			}
		})
	}
	if got := LogCategory(42).String(); !strings.Contains(got, "unknown") {
		t.Errorf("out-of-range category = %q", got)
	}
}
