package telemetry

import "fmt"

// LogCategory groups event log entries for display.
type LogCategory uint8

const (
	LogReproduction LogCategory = iota
	LogCombat
	LogSharing
	LogDeath
	LogFood
)

var logCategoryNames = [...]string{"reproduction", "combat", "sharing", "death", "food"}

func (c LogCategory) String() string {
	if int(c) < len(logCategoryNames) {
		return logCategoryNames[c]
	}
	return "unknown"
}

// LogEntry is one notable event. Actor and Target are organism ids; Target
// is a food id for LogFood and zero when there is none.
type LogEntry struct {
	Tick     int
	Category LogCategory
	Actor    uint32
	Target   uint32
	Pool     int
	Amount   float64
	Combat   bool   // deaths only
	Method   string // reproduction only
}

// Description renders e as one line of text.
func (e LogEntry) Description() string {
	switch e.Category {
	case LogReproduction:
		return fmt.Sprintf("#%d born in pool %d (%s)", e.Actor, e.Pool, e.Method)
	case LogCombat:
		return fmt.Sprintf("#%d hit #%d for %.2f", e.Actor, e.Target, e.Amount)
	case LogSharing:
		return fmt.Sprintf("#%d gave #%d %.2f", e.Actor, e.Target, e.Amount)
	case LogDeath:
		if e.Combat {
			return fmt.Sprintf("#%d killed in combat (fitness %.2f)", e.Actor, e.Amount)
		}
		return fmt.Sprintf("#%d starved (fitness %.2f)", e.Actor, e.Amount)
	case LogFood:
		return fmt.Sprintf("#%d ate food %d (+%.2f)", e.Actor, e.Target, e.Amount)
	default:
		return fmt.Sprintf("#%d %s", e.Actor, e.Category)
	}
}

// EventLog keeps the most recent entries in a fixed ring. A zero-capacity
// log drops everything.
type EventLog struct {
	entries []LogEntry
	next    int
	full    bool
}

// NewEventLog returns a log holding at most capacity entries.
func NewEventLog(capacity int) *EventLog {
	return &EventLog{entries: make([]LogEntry, max(capacity, 0))}
}

// Add records e, evicting the oldest entry when full.
func (l *EventLog) Add(e LogEntry) {
	if len(l.entries) == 0 {
		return
	}
	l.entries[l.next] = e
	l.next++
	if l.next == len(l.entries) {
		l.next, l.full = 0, true
	}
}

// Len returns the number of stored entries.
func (l *EventLog) Len() int {
	if l.full {
		return len(l.entries)
	}
	return l.next
}

// Entries returns a copy of the stored entries, newest first.
func (l *EventLog) Entries() []LogEntry {
	n := l.Len()
	out := make([]LogEntry, n)
	for i := range out {
		j := l.next - 1 - i
		if j < 0 {
			j += len(l.entries)
		}
		out[i] = l.entries[j]
	}
	return out
}

// Clear drops every entry.
func (l *EventLog) Clear() {
	l.next, l.full = 0, false
}
