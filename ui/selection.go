package ui

import (
	"github.com/pthm-cable/evosoup/game"
	"github.com/pthm-cable/evosoup/systems"
)

// PickOrganism returns the organism nearest to (wx, wy) within maxDist
// world units, measured across the wrap seam. Ties go to the lower id.
func PickOrganism(s *game.Snapshot, wx, wy, maxDist float64) (game.OrganismView, bool) {
	best := -1
	bestSq := maxDist * maxDist
	for i := range s.Organisms {
		o := &s.Organisms[i]
		d := systems.ToroidalDistSq(wx, wy, o.X, o.Y, s.Width, s.Height)
		if d < bestSq || (d == bestSq && best >= 0 && o.ID < s.Organisms[best].ID) {
			best, bestSq = i, d
		}
	}
	if best < 0 {
		return game.OrganismView{}, false
	}
	return s.Organisms[best], true
}

// FindOrganism returns the view of id in s.
func FindOrganism(s *game.Snapshot, id uint32) (game.OrganismView, bool) {
	for _, o := range s.Organisms {
		if o.ID == id {
			return o, true
		}
	}
	return game.OrganismView{}, false
}

// CycleOrganism returns the id after current in id order, wrapping around.
// An empty snapshot returns 0.
func CycleOrganism(s *game.Snapshot, current uint32) uint32 {
	if len(s.Organisms) == 0 {
		return 0
	}
	for _, o := range s.Organisms {
		if o.ID > current {
			return o.ID
		}
	}
	return s.Organisms[0].ID
}
