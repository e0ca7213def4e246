package game

import (
	"cmp"
	"math"
	"slices"
)

// normalizeAngle wraps angle to [-pi, pi].
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// sortByID sorts s by the id key returns.
func sortByID[T any](s []T, key func(T) uint32) {
	slices.SortFunc(s, func(a, b T) int { return cmp.Compare(key(a), key(b)) })
}

// gain adds amount to *v capped at limit and returns what was added.
func gain(v *float64, amount, limit float64) float64 {
	added := math.Max(math.Min(amount, limit-*v), 0)
	*v += added
	return added
}

// spend removes amount from *v clamped at zero and returns what was removed.
func spend(v *float64, amount float64) float64 {
	removed := math.Min(math.Max(amount, 0), *v)
	*v -= removed
	return removed
}
