package placement

import (
	"github.com/paulmach/orb"
)

// Overlaps reports whether a and b share an intersection of positive area.
// Boxes that only touch along an edge or at a corner do not overlap.
//
// Note that orb.Bound.Intersects is inclusive of touching boundaries and is
// therefore not used here.
func Overlaps(a, b orb.Bound) bool {
	return a.Min[0] < b.Max[0] && b.Min[0] < a.Max[0] &&
		a.Min[1] < b.Max[1] && b.Min[1] < a.Max[1]
}

// HasOverlap reports whether candidate overlaps the box of any placed label.
// It is the O(k) reference check; Place uses an Index instead.
func HasOverlap(candidate orb.Bound, placed []PlacedLabel) bool {
	for _, p := range placed {
		if Overlaps(candidate, p.Box) {
			return true
		}
	}
	return false
}

// FindOverlap returns the indexes of the first pair of overlapping labels,
// or ok=false when the set is overlap-free. It runs in O(n²) and is meant for
// verifying results, not for placement.
func FindOverlap(labels []PlacedLabel) (i, j int, ok bool) {
	for i = range labels {
		for j = i + 1; j < len(labels); j++ {
			if Overlaps(labels[i].Box, labels[j].Box) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}
