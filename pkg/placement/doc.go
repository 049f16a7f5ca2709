// Package placement assigns non-overlapping rectangular labels to point features.
//
// Given an ordered list of points, each with a label string, the package picks
// at most one placement per point from a small, fixed set of candidate
// rectangles so that no two placed labels overlap. The strategy is greedy
// first-fit: it is deterministic and fast, but not globally optimal.
//
// # Core Types
//
//   - [LabelSpec]: a point and its label text (input unit)
//   - [Config]: label size, candidate offsets, and index kind
//   - [Offset]: where a candidate's corner sits relative to the point
//   - [PlacedLabel]: a label that found a free candidate box
//   - [Outcome]: per-input result, either placed (with a box) or dropped
//   - [Result]: the ordered placed labels plus one outcome per input
//
// Points are [orb.Point] values and boxes are [orb.Bound] values from
// github.com/paulmach/orb.
//
// # Algorithm
//
// For each spec, in input order:
//
//  1. Generate candidate boxes in [Config.Offsets] order ([Candidates]).
//  2. Test each candidate against the labels placed so far ([Overlaps]).
//  3. Accept the first candidate that is free and stop.
//  4. If every candidate collides, drop the spec. It is never retried.
//
// Input order is the tie-break across points: earlier points claim space
// first. Offset order is the tie-break within a point. The default offsets
// ([DefaultOffsets]) try Top-Right, Top-Left, Bottom-Right, Bottom-Left.
//
// # Overlap Semantics
//
// Two boxes overlap only if their intersection has positive area. Boxes that
// share an edge or a corner do not overlap, so labels may be packed flush
// against each other at grid-aligned coordinates.
//
// # Spatial Indexes
//
// The "does any placed label intersect this candidate?" query is answered by
// an [Index]. All kinds return identical placements for identical input:
//
//   - [IndexLinear]: flat scan, O(k) per query
//   - [IndexQuadtree]: orb quadtree keyed by box corners (default)
//   - [IndexGrid]: uniform buckets sized to one label
//
// # Usage
//
//	cfg := placement.DefaultConfig()
//	res, err := placement.Place([]placement.LabelSpec{
//	    {Point: orb.Point{1, 1}, Label: "Label A"},
//	    {Point: orb.Point{5, 5}, Label: "Label B"},
//	}, cfg)
//	if err != nil {
//	    return err // only for invalid configuration or input
//	}
//	for _, l := range res.Labels {
//	    fmt.Println(l.Label, l.Box.Min)
//	}
//
// A dropped point is a normal outcome and is reported through
// [Result.Dropped], never as an error.
package placement
