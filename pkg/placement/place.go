package placement

import (
	"github.com/paulmach/orb"

	"github.com/matzehuels/pointlabel/pkg/errors"
)

// Place assigns label boxes to specs with greedy first-fit.
//
// Specs are visited in input order and each one takes the first candidate (in
// cfg.Offsets order) that does not overlap an already accepted box. A spec
// with no free candidate is dropped; that is a normal outcome, not an error.
// Accepted boxes are never evicted and dropped specs are never retried, so the
// result is deterministic for a given input order.
//
// Place returns an error only when cfg is invalid or a spec has a non-finite
// coordinate, and it does so before any placement work.
func Place(specs []LabelSpec, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if err := ValidateSpecs(specs); err != nil {
		return Result{}, err
	}

	idx := NewIndex(cfg, Extent(specs, cfg))
	res := Result{
		Labels:   make([]PlacedLabel, 0, len(specs)),
		Outcomes: make([]Outcome, len(specs)),
	}

	for i, s := range specs {
		box, j, ok := firstFree(idx, s.Point, cfg)
		if !ok {
			res.Outcomes[i] = Outcome{Spec: s, Status: StatusDropped, Candidate: -1}
			continue
		}
		idx.Insert(box)
		res.Labels = append(res.Labels, PlacedLabel{
			Point:     s.Point,
			Label:     s.Label,
			Box:       box,
			Input:     i,
			Candidate: j,
		})
		res.Outcomes[i] = Outcome{Spec: s, Status: StatusPlaced, Box: box, Candidate: j}
	}
	return res, nil
}

// PlaceLabels is Place without the per-input outcomes.
func PlaceLabels(specs []LabelSpec, cfg Config) ([]PlacedLabel, error) {
	res, err := Place(specs, cfg)
	if err != nil {
		return nil, err
	}
	return res.Labels, nil
}

// ValidateSpecs rejects specs whose coordinates are NaN or infinite.
func ValidateSpecs(specs []LabelSpec) error {
	for i, s := range specs {
		if !finite(s.Point[0]) || !finite(s.Point[1]) {
			return errors.New(errors.ErrCodeInvalidInput, "point %d (%q) has a non-finite coordinate: (%g, %g)",
				i, s.Label, s.Point[0], s.Point[1])
		}
	}
	return nil
}

func firstFree(idx Index, p orb.Point, cfg Config) (orb.Bound, int, bool) {
	for j, off := range cfg.Offsets {
		box := Candidate(p, off, cfg.Width, cfg.Height)
		if !idx.Intersects(box) {
			return box, j, true
		}
	}
	return orb.Bound{}, -1, false
}
