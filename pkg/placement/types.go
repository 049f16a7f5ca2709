package placement

import (
	"github.com/paulmach/orb"
)

// LabelSpec pairs a point feature with its label text.
type LabelSpec struct {
	Point orb.Point `json:"point" bson:"point"`
	Label string    `json:"label" bson:"label"`
}

// PlacedLabel is a label that was assigned a box.
// Its Box never overlaps the Box of any other PlacedLabel in the same Result.
type PlacedLabel struct {
	Point orb.Point `json:"point" bson:"point"`
	Label string    `json:"label" bson:"label"`
	Box   orb.Bound `json:"box" bson:"box"`

	// Input is the position of the originating spec in the input slice.
	Input int `json:"input" bson:"input"`

	// Candidate is the index into Config.Offsets of the accepted box.
	Candidate int `json:"candidate" bson:"candidate"`
}

// Status tags an Outcome.
type Status string

// Outcome statuses.
const (
	StatusPlaced  Status = "placed"
	StatusDropped Status = "dropped"
)

// Outcome records what happened to one input spec.
// Box and Candidate are only meaningful when Status is StatusPlaced;
// Candidate is -1 for dropped specs.
type Outcome struct {
	Spec      LabelSpec `json:"spec" bson:"spec"`
	Status    Status    `json:"status" bson:"status"`
	Box       orb.Bound `json:"box,omitzero" bson:"box,omitempty"`
	Candidate int       `json:"candidate" bson:"candidate"`
}

// Placed reports whether the spec received a label box.
func (o Outcome) Placed() bool { return o.Status == StatusPlaced }

// Result is the output of Place.
type Result struct {
	// Labels holds the placed labels in input order.
	Labels []PlacedLabel `json:"labels" bson:"labels"`

	// Outcomes holds one entry per input spec, aligned with the input slice.
	Outcomes []Outcome `json:"outcomes" bson:"outcomes"`
}

// PlacedCount returns the number of placed labels.
func (r Result) PlacedCount() int { return len(r.Labels) }

// DroppedCount returns the number of specs that received no label.
func (r Result) DroppedCount() int { return len(r.Outcomes) - len(r.Labels) }

// Dropped returns the specs that received no label, in input order.
func (r Result) Dropped() []LabelSpec {
	var out []LabelSpec
	for _, o := range r.Outcomes {
		if !o.Placed() {
			out = append(out, o.Spec)
		}
	}
	return out
}

// Boxes returns the placed boxes in input order.
func (r Result) Boxes() []orb.Bound {
	out := make([]orb.Bound, len(r.Labels))
	for i, l := range r.Labels {
		out[i] = l.Box
	}
	return out
}
