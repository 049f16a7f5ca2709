// Package store persists placement runs for the HTTP API.
//
// A [Run] records the config, the input points and the outcome of one
// placement request. Backends implement [Store]:
//   - [MemoryStore]: in-process storage for development and tests
//   - [FileStore]: one JSON file per run under a directory
//   - [MongoStore]: the "runs" collection of a MongoDB database
//
// Usage:
//
//	st, err := store.NewMongoStore(ctx, "mongodb://localhost:27017", "pointlabel")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	run := store.NewRun(cfg, specs, result)
//	if err := st.Save(ctx, run); err != nil {
//	    return err
//	}
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pointlabel/pkg/errors"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

// Listing bounds.
const (
	// DefaultListLimit applies when List is called with limit <= 0.
	DefaultListLimit = 20

	// MaxListLimit caps List results.
	MaxListLimit = 200
)

// Run is one stored placement.
type Run struct {
	ID        string                  `json:"id" bson:"_id"`
	CreatedAt time.Time               `json:"created_at" bson:"created_at"`
	Config    placement.Config        `json:"config" bson:"config"`
	Inputs    []placement.LabelSpec   `json:"inputs" bson:"inputs"`
	Placed    []placement.PlacedLabel `json:"placed" bson:"placed"`
	Dropped   []int                   `json:"dropped" bson:"dropped"` // input positions
}

// NewRun builds a Run with a fresh random ID.
func NewRun(cfg placement.Config, specs []placement.LabelSpec, res placement.Result) *Run {
	dropped := make([]int, 0, res.DroppedCount())
	for i, o := range res.Outcomes {
		if !o.Placed() {
			dropped = append(dropped, i)
		}
	}
	labels := res.Labels
	if labels == nil {
		labels = []placement.PlacedLabel{}
	}
	inputs := specs
	if inputs == nil {
		inputs = []placement.LabelSpec{}
	}
	return &Run{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Config:    cfg,
		Inputs:    inputs,
		Placed:    labels,
		Dropped:   dropped,
	}
}

// Summary counts a run's inputs by outcome.
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Input     int       `json:"input"`
	Placed    int       `json:"placed"`
	Dropped   int       `json:"dropped"`
}

// Summary returns the run's counts without its payload.
func (r *Run) Summary() Summary {
	return Summary{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Input:     len(r.Inputs),
		Placed:    len(r.Placed),
		Dropped:   len(r.Dropped),
	}
}

// Result rebuilds the placement result the run was created from.
func (r *Run) Result() placement.Result {
	res := placement.Result{
		Labels:   r.Placed,
		Outcomes: make([]placement.Outcome, len(r.Inputs)),
	}
	for i, spec := range r.Inputs {
		res.Outcomes[i] = placement.Outcome{Spec: spec, Status: placement.StatusDropped, Candidate: -1}
	}
	for _, l := range r.Placed {
		if l.Input >= 0 && l.Input < len(res.Outcomes) {
			res.Outcomes[l.Input] = placement.Outcome{
				Spec:      res.Outcomes[l.Input].Spec,
				Status:    placement.StatusPlaced,
				Box:       l.Box,
				Candidate: l.Candidate,
			}
		}
	}
	return res
}

// Store is the interface for run storage backends.
type Store interface {
	// Save stores a run, replacing any run with the same ID.
	Save(ctx context.Context, run *Run) error

	// Get retrieves a run by ID.
	// Returns an error with code RUN_NOT_FOUND if it does not exist.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]*Run, error)

	// Close releases backend resources.
	Close() error
}

// ValidateID rejects IDs that are not UUIDs. Backends call it before any
// lookup so that arbitrary strings never reach file paths or queries.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errNotFound(id)
	}
	return nil
}

func errNotFound(id string) error {
	return errors.New(errors.ErrCodeRunNotFound, "run %q not found", id)
}

// clampLimit applies DefaultListLimit and MaxListLimit.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}
