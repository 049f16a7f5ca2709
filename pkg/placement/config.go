package placement

import (
	"math"
	"strings"

	"github.com/matzehuels/pointlabel/pkg/errors"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultWidth is the default label width in input units.
	DefaultWidth = 6.0

	// DefaultHeight is the default label height in input units.
	DefaultHeight = 2.0

	// DefaultGap is the default distance between a point and the nearest
	// corner of its label box.
	DefaultGap = 1.0

	// DefaultIndex is the index kind used when Config.Index is empty.
	DefaultIndex = IndexQuadtree
)

// IndexKind selects the spatial index backing overlap queries.
type IndexKind string

// Supported index kinds.
const (
	IndexLinear   IndexKind = "linear"
	IndexQuadtree IndexKind = "quadtree"
	IndexGrid     IndexKind = "grid"
)

// ValidIndexKinds is the set of supported index kinds.
var ValidIndexKinds = map[IndexKind]bool{
	IndexLinear:   true,
	IndexQuadtree: true,
	IndexGrid:     true,
}

// ParseIndexKind converts a case-insensitive name into an IndexKind.
// An empty name yields DefaultIndex.
func ParseIndexKind(s string) (IndexKind, error) {
	if s == "" {
		return DefaultIndex, nil
	}
	k := IndexKind(strings.ToLower(strings.TrimSpace(s)))
	if !ValidIndexKinds[k] {
		return "", errors.New(errors.ErrCodeInvalidConfig, "unknown index %q (must be one of: linear, quadtree, grid)", s)
	}
	return k, nil
}

// =============================================================================
// Config
// =============================================================================

// Offset positions a candidate box relative to its point. The candidate's
// first corner is point+(DX, DY); the opposite corner adds the label size.
type Offset struct {
	DX float64 `json:"dx" toml:"dx" bson:"dx"`
	DY float64 `json:"dy" toml:"dy" bson:"dy"`
}

// Config controls label size, candidate order and the overlap index.
// It is passed by value; Place never modifies it.
type Config struct {
	Width   float64   `json:"width" bson:"width"`
	Height  float64   `json:"height" bson:"height"`
	Offsets []Offset  `json:"offsets" bson:"offsets"`
	Index   IndexKind `json:"index,omitempty" bson:"index,omitempty"`
}

// DefaultOffsets returns the four-corner candidate order for a label of size
// w×h kept gap units away from its point: Top-Right, Top-Left, Bottom-Right,
// Bottom-Left.
func DefaultOffsets(gap, w, h float64) []Offset {
	return []Offset{
		{DX: gap, DY: gap},
		{DX: -gap - w, DY: gap},
		{DX: gap, DY: -gap - h},
		{DX: -gap - w, DY: -gap - h},
	}
}

// DefaultConfig returns a 6×2 label with a gap of 1 and the quadtree index.
func DefaultConfig() Config {
	return NewConfig(DefaultWidth, DefaultHeight, DefaultGap)
}

// NewConfig returns a config with the four-corner offsets for the given size
// and gap, using DefaultIndex.
func NewConfig(width, height, gap float64) Config {
	return Config{
		Width:   width,
		Height:  height,
		Offsets: DefaultOffsets(gap, width, height),
		Index:   DefaultIndex,
	}
}

// Validate reports the first precondition the config violates.
// The returned error carries errors.ErrCodeInvalidConfig.
func (c Config) Validate() error {
	if !positive(c.Width) {
		return errors.New(errors.ErrCodeInvalidConfig, "label width must be a positive finite number, got %g", c.Width)
	}
	if !positive(c.Height) {
		return errors.New(errors.ErrCodeInvalidConfig, "label height must be a positive finite number, got %g", c.Height)
	}
	if len(c.Offsets) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "at least one candidate offset is required")
	}
	for i, o := range c.Offsets {
		if !finite(o.DX) || !finite(o.DY) {
			return errors.New(errors.ErrCodeInvalidConfig, "offset %d is not finite: (%g, %g)", i, o.DX, o.DY)
		}
	}
	if c.Index != "" && !ValidIndexKinds[c.Index] {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown index %q", c.Index)
	}
	return nil
}

// IndexOrDefault returns the configured index, or DefaultIndex when unset.
func (c Config) IndexOrDefault() IndexKind {
	if c.Index == "" {
		return DefaultIndex
	}
	return c.Index
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func positive(v float64) bool { return finite(v) && v > 0 }
