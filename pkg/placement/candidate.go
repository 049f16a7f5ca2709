package placement

import (
	"github.com/paulmach/orb"
)

// NewBox returns the axis-aligned box spanned by two opposite corners.
// The corners may be given in any order; Min and Max hold the per-axis
// minimum and maximum.
func NewBox(a, b orb.Point) orb.Bound {
	return orb.Bound{Min: a, Max: a}.Extend(b)
}

// Candidate returns the box for a single offset around p.
func Candidate(p orb.Point, off Offset, width, height float64) orb.Bound {
	corner := orb.Point{p[0] + off.DX, p[1] + off.DY}
	return NewBox(corner, orb.Point{corner[0] + width, corner[1] + height})
}

// Candidates returns one box per configured offset, in offset order.
func Candidates(p orb.Point, cfg Config) []orb.Bound {
	out := make([]orb.Bound, len(cfg.Offsets))
	for i, off := range cfg.Offsets {
		out[i] = Candidate(p, off, cfg.Width, cfg.Height)
	}
	return out
}

// Extent returns the bound covering every candidate box of every spec.
// It returns an empty bound when specs is empty.
func Extent(specs []LabelSpec, cfg Config) orb.Bound {
	var (
		b     orb.Bound
		first = true
	)
	for _, s := range specs {
		for _, off := range cfg.Offsets {
			c := Candidate(s.Point, off, cfg.Width, cfg.Height)
			if first {
				b, first = c, false
				continue
			}
			b = b.Union(c)
		}
	}
	return b
}
