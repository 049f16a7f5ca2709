package placement

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
)

// Index answers overlap queries against the set of accepted label boxes.
//
// Implementations must agree exactly with Overlaps: Intersects(b) is true iff
// some inserted box overlaps b with positive area. Any implementation that
// honours that contract yields the same placements.
type Index interface {
	// Intersects reports whether b overlaps any inserted box.
	Intersects(b orb.Bound) bool

	// Insert adds an accepted box.
	Insert(b orb.Bound)

	// Len returns the number of inserted boxes.
	Len() int
}

// NewIndex returns an empty index of the configured kind. extent must cover
// every box that will be inserted (see Extent); only the quadtree uses it.
// Boxes are assumed to be cfg.Width × cfg.Height.
func NewIndex(cfg Config, extent orb.Bound) Index {
	switch cfg.IndexOrDefault() {
	case IndexLinear:
		return &linearIndex{}
	case IndexGrid:
		return newGridIndex(cfg.Width, cfg.Height)
	default:
		return newQuadtreeIndex(cfg.Width, cfg.Height, extent)
	}
}

// =============================================================================
// Linear
// =============================================================================

type linearIndex struct {
	boxes []orb.Bound
}

func (l *linearIndex) Intersects(b orb.Bound) bool {
	for _, p := range l.boxes {
		if Overlaps(b, p) {
			return true
		}
	}
	return false
}

func (l *linearIndex) Insert(b orb.Bound) { l.boxes = append(l.boxes, b) }

func (l *linearIndex) Len() int { return len(l.boxes) }

// =============================================================================
// Quadtree
// =============================================================================

// entry stores a box in the quadtree under its Min corner.
type entry struct {
	box orb.Bound
}

func (e *entry) Point() orb.Point { return e.box.Min }

// quadtreeIndex keys every box by its Min corner. Since all boxes share one
// size, a box overlapping the query q must have its Min corner inside
// [q.Min - size, q.Max]; that window is fetched and then filtered exactly.
type quadtreeIndex struct {
	tree   *quadtree.Quadtree
	width  float64
	height float64
	buf    []orb.Pointer
	n      int
}

func newQuadtreeIndex(width, height float64, extent orb.Bound) *quadtreeIndex {
	return &quadtreeIndex{
		tree:   quadtree.New(extent),
		width:  width,
		height: height,
	}
}

func (q *quadtreeIndex) Intersects(b orb.Bound) bool {
	// Pad by a few ulps: Max-Min of a stored box may round away from the
	// configured size.
	window := orb.Bound{
		Min: orb.Point{b.Min[0] - q.width - slack(b.Min[0], q.width), b.Min[1] - q.height - slack(b.Min[1], q.height)},
		Max: b.Max,
	}
	q.buf = q.tree.InBoundMatching(q.buf[:0], window, func(p orb.Pointer) bool {
		return Overlaps(b, p.(*entry).box)
	})
	return len(q.buf) > 0
}

func (q *quadtreeIndex) Insert(b orb.Bound) {
	// Add only fails for corners outside the extent, which Extent rules out.
	if err := q.tree.Add(&entry{box: b}); err != nil {
		panic("placement: box outside quadtree extent: " + err.Error())
	}
	q.n++
}

func (q *quadtreeIndex) Len() int { return q.n }

func slack(v, size float64) float64 {
	return 1e-9 * (math.Abs(v) + size)
}

// =============================================================================
// Grid
// =============================================================================

type cell struct{ x, y int64 }

// gridIndex buckets boxes into cells of one label size. A box is stored in
// every cell its closed extent touches, so any two overlapping boxes share at
// least one cell.
type gridIndex struct {
	cellW, cellH float64
	cells        map[cell][]orb.Bound
	n            int
}

func newGridIndex(width, height float64) *gridIndex {
	return &gridIndex{
		cellW: width,
		cellH: height,
		cells: make(map[cell][]orb.Bound),
	}
}

func (g *gridIndex) span(b orb.Bound) (x0, y0, x1, y1 int64) {
	x0 = int64(math.Floor(b.Min[0] / g.cellW))
	y0 = int64(math.Floor(b.Min[1] / g.cellH))
	x1 = int64(math.Floor(b.Max[0] / g.cellW))
	y1 = int64(math.Floor(b.Max[1] / g.cellH))
	return
}

func (g *gridIndex) Intersects(b orb.Bound) bool {
	x0, y0, x1, y1 := g.span(b)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for _, p := range g.cells[cell{x, y}] {
				if Overlaps(b, p) {
					return true
				}
			}
		}
	}
	return false
}

func (g *gridIndex) Insert(b orb.Bound) {
	x0, y0, x1, y1 := g.span(b)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			k := cell{x, y}
			g.cells[k] = append(g.cells[k], b)
		}
	}
	g.n++
}

func (g *gridIndex) Len() int { return g.n }
