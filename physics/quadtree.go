package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Quad is a cell of a point quadtree. A leaf holds at most one point; an
// internal cell may also keep a point when a nearly coincident one was pushed
// below it.
type Quad struct {
	Leaf  bool
	Point *Body
	Nodes [4]*Quad

	at r2.Vec
}

// Quadtree partitions bodies by their positions at construction time. Moving
// a body afterwards does not move it in the tree.
type Quadtree struct {
	root   *Quad
	bounds r2.Box
	size   int
}

// coincidence threshold (manhattan distance) below which points share a path
const coincident = .01

// NewQuadtree builds a tree over bodies. Bodies with NaN coordinates are skipped.
func NewQuadtree(bodies []*Body) *Quadtree {
	t := &Quadtree{root: &Quad{Leaf: true}}

	x1, y1 := math.Inf(1), math.Inf(1)
	x2, y2 := math.Inf(-1), math.Inf(-1)
	for _, b := range bodies {
		if !valid(b.Pos) {
			continue
		}
		x1, y1 = math.Min(x1, b.Pos.X), math.Min(y1, b.Pos.Y)
		x2, y2 = math.Max(x2, b.Pos.X), math.Max(y2, b.Pos.Y)
	}
	if x1 > x2 {
		return t
	}

	// square bounds
	dx, dy := x2-x1, y2-y1
	if dx > dy {
		y2 = y1 + dx
	} else {
		x2 = x1 + dy
	}
	t.bounds = r2.Box{Min: r2.Vec{X: x1, Y: y1}, Max: r2.Vec{X: x2, Y: y2}}

	for _, b := range bodies {
		if !valid(b.Pos) {
			continue
		}
		insert(t.root, b, b.Pos, t.bounds)
		t.size++
	}
	return t
}

// Bounds returns the square extent of the tree
func (t *Quadtree) Bounds() r2.Box {
	return t.bounds
}

// Len returns the number of points in the tree
func (t *Quadtree) Len() int {
	return t.size
}

// Visit walks the tree depth first. When fn returns true the children of
// that cell are skipped.
func (t *Quadtree) Visit(fn func(q *Quad, bounds r2.Box) bool) {
	visit(fn, t.root, t.bounds)
}

func visit(fn func(q *Quad, bounds r2.Box) bool, q *Quad, b r2.Box) {
	if fn(q, b) {
		return
	}
	mid := b.Center()
	if c := q.Nodes[0]; c != nil {
		visit(fn, c, r2.Box{Min: b.Min, Max: mid})
	}
	if c := q.Nodes[1]; c != nil {
		visit(fn, c, r2.Box{Min: r2.Vec{X: mid.X, Y: b.Min.Y}, Max: r2.Vec{X: b.Max.X, Y: mid.Y}})
	}
	if c := q.Nodes[2]; c != nil {
		visit(fn, c, r2.Box{Min: r2.Vec{X: b.Min.X, Y: mid.Y}, Max: r2.Vec{X: mid.X, Y: b.Max.Y}})
	}
	if c := q.Nodes[3]; c != nil {
		visit(fn, c, r2.Box{Min: mid, Max: b.Max})
	}
}

func insert(q *Quad, b *Body, at r2.Vec, bounds r2.Box) {
	if !q.Leaf {
		insertChild(q, b, at, bounds)
		return
	}
	if q.Point == nil {
		q.Point, q.at = b, at
		return
	}
	if math.Abs(q.at.X-at.X)+math.Abs(q.at.Y-at.Y) < coincident {
		insertChild(q, b, at, bounds)
		return
	}
	old, oldAt := q.Point, q.at
	q.Point = nil
	insertChild(q, old, oldAt, bounds)
	insertChild(q, b, at, bounds)
}

func insertChild(q *Quad, b *Body, at r2.Vec, bounds r2.Box) {
	mid := bounds.Center()
	right, below := at.X >= mid.X, at.Y >= mid.Y

	i := 0
	if right {
		i |= 1
		bounds.Min.X = mid.X
	} else {
		bounds.Max.X = mid.X
	}
	if below {
		i |= 2
		bounds.Min.Y = mid.Y
	} else {
		bounds.Max.Y = mid.Y
	}

	q.Leaf = false
	if q.Nodes[i] == nil {
		q.Nodes[i] = &Quad{Leaf: true}
	}
	insert(q.Nodes[i], b, at, bounds)
}

// disjoint reports whether cell lies entirely outside query
func disjoint(cell, query r2.Box) bool {
	return cell.Min.X > query.Max.X ||
		cell.Max.X < query.Min.X ||
		cell.Min.Y > query.Max.Y ||
		cell.Max.Y < query.Min.Y
}

func valid(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
