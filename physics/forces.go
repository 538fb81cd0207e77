package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Force moves a single body. Forces are built once per tick and applied to
// every body in order.
type Force func(b *Body)

// ClusterForce pulls every body toward the largest body of its color. The
// largest body itself is pulled toward center, with a strength growing with
// the square root of its radius.
func ClusterForce(bodies []*Body, center r2.Vec, alpha float64) Force {
	anchors := make(map[string]*Body)
	for _, b := range bodies {
		if a, ok := anchors[b.Color]; !ok || b.Radius > a.Radius {
			anchors[b.Color] = b
		}
	}

	return func(d *Body) {
		node, ok := anchors[d.Color]
		if !ok {
			return
		}
		k := 1.0
		if node == d {
			node = &Body{Pos: center, Radius: -d.Radius}
			k = .1 * math.Sqrt(d.Radius)
		}

		v := r2.Sub(d.Pos, node.Pos)
		l := r2.Norm(v)
		r := d.Radius + node.Radius
		if l == r || l == 0 {
			return
		}
		v = r2.Scale((l-r)/l*alpha*k, v)
		d.Pos = r2.Sub(d.Pos, v)
		node.Pos = r2.Add(node.Pos, v)
	}
}

// CollideForce separates overlapping bodies. The quadtree is built from the
// positions bodies have when CollideForce is called. Bodies of different
// colors keep padding between them; maxRadius must bound every radius.
func CollideForce(bodies []*Body, alpha, padding, maxRadius float64) Force {
	tree := NewQuadtree(bodies)

	return func(d *Body) {
		r := d.Radius + maxRadius + padding
		query := r2.Box{
			Min: r2.Vec{X: d.Pos.X - r, Y: d.Pos.Y - r},
			Max: r2.Vec{X: d.Pos.X + r, Y: d.Pos.Y + r},
		}

		tree.Visit(func(q *Quad, cell r2.Box) bool {
			if p := q.Point; p != nil && p != d {
				v := r2.Sub(d.Pos, p.Pos)
				l := r2.Norm(v)
				r := d.Radius + p.Radius
				if d.Color != p.Color {
					r += padding
				}
				if l < r && l > 0 {
					v = r2.Scale((l-r)/l*alpha, v)
					d.Pos = r2.Sub(d.Pos, v)
					p.Pos = r2.Add(p.Pos, v)
				}
			}
			return disjoint(cell, query)
		})
	}
}

// Charge is the radius based charge of a body
func Charge(b *Body) float64 {
	return math.Pow(b.Radius, 1.1) / 16
}

// ChargeForce applies pairwise charges to body velocities. Positive charges
// attract. Pairs farther apart than distance are ignored.
func ChargeForce(bodies []*Body, alpha, distance float64, charge func(*Body) float64) Force {
	charges := make([]float64, len(bodies))
	for i, b := range bodies {
		charges[i] = alpha * charge(b)
	}
	limit := distance * distance

	return func(d *Body) {
		for i, o := range bodies {
			if o == d || charges[i] == 0 {
				continue
			}
			v := r2.Sub(o.Pos, d.Pos)
			dn := r2.Norm2(v)
			if dn == 0 || dn >= limit {
				continue
			}
			d.Prev = r2.Sub(d.Prev, r2.Scale(charges[i]/dn, v))
		}
	}
}

// GravityForce pulls bodies toward center proportionally to their distance
func GravityForce(center r2.Vec, k float64) Force {
	return func(d *Body) {
		d.Pos = r2.Add(d.Pos, r2.Scale(k, r2.Sub(center, d.Pos)))
	}
}
