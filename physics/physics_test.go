package physics

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/TFMV/hapviz/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/spatial/r2"
)

func body(i int, x, y, r float64, color string) *Body {
	return &Body{Index: i, Pos: r2.Vec{X: x, Y: y}, Prev: r2.Vec{X: x, Y: y}, Radius: r, Color: color}
}

func TestQuadtreeVisitFindsNeighbours(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bodies := make([]*Body, 200)
	for i := range bodies {
		bodies[i] = body(i, rng.Float64()*500, rng.Float64()*300, 5, "a")
	}
	tree := NewQuadtree(bodies)
	require.Equal(t, 200, tree.Len())

	b := tree.Bounds()
	assert.InDelta(t, b.Max.X-b.Min.X, b.Max.Y-b.Min.Y, 1e-9, "bounds are square")

	for _, d := range bodies[:20] {
		const r = 40.0
		query := r2.Box{
			Min: r2.Vec{X: d.Pos.X - r, Y: d.Pos.Y - r},
			Max: r2.Vec{X: d.Pos.X + r, Y: d.Pos.Y + r},
		}

		found := map[int]bool{}
		tree.Visit(func(q *Quad, cell r2.Box) bool {
			if q.Point != nil {
				found[q.Point.Index] = true
			}
			return disjoint(cell, query)
		})

		for _, o := range bodies {
			if math.Abs(o.Pos.X-d.Pos.X) <= r && math.Abs(o.Pos.Y-d.Pos.Y) <= r {
				assert.True(t, found[o.Index], "body %d near %d was pruned", o.Index, d.Index)
			}
		}
	}
}

func TestQuadtreeCoincidentAndInvalidPoints(t *testing.T) {
	bodies := []*Body{
		body(0, 10, 10, 1, "a"),
		body(1, 10, 10, 1, "a"),
		body(2, 10.001, 10, 1, "a"),
		body(3, math.NaN(), 4, 1, "a"),
		body(4, 30, 40, 1, "a"),
	}
	tree := NewQuadtree(bodies)
	assert.Equal(t, 4, tree.Len())

	seen := map[int]int{}
	tree.Visit(func(q *Quad, _ r2.Box) bool {
		if q.Point != nil {
			seen[q.Point.Index]++
		}
		return false
	})
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1, 4: 1}, seen)
}

func TestQuadtreeEmpty(t *testing.T) {
	tree := NewQuadtree(nil)
	assert.Equal(t, 0, tree.Len())

	calls := 0
	tree.Visit(func(*Quad, r2.Box) bool { calls++; return false })
	assert.Equal(t, 1, calls)
}

func TestClusterForce(t *testing.T) {
	center := r2.Vec{X: 100, Y: 100}

	t.Run("touching bodies stay put", func(t *testing.T) {
		anchor := body(0, 100, 100, 10, "red")
		member := body(1, 115, 100, 5, "red")
		f := ClusterForce([]*Body{anchor, member}, center, 1)
		f(member)
		assert.Equal(t, r2.Vec{X: 115, Y: 100}, member.Pos)
		assert.Equal(t, r2.Vec{X: 100, Y: 100}, anchor.Pos)
	})

	t.Run("member moves toward anchor", func(t *testing.T) {
		anchor := body(0, 100, 100, 10, "red")
		member := body(1, 140, 100, 5, "red")
		f := ClusterForce([]*Body{anchor, member}, center, .1)
		f(member)
		// l=40 r=15: shift (25/40)*40*.1 = 2.5
		assert.InDelta(t, 137.5, member.Pos.X, 1e-9)
		assert.InDelta(t, 102.5, anchor.Pos.X, 1e-9)
	})

	t.Run("anchor is pulled to center", func(t *testing.T) {
		anchor := body(0, 200, 100, 9, "red")
		f := ClusterForce([]*Body{anchor}, center, 1)
		f(anchor)
		// l=100 r=0 k=.3: shift 30
		assert.InDelta(t, 170, anchor.Pos.X, 1e-9)
		assert.InDelta(t, 100, anchor.Pos.Y, 1e-9)
	})

	t.Run("first largest body wins ties", func(t *testing.T) {
		a := body(0, 0, 0, 10, "red")
		b := body(1, 50, 0, 10, "red")
		f := ClusterForce([]*Body{a, b}, center, .1)
		f(b)
		assert.Less(t, b.Pos.X, 50.0)
	})

	t.Run("coincident bodies are skipped", func(t *testing.T) {
		anchor := body(0, 100, 100, 10, "red")
		member := body(1, 100, 100, 5, "red")
		f := ClusterForce([]*Body{anchor, member}, center, 1)
		f(member)
		assert.False(t, math.IsNaN(member.Pos.X))
		assert.Equal(t, r2.Vec{X: 100, Y: 100}, member.Pos)
	})
}

func TestCollideForce(t *testing.T) {
	t.Run("same color separates to radius sum", func(t *testing.T) {
		a := body(0, 100, 100, 10, "red")
		b := body(1, 110, 100, 10, "red")
		bodies := []*Body{a, b}
		for i := 0; i < 50; i++ {
			f := CollideForce(bodies, .5, 6, 10)
			for _, d := range bodies {
				f(d)
			}
		}
		assert.InDelta(t, 20, r2.Norm(r2.Sub(a.Pos, b.Pos)), 1e-3)
	})

	t.Run("different colors keep padding", func(t *testing.T) {
		a := body(0, 100, 100, 10, "red")
		b := body(1, 110, 100, 10, "blue")
		bodies := []*Body{a, b}
		for i := 0; i < 50; i++ {
			f := CollideForce(bodies, .5, 6, 10)
			for _, d := range bodies {
				f(d)
			}
		}
		assert.InDelta(t, 26, r2.Norm(r2.Sub(a.Pos, b.Pos)), 1e-3)
	})

	t.Run("distant bodies untouched", func(t *testing.T) {
		a := body(0, 0, 0, 5, "red")
		b := body(1, 100, 100, 5, "blue")
		f := CollideForce([]*Body{a, b}, .5, 6, 10)
		f(a)
		f(b)
		assert.Equal(t, r2.Vec{}, a.Pos)
		assert.Equal(t, r2.Vec{X: 100, Y: 100}, b.Pos)
	})
}

func TestCharge(t *testing.T) {
	assert.InDelta(t, math.Pow(10, 1.1)/16, Charge(&Body{Radius: 10}), 1e-12)
	assert.InDelta(t, 0.78683, Charge(&Body{Radius: 10}), 1e-5)
	assert.Equal(t, 0.0, Charge(&Body{Radius: 0}))
}

func TestChargeForceAttracts(t *testing.T) {
	a := body(0, 0, 0, 10, "a")
	b := body(1, 10, 0, 10, "a")
	f := ChargeForce([]*Body{a, b}, .1, math.Inf(1), Charge)
	f(a)
	// Prev moves away from b so the next integration step moves a toward b.
	assert.Less(t, a.Prev.X, 0.0)
}

func testGraph(n int) *models.Graph {
	g := models.NewGraph("test")
	colors := []string{"hsl(1,100%,50%)", "hsl(2,100%,50%)", "hsl(3,100%,50%)"}
	nodes := make([]models.DataNode, n)
	for i := range nodes {
		r := 5.0
		if i%4 == 0 {
			r = 10
		}
		nodes[i] = models.DataNode{Index: i, Radius: r, Color: colors[i%len(colors)]}
	}
	g.SetNodes(nodes)
	return g
}

func TestSimulationCools(t *testing.T) {
	sim := NewSimulation(DefaultParams(), zaptest.NewLogger(t))
	g := testGraph(30)
	sim.Initialize(g)
	assert.Equal(t, .1, sim.Alpha())

	var frames []Frame
	sim.OnTick(func(f Frame) { frames = append(frames, f) })

	ticks, stable, err := Run(context.Background(), sim, 0)
	require.NoError(t, err)
	assert.True(t, stable)

	// .1 * .99^n < .005 first holds at n = 299
	assert.Equal(t, 298, ticks)
	assert.Equal(t, 298, sim.Ticks())
	require.Len(t, frames, 298)
	assert.Equal(t, 1, frames[0].Tick)
	assert.InDelta(t, .099, frames[0].Alpha, 1e-12)
	assert.Len(t, frames[0].Positions, 30)
	assert.Equal(t, 0.0, sim.Alpha())

	assert.True(t, sim.Step(), "cooled simulation stays stable")

	sim.Apply(g)
	require.Len(t, g.Positions, 30)
	for _, p := range g.Positions {
		assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y))
	}
}

func TestSimulationSeparatesClusters(t *testing.T) {
	sim := NewSimulation(DefaultParams(), nil)
	g := testGraph(24)
	sim.Initialize(g)
	_, _, err := Run(context.Background(), sim, 0)
	require.NoError(t, err)

	pos := sim.Positions()
	overlaps := 0
	for i := range pos {
		for j := i + 1; j < len(pos); j++ {
			d := math.Hypot(pos[i].X-pos[j].X, pos[i].Y-pos[j].Y)
			if d < (g.Nodes[i].Radius+g.Nodes[j].Radius)*.8 {
				overlaps++
			}
		}
	}
	assert.Zero(t, overlaps)
}

func TestSimulationTickLeavesSchedule(t *testing.T) {
	g := testGraph(2)
	g.SetPositions([]models.Position{{X: 100, Y: 100}, {X: 105, Y: 100}})

	sim := NewSimulation(DefaultParams(), nil)
	sim.Initialize(g)
	sim.Tick(.1)

	assert.Equal(t, .1, sim.Alpha())
	assert.Zero(t, sim.Ticks())
	assert.NotEqual(t, g.Positions, sim.Positions())
}

func TestSimulationReinitializeRecomputesMaxRadius(t *testing.T) {
	sim := NewSimulation(DefaultParams(), nil)
	small := testGraph(4)
	sim.Initialize(small)
	assert.Equal(t, 10.0, sim.params.MaxRadius)

	big := testGraph(4)
	big.Nodes[1].Radius = 50
	big.SetDimensions(300, 200)
	sim.Initialize(big)
	assert.Equal(t, 50.0, sim.params.MaxRadius)
	assert.Equal(t, 300.0, sim.params.Width)

	sim.Initialize(small)
	assert.Equal(t, 10.0, sim.params.MaxRadius)
	assert.Equal(t, DefaultParams().Width, sim.params.Width)

	params := DefaultParams()
	params.MaxRadius = 25
	fixed := NewSimulation(params, nil)
	fixed.Initialize(big)
	assert.Equal(t, 25.0, fixed.params.MaxRadius)
}

func TestSimulationKeepsExistingPositions(t *testing.T) {
	g := testGraph(2)
	g.SetPositions([]models.Position{{X: 1, Y: 2}, {X: 3, Y: 4}})

	sim := NewSimulation(DefaultParams(), nil)
	sim.Initialize(g)
	assert.Equal(t, g.Positions, sim.Positions())
}

func TestSimulationMaxIterations(t *testing.T) {
	g := testGraph(10)
	g.SetPhysicsParameters(5, 0.005)

	sim := NewSimulation(DefaultParams(), nil)
	sim.Initialize(g)
	ticks, stable, err := Run(context.Background(), sim, 0)
	require.NoError(t, err)
	assert.True(t, stable)
	assert.Equal(t, 5, ticks)
}

func TestSimulationEmptyGraph(t *testing.T) {
	sim := NewSimulation(DefaultParams(), nil)
	sim.Initialize(models.NewGraph("empty"))
	assert.True(t, sim.Step())
}

func TestRunCancelled(t *testing.T) {
	sim := NewSimulation(DefaultParams(), nil)
	sim.Initialize(testGraph(5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ticks, stable, err := Run(ctx, sim, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, stable)
	assert.Zero(t, ticks)
}

func TestGetLayoutAlgorithm(t *testing.T) {
	for _, name := range []string{"", "cluster", "Bubble"} {
		l, err := GetLayoutAlgorithm(name, DefaultParams(), 0, nil)
		require.NoError(t, err)
		assert.Equal(t, "Clustered Bubble Layout", l.GetName())
	}

	l, err := GetLayoutAlgorithm("noise", DefaultParams(), 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &NoiseLayout{}, l)

	_, err = GetLayoutAlgorithm("spiral", DefaultParams(), 0, nil)
	assert.Error(t, err)
}

func TestNoiseLayoutSettles(t *testing.T) {
	l, err := GetLayoutAlgorithm("cluster", DefaultParams(), 1, nil)
	require.NoError(t, err)
	g := testGraph(12)
	l.Initialize(g)
	_, stable, err := Run(context.Background(), l, 0)
	require.NoError(t, err)
	assert.True(t, stable)
	l.Apply(g)
	assert.Len(t, g.Positions, 12)
}
