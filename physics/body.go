package physics

import (
	"github.com/TFMV/hapviz/models"
	"gonum.org/v1/gonum/spatial/r2"
)

// Body is the simulated state of one node. Pos and Prev are owned by the
// simulation; Radius and Color are copied from the node.
type Body struct {
	Index  int
	Pos    r2.Vec
	Prev   r2.Vec
	Radius float64
	Color  string
}

// NewBodies creates one body per node, in node order, without positions
func NewBodies(nodes []models.DataNode) []*Body {
	bodies := make([]*Body, len(nodes))
	for i := range nodes {
		bodies[i] = &Body{
			Index:  i,
			Radius: nodes[i].Radius,
			Color:  nodes[i].Color,
		}
	}
	return bodies
}

// MaxRadius returns the largest radius among bodies
func MaxRadius(bodies []*Body) float64 {
	m := 0.0
	for _, b := range bodies {
		if b.Radius > m {
			m = b.Radius
		}
	}
	return m
}
