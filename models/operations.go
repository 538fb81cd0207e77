package models

import (
	"time"

	"github.com/google/uuid"
)

// NewDataNode creates a node with a unique ID
func NewDataNode(role Role, name string, radius float64, color string) *DataNode {
	return &DataNode{
		ID:     uuid.New().String(),
		Role:   role,
		Name:   name,
		Radius: radius,
		Color:  color,
	}
}

// NewGraph creates a new graph with a unique ID and timestamps
func NewGraph(name string) *Graph {
	now := time.Now()
	return &Graph{
		ID:                     uuid.New().String(),
		Name:                   name,
		Nodes:                  []DataNode{},
		Width:                  960,
		Height:                 500,
		MaxIterations:          1000,
		StabilizationThreshold: 0.005,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// NewDataGraph creates a new data graph with the specified data source
func NewDataGraph(name, dataSource string) *DataGraph {
	return &DataGraph{
		Graph:      NewGraph(name),
		DataSource: dataSource,
		Targets:    NewTargetSet(),
		Metadata:   make(map[string]interface{}),
		Background: "#ffffff",
	}
}

// SetNodes replaces the node list and drops stale positions
func (g *Graph) SetNodes(nodes []DataNode) {
	g.Nodes = nodes
	g.Positions = nil
	g.UpdatedAt = time.Now()
}

// SetPositions stores layout output. Extra entries are ignored.
func (g *Graph) SetPositions(positions []Position) {
	if len(g.Positions) != len(g.Nodes) {
		g.Positions = make([]Position, len(g.Nodes))
	}
	copy(g.Positions, positions)
	g.UpdatedAt = time.Now()
}

// Position returns the position of node i, or the canvas center when the
// graph has not been laid out yet.
func (g *Graph) Position(i int) Position {
	if i < len(g.Positions) {
		return g.Positions[i]
	}
	return Position{X: g.Width / 2, Y: g.Height / 2}
}

// SetDimensions sets the width and height of the graph
func (g *Graph) SetDimensions(width, height float64) {
	g.Width = width
	g.Height = height
	g.UpdatedAt = time.Now()
}

// SetPhysicsParameters sets the simulation limits
func (g *Graph) SetPhysicsParameters(maxIterations int, stabilizationThreshold float64) {
	g.MaxIterations = maxIterations
	g.StabilizationThreshold = stabilizationThreshold
	g.UpdatedAt = time.Now()
}
