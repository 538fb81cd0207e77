// Package models provides data structures and interfaces for the hapviz application.
// It defines the core domain models shared by ingestion, layout and rendering.
package models

import (
	"fmt"
	"time"
)

// Role tells whether a node stands for a document or for its cluster exemplar.
type Role uint8

const (
	// RoleSource is a document (non-representative cluster member).
	RoleSource Role = iota
	// RoleTarget is an exemplar, the representative of a cluster.
	RoleTarget
)

// String returns the lower-case role name
func (r Role) String() string {
	switch r {
	case RoleSource:
		return "source"
	case RoleTarget:
		return "target"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// MarshalText encodes the role by name
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name
func (r *Role) UnmarshalText(text []byte) error {
	switch string(text) {
	case "source":
		*r = RoleSource
	case "target":
		*r = RoleTarget
	default:
		return fmt.Errorf("unknown role %q", text)
	}
	return nil
}

// Row is one input record: a document assigned to an exemplar at some level.
// Absent columns are empty strings. ClusterIDSet tells an empty clusterId
// cell apart from a missing one.
type Row struct {
	Source         string `json:"source"`
	Target         string `json:"target"`
	ClusterID      string `json:"clusterId"`
	ClusterIDSet   bool   `json:"-"`
	APLevel        string `json:"APlevel"`
	SourceFilename string `json:"sourcefilename"`
	TargetFilename string `json:"targetfilename"`
	ClusterSize    string `json:"clustersize"`
	SourceTopWords string `json:"sourceTopWords"`
	TargetTopWords string `json:"targetTopWords"`
}

// DataNode is a display object derived from a row
type DataNode struct {
	ID          string  `json:"id"`
	Index       int     `json:"index"`
	Role        Role    `json:"role"`
	Name        string  `json:"name"`
	Radius      float64 `json:"radius"`
	Color       string  `json:"color"`
	Hue         float64 `json:"-"` // NaN when the cluster id is not numeric
	APLevel     string  `json:"APlevel"`
	Filename    string  `json:"filename"`
	ClusterSize string  `json:"clustersize"`
	TopWords    string  `json:"topwords"`
}

// Position is a point on the canvas
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Graph is a laid-out collection of nodes. Positions is parallel to Nodes and is
// only written by a layout.
type Graph struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Nodes                  []DataNode `json:"nodes"`
	Positions              []Position `json:"positions"`
	Width                  float64    `json:"width"`
	Height                 float64    `json:"height"`
	MaxIterations          int        `json:"max_iterations"`
	StabilizationThreshold float64    `json:"stabilization_threshold"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// DataGraph is a graph together with the ingestion state that produced it
type DataGraph struct {
	*Graph
	DataSource string                 `json:"data_source"`
	RowCount   int                    `json:"row_count"`
	Targets    *TargetSet             `json:"-"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Background string                 `json:"background"`
}

// Cluster groups the nodes sharing a color
type Cluster struct {
	Color   string
	Anchor  int   // index of the largest node
	Members []int // node indices in input order
	Targets int
}
