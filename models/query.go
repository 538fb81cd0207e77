package models

import (
	"fmt"
)

// NodeFilter is a function type used to filter nodes in queries
type NodeFilter func(node *DataNode) bool

// FindNodeByID returns a node by its ID
func (g *Graph) FindNodeByID(id string) (*DataNode, error) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("node with ID %s not found", id)
}

// FindNodesByName returns every node with the given name. Sources are not
// deduplicated, so a document may appear more than once.
func (g *Graph) FindNodesByName(name string) []DataNode {
	return g.FilterNodes(func(n *DataNode) bool { return n.Name == name })
}

// FindNodesByRole returns all nodes of a role
func (g *Graph) FindNodesByRole(role Role) []DataNode {
	return g.FilterNodes(func(n *DataNode) bool { return n.Role == role })
}

// FilterNodes returns nodes that match the provided filter function
func (g *Graph) FilterNodes(filter NodeFilter) []DataNode {
	var result []DataNode
	for i := range g.Nodes {
		if filter(&g.Nodes[i]) {
			result = append(result, g.Nodes[i])
		}
	}
	return result
}

// Clusters groups nodes by color in order of first appearance. The anchor of a
// cluster is its largest node; the first one wins ties.
func (g *Graph) Clusters() []Cluster {
	var clusters []Cluster
	byColor := make(map[string]int)

	for i := range g.Nodes {
		n := &g.Nodes[i]
		ci, ok := byColor[n.Color]
		if !ok {
			ci = len(clusters)
			byColor[n.Color] = ci
			clusters = append(clusters, Cluster{Color: n.Color, Anchor: i})
		}
		c := &clusters[ci]
		c.Members = append(c.Members, i)
		if n.Role == RoleTarget {
			c.Targets++
		}
		if n.Radius > g.Nodes[c.Anchor].Radius {
			c.Anchor = i
		}
	}
	return clusters
}
