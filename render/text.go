package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/TFMV/hapviz/models"
)

// JSONRenderer outputs raw JSON format
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// Description returns a description of the renderer
func (r *JSONRenderer) Description() string {
	return "Renders nodes and their positions as JSON for custom processing"
}

// Render creates a JSON representation of the graph
func (r *JSONRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	type jsonNode struct {
		ID          string      `json:"id"`
		Index       int         `json:"index"`
		Role        models.Role `json:"role"`
		Name        string      `json:"name"`
		X           float64     `json:"x"`
		Y           float64     `json:"y"`
		Radius      float64     `json:"radius"`
		Color       string      `json:"color"`
		APLevel     string      `json:"APlevel,omitempty"`
		Filename    string      `json:"filename,omitempty"`
		ClusterSize string      `json:"clustersize,omitempty"`
		TopWords    string      `json:"topwords,omitempty"`
	}

	type jsonGraph struct {
		Nodes    []jsonNode             `json:"nodes"`
		Metadata map[string]interface{} `json:"metadata"`
	}

	clusters := graph.Clusters()
	jsonData := jsonGraph{
		Nodes: make([]jsonNode, 0, len(graph.Nodes)),
		Metadata: map[string]interface{}{
			"name":         graph.Name,
			"width":        options.Width,
			"height":       options.Height,
			"background":   options.Background,
			"nodeCount":    len(graph.Nodes),
			"clusterCount": len(clusters),
		},
	}
	if options.Timestamp {
		jsonData.Metadata["timestamp"] = time.Now().Format(time.RFC3339)
	}

	for i, node := range graph.Nodes {
		p := graph.Position(i)
		jsonData.Nodes = append(jsonData.Nodes, jsonNode{
			ID:          node.ID,
			Index:       i,
			Role:        node.Role,
			Name:        node.Name,
			X:           p.X,
			Y:           p.Y,
			Radius:      node.Radius,
			Color:       node.Color,
			APLevel:     node.APLevel,
			Filename:    node.Filename,
			ClusterSize: node.ClusterSize,
			TopWords:    node.TopWords,
		})
	}

	return json.MarshalIndent(jsonData, "", "  ")
}

// DOTRenderer outputs Graphviz DOT format
type DOTRenderer struct{}

// Name returns the name of the renderer
func (r *DOTRenderer) Name() string {
	return "DOT Renderer"
}

// Description returns a description of the renderer
func (r *DOTRenderer) Description() string {
	return "Renders clusters as Graphviz subgraphs with pinned positions (use neato -n)"
}

// Render creates a DOT representation of the graph. Each color becomes a
// cluster subgraph; positions are in points with y pointing up.
func (r *DOTRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  graph [bgcolor=%q, size=\"%g,%g\"];\n",
		cssColor(options.Background, "#ffffff"), options.Width/72.0, options.Height/72.0)
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, label=\"\", fixedsize=true, fontsize=%g];\n",
		options.FontSize)

	for ci, cluster := range graph.Clusters() {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", ci)
		fmt.Fprintf(&buf, "    label=%q;\n", cluster.Color)
		for _, i := range cluster.Members {
			node := graph.Nodes[i]
			p := graph.Position(i)
			attrs := []string{
				fmt.Sprintf("fillcolor=%q", cssColor(node.Color, options.Fallback)),
				fmt.Sprintf("width=%g", node.Radius*2/72.0),
				fmt.Sprintf("pos=\"%g,%g!\"", p.X, options.Height-p.Y),
				fmt.Sprintf("tooltip=%q", tooltip(node)),
			}
			if options.ShowLabels && node.Role == models.RoleTarget {
				attrs = append(attrs, fmt.Sprintf("xlabel=%q", node.Name))
			}
			fmt.Fprintf(&buf, "    n%d [%s];\n", i, strings.Join(attrs, ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// ASCIIRenderer outputs ASCII art format
type ASCIIRenderer struct{}

// Name returns the name of the renderer
func (r *ASCIIRenderer) Name() string {
	return "ASCII Renderer"
}

// Description returns a description of the renderer
func (r *ASCIIRenderer) Description() string {
	return "Renders bubbles as ASCII art for terminal output (targets '@', sources 'o')"
}

// Render creates an ASCII representation of the graph
func (r *ASCIIRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	// Scale down for ASCII; cells are about twice as tall as wide
	width := max(int(options.Width/10), 40)
	height := max(int(options.Height/20), 20)

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	for i := 0; i < width; i++ {
		grid[0][i] = '-'
		grid[height-1][i] = '-'
	}
	for i := 0; i < height; i++ {
		grid[i][0] = '|'
		grid[i][width-1] = '|'
	}
	grid[0][0] = '+'
	grid[0][width-1] = '+'
	grid[height-1][0] = '+'
	grid[height-1][width-1] = '+'

	cell := func(p models.Position) (int, int) {
		x := int(p.X*float64(width-2)/options.Width) + 1
		y := int(p.Y*float64(height-2)/options.Height) + 1
		return clamp(x, 1, width-2), clamp(y, 1, height-2)
	}

	// sources first so targets stay visible
	for _, role := range []models.Role{models.RoleSource, models.RoleTarget} {
		symbol := 'o'
		if role == models.RoleTarget {
			symbol = '@'
		}
		for i, node := range graph.Nodes {
			if node.Role != role {
				continue
			}
			x, y := cell(graph.Position(i))
			grid[y][x] = symbol
		}
	}

	var buf bytes.Buffer
	for _, row := range grid {
		buf.WriteString(string(row))
		buf.WriteByte('\n')
	}

	clusters := graph.Clusters()
	fmt.Fprintf(&buf, "\nNodes: %d | Clusters: %d\n", len(graph.Nodes), len(clusters))
	if options.ShowLabels {
		for _, c := range clusters {
			fmt.Fprintf(&buf, "  %-22s %3d nodes  anchor %s\n", c.Color, len(c.Members), graph.Nodes[c.Anchor].Name)
		}
	}

	return buf.Bytes(), nil
}

// Clamp a value between lo and hi
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
