package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	svg "github.com/ajstarks/svgo/float"

	"github.com/TFMV/hapviz/models"
)

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// Description returns a description of the renderer
func (r *SVGRenderer) Description() string {
	return "Renders bubbles as Scalable Vector Graphics (SVG) circles with tooltips"
}

// Render creates an SVG representation of the graph
func (r *SVGRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	canvas := svg.New(&buf)

	canvas.Start(options.Width, options.Height, fmt.Sprintf(`viewBox="0 0 %g %g"`, options.Width, options.Height))
	canvas.Rect(0, 0, options.Width, options.Height, fmt.Sprintf("fill=%q", options.Background))

	canvas.Gid("nodes")
	for i, node := range graph.Nodes {
		p := graph.Position(i)
		canvas.Group(fmt.Sprintf(`class="node %s"`, node.Role))
		canvas.Title(tooltip(node))
		canvas.Circle(p.X, p.Y, node.Radius,
			fmt.Sprintf("fill=%q", cssColor(node.Color, options.Fallback)),
			`stroke="rgba(0,0,0,0.3)"`,
			`stroke-width="0.5"`)
		canvas.Gend()
	}
	canvas.Gend()

	if options.ShowLabels {
		canvas.Gid("labels")
		for i, node := range graph.Nodes {
			if node.Role != models.RoleTarget || node.Name == "" {
				continue
			}
			p := graph.Position(i)
			canvas.Text(p.X, p.Y+node.Radius+options.FontSize, node.Name,
				fmt.Sprintf(`font-size="%g"`, options.FontSize),
				`font-family="sans-serif"`,
				`text-anchor="middle"`,
				fmt.Sprintf("fill=%q", options.TextColor))
		}
		canvas.Gend()
	}

	if options.Timestamp {
		canvas.Text(5, options.Height-5, time.Now().Format("2006-01-02 15:04:05"),
			`font-family="sans-serif"`, `font-size="8"`, `fill="#808080"`)
	}

	canvas.End()
	return buf.Bytes(), nil
}

// tooltip describes a node on hover
func tooltip(node models.DataNode) string {
	var b strings.Builder
	b.WriteString(node.Name)
	if node.Filename != "" {
		fmt.Fprintf(&b, " (%s)", node.Filename)
	}
	if node.TopWords != "" {
		fmt.Fprintf(&b, "\n%s", node.TopWords)
	}
	if node.APLevel != "" {
		fmt.Fprintf(&b, "\nlevel %s", node.APLevel)
	}
	if node.ClusterSize != "" {
		fmt.Fprintf(&b, ", cluster size %s", node.ClusterSize)
	}
	return b.String()
}
