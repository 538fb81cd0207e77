package render

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"git.sr.ht/~sbinet/gg"

	"github.com/TFMV/hapviz/models"
)

// PNGRenderer rasterizes the bubbles
type PNGRenderer struct{}

// Name returns the name of the renderer
func (r *PNGRenderer) Name() string {
	return "PNG Renderer"
}

// Description returns a description of the renderer
func (r *PNGRenderer) Description() string {
	return "Renders bubbles as an antialiased PNG image"
}

// Render creates a PNG representation of the graph
func (r *PNGRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	w, h := int(math.Ceil(options.Width)), int(math.Ceil(options.Height))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", w, h)
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(nodeColor(options.Background, "#ffffff"))
	dc.Clear()

	dc.SetLineWidth(0.5)
	for i, node := range graph.Nodes {
		p := graph.Position(i)
		dc.DrawCircle(p.X, p.Y, node.Radius)
		dc.SetColor(nodeColor(node.Color, options.Fallback))
		dc.FillPreserve()
		dc.SetRGBA(0, 0, 0, 0.3)
		dc.Stroke()
	}

	if options.ShowLabels {
		dc.SetColor(nodeColor(options.TextColor, "#333333"))
		for i, node := range graph.Nodes {
			if node.Role != models.RoleTarget || node.Name == "" {
				continue
			}
			p := graph.Position(i)
			dc.DrawStringAnchored(node.Name, p.X, p.Y+node.Radius+2, 0.5, 1)
		}
	}

	if options.Timestamp {
		dc.SetRGBA(0.5, 0.5, 0.5, 1)
		dc.DrawStringAnchored(time.Now().Format("2006-01-02 15:04:05"), 5, options.Height-5, 0, 0)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
