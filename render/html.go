package render

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/TFMV/hapviz/models"
)

// HTMLRenderer outputs an interactive echarts page
type HTMLRenderer struct{}

// Name returns the name of the renderer
func (r *HTMLRenderer) Name() string {
	return "HTML Renderer"
}

// Description returns a description of the renderer
func (r *HTMLRenderer) Description() string {
	return "Renders bubbles as an interactive HTML page with zoom and tooltips"
}

// Render creates an HTML page showing the laid-out graph
func (r *HTMLRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	page := components.NewPage()
	page.SetPageTitle(pageTitle(graph, options))
	page.AddCharts(bubbleChart(graph, options))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("rendering html: %w", err)
	}
	return buf.Bytes(), nil
}

func pageTitle(graph *models.Graph, options *OutputOptions) string {
	if options.Title != "" {
		return options.Title
	}
	if graph.Name != "" {
		return graph.Name
	}
	return "hapviz"
}

func bubbleChart(graph *models.Graph, options *OutputOptions) *charts.Graph {
	nodes := make([]opts.GraphNode, 0, len(graph.Nodes))
	for i, node := range graph.Nodes {
		p := graph.Position(i)
		nodes = append(nodes, opts.GraphNode{
			// echarts requires unique names
			Name:       fmt.Sprintf("%s #%d", node.Name, i),
			X:          float32(p.X),
			Y:          float32(p.Y),
			Fixed:      opts.Bool(true),
			Value:      float32(node.Radius),
			SymbolSize: node.Radius * 2,
			ItemStyle: &opts.ItemStyle{
				Color:       cssColor(node.Color, options.Fallback),
				BorderColor: "rgba(0,0,0,0.3)",
			},
		})
	}

	chart := charts.NewGraph()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       pageTitle(graph, options),
			Width:           fmt.Sprintf("%gpx", options.Width),
			Height:          fmt.Sprintf("%gpx", options.Height),
			BackgroundColor: options.Background,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    pageTitle(graph, options),
			Subtitle: fmt.Sprintf("%d nodes, %d clusters", len(graph.Nodes), len(graph.Clusters())),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
	)
	chart.AddSeries(
		"bubbles",
		nodes,
		nil,
		charts.WithGraphChartOpts(
			opts.GraphChart{
				Layout:    "none",
				Roam:      opts.Bool(true),
				Draggable: opts.Bool(false),
			},
		),
	)
	return chart
}
