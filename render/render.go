// Package render draws laid-out graphs in several output formats.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TFMV/hapviz/models"
	"github.com/TFMV/hapviz/physics"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for unknown output formats
var ErrUnsupportedFormat = errors.New("unsupported output format")

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format         string         // Output format (svg, png, html, json, dot, ascii)
	Width          float64        // Width of the output
	Height         float64        // Height of the output
	Background     string         // Background color
	Fallback       string         // Color for nodes whose hue cannot be drawn
	TextColor      string         // Label and caption color
	Layout         string         // Layout algorithm name
	NoiseIntensity float64        // Drift added to the layout (0 disables)
	Timestamp      bool           // Include timestamp in visualization
	ShowLabels     bool           // Show target labels
	FontSize       float64        // Font size for labels
	Title          string         // Page or chart title
	Timeout        time.Duration  // Layout and render deadline
	Params         physics.Params // Simulation constants
	Logger         *zap.Logger
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render creates a visualization of the graph using the provided options
	Render(graph *models.Graph, options *OutputOptions) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// Description returns a description of the renderer
	Description() string
}

// Formats lists the supported output formats
var Formats = []string{"svg", "png", "html", "json", "dot", "ascii"}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	params := physics.DefaultParams()
	return &OutputOptions{
		Format:     format,
		Width:      params.Width,
		Height:     params.Height,
		Background: "#ffffff",
		Fallback:   "#808080",
		TextColor:  "#333333",
		Layout:     "cluster",
		Timestamp:  false,
		ShowLabels: false,
		FontSize:   10,
		Timeout:    30 * time.Second,
		Params:     params,
	}
}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "png":
		return &PNGRenderer{}, nil
	case "html":
		return &HTMLRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "dot":
		return &DOTRenderer{}, nil
	case "ascii", "txt":
		return &ASCIIRenderer{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ContentType returns the MIME type of a format
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "html":
		return "text/html; charset=utf-8"
	case "json":
		return "application/json"
	case "dot":
		return "text/vnd.graphviz"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension of a format
func Extension(format string) string {
	switch f := strings.ToLower(format); f {
	case "ascii":
		return ".txt"
	default:
		return "." + f
	}
}

// Generate processes a data graph and outputs a visualization
func Generate(graph *models.DataGraph, format string) ([]byte, error) {
	options := NewDefaultOptions(format)
	options.Width = graph.Width
	options.Height = graph.Height
	options.Background = graph.Background
	options.Title = graph.Name

	return GenerateWithOptions(context.Background(), graph, options)
}

// GenerateWithOptions lays the graph out then renders it. The whole job is
// bounded by options.Timeout.
func GenerateWithOptions(ctx context.Context, graph *models.DataGraph, options *OutputOptions) ([]byte, error) {
	renderer, err := GetRenderer(options.Format)
	if err != nil {
		return nil, err
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	if err := Layout(ctx, graph.Graph, options); err != nil {
		return nil, err
	}

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := renderer.Render(graph.Graph, options)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("rendering %s: %w", options.Format, ctx.Err())
	}
}

// Layout runs the configured layout on graph and stores the positions
func Layout(ctx context.Context, graph *models.Graph, options *OutputOptions) error {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	params := options.Params
	if options.Width > 0 {
		params.Width = options.Width
		graph.Width = options.Width
	}
	if options.Height > 0 {
		params.Height = options.Height
		graph.Height = options.Height
	}

	layout, err := physics.GetLayoutAlgorithm(options.Layout, params, options.NoiseIntensity, logger)
	if err != nil {
		return err
	}
	layout.Initialize(graph)

	start := time.Now()
	ticks, stable, err := physics.Run(ctx, layout, graph.MaxIterations)
	if err != nil {
		return fmt.Errorf("layout %s: %w", layout.GetName(), err)
	}
	layout.Apply(graph)

	logger.Debug("Layout finished",
		zap.String("layout", layout.GetName()),
		zap.Int("ticks", ticks),
		zap.Bool("stable", stable),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
