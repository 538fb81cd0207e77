package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/hapviz/ingest"
	"github.com/TFMV/hapviz/models"
	"github.com/TFMV/hapviz/render"
)

type renderFlags struct {
	formats []string
	outDir  string
	width   float64
	height  float64
	noise   float64
	labels  bool
	layout  string
}

func renderCmd(a *app) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render <data-file>",
		Short: "Lay out a data file and write it in one or more formats",
		Long: "Reads a CSV, TSV or JSON row file, runs the bubble layout once and writes\n" +
			"one file per format (" + strings.Join(render.Formats, ", ") + ").",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.render(cmd, args[0], f)
		},
	}
	cmd.Flags().StringSliceVarP(&f.formats, "format", "f", nil, "output formats (default from config)")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "", "output directory (default from config)")
	cmd.Flags().Float64Var(&f.width, "width", 0, "canvas width")
	cmd.Flags().Float64Var(&f.height, "height", 0, "canvas height")
	cmd.Flags().Float64Var(&f.noise, "noise", -1, "noise drift intensity (0 disables)")
	cmd.Flags().BoolVar(&f.labels, "labels", false, "label exemplars")
	cmd.Flags().StringVar(&f.layout, "layout", "", "layout algorithm: cluster or noise")
	return cmd
}

func (a *app) loadGraph(path string) (*models.DataGraph, error) {
	ingestor := ingest.NewIngestor(a.logger)
	ingestor.SourceSize = a.cfg.Layout.SourceSize
	ingestor.TargetSize = a.cfg.Layout.TargetSize

	graph, err := ingest.ReadFile(path, a.cfg.Format(filepath.Ext(path)), ingestor)
	if err != nil {
		return nil, err
	}
	graph.SetDimensions(a.cfg.Layout.Width, a.cfg.Layout.Height)
	graph.SetPhysicsParameters(a.cfg.Layout.MaxIterations, a.cfg.Layout.AlphaMin)

	a.logger.Info("Loaded data file",
		zap.String("path", path),
		zap.String("source", graph.DataSource),
		zap.Int("rows", graph.RowCount),
		zap.Int("nodes", len(graph.Nodes)),
		zap.Int("targets", graph.Targets.Len()))
	return graph, nil
}

func (a *app) render(cmd *cobra.Command, path string, f *renderFlags) error {
	formats := f.formats
	if len(formats) == 0 {
		formats = a.cfg.Render.Formats
	}
	for _, format := range formats {
		if _, err := render.GetRenderer(format); err != nil {
			return err
		}
	}
	outDir := f.outDir
	if outDir == "" {
		outDir = a.cfg.Render.OutDir
	}
	if f.width > 0 {
		a.cfg.Layout.Width = f.width
	}
	if f.height > 0 {
		a.cfg.Layout.Height = f.height
	}
	if f.noise >= 0 {
		a.cfg.Layout.Noise = f.noise
	}
	if f.layout != "" {
		a.cfg.Layout.Algorithm = f.layout
	}
	if f.labels {
		a.cfg.Render.ShowLabels = true
	}

	graph, err := a.loadGraph(path)
	if err != nil {
		return err
	}

	options := a.cfg.OutputOptions(formats[0])
	options.Logger = a.logger
	options.Title = graph.Name
	if err := render.Layout(cmd.Context(), graph.Graph, options); err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	// renderers only read the laid-out graph
	g, _ := errgroup.WithContext(cmd.Context())
	written := make([]string, len(formats))
	for i, format := range formats {
		i, format := i, format
		g.Go(func() error {
			renderer, err := render.GetRenderer(format)
			if err != nil {
				return err
			}
			opts := a.cfg.OutputOptions(format)
			opts.Title = graph.Name
			output, err := renderer.Render(graph.Graph, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", renderer.Name(), err)
			}

			file := filepath.Join(outDir, graph.Name+render.Extension(format))
			if err := os.WriteFile(file, output, 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			a.logger.Debug("Wrote output", zap.String("file", file), zap.Int("bytes", len(output)))
			written[i] = file
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, file := range written {
		fmt.Fprintf(out(cmd), "  %s %s\n", ui.Good.Sprint("wrote"), file)
	}
	return nil
}
