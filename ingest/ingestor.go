package ingest

import (
	"github.com/TFMV/hapviz/models"
	"go.uber.org/zap"
)

// Default radii
const (
	SourceSize = 5.0
	TargetSize = 10.0
)

// Ingestor turns rows into display nodes. It remembers every exemplar it has
// emitted until Reset, so a target is drawn once even across several loads.
type Ingestor struct {
	SourceSize float64
	TargetSize float64

	targets *models.TargetSet
	logger  *zap.Logger
}

// NewIngestor creates an ingestor with the default radii
func NewIngestor(logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		SourceSize: SourceSize,
		TargetSize: TargetSize,
		targets:    models.NewTargetSet(),
		logger:     logger,
	}
}

// Targets returns the exemplar names seen so far
func (in *Ingestor) Targets() *models.TargetSet {
	return in.targets
}

// Reset forgets all seen exemplars
func (in *Ingestor) Reset() {
	in.targets.Reset()
}

// Ingest converts rows into a fresh node slice
func (in *Ingestor) Ingest(rows []models.Row) []models.DataNode {
	return in.IngestInto(nil, rows)
}

// IngestInto writes the nodes for rows into dst starting at index 0 and returns
// the container. dst grows when needed; entries past the last written index are
// left as they were.
func (in *Ingestor) IngestInto(dst []models.DataNode, rows []models.Row) []models.DataNode {
	i := 0
	for _, row := range rows {
		hue := ClusterHue(row)
		color := ColorHSL(hue)

		dst = put(dst, i, in.source(row, hue, color))
		i++

		if in.targets.Add(row.Target) {
			dst = put(dst, i, in.target(row, hue, color))
			i++
		}
	}

	in.logger.Debug("Data length after reading the file",
		zap.Int("length", len(dst)),
		zap.Int("written", i),
		zap.Int("targets", in.targets.Len()))

	return dst
}

func (in *Ingestor) source(row models.Row, hue float64, color string) models.DataNode {
	n := models.NewDataNode(models.RoleSource, row.Source, in.SourceSize, color)
	n.Hue = hue
	n.APLevel = row.APLevel
	n.Filename = row.SourceFilename
	n.ClusterSize = row.ClusterSize
	n.TopWords = row.SourceTopWords
	return *n
}

func (in *Ingestor) target(row models.Row, hue float64, color string) models.DataNode {
	n := models.NewDataNode(models.RoleTarget, row.Target, in.TargetSize, color)
	n.Hue = hue
	n.APLevel = row.APLevel
	n.Filename = row.TargetFilename
	n.ClusterSize = row.ClusterSize
	n.TopWords = row.TargetTopWords
	return *n
}

func put(dst []models.DataNode, i int, n models.DataNode) []models.DataNode {
	n.Index = i
	if i < len(dst) {
		dst[i] = n
		return dst
	}
	return append(dst, n)
}
