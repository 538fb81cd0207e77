package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/TFMV/hapviz/models"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for input formats without a processor
var ErrUnsupportedFormat = errors.New("unsupported format")

// DataProcessor defines the interface that all data processors must implement
type DataProcessor interface {
	// ProcessData takes raw data bytes and returns the display nodes
	ProcessData(data []byte) (*models.DataGraph, error)

	// GetName returns the name of the processor
	GetName() string
}

// RowReader decodes raw bytes into rows
type RowReader interface {
	ReadRows(data []byte) ([]models.Row, error)
}

// Column names of the row format
const (
	ColSource         = "source"
	ColTarget         = "target"
	ColClusterID      = "clusterId"
	ColAPLevel        = "APlevel"
	ColSourceFilename = "sourcefilename"
	ColTargetFilename = "targetfilename"
	ColClusterSize    = "clustersize"
	ColSourceTopWords = "sourceTopWords"
	ColTargetTopWords = "targetTopWords"
)

// processor holds what the CSV and JSON processors share
type processor struct {
	name    string
	source  string
	palette *Palette
	ingest  *Ingestor
	reader  RowReader
}

func (p *processor) GetName() string {
	return p.name
}

func (p *processor) ProcessData(data []byte) (*models.DataGraph, error) {
	rows, err := p.reader.ReadRows(data)
	if err != nil {
		return nil, err
	}
	return p.build(rows), nil
}

func (p *processor) build(rows []models.Row) *models.DataGraph {
	graph := models.NewDataGraph(p.name+" Import", p.source)
	graph.Background = p.palette.Background
	graph.RowCount = len(rows)
	graph.SetNodes(p.ingest.Ingest(rows))
	graph.Targets = p.ingest.Targets()
	return graph
}

// CSVProcessor handles delimited row files with a header line
type CSVProcessor struct {
	processor
	Comma rune
}

// NewCSVProcessor creates a new CSV processor
func NewCSVProcessor(palette *Palette, ingestor *Ingestor) *CSVProcessor {
	if palette == nil {
		palette = DefaultPalette()
	}
	if ingestor == nil {
		ingestor = NewIngestor(nil)
	}
	p := &CSVProcessor{Comma: ','}
	p.processor = processor{name: "CSV", source: "csv", palette: palette, ingest: ingestor, reader: p}
	return p
}

// ReadRows parses CSV data. Columns are matched by header name, ignoring case;
// missing columns and short records leave the field empty.
func (p *CSVProcessor) ReadRows(data []byte) ([]models.Row, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = p.Comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}

	lookup := func(record []string, name string) (string, bool) {
		i, ok := columns[strings.ToLower(name)]
		if !ok || i >= len(record) {
			return "", false
		}
		return record[i], true
	}
	field := func(record []string, name string) string {
		v, _ := lookup(record, name)
		return v
	}

	var rows []models.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row: %w", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		cluster, set := lookup(record, ColClusterID)
		rows = append(rows, models.Row{
			Source:         field(record, ColSource),
			Target:         field(record, ColTarget),
			ClusterID:      cluster,
			ClusterIDSet:   set,
			APLevel:        field(record, ColAPLevel),
			SourceFilename: field(record, ColSourceFilename),
			TargetFilename: field(record, ColTargetFilename),
			ClusterSize:    field(record, ColClusterSize),
			SourceTopWords: field(record, ColSourceTopWords),
			TargetTopWords: field(record, ColTargetTopWords),
		})
	}
	return rows, nil
}

// JSONProcessor handles a JSON array of row objects
type JSONProcessor struct {
	processor
}

// NewJSONProcessor creates a new JSON processor
func NewJSONProcessor(palette *Palette, ingestor *Ingestor) *JSONProcessor {
	if palette == nil {
		palette = DefaultPalette()
	}
	if ingestor == nil {
		ingestor = NewIngestor(nil)
	}
	p := &JSONProcessor{}
	p.processor = processor{name: "JSON", source: "json", palette: palette, ingest: ingestor, reader: p}
	return p
}

// ReadRows parses JSON data. Values may be strings or numbers; anything else
// is treated as absent.
func (p *JSONProcessor) ReadRows(data []byte) ([]models.Row, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}

	rows := make([]models.Row, 0, len(raw))
	for _, obj := range raw {
		_, set := obj[ColClusterID]
		rows = append(rows, models.Row{
			Source:         jsonField(obj, ColSource),
			Target:         jsonField(obj, ColTarget),
			ClusterID:      jsonField(obj, ColClusterID),
			ClusterIDSet:   set,
			APLevel:        jsonField(obj, ColAPLevel),
			SourceFilename: jsonField(obj, ColSourceFilename),
			TargetFilename: jsonField(obj, ColTargetFilename),
			ClusterSize:    jsonField(obj, ColClusterSize),
			SourceTopWords: jsonField(obj, ColSourceTopWords),
			TargetTopWords: jsonField(obj, ColTargetTopWords),
		})
	}
	return rows, nil
}

func jsonField(obj map[string]json.RawMessage, name string) string {
	v, ok := obj[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

// GetProcessor returns the processor for a format name or file extension
func GetProcessor(format string, logger *zap.Logger) (DataProcessor, error) {
	return NewProcessor(format, NewIngestor(logger))
}

// NewProcessor is like GetProcessor but shares ingestor, so exemplars seen by
// earlier loads are not emitted again.
func NewProcessor(format string, ingestor *Ingestor) (DataProcessor, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "csv":
		return NewCSVProcessor(DefaultPalette(), ingestor), nil
	case "tsv":
		p := NewCSVProcessor(DefaultPalette(), ingestor)
		p.Comma = '\t'
		p.name, p.source = "TSV", "tsv"
		return p, nil
	case "json":
		return NewJSONProcessor(DefaultPalette(), ingestor), nil
	case "dark-csv":
		return NewCSVProcessor(DarkPalette(), ingestor), nil
	case "dark-json":
		return NewJSONProcessor(DarkPalette(), ingestor), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ReadFile loads a data file with the named processor. An empty format
// picks the processor from the file extension.
func ReadFile(path, format string, ingestor *Ingestor) (*models.DataGraph, error) {
	if format == "" {
		format = filepath.Ext(path)
	}
	proc, err := NewProcessor(format, ingestor)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	graph, err := proc.ProcessData(data)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", path, err)
	}
	graph.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return graph, nil
}

// Supported reports whether a file name has an ingestible extension
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".json":
		return true
	}
	return false
}
