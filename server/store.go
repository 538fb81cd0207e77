package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TFMV/hapviz/config"
	"github.com/TFMV/hapviz/ingest"
	"github.com/TFMV/hapviz/models"
)

// ErrDatasetNotFound is returned for unknown dataset keys
var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset describes a loadable data file
type Dataset struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Source   string    `json:"source"` // "file" or "upload"
	Uploaded time.Time `json:"uploaded,omitempty"`
}

type upload struct {
	Dataset
	ext  string
	data []byte
}

// Store lists datasets from a directory and keeps uploads in memory.
// Uploads are lost on restart.
type Store struct {
	dir     string
	cfg     *config.Config
	logger  *zap.Logger
	uploads map[string]*upload
	mu      sync.RWMutex
}

// NewStore creates a store reading files from dir
func NewStore(dir string, cfg *config.Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dir:     dir,
		cfg:     cfg,
		logger:  logger,
		uploads: make(map[string]*upload),
	}
}

// List returns the data files in the directory by name, then the uploads in
// upload order. A missing directory lists no files.
func (s *Store) List() ([]Dataset, error) {
	var out []Dataset

	entries, err := os.ReadDir(s.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !ingest.Supported(e.Name()) {
			continue
		}
		out = append(out, Dataset{
			Key:    e.Name(),
			Name:   strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Source: "file",
		})
	}

	s.mu.RLock()
	uploads := make([]Dataset, 0, len(s.uploads))
	for _, u := range s.uploads {
		uploads = append(uploads, u.Dataset)
	}
	s.mu.RUnlock()

	sort.Slice(uploads, func(i, j int) bool {
		return uploads[i].Uploaded.Before(uploads[j].Uploaded)
	})
	return append(out, uploads...), nil
}

// Put validates and stores an uploaded file, returning its dataset
func (s *Store) Put(filename string, data []byte) (Dataset, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !ingest.Supported(filename) {
		return Dataset{}, fmt.Errorf("%w: %q", ingest.ErrUnsupportedFormat, ext)
	}
	if _, err := s.parse(ext, data); err != nil {
		return Dataset{}, err
	}

	u := &upload{
		Dataset: Dataset{
			Key:      uuid.New().String(),
			Name:     strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
			Source:   "upload",
			Uploaded: time.Now(),
		},
		ext:  ext,
		data: data,
	}

	s.mu.Lock()
	s.uploads[u.Key] = u
	s.mu.Unlock()

	s.logger.Info("Dataset uploaded",
		zap.String("key", u.Key),
		zap.String("name", u.Name),
		zap.Int("bytes", len(data)))
	return u.Dataset, nil
}

// Load ingests a dataset into a fresh graph. Each call starts with an empty
// exemplar set.
func (s *Store) Load(key string) (*models.DataGraph, error) {
	s.mu.RLock()
	u, ok := s.uploads[key]
	s.mu.RUnlock()
	if ok {
		graph, err := s.parse(u.ext, u.data)
		if err != nil {
			return nil, err
		}
		graph.Name = u.Name
		return graph, nil
	}

	if key == "" || filepath.Base(key) != key || !ingest.Supported(key) {
		return nil, fmt.Errorf("%w: %q", ErrDatasetNotFound, key)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrDatasetNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	graph, err := s.parse(filepath.Ext(key), data)
	if err != nil {
		return nil, err
	}
	graph.Name = strings.TrimSuffix(key, filepath.Ext(key))
	return graph, nil
}

func (s *Store) parse(ext string, data []byte) (*models.DataGraph, error) {
	ingestor := ingest.NewIngestor(s.logger)
	ingestor.SourceSize = s.cfg.Layout.SourceSize
	ingestor.TargetSize = s.cfg.Layout.TargetSize

	proc, err := ingest.NewProcessor(s.cfg.Format(ext), ingestor)
	if err != nil {
		return nil, err
	}
	graph, err := proc.ProcessData(data)
	if err != nil {
		return nil, fmt.Errorf("processing %s data: %w", strings.TrimPrefix(ext, "."), err)
	}
	graph.SetDimensions(s.cfg.Layout.Width, s.cfg.Layout.Height)
	graph.SetPhysicsParameters(s.cfg.Layout.MaxIterations, s.cfg.Layout.AlphaMin)
	return graph, nil
}
