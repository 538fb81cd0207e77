// Package physics lays out display nodes as clustered, non-overlapping circles.
package physics

import (
	"fmt"
	"math"
	"strings"

	"github.com/TFMV/hapviz/models"
	"go.uber.org/zap"
)

// LayoutAlgorithm defines an interface for layout algorithms
type LayoutAlgorithm interface {
	Initialize(graph *models.Graph)
	Step() bool // Returns true if stable, false if needs more steps
	Apply(graph *models.Graph)
	GetName() string
}

// Params holds the simulation constants
type Params struct {
	Width  float64
	Height float64

	// ClusterStrength is k in cluster(k·alpha²)
	ClusterStrength float64
	// CollideAlpha is the strength passed to collide on every tick
	CollideAlpha float64
	// Padding separates circles of different clusters
	Padding float64
	// MaxRadius pads collision queries; zero means the largest node radius
	MaxRadius float64

	AlphaStart float64
	AlphaDecay float64
	AlphaMin   float64
	Friction   float64
	Gravity    float64

	// Charge enables the radius based charge force
	Charge         bool
	ChargeDistance float64

	Seed          int64
	MaxIterations int
}

// DefaultParams returns the constants of the reference bubble layout
func DefaultParams() Params {
	return Params{
		Width:           960,
		Height:          500,
		ClusterStrength: 10,
		CollideAlpha:    .5,
		Padding:         6,
		AlphaStart:      .1,
		AlphaDecay:      .99,
		AlphaMin:        .005,
		Friction:        .9,
		Gravity:         0,
		ChargeDistance:  math.Inf(1),
		Seed:            1,
		MaxIterations:   1000,
	}
}

// GetLayoutAlgorithm returns a layout algorithm by name
func GetLayoutAlgorithm(name string, params Params, noise float64, logger *zap.Logger) (LayoutAlgorithm, error) {
	switch strings.ToLower(name) {
	case "", "cluster", "bubble":
		sim := NewSimulation(params, logger)
		if noise > 0 {
			return NewNoiseLayout(sim, noise, params.Seed), nil
		}
		return sim, nil
	case "noise":
		return NewNoiseLayout(NewSimulation(params, logger), math.Max(noise, .5), params.Seed), nil
	default:
		return nil, fmt.Errorf("unknown layout %q", name)
	}
}
