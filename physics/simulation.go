package physics

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/TFMV/hapviz/models"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

// Frame is the state published after a tick
type Frame struct {
	Tick      int               `json:"tick"`
	Alpha     float64           `json:"alpha"`
	Positions []models.Position `json:"positions"`
}

// Simulation runs the clustered bubble layout. Each step decays alpha,
// integrates velocities with friction, then runs the cluster and collide
// passes and publishes a frame.
type Simulation struct {
	base      Params // as configured; graph overrides apply on top each Initialize
	params    Params
	bodies    []*Body
	alpha     float64
	ticks     int
	stable    bool
	rng       *rand.Rand
	observers []func(Frame)
	extra     []func(tick int, alpha float64) Force
	logger    *zap.Logger
	mu        sync.Mutex
}

var _ LayoutAlgorithm = (*Simulation)(nil)

// NewSimulation creates a simulation with the given constants
func NewSimulation(params Params, logger *zap.Logger) *Simulation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulation{
		base:   params,
		params: params,
		rng:    rand.New(rand.NewSource(params.Seed)),
		logger: logger,
	}
}

// GetName returns the name of the layout algorithm
func (s *Simulation) GetName() string {
	return "Clustered Bubble Layout"
}

// OnTick registers an observer called after every tick, outside the lock
func (s *Simulation) OnTick(fn func(Frame)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// AddForce registers a force built on every tick, applied after integration
// and before the cluster pass.
func (s *Simulation) AddForce(build func(tick int, alpha float64) Force) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extra = append(s.extra, build)
}

// Initialize loads the nodes of graph. Graph dimensions and limits override
// the params when set. Nodes keep existing positions; the others are placed
// at random.
func (s *Simulation) Initialize(graph *models.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.params = s.base
	if graph.Width > 0 {
		s.params.Width = graph.Width
	}
	if graph.Height > 0 {
		s.params.Height = graph.Height
	}
	if graph.MaxIterations > 0 {
		s.params.MaxIterations = graph.MaxIterations
	}
	if graph.StabilizationThreshold > 0 {
		s.params.AlphaMin = graph.StabilizationThreshold
	}

	s.bodies = NewBodies(graph.Nodes)
	for i, b := range s.bodies {
		if i < len(graph.Positions) {
			b.Pos = r2.Vec{X: graph.Positions[i].X, Y: graph.Positions[i].Y}
		} else {
			b.Pos = r2.Vec{X: s.rng.Float64() * s.params.Width, Y: s.rng.Float64() * s.params.Height}
		}
		b.Prev = b.Pos
	}
	if s.base.MaxRadius <= 0 {
		s.params.MaxRadius = MaxRadius(s.bodies)
	}

	s.alpha = s.params.AlphaStart
	s.ticks = 0
	s.stable = len(s.bodies) == 0

	s.logger.Debug("Simulation initialized",
		zap.Int("nodes", len(s.bodies)),
		zap.Float64("width", s.params.Width),
		zap.Float64("height", s.params.Height),
		zap.Float64("maxRadius", s.params.MaxRadius))
}

// Step performs one tick. It returns true once alpha has cooled below the
// minimum or the iteration limit is reached.
func (s *Simulation) Step() bool {
	s.mu.Lock()
	frame, done := s.step()
	observers := s.observers
	s.mu.Unlock()

	if !done {
		for _, fn := range observers {
			fn(frame)
		}
	}
	return done
}

func (s *Simulation) step() (Frame, bool) {
	if s.stable {
		return Frame{}, true
	}
	if s.params.MaxIterations > 0 && s.ticks >= s.params.MaxIterations {
		s.stable = true
		return Frame{}, true
	}

	s.alpha *= s.params.AlphaDecay
	if s.alpha < s.params.AlphaMin {
		s.alpha = 0
		s.stable = true
		s.logger.Debug("Simulation cooled", zap.Int("ticks", s.ticks))
		return Frame{}, true
	}

	center := s.center()
	if k := s.alpha * s.params.Gravity; k != 0 {
		s.each(GravityForce(center, k))
	}
	if s.params.Charge {
		s.each(ChargeForce(s.bodies, s.alpha, s.params.ChargeDistance, Charge))
	}

	f := s.params.Friction
	for _, b := range s.bodies {
		pos := b.Pos
		b.Pos = r2.Sub(b.Pos, r2.Scale(f, r2.Sub(b.Prev, b.Pos)))
		b.Prev = pos
	}

	for _, build := range s.extra {
		s.each(build(s.ticks, s.alpha))
	}

	s.tick(s.alpha)
	s.ticks++

	return Frame{Tick: s.ticks, Alpha: s.alpha, Positions: s.positions()}, false
}

// Tick runs the cluster pass then the collide pass with the given alpha,
// without touching the alpha schedule.
func (s *Simulation) Tick(alpha float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick(alpha)
}

func (s *Simulation) tick(alpha float64) {
	s.each(ClusterForce(s.bodies, s.center(), s.params.ClusterStrength*alpha*alpha))
	s.each(CollideForce(s.bodies, s.params.CollideAlpha, s.params.Padding, s.params.MaxRadius))
}

func (s *Simulation) each(f Force) {
	for _, b := range s.bodies {
		f(b)
	}
}

func (s *Simulation) center() r2.Vec {
	return r2.Vec{X: s.params.Width / 2, Y: s.params.Height / 2}
}

func (s *Simulation) positions() []models.Position {
	out := make([]models.Position, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = models.Position{X: b.Pos.X, Y: b.Pos.Y}
	}
	return out
}

// Apply writes the current positions into graph
func (s *Simulation) Apply(graph *models.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	graph.SetPositions(s.positions())
}

// Positions returns a snapshot of the current positions
func (s *Simulation) Positions() []models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions()
}

// Alpha returns the current cooling factor
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Ticks returns the number of completed ticks
func (s *Simulation) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Run steps the layout until it is stable, maxSteps is reached or ctx is
// done. It returns the number of ticks run and whether the layout settled.
func Run(ctx context.Context, layout LayoutAlgorithm, maxSteps int) (int, bool, error) {
	if maxSteps <= 0 {
		maxSteps = math.MaxInt
	}
	for i := 0; i < maxSteps; i++ {
		select {
		case <-ctx.Done():
			return i, false, ctx.Err()
		default:
		}
		if layout.Step() {
			return i, true, nil
		}
	}
	return maxSteps, false, nil
}
