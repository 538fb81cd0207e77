package physics

import (
	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// NoiseLayout is a bubble layout whose bodies drift along a simplex noise
// field. The drift cools with alpha so the final layout still settles.
type NoiseLayout struct {
	*Simulation
	noise     opensimplex.Noise
	intensity float64
	scale     float64
	timeScale float64
}

// NewNoiseLayout adds a noise drift of the given intensity to sim
func NewNoiseLayout(sim *Simulation, intensity float64, seed int64) *NoiseLayout {
	nl := &NoiseLayout{
		Simulation: sim,
		noise:      opensimplex.New(seed),
		intensity:  intensity,
		scale:      0.01,
		timeScale:  0.05,
	}
	sim.AddForce(nl.drift)
	return nl
}

// GetName returns the name of the layout algorithm
func (nl *NoiseLayout) GetName() string {
	return "Drifting Bubble Layout"
}

func (nl *NoiseLayout) drift(tick int, alpha float64) Force {
	t := float64(tick) * nl.timeScale
	k := nl.intensity * alpha * 10
	return func(b *Body) {
		x := b.Pos.X * nl.scale
		y := b.Pos.Y * nl.scale
		d := r2.Vec{
			X: nl.noise.Eval3(x, y, t),
			Y: nl.noise.Eval3(x+100, y+100, t),
		}
		b.Pos = r2.Add(b.Pos, r2.Scale(k, d))
	}
}
