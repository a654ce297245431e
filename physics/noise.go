package physics

import (
	"math/rand"
	"time"

	"github.com/TFMV/growthgraph/graph"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Noise produces the per-node displacement of the perturbation pass.
// Advance is called once per tick after every node has been perturbed.
type Noise interface {
	Perturb(id graph.NodeID, x, y float64) (dx, dy float64)
	Advance()
}

// UniformNoise draws independent displacements in [-Magnitude, Magnitude] on each axis.
type UniformNoise struct {
	Magnitude float64
	rng       *rand.Rand
}

// NewUniformNoise creates a uniform source. A zero seed seeds from the clock.
func NewUniformNoise(magnitude float64, seed int64) *UniformNoise {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &UniformNoise{
		Magnitude: magnitude,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Perturb returns an independent displacement on each axis.
func (u *UniformNoise) Perturb(_ graph.NodeID, _, _ float64) (float64, float64) {
	if u.Magnitude == 0 {
		return 0, 0
	}
	return u.uniform(), u.uniform()
}

func (u *UniformNoise) uniform() float64 {
	return (u.rng.Float64()*2 - 1) * u.Magnitude
}

// Advance is a no-op.
func (u *UniformNoise) Advance() {}

// SimplexNoise samples a drifting opensimplex field, so neighboring nodes
// receive correlated displacements.
type SimplexNoise struct {
	Magnitude float64
	Scale     float64
	noise     opensimplex.Noise
	time      float64
}

// NewSimplexNoise creates a simplex source. A zero seed seeds from the clock.
func NewSimplexNoise(magnitude, scale float64, seed int64) *SimplexNoise {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimplexNoise{
		Magnitude: magnitude,
		Scale:     scale,
		noise:     opensimplex.New(seed),
	}
}

// Perturb samples the field at the node position, scaled to Magnitude.
func (s *SimplexNoise) Perturb(_ graph.NodeID, x, y float64) (float64, float64) {
	if s.Magnitude == 0 {
		return 0, 0
	}
	nx := s.noise.Eval3(x*s.Scale, y*s.Scale, s.time)
	ny := s.noise.Eval3(x*s.Scale+100, y*s.Scale+100, s.time)
	return clampUnit(nx) * s.Magnitude, clampUnit(ny) * s.Magnitude
}

// Advance moves the field forward in time.
func (s *SimplexNoise) Advance() {
	s.time += 0.01
}

// ZeroNoise never moves a node.
type ZeroNoise struct{}

// Perturb always returns a zero displacement.
func (ZeroNoise) Perturb(graph.NodeID, float64, float64) (float64, float64) { return 0, 0 }

// Advance is a no-op.
func (ZeroNoise) Advance() {}

// NewNoise builds the source named by cfg.Noise.
func NewNoise(cfg Config) Noise {
	switch cfg.Noise {
	case NoiseSimplex:
		return NewSimplexNoise(cfg.BrownianMagnitude, cfg.NoiseScale, cfg.Seed)
	case NoiseNone:
		return ZeroNoise{}
	default:
		return NewUniformNoise(cfg.BrownianMagnitude, cfg.Seed)
	}
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
