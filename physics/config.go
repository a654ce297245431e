package physics

import (
	"errors"
	"fmt"
)

// CollapsePolicy selects how two nodes closer than CollapseDistance are joined.
type CollapsePolicy string

const (
	// CollapseLiteral rewires the higher node's neighbors onto the lower node
	// and then removes the lower node.
	CollapseLiteral CollapsePolicy = "literal"

	// CollapseMerge rewires the higher node's neighbors onto the lower node
	// and removes the higher node.
	CollapseMerge CollapsePolicy = "merge"
)

// NoiseKind selects the perturbation source used in the third pass.
type NoiseKind string

const (
	NoiseUniform NoiseKind = "uniform"
	NoiseSimplex NoiseKind = "simplex"
	NoiseNone    NoiseKind = "none"
)

// Config holds every constant of the force and topology update.
type Config struct {
	// Repulsion: F = RestoringForce / d², capped at MaxForce.
	RestoringForce float64 `json:"restoring_force" yaml:"restoring_force"`
	MaxForce       float64 `json:"max_force" yaml:"max_force"`

	// Springs: F = SpringConstant * (d - SpringRestLength), ignored past SpringRange.
	SpringConstant   float64 `json:"spring_constant" yaml:"spring_constant"`
	SpringRestLength float64 `json:"spring_rest_length" yaml:"spring_rest_length"`
	SpringRange      float64 `json:"spring_range" yaml:"spring_range"`

	SubdivideDistance      float64 `json:"subdivide_distance" yaml:"subdivide_distance"`
	MaxSubdivisionsPerTick int     `json:"max_subdivisions_per_tick" yaml:"max_subdivisions_per_tick"`
	CollapseDistance       float64 `json:"collapse_distance" yaml:"collapse_distance"`
	EdgeFormDistance       float64 `json:"edge_form_distance" yaml:"edge_form_distance"`

	BrownianMagnitude float64   `json:"brownian_magnitude" yaml:"brownian_magnitude"`
	Noise             NoiseKind `json:"noise" yaml:"noise"`
	NoiseScale        float64   `json:"noise_scale" yaml:"noise_scale"`
	Seed              int64     `json:"seed" yaml:"seed"`

	// Width and Height bound the canvas. A non-positive value on either axis
	// disables the boundary pass.
	Width          float64 `json:"width" yaml:"width"`
	Height         float64 `json:"height" yaml:"height"`
	BoundaryMargin float64 `json:"boundary_margin" yaml:"boundary_margin"`

	PopulationCap int `json:"population_cap" yaml:"population_cap"`

	CollapsePolicy CollapsePolicy `json:"collapse_policy" yaml:"collapse_policy"`
	// RetainRemoved keeps the position entry of removed nodes.
	RetainRemoved bool `json:"retain_removed" yaml:"retain_removed"`

	ColorFrequency float64 `json:"color_frequency" yaml:"color_frequency"`
}

// DefaultConfig returns the classic growth constants on an 800x600 canvas.
func DefaultConfig() Config {
	return Config{
		RestoringForce:         130,
		MaxForce:               0.3,
		SpringConstant:         0.01,
		SpringRestLength:       0.1,
		SpringRange:            100,
		SubdivideDistance:      15,
		MaxSubdivisionsPerTick: 1,
		CollapseDistance:       2,
		EdgeFormDistance:       6,
		BrownianMagnitude:      0.01,
		Noise:                  NoiseUniform,
		NoiseScale:             0.03,
		Width:                  800,
		Height:                 600,
		BoundaryMargin:         40,
		PopulationCap:          700,
		CollapsePolicy:         CollapseLiteral,
		ColorFrequency:         0.001,
	}
}

// Bounded reports whether the boundary pass is active.
func (c Config) Bounded() bool {
	return c.Width > 0 && c.Height > 0
}

// Validate reports every inconsistent field.
func (c Config) Validate() error {
	var errs []error
	nonNegative := []struct {
		name string
		v    float64
	}{
		{"restoring_force", c.RestoringForce},
		{"max_force", c.MaxForce},
		{"spring_constant", c.SpringConstant},
		{"spring_rest_length", c.SpringRestLength},
		{"spring_range", c.SpringRange},
		{"subdivide_distance", c.SubdivideDistance},
		{"collapse_distance", c.CollapseDistance},
		{"edge_form_distance", c.EdgeFormDistance},
		{"brownian_magnitude", c.BrownianMagnitude},
		{"boundary_margin", c.BoundaryMargin},
	}
	for _, f := range nonNegative {
		if f.v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %g", f.name, f.v))
		}
	}
	if c.CollapseDistance >= c.EdgeFormDistance {
		errs = append(errs, fmt.Errorf("collapse_distance %g must be below edge_form_distance %g", c.CollapseDistance, c.EdgeFormDistance))
	}
	if c.MaxSubdivisionsPerTick < 0 {
		errs = append(errs, fmt.Errorf("max_subdivisions_per_tick must not be negative, got %d", c.MaxSubdivisionsPerTick))
	}
	if c.PopulationCap <= 0 {
		errs = append(errs, fmt.Errorf("population_cap must be positive, got %d", c.PopulationCap))
	}
	if c.Bounded() && (2*c.BoundaryMargin+2 > c.Width || 2*c.BoundaryMargin+2 > c.Height) {
		errs = append(errs, fmt.Errorf("boundary_margin %g leaves no room on a %gx%g canvas", c.BoundaryMargin, c.Width, c.Height))
	}
	switch c.CollapsePolicy {
	case CollapseLiteral, CollapseMerge:
	default:
		errs = append(errs, fmt.Errorf("unknown collapse_policy %q", c.CollapsePolicy))
	}
	switch c.Noise {
	case NoiseUniform, NoiseSimplex, NoiseNone:
	default:
		errs = append(errs, fmt.Errorf("unknown noise %q", c.Noise))
	}
	return errors.Join(errs...)
}
