// Package config provides configuration loading for growthgraph.
// Values are layered as defaults, then a YAML file, then command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TFMV/growthgraph/driver"
	"github.com/TFMV/growthgraph/ingest"
	"github.com/TFMV/growthgraph/models"
	"github.com/TFMV/growthgraph/physics"
)

// Config contains all growthgraph settings.
type Config struct {
	// Simulation holds the force and topology constants.
	Simulation physics.Config `json:"simulation" yaml:"simulation"`

	// Driver controls the frame clock and the event queue.
	Driver driver.Config `json:"driver" yaml:"driver"`

	// Seeds are inserted before the first tick. An explicit empty list
	// starts from an empty canvas.
	Seeds []models.LoopEvent `json:"seeds" yaml:"seeds"`

	// SeedFile, when set, replaces Seeds with the loops it lists.
	SeedFile string `json:"seed_file,omitempty" yaml:"seed_file,omitempty"`

	Server  ServerConfig  `json:"server" yaml:"server"`
	Render  RenderConfig  `json:"render" yaml:"render"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`

	// ClickCount and ClickRadius shape the loop added by POST /api/loop
	// when the request leaves them out.
	ClickCount  int     `json:"click_count" yaml:"click_count"`
	ClickRadius float64 `json:"click_radius" yaml:"click_radius"`
}

// RenderConfig configures file output of the run command.
type RenderConfig struct {
	// Format is one of svg, ascii, json or dot.
	Format      string  `json:"format" yaml:"format"`
	Output      string  `json:"output" yaml:"output"`
	StrokeWidth float64 `json:"stroke_width" yaml:"stroke_width"`
	Background  string  `json:"background" yaml:"background"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level" yaml:"level"`
}

// Default returns an 800x600 black canvas seeded with one loop of 49 points
// of radius 100 at its center.
func Default() *Config {
	sim := physics.DefaultConfig()
	return &Config{
		Simulation: sim,
		Driver:     driver.DefaultConfig(),
		Seeds:      DefaultSeeds(sim),
		Server: ServerConfig{
			Addr:        ":8080",
			ClickCount:  10,
			ClickRadius: 40,
		},
		Render: RenderConfig{
			Format:      "svg",
			Output:      "growth.svg",
			StrokeWidth: 5,
			Background:  "#000000",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultSeeds returns one loop of 49 points of radius 100 at the center of
// the canvas described by sim, or at the origin on an unbounded canvas.
func DefaultSeeds(sim physics.Config) []models.LoopEvent {
	var x, y float64
	if sim.Bounded() {
		x, y = sim.Width/2, sim.Height/2
	}
	return []models.LoopEvent{{Count: 49, Radius: 100, X: x, Y: y}}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
// When the document does not list seeds, the default loop is centered on
// the decoded canvas.
func Parse(data []byte) (*Config, error) {
	config := Default()
	// A decoded sequence, even an empty one, leaves Seeds non-nil.
	config.Seeds = nil
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if config.Seeds == nil {
		config.Seeds = DefaultSeeds(config.Simulation)
	}
	return config, nil
}

// Load returns the defaults when path is empty and the file contents otherwise.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFromFile(path)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Simulation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("simulation: %w", err))
	}
	if err := c.Driver.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("driver: %w", err))
	}
	for i, s := range c.Seeds {
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("seeds[%d]: %w", i, err))
		}
	}
	if c.Server.ClickCount <= 0 {
		errs = append(errs, fmt.Errorf("server: click_count must be positive, got %d", c.Server.ClickCount))
	}
	if c.Server.ClickRadius < 0 {
		errs = append(errs, fmt.Errorf("server: click_radius must not be negative, got %g", c.Server.ClickRadius))
	}

	validFormats := map[string]bool{"svg": true, "ascii": true, "json": true, "dot": true}
	if !validFormats[strings.ToLower(c.Render.Format)] {
		errs = append(errs, fmt.Errorf("render: invalid format: %s (valid: svg, ascii, json, dot)", c.Render.Format))
	}
	if c.Render.StrokeWidth <= 0 {
		errs = append(errs, fmt.Errorf("render: stroke_width must be positive, got %g", c.Render.StrokeWidth))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error, or empty for default)", c.Logging.Level))
	}
	return errors.Join(errs...)
}

// ResolveSeeds replaces Seeds with the contents of SeedFile, if one is set.
// Loops that leave out their center are placed at the canvas center.
func (c *Config) ResolveSeeds() error {
	if c.SeedFile == "" {
		return nil
	}
	defaults := ingest.Defaults{
		Count:  c.Server.ClickCount,
		Radius: c.Server.ClickRadius,
		X:      c.Simulation.Width / 2,
		Y:      c.Simulation.Height / 2,
	}
	seeds, err := ingest.LoadFile(c.SeedFile, defaults)
	if err != nil {
		return fmt.Errorf("loading seeds: %w", err)
	}
	c.Seeds = seeds
	return nil
}
