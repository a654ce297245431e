// Package driver is the frame clock of the simulation. It owns a Simulation,
// applies queued loop insertions strictly between ticks and publishes an
// immutable frame after every tick.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TFMV/growthgraph/models"
)

// ErrQueueFull is returned by Enqueue when the pending event buffer is full.
var ErrQueueFull = errors.New("driver: event queue full")

// MaxFPS bounds the frame clock so the tick interval stays positive.
const MaxFPS = 1000

// Simulation is the part of physics.PointCloud the driver needs.
type Simulation interface {
	Frame()
	InsertLoop(count int, radius, cx, cy float64)
	Capture(runID string) *models.Frame
}

// Config controls the frame clock.
type Config struct {
	FPS       int `json:"fps" yaml:"fps"`
	MaxTicks  int `json:"max_ticks" yaml:"max_ticks"` // 0 runs until canceled
	QueueSize int `json:"queue_size" yaml:"queue_size"`
	LogEvery  int `json:"log_every" yaml:"log_every"` // 0 disables progress logs
}

// DefaultConfig ticks at 30 frames per second.
func DefaultConfig() Config {
	return Config{
		FPS:       30,
		QueueSize: 64,
		LogEvery:  300,
	}
}

// Validate reports inconsistent settings.
func (c Config) Validate() error {
	var errs []error
	if c.FPS <= 0 || c.FPS > MaxFPS {
		errs = append(errs, fmt.Errorf("fps must be between 1 and %d, got %d", MaxFPS, c.FPS))
	}
	if c.MaxTicks < 0 {
		errs = append(errs, fmt.Errorf("max_ticks must not be negative, got %d", c.MaxTicks))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("queue_size must be positive, got %d", c.QueueSize))
	}
	return errors.Join(errs...)
}

// Driver serializes every access to its Simulation.
type Driver struct {
	cfg    Config
	sim    Simulation
	events chan models.LoopEvent
	logger *zap.Logger
	runID  string

	mu sync.Mutex // guards sim

	enqueueMu sync.Mutex // serializes producers so batches are all or nothing

	latestMu sync.RWMutex
	latest   *models.Frame
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// New creates a driver for sim. The first frame is captured immediately so
// readers never observe a nil frame.
func New(sim Simulation, cfg Config, opts ...Option) *Driver {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	d := &Driver{
		cfg:    cfg,
		sim:    sim,
		events: make(chan models.LoopEvent, cfg.QueueSize),
		logger: zap.NewNop(),
		runID:  models.NewRunID(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.publish(sim.Capture(d.runID))
	return d
}

// RunID identifies this driver's run in published frames.
func (d *Driver) RunID() string {
	return d.runID
}

// Seed inserts loops directly. It must be called before Run or between Steps.
func (d *Driver) Seed(events ...models.LoopEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			GrowthLoopsTotal.WithLabelValues("rejected").Inc()
			return fmt.Errorf("seed: %w", err)
		}
	}
	for _, ev := range events {
		d.insert(ev)
	}
	d.publish(d.sim.Capture(d.runID))
	return nil
}

// Enqueue schedules a loop insertion for the next tick boundary.
// It never blocks.
func (d *Driver) Enqueue(ev models.LoopEvent) error {
	return d.EnqueueBatch(ev)
}

// EnqueueBatch schedules every event for the next tick boundary or none of
// them: an invalid event or too little room in the queue rejects the batch.
// It never blocks.
func (d *Driver) EnqueueBatch(events ...models.LoopEvent) error {
	for i, ev := range events {
		if err := ev.Validate(); err != nil {
			GrowthLoopsTotal.WithLabelValues("rejected").Add(float64(len(events)))
			if len(events) > 1 {
				return fmt.Errorf("loop %d: %w", i, err)
			}
			return err
		}
	}

	d.enqueueMu.Lock()
	defer d.enqueueMu.Unlock()

	// The tick loop only removes events, so free room can only grow
	// while producers are held off.
	if cap(d.events)-len(d.events) < len(events) {
		GrowthLoopsTotal.WithLabelValues("dropped").Add(float64(len(events)))
		return ErrQueueFull
	}
	for _, ev := range events {
		d.events <- ev
	}
	GrowthLoopsTotal.WithLabelValues("queued").Add(float64(len(events)))
	return nil
}

// Step drains pending insertions, runs one tick and publishes the result.
func (d *Driver) Step() *models.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	drained := d.drain()
	d.sim.Frame()
	f := d.sim.Capture(d.runID)
	elapsed := time.Since(start)

	observe(f, elapsed)
	d.publish(f)

	if d.cfg.LogEvery > 0 && f.Tick%d.cfg.LogEvery == 0 {
		d.logger.Info("tick",
			zap.Int("tick", f.Tick),
			zap.Int("nodes", len(f.Nodes)),
			zap.Int("edges", len(f.Edges)),
			zap.Int("loops_drained", drained),
			zap.Duration("elapsed", elapsed),
		)
	}
	return f.Clone()
}

// Latest returns a copy of the most recently published frame.
func (d *Driver) Latest() *models.Frame {
	d.latestMu.RLock()
	defer d.latestMu.RUnlock()
	return d.latest.Clone()
}

// Run ticks at the configured rate until ctx is canceled or MaxTicks frames
// have been produced. Reaching MaxTicks returns nil.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.cfg.Validate(); err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	ticker := time.NewTicker(time.Second / time.Duration(d.cfg.FPS))
	defer ticker.Stop()

	d.logger.Info("simulation started", zap.String("run_id", d.runID), zap.Int("fps", d.cfg.FPS))
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("simulation stopped", zap.String("run_id", d.runID), zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
			f := d.Step()
			if d.cfg.MaxTicks > 0 && f.Tick >= d.cfg.MaxTicks {
				d.logger.Info("simulation finished", zap.String("run_id", d.runID), zap.Int("tick", f.Tick))
				return nil
			}
		}
	}
}

// RunTicks steps n times as fast as possible, checking ctx between ticks.
func (d *Driver) RunTicks(ctx context.Context, n int) (*models.Frame, error) {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return d.Latest(), err
		}
		d.Step()
	}
	return d.Latest(), nil
}

func (d *Driver) drain() int {
	n := 0
	for {
		select {
		case ev := <-d.events:
			d.insert(ev)
			n++
		default:
			return n
		}
	}
}

func (d *Driver) insert(ev models.LoopEvent) {
	d.sim.InsertLoop(ev.Count, ev.Radius, ev.X, ev.Y)
	GrowthLoopsTotal.WithLabelValues("inserted").Inc()
	d.logger.Debug("loop inserted",
		zap.Int("count", ev.Count),
		zap.Float64("radius", ev.Radius),
		zap.Float64("x", ev.X),
		zap.Float64("y", ev.Y),
	)
}

func (d *Driver) publish(f *models.Frame) {
	d.latestMu.Lock()
	d.latest = f
	d.latestMu.Unlock()
}
