package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidLoop is returned for loop events that cannot be inserted.
var ErrInvalidLoop = errors.New("models: invalid loop event")

// MaxLoopPoints bounds the number of points a single loop may add.
const MaxLoopPoints = 10000

// NewFrame creates an empty frame with a unique ID and timestamp.
func NewFrame(runID string, tick int, width, height float64) *Frame {
	return &Frame{
		ID:        uuid.New().String(),
		RunID:     runID,
		Tick:      tick,
		Width:     width,
		Height:    height,
		Segments:  []Segment{},
		Nodes:     []NodeState{},
		Edges:     []EdgeState{},
		CreatedAt: time.Now(),
	}
}

// NewRunID returns a fresh identifier for a simulation run.
func NewRunID() string {
	return uuid.New().String()
}

// Line implements the drawing sink so a frame can record segments directly.
func (f *Frame) Line(s Segment) {
	f.Segments = append(f.Segments, s)
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Segments = append([]Segment(nil), f.Segments...)
	c.Nodes = append([]NodeState(nil), f.Nodes...)
	c.Edges = append([]EdgeState(nil), f.Edges...)
	c.Stats.Culled = append([]int(nil), f.Stats.Culled...)
	return &c
}

// Hex returns the color in #rrggbb form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Validate checks that the event describes between 1 and MaxLoopPoints
// points on a finite circle with a non-negative radius.
func (e LoopEvent) Validate() error {
	if e.Count <= 0 || e.Count > MaxLoopPoints {
		return fmt.Errorf("%w: count %d must be between 1 and %d", ErrInvalidLoop, e.Count, MaxLoopPoints)
	}
	if !finite(e.X) || !finite(e.Y) || !finite(e.Radius) {
		return fmt.Errorf("%w: center (%g, %g) and radius %g must be finite", ErrInvalidLoop, e.X, e.Y, e.Radius)
	}
	if e.Radius < 0 {
		return fmt.Errorf("%w: radius %g must not be negative", ErrInvalidLoop, e.Radius)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
