// Package models provides the value types exchanged between the simulation,
// the driver and the rendering backends.
package models

import (
	"time"
)

// Color is an RGB stroke color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Segment is one line-segment draw command.
type Segment struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
}

// NodeState is a copy of a node's position taken at the end of a tick.
type NodeState struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// EdgeState is a copy of an edge, lower id first.
type EdgeState struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// FrameStats summarizes the structural activity of the tick that produced a frame.
type FrameStats struct {
	EdgesFormed int   `json:"edges_formed"`
	Subdivided  int   `json:"subdivided"`
	Collapsed   int   `json:"collapsed"`
	Culled      []int `json:"culled,omitempty"`
	CapRemoved  int   `json:"cap_removed"`
	RolledBack  int   `json:"rolled_back"`
}

// Frame is an immutable snapshot of the simulation after one tick.
type Frame struct {
	ID        string      `json:"id"`
	RunID     string      `json:"run_id"`
	Tick      int         `json:"tick"`
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Segments  []Segment   `json:"segments"`
	Nodes     []NodeState `json:"nodes"`
	Edges     []EdgeState `json:"edges"`
	Stats     FrameStats  `json:"stats"`
	CreatedAt time.Time   `json:"created_at"`
}

// LoopEvent asks the simulation to insert a closed cycle of Count points
// on a circle of Radius around (X, Y).
type LoopEvent struct {
	Count  int     `json:"count" yaml:"count"`
	Radius float64 `json:"radius" yaml:"radius"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
}
