package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/growthgraph/graph"
	"github.com/TFMV/growthgraph/models"
)

type recorder struct {
	segments []models.Segment
}

func (r *recorder) Line(s models.Segment) {
	r.segments = append(r.segments, s)
}

func TestDrawEmitsOneSegmentPerNeighbor(t *testing.T) {
	pc := newCloud(t, quietConfig(), seedTriangle())
	beforeNodes := pc.Graph().Nodes()
	beforeEdges := pc.Graph().Edges()

	var r recorder
	pc.Draw(&r)

	require.Len(t, r.segments, 6)
	first := r.segments[0]
	assert.Equal(t, 0.0, first.X1)
	assert.Equal(t, 10.0, first.X2)
	assert.Equal(t, models.Color{R: 200, G: 255, B: 205}, first.Color)

	// draw is read-only
	assert.Equal(t, beforeNodes, pc.Graph().Nodes())
	assert.Equal(t, beforeEdges, pc.Graph().Edges())
}

func TestDrawSkipsEdgelessNodes(t *testing.T) {
	g := graph.New()
	g.AddNode(0, 1, 1)
	g.AddNode(1, 5, 5)
	pc := newCloud(t, quietConfig(), g)

	var r recorder
	pc.Draw(&r)
	assert.Empty(t, r.segments)
}

func TestNodeColorIsPeriodicInID(t *testing.T) {
	c := NodeColor(0, 0.001)
	assert.Equal(t, models.Color{R: 200, G: 255, B: 205}, c)

	for _, id := range []graph.NodeID{1, 500, 1571, 4712, 100000} {
		c := NodeColor(id, 0.001)
		assert.GreaterOrEqual(t, c.R, uint8(145))
		assert.GreaterOrEqual(t, c.G, uint8(145))
		assert.GreaterOrEqual(t, c.B, uint8(145))
	}
}

func TestCaptureCopiesState(t *testing.T) {
	pc := newCloud(t, quietConfig(), seedTriangle())
	pc.Frame()

	f := pc.Capture("run-1")
	assert.Equal(t, "run-1", f.RunID)
	assert.Equal(t, 1, f.Tick)
	assert.Len(t, f.Nodes, pc.Graph().NodeCount())
	assert.Len(t, f.Edges, pc.Graph().EdgeCount())
	assert.Len(t, f.Segments, 2*pc.Graph().EdgeCount())

	f.Nodes[0].X = 1e9
	n, _ := pc.Graph().Node(0)
	assert.NotEqual(t, 1e9, n.X)
}
