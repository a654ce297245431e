package physics

import (
	"math"

	"github.com/TFMV/growthgraph/graph"
	"github.com/TFMV/growthgraph/models"
)

// Canvas receives line-segment draw commands.
type Canvas interface {
	Line(s models.Segment)
}

// Draw emits one segment per (node, neighbor) pair, so every edge is drawn
// once from each endpoint. It never modifies the graph.
func (pc *PointCloud) Draw(c Canvas) {
	for _, n := range pc.g.Nodes() {
		color := NodeColor(n.ID, pc.cfg.ColorFrequency)
		for _, nb := range pc.g.Neighbors(n.ID) {
			other, ok := pc.g.Node(nb)
			if !ok {
				break
			}
			c.Line(models.Segment{X1: n.X, Y1: n.Y, X2: other.X, Y2: other.Y, Color: color})
		}
	}
}

// NodeColor derives a pale color from the node identifier.
func NodeColor(id graph.NodeID, freq float64) models.Color {
	t := freq * float64(id)
	return models.Color{
		R: channel(200 + 55*math.Sin(t)),
		G: channel(200 + 55*math.Cos(t)),
		B: channel(200 + 55*math.Sin(freq*float64(id+100))),
	}
}

func channel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// Capture draws the current state into a new frame and copies the node and
// edge sets alongside the last tick's stats.
func (pc *PointCloud) Capture(runID string) *models.Frame {
	f := models.NewFrame(runID, pc.tick, pc.cfg.Width, pc.cfg.Height)
	pc.Draw(f)

	for _, n := range pc.g.Nodes() {
		f.Nodes = append(f.Nodes, models.NodeState{ID: int(n.ID), X: n.X, Y: n.Y})
	}
	for _, e := range pc.g.Edges() {
		a, b := e.Endpoints()
		f.Edges = append(f.Edges, models.EdgeState{Source: int(a), Target: int(b)})
	}

	st := pc.stats
	f.Stats = models.FrameStats{
		EdgesFormed: st.EdgesFormed,
		Subdivided:  st.Subdivided,
		Collapsed:   st.Collapsed,
		CapRemoved:  st.CapRemoved,
		RolledBack:  st.RolledBack,
	}
	for _, id := range st.Culled {
		f.Stats.Culled = append(f.Stats.Culled, int(id))
	}
	return f
}
