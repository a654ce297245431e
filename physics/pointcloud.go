// Package physics implements the differential-growth update: a point graph
// relaxed by pairwise repulsion, edge springs and noise, whose topology grows
// by subdividing stretched edges and shrinks by collapsing crowded nodes,
// culling nodes that touch the canvas border and capping the population.
package physics

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/TFMV/growthgraph/graph"
)

// Stats describes what the last tick did to the graph.
type Stats struct {
	Tick           int
	Nodes          int
	Edges          int
	EdgesFormed    int
	Subdivided     int
	NewNodes       []graph.NodeID
	CollapseQueued int
	Collapsed      int
	Culled         []graph.NodeID
	CapRemoved     int
	RolledBack     int
}

// PointCloud owns a graph and advances it one tick at a time.
// It is not safe for concurrent use; InsertLoop must only be called between ticks.
type PointCloud struct {
	cfg    Config
	g      *graph.Graph
	noise  Noise
	logger *zap.Logger
	tick   int
	stats  Stats
}

// Option configures a PointCloud.
type Option func(*PointCloud)

// WithLogger sets the logger used for structural events.
func WithLogger(logger *zap.Logger) Option {
	return func(pc *PointCloud) {
		pc.logger = logger
	}
}

// WithNoise replaces the perturbation source built from the config.
func WithNoise(n Noise) Option {
	return func(pc *PointCloud) {
		pc.noise = n
	}
}

// WithGraph starts the simulation from an existing graph.
func WithGraph(g *graph.Graph) Option {
	return func(pc *PointCloud) {
		pc.g = g
	}
}

// NewPointCloud creates a simulation with an empty graph unless WithGraph is given.
func NewPointCloud(cfg Config, opts ...Option) *PointCloud {
	pc := &PointCloud{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(pc)
	}
	if pc.g == nil {
		var gopts []graph.Option
		if cfg.RetainRemoved {
			gopts = append(gopts, graph.WithRetainRemoved())
		}
		pc.g = graph.New(gopts...)
	}
	if pc.noise == nil {
		pc.noise = NewNoise(cfg)
	}
	return pc
}

// Graph exposes the owned graph for inspection. Callers must not mutate it.
func (pc *PointCloud) Graph() *graph.Graph {
	return pc.g
}

// Config returns the constants in use.
func (pc *PointCloud) Config() Config {
	return pc.cfg
}

// Tick returns the number of completed frames.
func (pc *PointCloud) Tick() int {
	return pc.tick
}

// Stats returns the summary of the last frame.
func (pc *PointCloud) Stats() Stats {
	return pc.stats
}

// InsertLoop adds a closed cycle of count nodes evenly spaced on the circle
// of the given radius around (cx, cy).
func (pc *PointCloud) InsertLoop(count int, radius, cx, cy float64) {
	if count <= 0 {
		return
	}
	base := pc.g.NextID()
	for i := 0; i < count; i++ {
		angle := float64(i) / float64(count) * 2 * math.Pi
		pc.g.AddNode(base+graph.NodeID(i), math.Cos(angle)*radius+cx, math.Sin(angle)*radius+cy)
	}
	if count > 1 {
		for i := 0; i < count; i++ {
			pc.addEdge(base+graph.NodeID(i), base+graph.NodeID((i+1)%count))
		}
	}
	pc.logger.Debug("loop inserted",
		zap.Int("first_id", int(base)),
		zap.Int("count", count),
		zap.Float64("radius", radius),
		zap.Float64("x", cx),
		zap.Float64("y", cy),
	)
}

type pair struct {
	a, b graph.NodeID
}

// Frame runs one tick: repulsion, then springs, then perturbation and the
// deferred structural edits. The order of the passes is significant because
// every pass commits positions incrementally.
func (pc *PointCloud) Frame() {
	pc.tick++
	st := Stats{Tick: pc.tick}

	collapsible := pc.repel(&st)
	pc.relax(&st)
	pc.settle(collapsible, &st)

	st.Nodes = pc.g.NodeCount()
	st.Edges = pc.g.EdgeCount()
	pc.stats = st

	if st.Subdivided+st.Collapsed+len(st.Culled)+st.CapRemoved > 0 {
		pc.logger.Debug("topology changed",
			zap.Int("tick", st.Tick),
			zap.Int("subdivided", st.Subdivided),
			zap.Int("collapsed", st.Collapsed),
			zap.Int("culled", len(st.Culled)),
			zap.Int("cap_removed", st.CapRemoved),
			zap.Int("nodes", st.Nodes),
		)
	}
}

// repel pushes every pair of nodes apart, links pairs that come within edge
// forming range and returns the pairs close enough to collapse.
func (pc *PointCloud) repel(st *Stats) []pair {
	nodes := pc.g.Nodes()
	var collapsible []pair

	for i := range nodes {
		n1 := &nodes[i]
		for j := i + 1; j < len(nodes); j++ {
			n2 := &nodes[j]
			dx := n1.X - n2.X
			dy := n1.Y - n2.Y
			dist := math.Sqrt(dx*dx + dy*dy)

			force := pc.cfg.RestoringForce / (dist * dist)
			if force > pc.cfg.MaxForce {
				force = pc.cfg.MaxForce
			}
			st.RolledBack += shift(n1, force*dx/dist, force*dy/dist)
			st.RolledBack += shift(n2, -(force * dx / dist), -(force * dy / dist))

			if dist < pc.cfg.CollapseDistance {
				collapsible = append(collapsible, pair{n1.ID, n2.ID})
			} else if dist < pc.cfg.EdgeFormDistance && !pc.g.HasEdge(n1.ID, n2.ID) {
				if pc.addEdge(n1.ID, n2.ID) {
					st.EdgesFormed++
				}
			}
		}
	}

	pc.commit(nodes)
	st.CollapseQueued = len(collapsible)
	return collapsible
}

// relax applies Hookean springs along every edge and subdivides stretched
// edges, at most MaxSubdivisionsPerTick per tick.
func (pc *PointCloud) relax(st *Stats) {
	for _, id := range pc.g.IDs() {
		for _, nb := range pc.g.Neighbors(id) {
			n1, ok := pc.g.Node(id)
			if !ok {
				break
			}
			n2, ok := pc.g.Node(nb)
			if !ok {
				break
			}
			dx := n1.X - n2.X
			dy := n1.Y - n2.Y
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist > pc.cfg.SpringRange {
				continue
			}

			force := pc.cfg.SpringConstant * (dist - pc.cfg.SpringRestLength)
			st.RolledBack += shift(&n1, -(force * dx / dist), -(force * dy / dist))
			st.RolledBack += shift(&n2, force*dx/dist, force*dy/dist)
			pc.move(n1)
			pc.move(n2)

			if dist > pc.cfg.SubdivideDistance && st.Subdivided < pc.cfg.MaxSubdivisionsPerTick && pc.g.HasEdge(id, nb) {
				newID := pc.g.NextID()
				if err := pc.g.ReplaceEdgeWithNode(id, nb, newID); err != nil {
					pc.logger.Debug("subdivision skipped", zap.Error(err))
					continue
				}
				st.Subdivided++
				st.NewNodes = append(st.NewNodes, newID)
			}
		}
	}
}

// settle perturbs and clamps every node, then applies the structural edits
// deferred during the tick: collapses, boundary culls and the population cap.
func (pc *PointCloud) settle(collapsible []pair, st *Stats) {
	nodes := pc.g.Nodes()
	for i := range nodes {
		dx, dy := pc.noise.Perturb(nodes[i].ID, nodes[i].X, nodes[i].Y)
		nodes[i].X += dx
		nodes[i].Y += dy
	}
	pc.noise.Advance()

	if pc.cfg.Bounded() {
		for i := range nodes {
			if pc.clamp(&nodes[i]) {
				st.Culled = append(st.Culled, nodes[i].ID)
			}
		}
	}
	pc.commit(nodes)

	for _, p := range collapsible {
		if err := pc.collapse(p.a, p.b); err != nil {
			if !errors.Is(err, graph.ErrNodeNotFound) {
				pc.logger.Debug("collapse failed", zap.Error(err))
			}
			continue
		}
		st.Collapsed++
	}

	for _, id := range st.Culled {
		if pc.g.HasNode(id) {
			pc.g.RemoveNode(id)
		}
	}

	if pc.g.NodeCount() > pc.cfg.PopulationCap {
		if last, ok := pc.g.Last(); ok {
			pc.g.RemoveNode(last.ID)
			st.CapRemoved++
		}
	}
}

// clamp keeps n inside the margin and reports whether it had to move.
func (pc *PointCloud) clamp(n *graph.Node) bool {
	m := pc.cfg.BoundaryMargin
	clamped := false
	if n.X < m {
		n.X = m + 1
		clamped = true
	} else if n.X > pc.cfg.Width-m {
		n.X = pc.cfg.Width - m - 1
		clamped = true
	}
	if n.Y < m {
		n.Y = m + 1
		clamped = true
	} else if n.Y > pc.cfg.Height-m {
		n.Y = pc.cfg.Height - m - 1
		clamped = true
	}
	return clamped
}

func (pc *PointCloud) collapse(a, b graph.NodeID) error {
	if pc.cfg.CollapsePolicy == CollapseMerge {
		return pc.g.MergeNodes(a, b)
	}
	return pc.g.CollapseNodes(a, b)
}

func (pc *PointCloud) addEdge(a, b graph.NodeID) bool {
	if err := pc.g.AddEdge(a, b); err != nil {
		pc.logger.Debug("edge skipped", zap.Error(err))
		return false
	}
	return true
}

func (pc *PointCloud) move(n graph.Node) {
	if err := pc.g.SetPosition(n.ID, n.X, n.Y); err != nil {
		pc.logger.Debug("position skipped", zap.Error(err))
	}
}

func (pc *PointCloud) commit(nodes []graph.Node) {
	for _, n := range nodes {
		pc.move(n)
	}
}

// shift moves n by (dx, dy), leaving any coordinate that would become NaN
// at its previous value. It returns the number of rolled back coordinates.
func shift(n *graph.Node, dx, dy float64) int {
	rolledBack := 0
	if x := n.X + dx; math.IsNaN(x) {
		rolledBack++
	} else {
		n.X = x
	}
	if y := n.Y + dy; math.IsNaN(y) {
		rolledBack++
	} else {
		n.Y = y
	}
	return rolledBack
}
