// Package graph provides the planar point graph mutated by the growth simulation.
//
// Nodes live in an arena keyed by a monotonically issued NodeID and are iterated
// in insertion order. Edges are undirected, stored canonically (lower id first)
// and kept as an insertion-ordered set, so the same pair can never be stored twice.
// The package has no knowledge of physics.
package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is returned when an operation references an absent node.
	ErrNodeNotFound = errors.New("graph: node not found")

	// ErrEdgeNotFound is returned when an operation references an absent edge.
	ErrEdgeNotFound = errors.New("graph: edge not found")

	// ErrSelfLoop is returned when both endpoints of an edge are the same node.
	ErrSelfLoop = errors.New("graph: self-loop not allowed")
)

// NodeID identifies a node for the lifetime of a Graph.
type NodeID int

// Node is a point on the canvas.
type Node struct {
	ID   NodeID
	X, Y float64
}

// Edge is an undirected pair of node identifiers in canonical order.
// The zero value is the edge 0-0 and is never stored by a Graph.
type Edge struct {
	a, b NodeID
}

// NewEdge returns the canonical edge between a and b.
func NewEdge(a, b NodeID) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a: a, b: b}
}

// Endpoints returns the lower and the higher endpoint.
func (e Edge) Endpoints() (NodeID, NodeID) {
	return e.a, e.b
}

// Has reports whether id is one of the endpoints.
func (e Edge) Has(id NodeID) bool {
	return e.a == id || e.b == id
}

// Other returns the endpoint opposite to id.
func (e Edge) Other(id NodeID) NodeID {
	if e.a == id {
		return e.b
	}
	return e.a
}

func (e Edge) String() string {
	return fmt.Sprintf("%d-%d", e.a, e.b)
}

type slot struct {
	node Node
	live bool
}

// compactThreshold is the minimum number of tombstones before the arena is rebuilt.
const compactThreshold = 64

// Graph is an undirected simple graph of positioned nodes.
// It is not safe for concurrent use.
type Graph struct {
	slots   []slot
	index   map[NodeID]int
	dead    int
	edges   []Edge
	edgeSet map[Edge]struct{}
	nextID  NodeID
	retain  bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithRetainRemoved makes RemoveNode strip a node's edges but keep its position
// entry, leaving an edgeless node behind. Identifiers are still never reused.
func WithRetainRemoved() Option {
	return func(g *Graph) {
		g.retain = true
	}
}

// New creates an empty Graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		index:   make(map[NodeID]int),
		edgeSet: make(map[Edge]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RetainsRemoved reports whether removed nodes keep their position entry.
func (g *Graph) RetainsRemoved() bool {
	return g.retain
}

// NextID returns the identifier the next created node should use.
func (g *Graph) NextID() NodeID {
	return g.nextID
}

// AddNode inserts the node at id or overwrites its position.
// An overwritten node keeps its place in the iteration order.
func (g *Graph) AddNode(id NodeID, x, y float64) {
	if i, ok := g.index[id]; ok {
		g.slots[i].node.X = x
		g.slots[i].node.Y = y
		return
	}
	g.index[id] = len(g.slots)
	g.slots = append(g.slots, slot{node: Node{ID: id, X: x, Y: y}, live: true})
	if id >= g.nextID {
		g.nextID = id + 1
	}
}

// SetPosition moves an existing node.
func (g *Graph) SetPosition(id NodeID, x, y float64) error {
	i, ok := g.index[id]
	if !ok {
		return fmt.Errorf("set position of %d: %w", id, ErrNodeNotFound)
	}
	g.slots[i].node.X = x
	g.slots[i].node.Y = y
	return nil
}

// HasNode reports whether id is in the node set.
func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.index[id]
	return ok
}

// Node returns the node stored at id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.slots[i].node, true
}

// NodeCount returns the size of the node set.
func (g *Graph) NodeCount() int {
	return len(g.index)
}

// IDs returns the node identifiers in insertion order.
func (g *Graph) IDs() []NodeID {
	ids := make([]NodeID, 0, len(g.index))
	for _, s := range g.slots {
		if s.live {
			ids = append(ids, s.node.ID)
		}
	}
	return ids
}

// Nodes returns a copy of the node set in insertion order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.index))
	for _, s := range g.slots {
		if s.live {
			nodes = append(nodes, s.node)
		}
	}
	return nodes
}

// Last returns the most recently inserted node still in the node set.
func (g *Graph) Last() (Node, bool) {
	for i := len(g.slots) - 1; i >= 0; i-- {
		if g.slots[i].live {
			return g.slots[i].node, true
		}
	}
	return Node{}, false
}

// AddEdge stores the canonical edge a-b. Adding an edge that already exists
// is a no-op.
func (g *Graph) AddEdge(a, b NodeID) error {
	if a == b {
		return fmt.Errorf("add edge %d-%d: %w", a, b, ErrSelfLoop)
	}
	if !g.HasNode(a) {
		return fmt.Errorf("add edge %d-%d: node %d: %w", a, b, a, ErrNodeNotFound)
	}
	if !g.HasNode(b) {
		return fmt.Errorf("add edge %d-%d: node %d: %w", a, b, b, ErrNodeNotFound)
	}
	e := NewEdge(a, b)
	if _, ok := g.edgeSet[e]; ok {
		return nil
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	return nil
}

// HasEdge reports whether a and b are connected.
func (g *Graph) HasEdge(a, b NodeID) bool {
	_, ok := g.edgeSet[NewEdge(a, b)]
	return ok
}

// RemoveEdge deletes the edge a-b if present.
func (g *Graph) RemoveEdge(a, b NodeID) {
	e := NewEdge(a, b)
	if _, ok := g.edgeSet[e]; !ok {
		return
	}
	delete(g.edgeSet, e)
	for i, cur := range g.edges {
		if cur == e {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			return
		}
	}
}

// EdgeCount returns the number of stored edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Edges returns a copy of the edge list in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Neighbors returns the nodes sharing an edge with id, in edge-list order.
func (g *Graph) Neighbors(id NodeID) []NodeID {
	var out []NodeID
	for _, e := range g.edges {
		if e.Has(id) {
			out = append(out, e.Other(id))
		}
	}
	return out
}

// RemoveNode deletes every edge referencing id. Unless the graph retains
// removed nodes, the node entry is deleted as well.
func (g *Graph) RemoveNode(id NodeID) {
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Has(id) {
			delete(g.edgeSet, e)
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept

	if g.retain {
		return
	}
	i, ok := g.index[id]
	if !ok {
		return
	}
	g.slots[i].live = false
	delete(g.index, id)
	g.dead++
	g.compact()
}

// compact rebuilds the arena once tombstones outnumber live slots.
func (g *Graph) compact() {
	if g.dead < compactThreshold || g.dead*2 < len(g.slots) {
		return
	}
	slots := make([]slot, 0, len(g.index))
	for _, s := range g.slots {
		if s.live {
			g.index[s.node.ID] = len(slots)
			slots = append(slots, s)
		}
	}
	g.slots = slots
	g.dead = 0
}

// ReplaceEdgeWithNode subdivides the edge a-b: a node newID is placed at the
// midpoint of a and b and connected to both, and the edge a-b is removed.
func (g *Graph) ReplaceEdgeWithNode(a, b, newID NodeID) error {
	if !g.HasEdge(a, b) {
		return fmt.Errorf("replace edge %d-%d: %w", a, b, ErrEdgeNotFound)
	}
	if a > b {
		a, b = b, a
	}
	na, _ := g.Node(a)
	nb, _ := g.Node(b)
	g.AddNode(newID, (na.X+nb.X)/2, (na.Y+nb.Y)/2)
	if err := g.AddEdge(a, newID); err != nil {
		return fmt.Errorf("replace edge %d-%d: %w", a, b, err)
	}
	if err := g.AddEdge(b, newID); err != nil {
		return fmt.Errorf("replace edge %d-%d: %w", a, b, err)
	}
	g.RemoveEdge(a, b)
	return nil
}

// CollapseNodes rewires every neighbor of the higher id onto the lower id and
// then removes the lower id. The net effect keeps the higher node with its own
// edges and drops the lower node together with everything it was connected to.
// MergeNodes is the variant that keeps the lower node.
func (g *Graph) CollapseNodes(a, b NodeID) error {
	if a > b {
		a, b = b, a
	}
	if err := g.rewire(a, b); err != nil {
		return fmt.Errorf("collapse %d into %d: %w", b, a, err)
	}
	g.RemoveNode(a)
	return nil
}

// MergeNodes moves every edge of the higher id onto the lower id and removes
// the higher id.
func (g *Graph) MergeNodes(a, b NodeID) error {
	if a > b {
		a, b = b, a
	}
	if err := g.rewire(a, b); err != nil {
		return fmt.Errorf("merge %d into %d: %w", b, a, err)
	}
	g.RemoveNode(b)
	return nil
}

func (g *Graph) rewire(a, b NodeID) error {
	if !g.HasNode(a) {
		return fmt.Errorf("node %d: %w", a, ErrNodeNotFound)
	}
	if !g.HasNode(b) {
		return fmt.Errorf("node %d: %w", b, ErrNodeNotFound)
	}
	for _, n := range g.Neighbors(b) {
		if n == a {
			continue
		}
		if err := g.AddEdge(a, n); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that every edge has both endpoints in the node set and that
// no edge is stored twice.
func (g *Graph) Validate() error {
	seen := make(map[Edge]struct{}, len(g.edges))
	for _, e := range g.edges {
		if e.a == e.b {
			return fmt.Errorf("edge %s: %w", e, ErrSelfLoop)
		}
		if !g.HasNode(e.a) || !g.HasNode(e.b) {
			return fmt.Errorf("edge %s has a dangling endpoint: %w", e, ErrNodeNotFound)
		}
		if _, dup := seen[e]; dup {
			return fmt.Errorf("edge %s stored twice", e)
		}
		seen[e] = struct{}{}
	}
	if len(seen) != len(g.edgeSet) {
		return fmt.Errorf("edge list holds %d edges but the edge set holds %d", len(seen), len(g.edgeSet))
	}
	return nil
}
