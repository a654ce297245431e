package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/TFMV/growthgraph/graph"
)

type GraphSuite struct {
	suite.Suite
	g *graph.Graph
}

func (s *GraphSuite) SetupTest() {
	s.g = graph.New()
}

func (s *GraphSuite) triangle() {
	s.g.AddNode(0, 0, 0)
	s.g.AddNode(1, 10, 0)
	s.g.AddNode(2, 5, 8)
	s.Require().NoError(s.g.AddEdge(0, 1))
	s.Require().NoError(s.g.AddEdge(1, 2))
	s.Require().NoError(s.g.AddEdge(2, 0))
}

func (s *GraphSuite) TestNewEdgeIsCanonical() {
	require := require.New(s.T())
	require.Equal(graph.NewEdge(1, 7), graph.NewEdge(7, 1))

	lo, hi := graph.NewEdge(9, 3).Endpoints()
	require.Equal(graph.NodeID(3), lo)
	require.Equal(graph.NodeID(9), hi)

	e := graph.NewEdge(4, 2)
	require.True(e.Has(4))
	require.False(e.Has(3))
	require.Equal(graph.NodeID(2), e.Other(4))
	require.Equal("2-4", e.String())
}

func (s *GraphSuite) TestAddNodeOverwriteKeepsOrder() {
	require := require.New(s.T())
	s.g.AddNode(0, 1, 1)
	s.g.AddNode(1, 2, 2)
	s.g.AddNode(0, 5, 5)

	require.Equal([]graph.NodeID{0, 1}, s.g.IDs())
	n, ok := s.g.Node(0)
	require.True(ok)
	require.Equal(5.0, n.X)
	require.Equal(2, s.g.NodeCount())
	require.Equal(graph.NodeID(2), s.g.NextID())
}

func (s *GraphSuite) TestAddEdgeRejectsBadInput() {
	require := require.New(s.T())
	s.g.AddNode(0, 0, 0)

	require.ErrorIs(s.g.AddEdge(0, 0), graph.ErrSelfLoop)
	require.ErrorIs(s.g.AddEdge(0, 1), graph.ErrNodeNotFound)
	require.Zero(s.g.EdgeCount())
}

func (s *GraphSuite) TestAddEdgeIsIdempotent() {
	require := require.New(s.T())
	s.triangle()

	require.NoError(s.g.AddEdge(1, 0))
	require.NoError(s.g.AddEdge(0, 1))
	require.Equal(3, s.g.EdgeCount())
	require.True(s.g.HasEdge(1, 0))
	require.NoError(s.g.Validate())
}

func (s *GraphSuite) TestNeighborsFollowEdgeOrder() {
	require := require.New(s.T())
	s.triangle()
	require.Equal([]graph.NodeID{1, 2}, s.g.Neighbors(0))
	require.Equal([]graph.NodeID{0, 2}, s.g.Neighbors(1))
	require.Empty(s.g.Neighbors(42))
}

func (s *GraphSuite) TestRemoveEdge() {
	require := require.New(s.T())
	s.triangle()
	s.g.RemoveEdge(2, 1)
	require.False(s.g.HasEdge(1, 2))
	require.Equal(2, s.g.EdgeCount())

	// absent edge is a no-op
	s.g.RemoveEdge(1, 2)
	require.Equal(2, s.g.EdgeCount())
}

func (s *GraphSuite) TestRemoveNodePurges() {
	require := require.New(s.T())
	s.triangle()
	s.g.RemoveNode(1)

	require.False(s.g.HasNode(1))
	require.Equal(2, s.g.NodeCount())
	require.Equal(1, s.g.EdgeCount())
	require.True(s.g.HasEdge(0, 2))
	require.NoError(s.g.Validate())

	// identifiers are never reused
	require.Equal(graph.NodeID(3), s.g.NextID())
}

func (s *GraphSuite) TestRemoveNodeRetainsPosition() {
	require := require.New(s.T())
	s.g = graph.New(graph.WithRetainRemoved())
	s.triangle()
	s.g.RemoveNode(1)

	require.True(s.g.HasNode(1))
	require.Equal(3, s.g.NodeCount())
	require.Empty(s.g.Neighbors(1))
	require.Equal(1, s.g.EdgeCount())
	require.NoError(s.g.Validate())
}

func (s *GraphSuite) TestReplaceEdgeWithNode() {
	require := require.New(s.T())
	s.triangle()

	id := s.g.NextID()
	require.NoError(s.g.ReplaceEdgeWithNode(1, 0, id))

	n, ok := s.g.Node(id)
	require.True(ok)
	require.Equal(5.0, n.X)
	require.Equal(0.0, n.Y)
	require.False(s.g.HasEdge(0, 1))
	require.True(s.g.HasEdge(0, id))
	require.True(s.g.HasEdge(1, id))
	require.Equal(4, s.g.EdgeCount())
	require.NoError(s.g.Validate())

	require.ErrorIs(s.g.ReplaceEdgeWithNode(0, 1, s.g.NextID()), graph.ErrEdgeNotFound)
}

func (s *GraphSuite) TestCollapseNodesDropsLowerNode() {
	require := require.New(s.T())
	// 0 and 1 are near duplicates sharing neighbor 2; 0 also has its own neighbor 3.
	s.g.AddNode(0, 0, 0)
	s.g.AddNode(1, 1, 0)
	s.g.AddNode(2, 10, 10)
	s.g.AddNode(3, -10, 0)
	require.NoError(s.g.AddEdge(0, 2))
	require.NoError(s.g.AddEdge(1, 2))
	require.NoError(s.g.AddEdge(0, 3))

	require.NoError(s.g.CollapseNodes(1, 0))

	require.False(s.g.HasNode(0))
	require.Equal([]graph.NodeID{1}, s.g.Neighbors(2))
	require.Empty(s.g.Neighbors(3))
	require.NoError(s.g.Validate())
}

func (s *GraphSuite) TestMergeNodesKeepsLowerNode() {
	require := require.New(s.T())
	s.g.AddNode(0, 0, 0)
	s.g.AddNode(1, 1, 0)
	s.g.AddNode(2, 10, 10)
	s.g.AddNode(3, 20, 0)
	require.NoError(s.g.AddEdge(0, 2))
	require.NoError(s.g.AddEdge(1, 2))
	require.NoError(s.g.AddEdge(1, 3))
	require.NoError(s.g.AddEdge(0, 1))

	require.NoError(s.g.MergeNodes(0, 1))

	require.False(s.g.HasNode(1))
	require.ElementsMatch([]graph.NodeID{2, 3}, s.g.Neighbors(0))
	require.Equal([]graph.NodeID{0}, s.g.Neighbors(2))
	require.NoError(s.g.Validate())
}

func (s *GraphSuite) TestCollapseMissingNode() {
	require := require.New(s.T())
	s.triangle()
	require.ErrorIs(s.g.CollapseNodes(0, 9), graph.ErrNodeNotFound)
	require.ErrorIs(s.g.MergeNodes(9, 1), graph.ErrNodeNotFound)
	require.Equal(3, s.g.EdgeCount())
}

func (s *GraphSuite) TestLastAndCompaction() {
	require := require.New(s.T())
	for i := 0; i < 200; i++ {
		s.g.AddNode(graph.NodeID(i), float64(i), 0)
		if i > 0 {
			require.NoError(s.g.AddEdge(graph.NodeID(i-1), graph.NodeID(i)))
		}
	}
	for i := 0; i < 150; i++ {
		s.g.RemoveNode(graph.NodeID(i))
	}

	require.Equal(50, s.g.NodeCount())
	require.Len(s.g.Nodes(), 50)
	require.Equal(graph.NodeID(150), s.g.IDs()[0])

	last, ok := s.g.Last()
	require.True(ok)
	require.Equal(graph.NodeID(199), last.ID)

	require.NoError(s.g.SetPosition(199, 1, 2))
	moved, _ := s.g.Node(199)
	require.Equal(2.0, moved.Y)
	require.ErrorIs(s.g.SetPosition(3, 0, 0), graph.ErrNodeNotFound)
	require.NoError(s.g.Validate())
}

func TestGraphSuite(t *testing.T) {
	suite.Run(t, new(GraphSuite))
}
