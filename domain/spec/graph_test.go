package spec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specmap/pkg/errors"
)

func TestGraph_AddNode(t *testing.T) {
	g := NewGraph("g1", "Test Project")

	id := g.AddNode(CategoryFeature, Attributes{Label: "Login"}, nil)

	require.NotEmpty(t, id)
	assert.True(t, strings.HasPrefix(id, "node-"))
	assert.Equal(t, 1, g.NodeCount())

	n := g.Node(id)
	require.NotNil(t, n)
	assert.Equal(t, CategoryFeature, n.Category())
	assert.Equal(t, "Login", n.Label())
}

func TestGraph_AddNode_LaneAssignment(t *testing.T) {
	g := NewGraph("g1", "Test Project")

	first := g.AddNode(CategoryFeature, Attributes{Label: "A"}, nil)
	second := g.AddNode(CategoryFeature, Attributes{Label: "B"}, nil)
	other := g.AddNode(CategoryDataModel, Attributes{Label: "C"}, nil)

	assert.Equal(t, Position{X: 400, Y: 100}, g.Node(first).Position())
	assert.Equal(t, Position{X: 400, Y: 280}, g.Node(second).Position())
	// A different category starts its own lane from the top.
	assert.Equal(t, Position{X: 1000, Y: 100}, g.Node(other).Position())
}

func TestGraph_AddNode_ExplicitPosition(t *testing.T) {
	g := NewGraph("g1", "Test Project")

	pos := Position{X: 42, Y: 99}
	id := g.AddNode(CategoryNotes, Attributes{Label: "pinned"}, &pos)

	assert.Equal(t, pos, g.Node(id).Position())
}

func TestGraph_UpdateNode_MergesAttributes(t *testing.T) {
	g := NewGraph("g1", "Test Project")
	id := g.AddNode(CategoryTechnical, Attributes{
		Label:      "API Gateway",
		Technology: "Kong",
	}, nil)

	desc := "Routes all inbound traffic to backend services"
	err := g.UpdateNode(id, AttributeUpdate{Description: &desc})
	require.NoError(t, err)

	n := g.Node(id)
	assert.Equal(t, "API Gateway", n.Label(), "unspecified fields are preserved")
	assert.Equal(t, "Kong", n.Attributes().Technology)
	assert.Equal(t, desc, n.Attributes().Description)
}

func TestGraph_UpdateNode_Missing(t *testing.T) {
	g := NewGraph("g1", "Test Project")

	label := "x"
	err := g.UpdateNode("node-0-missing", AttributeUpdate{Label: &label})

	require.Error(t, err)
	assert.True(t, errors.IsInvalidReference(err))
}

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph("g1", "Test Project")
	a := g.AddNode(CategoryUserStory, Attributes{Label: "As a user"}, nil)
	b := g.AddNode(CategoryFeature, Attributes{Label: "Login"}, nil)

	id, err := g.AddEdge(a, b, "requires")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, g.EdgeCount())

	// Duplicate edges between the same pair are allowed.
	_, err = g.AddEdge(a, b, "")
	require.NoError(t, err)
	assert.Equal(t, 2, g.EdgeCount())
}

func TestGraph_AddEdge_MissingEndpoint(t *testing.T) {
	g := NewGraph("g1", "Test Project")
	a := g.AddNode(CategoryFeature, Attributes{Label: "Login"}, nil)

	_, err := g.AddEdge(a, "node-0-missing", "")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidReference(err))

	_, err = g.AddEdge("node-0-missing", a, "")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidReference(err))
	assert.Equal(t, 0, g.EdgeCount())
}

func TestGraph_RemoveNode_CascadesEdges(t *testing.T) {
	g := NewGraph("g1", "Test Project")
	a := g.AddNode(CategoryFeature, Attributes{Label: "A"}, nil)
	b := g.AddNode(CategoryFeature, Attributes{Label: "B"}, nil)
	c := g.AddNode(CategoryFeature, Attributes{Label: "C"}, nil)

	_, err := g.AddEdge(a, b, "")
	require.NoError(t, err)
	_, err = g.AddEdge(b, c, "")
	require.NoError(t, err)
	_, err = g.AddEdge(a, c, "")
	require.NoError(t, err)

	require.NoError(t, g.RemoveNode(b))

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount(), "edges touching the removed node are gone")
	remaining := g.Edges()[0]
	assert.Equal(t, a, remaining.Source())
	assert.Equal(t, c, remaining.Target())
}

func TestGraph_RemoveEdge(t *testing.T) {
	g := NewGraph("g1", "Test Project")
	a := g.AddNode(CategoryFeature, Attributes{Label: "A"}, nil)
	b := g.AddNode(CategoryFeature, Attributes{Label: "B"}, nil)
	id, err := g.AddEdge(a, b, "")
	require.NoError(t, err)

	require.NoError(t, g.RemoveEdge(id))
	assert.Equal(t, 0, g.EdgeCount())

	err = g.RemoveEdge(id)
	assert.True(t, errors.IsInvalidReference(err))
}

func TestGraph_Snapshot_IsDetached(t *testing.T) {
	g := NewGraph("g1", "Test Project")
	a := g.AddNode(CategoryFeature, Attributes{Label: "A"}, nil)
	b := g.AddNode(CategoryTechnical, Attributes{Label: "B", Technology: "Go"}, nil)
	_, err := g.AddEdge(a, b, "uses")
	require.NoError(t, err)

	snap := g.Snapshot()
	require.Len(t, snap.Nodes, 2)
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, "A", snap.Nodes[0].Attributes.Label, "insertion order preserved")

	// Mutating the live graph must not alter the snapshot.
	require.NoError(t, g.RemoveNode(a))
	newLabel := "changed"
	require.NoError(t, g.UpdateNode(b, AttributeUpdate{Label: &newLabel}))

	assert.Len(t, snap.Nodes, 2)
	assert.Equal(t, "A", snap.Nodes[0].Attributes.Label)
	assert.Equal(t, "B", snap.Nodes[1].Attributes.Label)
}

func TestGraph_FindByLabel(t *testing.T) {
	g := NewGraph("g1", "Test Project")
	id := g.AddNode(CategoryFeature, Attributes{Label: "User Login"}, nil)
	g.AddNode(CategoryTechnical, Attributes{Label: "User Login"}, nil)

	found := g.FindByLabel(CategoryFeature, "  user login ")
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID())

	assert.Nil(t, g.FindByLabel(CategoryNotes, "User Login"))
}

func TestGraph_VersionAdvancesOnMutation(t *testing.T) {
	g := NewGraph("g1", "Test Project")
	assert.EqualValues(t, 0, g.Version())

	a := g.AddNode(CategoryFeature, Attributes{Label: "A"}, nil)
	assert.EqualValues(t, 1, g.Version())

	require.NoError(t, g.MoveNode(a, Position{X: 1, Y: 2}))
	assert.EqualValues(t, 2, g.Version())

	g.Rename("Renamed")
	assert.EqualValues(t, 3, g.Version())
}

func TestReconstructGraph_DropsDanglingEdges(t *testing.T) {
	nodes := []NodeView{
		{ID: "n1", Category: "feature", Attributes: Attributes{Label: "A"}},
		{ID: "n2", Category: "feature", Attributes: Attributes{Label: "B"}},
	}
	edgs := []EdgeView{
		{ID: "e1", Source: "n1", Target: "n2"},
		{ID: "e2", Source: "n1", Target: "gone"},
	}

	g := ReconstructGraph("g1", "Test Project", 7, nodes, edgs)

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	assert.EqualValues(t, 7, g.Version())
	assert.Empty(t, g.UncommittedEvents(), "reconstruction raises no events")
}

func TestGraph_RaisesDomainEvents(t *testing.T) {
	g := NewGraph("g1", "Test Project")
	a := g.AddNode(CategoryFeature, Attributes{Label: "A"}, nil)
	b := g.AddNode(CategoryFeature, Attributes{Label: "B"}, nil)
	_, err := g.AddEdge(a, b, "")
	require.NoError(t, err)
	require.NoError(t, g.RemoveNode(a))

	evts := g.UncommittedEvents()
	require.Len(t, evts, 4)
	assert.Equal(t, "graph.node_added", evts[0].GetEventType())
	assert.Equal(t, "graph.edge_added", evts[2].GetEventType())
	assert.Equal(t, "graph.node_removed", evts[3].GetEventType())

	g.MarkEventsCommitted()
	assert.Empty(t, g.UncommittedEvents())
}
