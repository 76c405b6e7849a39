package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactwise/ripple/internal/core/model"
)

func testNodes(ids ...string) []model.DependencyNode {
	nodes := make([]model.DependencyNode, len(ids))
	for i, id := range ids {
		nodes[i] = model.DependencyNode{ID: id, DisplayName: id, Kind: model.KindClass}
	}
	return nodes
}

func TestUpsert_EdgeEndpointsResolve(t *testing.T) {
	s := New()
	summary, err := s.UpsertProject("p1", testNodes("A", "B", "C"), []model.DependencyEdge{
		{FromID: "A", ToID: "B", Relation: model.RelationDependsOn},
		{FromID: "B", ToID: "C", Relation: model.RelationCalls},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.NodesAdded)
	assert.Equal(t, 2, summary.EdgesAdded)

	for _, e := range s.Edges("p1") {
		_, ok := s.GetNode("p1", e.FromID)
		assert.True(t, ok)
		_, ok = s.GetNode("p1", e.ToID)
		assert.True(t, ok)
	}
}

func TestUpsert_DanglingEdgeRejectsWholeCall(t *testing.T) {
	s := New()
	_, err := s.UpsertProject("p1", testNodes("A"), nil)
	require.NoError(t, err)

	_, err = s.UpsertProject("p1", testNodes("B"), []model.DependencyEdge{
		{FromID: "A", ToID: "B", Relation: model.RelationDependsOn},
		{FromID: "B", ToID: "ghost", Relation: model.RelationCalls},
	})
	require.Error(t, err)

	var dangling *DanglingEdgeError
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, 1, dangling.Index)
	assert.Equal(t, "ghost", dangling.ToID)

	// Nothing from the failed submission is visible: no node B, no edges.
	_, ok := s.GetNode("p1", "B")
	assert.False(t, ok)
	nodes, edges := s.Counts("p1")
	assert.Equal(t, 1, nodes)
	assert.Equal(t, 0, edges)
}

func TestUpsert_Idempotent(t *testing.T) {
	s := New()
	nodes := testNodes("A", "B")
	edges := []model.DependencyEdge{{FromID: "A", ToID: "B", Relation: model.RelationDependsOn}}

	_, err := s.UpsertProject("p1", nodes, edges)
	require.NoError(t, err)
	n1, e1 := s.Counts("p1")

	summary, err := s.UpsertProject("p1", nodes, edges)
	require.NoError(t, err)
	n2, e2 := s.Counts("p1")

	assert.Equal(t, n1, n2)
	assert.Equal(t, e1, e2)
	assert.Equal(t, 0, summary.NodesAdded)
	assert.Equal(t, 0, summary.EdgesAdded)
}

func TestUpsert_SameEndpointsDifferentRelationAreDistinct(t *testing.T) {
	s := New()
	_, err := s.UpsertProject("p1", testNodes("A", "B"), []model.DependencyEdge{
		{FromID: "A", ToID: "B", Relation: model.RelationDependsOn},
		{FromID: "A", ToID: "B", Relation: model.RelationCalls},
	})
	require.NoError(t, err)
	_, edges := s.Counts("p1")
	assert.Equal(t, 2, edges)
}

func TestNeighbors_Directions(t *testing.T) {
	s := New()
	_, err := s.UpsertProject("p1", testNodes("A", "B", "C"), []model.DependencyEdge{
		{FromID: "A", ToID: "B", Relation: model.RelationDependsOn},
		{FromID: "C", ToID: "B", Relation: model.RelationInherits},
	})
	require.NoError(t, err)

	out := s.Neighbors("p1", "B", nil, Outgoing)
	assert.Empty(t, out)

	in := s.Neighbors("p1", "B", nil, Incoming)
	assert.Len(t, in, 2)

	both := s.Neighbors("p1", "B", nil, Both)
	assert.Len(t, both, 2)

	inherits := s.Neighbors("p1", "B", []model.Relation{model.RelationInherits}, Incoming)
	require.Len(t, inherits, 1)
	assert.Equal(t, "C", inherits[0].ID)
}

func TestNeighbors_StableWithinRevision(t *testing.T) {
	s := New()
	edges := []model.DependencyEdge{
		{FromID: "A", ToID: "B", Relation: model.RelationDependsOn},
		{FromID: "A", ToID: "C", Relation: model.RelationDependsOn},
		{FromID: "A", ToID: "D", Relation: model.RelationCalls},
	}
	_, err := s.UpsertProject("p1", testNodes("A", "B", "C", "D"), edges)
	require.NoError(t, err)

	rev := s.Revision("p1")
	first := s.Neighbors("p1", "A", nil, Outgoing)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Neighbors("p1", "A", nil, Outgoing))
	}
	assert.Equal(t, rev, s.Revision("p1"))
}

func TestRemoveProject(t *testing.T) {
	s := New()
	_, err := s.UpsertProject("p1", testNodes("A"), nil)
	require.NoError(t, err)

	s.RemoveProject("p1")
	assert.False(t, s.HasProject("p1"))
	_, ok := s.GetNode("p1", "A")
	assert.False(t, ok)
}

func TestProjectsAreIsolated(t *testing.T) {
	s := New()
	_, err := s.UpsertProject("p1", testNodes("A"), nil)
	require.NoError(t, err)
	_, err = s.UpsertProject("p2", testNodes("A", "B"), nil)
	require.NoError(t, err)

	n1, _ := s.Counts("p1")
	n2, _ := s.Counts("p2")
	assert.Equal(t, 1, n1)
	assert.Equal(t, 2, n2)
}
