package coupling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactwise/ripple/internal/core/model"
)

func nodes(ids ...string) []model.DependencyNode {
	out := make([]model.DependencyNode, len(ids))
	for i, id := range ids {
		out[i] = model.DependencyNode{ID: id, Kind: model.KindClass}
	}
	return out
}

func edge(from, to string) model.DependencyEdge {
	return model.DependencyEdge{FromID: from, ToID: to, Relation: model.RelationDependsOn}
}

func TestClusters_DisconnectedTriangles(t *testing.T) {
	ns := nodes("1", "2", "3", "4", "5", "6")
	es := []model.DependencyEdge{
		edge("1", "2"), edge("2", "3"), edge("3", "1"),
		edge("4", "5"), edge("5", "6"), edge("6", "4"),
	}

	d := NewDetector()
	clusters := d.Clusters(ns, es)
	require.Len(t, clusters, 2)
	for _, c := range clusters {
		assert.Len(t, c, 3)
	}
}

func TestClusters_BridgedTriangles(t *testing.T) {
	// Two triangles joined by one bridge edge stay separate clusters:
	// intra-cluster weight beats the single bridge.
	ns := nodes("1", "2", "3", "4", "5", "6")
	es := []model.DependencyEdge{
		edge("1", "2"), edge("2", "3"), edge("3", "1"),
		edge("3", "4"),
		edge("4", "5"), edge("5", "6"), edge("6", "4"),
	}

	d := NewDetector()
	assert.Len(t, d.Clusters(ns, es), 2)
}

func TestClusters_CliqueIsOneCluster(t *testing.T) {
	ns := nodes("1", "2", "3", "4", "5")
	var es []model.DependencyEdge
	for i := range ns {
		for j := i + 1; j < len(ns); j++ {
			es = append(es, edge(ns[i].ID, ns[j].ID))
		}
	}

	d := NewDetector()
	clusters := d.Clusters(ns, es)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0], 5)
}

func TestClusters_EmptyGraph(t *testing.T) {
	d := NewDetector()
	assert.Nil(t, d.Clusters(nil, nil))
}

func TestCouplingValue_SingleClusterIsZero(t *testing.T) {
	ns := nodes("1", "2", "3")
	es := []model.DependencyEdge{edge("1", "2"), edge("2", "3"), edge("3", "1")}

	d := NewDetector()
	assert.Equal(t, 0.0, d.CouplingValue(ns, es))
}

func TestCouplingValue_BridgedClustersArePositive(t *testing.T) {
	ns := nodes("1", "2", "3", "4", "5", "6")
	es := []model.DependencyEdge{
		edge("1", "2"), edge("2", "3"), edge("3", "1"),
		edge("3", "4"),
		edge("4", "5"), edge("5", "6"), edge("6", "4"),
	}

	d := NewDetector()
	v := d.CouplingValue(ns, es)
	assert.Greater(t, v, 0.0)
	assert.LessOrEqual(t, v, 1.0)
	assert.InDelta(t, 1.0/7.0, v, 1e-9) // one bridge out of seven edges
}

func TestCouplingValue_NoEdges(t *testing.T) {
	d := NewDetector()
	assert.Equal(t, 0.0, d.CouplingValue(nodes("1"), nil))
}
