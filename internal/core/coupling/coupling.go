package coupling

import (
	"sort"

	"github.com/impactwise/ripple/internal/core/model"
)

// Detector clusters a dependency graph with label propagation. Cluster
// structure drives the coupling value: the share of edges crossing cluster
// boundaries, a rough stand-in for how far changes tend to ripple.
type Detector struct {
	MaxIterations int
}

func NewDetector() *Detector {
	return &Detector{MaxIterations: 20}
}

// Clusters groups nodes by propagated label. Edges are treated as
// undirected; parallel edges between a pair strengthen the connection.
// Singleton clusters are filtered out.
func (d *Detector) Clusters(nodes []model.DependencyNode, edges []model.DependencyEdge) [][]model.DependencyNode {
	if len(nodes) == 0 {
		return nil
	}

	adj := make(map[string]map[string]int)
	nodeMap := make(map[string]model.DependencyNode)
	for _, n := range nodes {
		nodeMap[n.ID] = n
		adj[n.ID] = make(map[string]int)
	}
	for _, e := range edges {
		if _, ok := nodeMap[e.FromID]; !ok {
			continue
		}
		if _, ok := nodeMap[e.ToID]; !ok {
			continue
		}
		adj[e.FromID][e.ToID]++
		adj[e.ToID][e.FromID]++
	}

	labels := make(map[string]string)
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		labels[n.ID] = n.ID
		ids = append(ids, n.ID)
	}
	sort.Strings(ids) // deterministic propagation order

	for iter := 0; iter < d.MaxIterations; iter++ {
		changed := 0
		for _, u := range ids {
			neighbors := adj[u]
			if len(neighbors) == 0 {
				continue
			}

			counts := make(map[string]int)
			maxCount := 0
			for v, weight := range neighbors {
				label := labels[v]
				counts[label] += weight
				if counts[label] > maxCount {
					maxCount = counts[label]
				}
			}

			var candidates []string
			for label, count := range counts {
				if count == maxCount {
					candidates = append(candidates, label)
				}
			}
			sort.Strings(candidates)
			best := candidates[len(candidates)-1]

			if labels[u] != best {
				labels[u] = best
				changed++
			}
		}
		if changed == 0 {
			break
		}
	}

	grouped := make(map[string][]model.DependencyNode)
	for id, label := range labels {
		grouped[label] = append(grouped[label], nodeMap[id])
	}

	var clusters [][]model.DependencyNode
	for _, cluster := range grouped {
		if len(cluster) >= 2 {
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}

// CouplingValue is the fraction of edges that cross cluster boundaries,
// in [0, 1]. A single tight cluster scores 0.
func (d *Detector) CouplingValue(nodes []model.DependencyNode, edges []model.DependencyEdge) float64 {
	if len(edges) == 0 {
		return 0
	}

	clusters := d.Clusters(nodes, edges)
	clusterOf := make(map[string]int)
	for i, cluster := range clusters {
		for _, n := range cluster {
			clusterOf[n.ID] = i + 1
		}
	}
	// Singletons each get their own cluster id.
	next := len(clusters) + 1
	for _, n := range nodes {
		if clusterOf[n.ID] == 0 {
			clusterOf[n.ID] = next
			next++
		}
	}

	cross := 0
	for _, e := range edges {
		if clusterOf[e.FromID] != clusterOf[e.ToID] {
			cross++
		}
	}
	return float64(cross) / float64(len(edges))
}
