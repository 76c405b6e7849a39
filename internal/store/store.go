package store

import (
	"sync"
	"sync/atomic"

	"github.com/impactwise/ripple/internal/core/model"
)

// Direction selects which adjacency to traverse.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Both
)

type edgeKey struct {
	from     string
	to       string
	relation model.Relation
}

// projectState is one immutable revision of a project's graph. Readers get
// the current pointer and never see a partially applied write.
type projectState struct {
	revision int64
	nodes    map[string]model.DependencyNode
	out      map[string][]model.DependencyEdge
	in       map[string][]model.DependencyEdge
	edgeSet  map[edgeKey]bool
	edges    []model.DependencyEdge
}

// projectSlot pairs the current snapshot pointer with a write mutex, so
// writes serialize per project without blocking other projects.
type projectSlot struct {
	ptr atomic.Pointer[projectState]
	wmu sync.Mutex
}

// Store holds the dependency graph per project. Writes build a fresh
// projectState and swap it in atomically; reads are lock-free after the
// slot lookup.
type Store struct {
	mu       sync.RWMutex
	projects map[string]*projectSlot
}

func New() *Store {
	return &Store{projects: make(map[string]*projectSlot)}
}

func (s *Store) slot(projectID string) *projectSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		p = &projectSlot{}
		s.projects[projectID] = p
	}
	return p
}

func (s *Store) current(projectID string) *projectState {
	s.mu.RLock()
	p, ok := s.projects[projectID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return p.ptr.Load()
}

// UpsertProject merges the submitted nodes and edges into the project's
// graph. The whole call fails with *DanglingEdgeError if any edge endpoint
// is missing from the merged node set; nothing is persisted on failure.
// Duplicate (from, to, relation) triples are idempotent.
func (s *Store) UpsertProject(projectID string, nodes []model.DependencyNode, edges []model.DependencyEdge) (model.IngestSummary, error) {
	summary := model.IngestSummary{ProjectID: projectID}
	slot := s.slot(projectID)

	slot.wmu.Lock()
	defer slot.wmu.Unlock()

	prev := slot.ptr.Load()
	next := &projectState{
		revision: 1,
		nodes:    make(map[string]model.DependencyNode),
		out:      make(map[string][]model.DependencyEdge),
		in:       make(map[string][]model.DependencyEdge),
		edgeSet:  make(map[edgeKey]bool),
	}
	if prev != nil {
		next.revision = prev.revision + 1
		for id, n := range prev.nodes {
			next.nodes[id] = n
		}
		for _, e := range prev.edges {
			next.edgeSet[edgeKey{e.FromID, e.ToID, e.Relation}] = true
			next.edges = append(next.edges, e)
		}
	}

	for _, n := range nodes {
		if old, ok := next.nodes[n.ID]; ok {
			if old != n {
				summary.NodesUpdated++
			}
		} else {
			summary.NodesAdded++
		}
		next.nodes[n.ID] = n
	}

	for i, e := range edges {
		if _, ok := next.nodes[e.FromID]; !ok {
			return model.IngestSummary{}, &DanglingEdgeError{Index: i, FromID: e.FromID, ToID: e.ToID}
		}
		if _, ok := next.nodes[e.ToID]; !ok {
			return model.IngestSummary{}, &DanglingEdgeError{Index: i, FromID: e.FromID, ToID: e.ToID}
		}
		k := edgeKey{e.FromID, e.ToID, e.Relation}
		if next.edgeSet[k] {
			continue
		}
		next.edgeSet[k] = true
		next.edges = append(next.edges, e)
		summary.EdgesAdded++
	}

	for _, e := range next.edges {
		next.out[e.FromID] = append(next.out[e.FromID], e)
		next.in[e.ToID] = append(next.in[e.ToID], e)
	}

	slot.ptr.Store(next)
	return summary, nil
}

// GetNode returns the node and true when it exists.
func (s *Store) GetNode(projectID, nodeID string) (model.DependencyNode, bool) {
	st := s.current(projectID)
	if st == nil {
		return model.DependencyNode{}, false
	}
	n, ok := st.nodes[nodeID]
	return n, ok
}

// Neighbors returns the nodes adjacent to nodeID. relationFilter restricts
// the traversed relations; nil means all. Order is unspecified but stable
// within a single revision.
func (s *Store) Neighbors(projectID, nodeID string, relationFilter []model.Relation, dir Direction) []model.DependencyNode {
	st := s.current(projectID)
	if st == nil {
		return nil
	}
	allowed := map[model.Relation]bool{}
	for _, r := range relationFilter {
		allowed[r] = true
	}

	var out []model.DependencyNode
	seen := map[string]bool{}
	collect := func(edges []model.DependencyEdge, pick func(model.DependencyEdge) string) {
		for _, e := range edges {
			if len(allowed) > 0 && !allowed[e.Relation] {
				continue
			}
			id := pick(e)
			if seen[id] {
				continue
			}
			if n, ok := st.nodes[id]; ok {
				seen[id] = true
				out = append(out, n)
			}
		}
	}
	if dir == Outgoing || dir == Both {
		collect(st.out[nodeID], func(e model.DependencyEdge) string { return e.ToID })
	}
	if dir == Incoming || dir == Both {
		collect(st.in[nodeID], func(e model.DependencyEdge) string { return e.FromID })
	}
	return out
}

// NeighborEdges is Neighbors keeping the traversed edge, for callers that
// need the relation (e.g. severity scoring).
func (s *Store) NeighborEdges(projectID, nodeID string, relationFilter []model.Relation, dir Direction) []model.DependencyEdge {
	st := s.current(projectID)
	if st == nil {
		return nil
	}
	allowed := map[model.Relation]bool{}
	for _, r := range relationFilter {
		allowed[r] = true
	}
	var out []model.DependencyEdge
	if dir == Outgoing || dir == Both {
		for _, e := range st.out[nodeID] {
			if len(allowed) == 0 || allowed[e.Relation] {
				out = append(out, e)
			}
		}
	}
	if dir == Incoming || dir == Both {
		for _, e := range st.in[nodeID] {
			if len(allowed) == 0 || allowed[e.Relation] {
				out = append(out, e)
			}
		}
	}
	return out
}

// Nodes returns every node of the project. The slice is freshly allocated.
func (s *Store) Nodes(projectID string) []model.DependencyNode {
	st := s.current(projectID)
	if st == nil {
		return nil
	}
	out := make([]model.DependencyNode, 0, len(st.nodes))
	for _, n := range st.nodes {
		out = append(out, n)
	}
	return out
}

// Edges returns every edge of the project.
func (s *Store) Edges(projectID string) []model.DependencyEdge {
	st := s.current(projectID)
	if st == nil {
		return nil
	}
	out := make([]model.DependencyEdge, len(st.edges))
	copy(out, st.edges)
	return out
}

// Counts returns node and edge counts; both zero for unknown projects.
func (s *Store) Counts(projectID string) (nodes, edges int) {
	st := s.current(projectID)
	if st == nil {
		return 0, 0
	}
	return len(st.nodes), len(st.edges)
}

// Revision returns the project's write revision, 0 for unknown projects.
func (s *Store) Revision(projectID string) int64 {
	st := s.current(projectID)
	if st == nil {
		return 0
	}
	return st.revision
}

// HasProject reports whether the project has been ingested.
func (s *Store) HasProject(projectID string) bool {
	return s.current(projectID) != nil
}

// RemoveProject drops the project's graph entirely.
func (s *Store) RemoveProject(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, projectID)
}
