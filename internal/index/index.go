package index

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// Hit is one search result: a node id and its cosine similarity.
type Hit struct {
	NodeID string  `json:"node_id"`
	Score  float64 `json:"score"`
}

type entry struct {
	vec        []float32 // normalized; nil or all-zero for degenerate signatures
	sigKey     string
	generation uint64
	zero       bool
}

// indexState is one immutable snapshot of a project's vectors. Search loads
// the pointer and never takes a lock.
type indexState struct {
	vectors map[string]entry
}

type projectIndex struct {
	ptr        atomic.Pointer[indexState]
	wmu        sync.Mutex
	generation atomic.Uint64
}

// Index is a per-project cosine-similarity vector index. Writes carry a
// monotonic generation; a write at or below the stored generation for a
// node is a no-op, which keeps out-of-order ingestion passes from
// clobbering fresher vectors.
type Index struct {
	mu       sync.RWMutex
	projects map[string]*projectIndex
}

func New() *Index {
	return &Index{projects: make(map[string]*projectIndex)}
}

func (ix *Index) slot(projectID string) *projectIndex {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	p, ok := ix.projects[projectID]
	if !ok {
		p = &projectIndex{}
		p.ptr.Store(&indexState{vectors: map[string]entry{}})
		ix.projects[projectID] = p
	}
	return p
}

func (ix *Index) current(projectID string) *indexState {
	ix.mu.RLock()
	p, ok := ix.projects[projectID]
	ix.mu.RUnlock()
	if !ok {
		return nil
	}
	return p.ptr.Load()
}

// NextGeneration bumps and returns the project's generation counter. One
// ingestion or rebuild pass calls this exactly once.
func (ix *Index) NextGeneration(projectID string) uint64 {
	return ix.slot(projectID).generation.Add(1)
}

// Put stores a vector for the node unless the node already holds a vector
// of an equal or newer generation. sigKey is the normalized signature the
// vector was computed from, kept for change detection. Returns whether the
// write was applied.
func (ix *Index) Put(projectID, nodeID string, vec []float32, sigKey string, generation uint64) bool {
	p := ix.slot(projectID)
	p.wmu.Lock()
	defer p.wmu.Unlock()

	cur := p.ptr.Load()
	if old, ok := cur.vectors[nodeID]; ok && generation <= old.generation {
		return false
	}

	next := &indexState{vectors: make(map[string]entry, len(cur.vectors)+1)}
	for id, e := range cur.vectors {
		next.vectors[id] = e
	}
	norm, zero := normalize(vec)
	next.vectors[nodeID] = entry{vec: norm, sigKey: sigKey, generation: generation, zero: zero}
	p.ptr.Store(next)
	return true
}

// Evict removes one node's vector.
func (ix *Index) Evict(projectID, nodeID string) {
	p := ix.slot(projectID)
	p.wmu.Lock()
	defer p.wmu.Unlock()

	cur := p.ptr.Load()
	if _, ok := cur.vectors[nodeID]; !ok {
		return
	}
	next := &indexState{vectors: make(map[string]entry, len(cur.vectors))}
	for id, e := range cur.vectors {
		if id != nodeID {
			next.vectors[id] = e
		}
	}
	p.ptr.Store(next)
}

// EvictProject drops the whole project, counter included.
func (ix *Index) EvictProject(projectID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.projects, projectID)
}

// Search returns up to k nodes ranked by cosine similarity to query,
// highest first, ties broken by node id ascending. Zero vectors never
// participate.
func (ix *Index) Search(projectID string, query []float32, k int) []Hit {
	st := ix.current(projectID)
	if st == nil || k <= 0 {
		return nil
	}
	q, zero := normalize(query)
	if zero {
		return nil
	}

	hits := make([]Hit, 0, len(st.vectors))
	for id, e := range st.vectors {
		if e.zero {
			continue
		}
		hits = append(hits, Hit{NodeID: id, Score: dot(q, e.vec)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].NodeID < hits[j].NodeID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// SignatureKey returns the normalized signature the node's current vector
// was computed from. Used by ingestion to skip unchanged nodes.
func (ix *Index) SignatureKey(projectID, nodeID string) (string, bool) {
	st := ix.current(projectID)
	if st == nil {
		return "", false
	}
	e, ok := st.vectors[nodeID]
	if !ok {
		return "", false
	}
	return e.sigKey, true
}

// Vector returns the node's stored normalized vector, and false when the
// node has no usable (non-zero) vector.
func (ix *Index) Vector(projectID, nodeID string) ([]float32, bool) {
	st := ix.current(projectID)
	if st == nil {
		return nil, false
	}
	e, ok := st.vectors[nodeID]
	if !ok || e.zero {
		return nil, false
	}
	return e.vec, true
}

// Generation returns the node's stored generation, 0 when absent.
func (ix *Index) Generation(projectID, nodeID string) uint64 {
	st := ix.current(projectID)
	if st == nil {
		return 0
	}
	return st.vectors[nodeID].generation
}

// Size returns the number of indexed nodes, zero vectors included.
func (ix *Index) Size(projectID string) int {
	st := ix.current(projectID)
	if st == nil {
		return 0
	}
	return len(st.vectors)
}

func normalize(vec []float32) ([]float32, bool) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return nil, true
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out, false
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
