package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/impactwise/ripple/internal/core/model"
	"github.com/impactwise/ripple/internal/driver"
	"github.com/impactwise/ripple/internal/index"
	"github.com/impactwise/ripple/internal/llm"
	"github.com/impactwise/ripple/internal/store"
)

// ValidationError rejects a malformed submission before anything is
// persisted.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "invalid submission: " + e.Detail
}

// Pipeline is the only writer to the graph store and the embedding index,
// which is what keeps the two consistent. Mirror is optional.
type Pipeline struct {
	Store    *store.Store
	Index    *index.Index
	Embedder llm.EmbedderClient
	Mirror   driver.GraphDriver

	// BulkEmbed bounds parallel embedding computation per submission.
	BulkEmbed int

	mu       sync.Mutex
	inflight map[string]*sync.Mutex
}

func NewPipeline(st *store.Store, ix *index.Index, embedder llm.EmbedderClient) *Pipeline {
	return &Pipeline{
		Store:     st,
		Index:     ix,
		Embedder:  embedder,
		BulkEmbed: 8,
		inflight:  make(map[string]*sync.Mutex),
	}
}

// projectLock serializes ingestion per project. A second submission for a
// project with one in flight waits its turn; submissions for other
// projects proceed in parallel.
func (p *Pipeline) projectLock(projectID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.inflight[projectID]
	if !ok {
		m = &sync.Mutex{}
		p.inflight[projectID] = m
	}
	return m
}

// Ingest validates and normalizes a submission, replaces-or-merges the
// project graph, and (re)computes embeddings for new or changed
// signatures. A store failure aborts before any embedding work; a per-node
// embedding failure is counted and skipped, never fatal.
func (p *Pipeline) Ingest(ctx context.Context, sub model.GraphSubmission) (model.IngestSummary, error) {
	if sub.ProjectID == "" {
		return model.IngestSummary{}, &ValidationError{Detail: "missing project id"}
	}
	if len(sub.Nodes) == 0 {
		return model.IngestSummary{}, &ValidationError{Detail: "empty node set"}
	}
	for i, e := range sub.Edges {
		if e.FromID == e.ToID {
			return model.IngestSummary{}, &ValidationError{Detail: fmt.Sprintf("self-loop edge at index %d on node %s", i, e.FromID)}
		}
	}

	nodes := make([]model.DependencyNode, len(sub.Nodes))
	for i, n := range sub.Nodes {
		nodes[i] = normalizeNode(n)
	}
	edges := make([]model.DependencyEdge, len(sub.Edges))
	for i, e := range sub.Edges {
		edges[i] = model.DependencyEdge{FromID: e.FromID, ToID: e.ToID, Relation: model.NormalizeRelation(string(e.Relation))}
	}

	lock := p.projectLock(sub.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	summary, err := p.Store.UpsertProject(sub.ProjectID, nodes, edges)
	if err != nil {
		return model.IngestSummary{}, err
	}

	generation, computed, failed := p.embed(ctx, sub.ProjectID, nodes, false)
	summary.EmbeddingsComputed = computed
	summary.EmbeddingsFailed = failed
	summary.Generation = generation

	p.mirror(ctx, sub.ProjectID)
	return summary, nil
}

// RebuildEmbeddings re-embeds every node currently in the store under a
// single fresh generation. Index entries for nodes no longer in the store
// keep their old vectors; deletion is a separate explicit operation.
func (p *Pipeline) RebuildEmbeddings(ctx context.Context, projectID string) (model.IngestSummary, error) {
	if !p.Store.HasProject(projectID) {
		return model.IngestSummary{}, fmt.Errorf("rebuild: %w", store.ErrProjectNotFound)
	}

	lock := p.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	nodes := p.Store.Nodes(projectID)
	summary := model.IngestSummary{ProjectID: projectID}
	generation, computed, failed := p.embed(ctx, projectID, nodes, true)
	summary.EmbeddingsComputed = computed
	summary.EmbeddingsFailed = failed
	summary.Generation = generation
	return summary, nil
}

// RemoveProject cascades the store removal to the index and the mirror,
// and drops the project's serialization entry so removed projects don't
// accumulate in the pipeline.
func (p *Pipeline) RemoveProject(ctx context.Context, projectID string) {
	lock := p.projectLock(projectID)
	lock.Lock()

	p.Store.RemoveProject(projectID)
	p.Index.EvictProject(projectID)
	if p.Mirror != nil {
		if _, err := p.Mirror.ExecuteQuery(ctx, driver.RemoveProjectQuery, map[string]interface{}{"project_id": projectID}); err != nil {
			log.Printf("Failed to remove project %s from mirror: %v", projectID, err)
		}
	}
	lock.Unlock()

	p.mu.Lock()
	if p.inflight[projectID] == lock {
		delete(p.inflight, projectID)
	}
	p.mu.Unlock()
}

// embed computes and indexes vectors for the given nodes under one bumped
// generation. Unless force is set, nodes whose normalized signature is
// unchanged are skipped.
func (p *Pipeline) embed(ctx context.Context, projectID string, nodes []model.DependencyNode, force bool) (generation uint64, computed, failed int) {
	generation = p.Index.NextGeneration(projectID)

	type job struct {
		nodeID string
		sigKey string
	}
	var jobs []job
	for _, n := range nodes {
		sigKey := SignatureKey(n.TextSignature)
		if !force {
			if old, ok := p.Index.SignatureKey(projectID, n.ID); ok && old == sigKey {
				continue
			}
		}
		jobs = append(jobs, job{nodeID: n.ID, sigKey: sigKey})
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	limit := p.BulkEmbed
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, j := range jobs {
		j := j
		g.Go(func() error {
			var vec []float32
			if j.sigKey != "" {
				v, err := p.Embedder.Embed(gctx, j.sigKey)
				if err != nil {
					// Node keeps its previous vector, or stays unindexed.
					log.Printf("Embedding failed for %s/%s: %v", projectID, j.nodeID, err)
					mu.Lock()
					failed++
					mu.Unlock()
					return nil
				}
				vec = v
			}
			// Empty signature indexes the zero vector, which search skips.
			p.Index.Put(projectID, j.nodeID, vec, j.sigKey, generation)
			mu.Lock()
			computed++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return generation, computed, failed
}

func (p *Pipeline) mirror(ctx context.Context, projectID string) {
	if p.Mirror == nil {
		return
	}
	err := driver.ExportGraph(ctx, p.Mirror, projectID, p.Store.Nodes(projectID), p.Store.Edges(projectID))
	if err != nil {
		log.Printf("Graph mirror export failed for %s: %v", projectID, err)
	}
}

func normalizeNode(n model.DependencyNode) model.DependencyNode {
	out := n
	out.ID = strings.TrimSpace(n.ID)
	out.DisplayName = strings.TrimSpace(n.DisplayName)
	if out.DisplayName == "" {
		out.DisplayName = out.ID
	}
	out.Kind = model.NormalizeKind(string(n.Kind))
	out.TextSignature = strings.Join(strings.Fields(n.TextSignature), " ")
	return out
}

// SignatureKey is the stable lowercase form a signature is embedded under.
// Display text is never lowered; only this key is.
func SignatureKey(signature string) string {
	return strings.ToLower(strings.Join(strings.Fields(signature), " "))
}
