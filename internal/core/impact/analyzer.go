package impact

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/impactwise/ripple/internal/core/diffscan"
	"github.com/impactwise/ripple/internal/core/model"
	"github.com/impactwise/ripple/internal/index"
	"github.com/impactwise/ripple/internal/store"
)

// Summarizer optionally rewrites the report summary, e.g. via an LLM. Any
// failure falls back to the deterministic summary.
type Summarizer interface {
	Summarize(ctx context.Context, report *model.ImpactReport) (string, error)
}

// propagationRelations are the edge kinds impact travels along.
var propagationRelations = []model.Relation{
	model.RelationDependsOn,
	model.RelationCalls,
	model.RelationInherits,
}

// Analyzer walks the graph store outward from a change set's seed nodes,
// scores the blast radius, and keeps the latest report per merge request.
// Reads only; never blocks ingestion.
type Analyzer struct {
	Store      *store.Store
	Index      *index.Index
	Registry   *Registry
	Summarizer Summarizer

	HopLimit         int
	DecayRatio       float64
	Timeout          time.Duration
	SemanticK        int
	SemanticMinScore float64
}

func NewAnalyzer(st *store.Store, ix *index.Index) *Analyzer {
	return &Analyzer{
		Store:            st,
		Index:            ix,
		Registry:         NewRegistry(),
		HopLimit:         3,
		DecayRatio:       defaultDecayRatio,
		Timeout:          2 * time.Second,
		SemanticK:        5,
		SemanticMinScore: 0.85,
	}
}

type visit struct {
	distance int
	score    float64
	reason   string
}

// Analyze produces the impact report for a change set and registers it as
// the current report for the merge request, replacing any prior one.
// Unresolved identifiers are recorded, not fatal; a timeout returns the
// partial result flagged Truncated.
func (a *Analyzer) Analyze(ctx context.Context, cs model.ChangeSet) (*model.ImpactReport, error) {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	report := &model.ImpactReport{
		AnalysisID: uuid.New().String(),
		MRID:       cs.MRID,
		ProjectID:  cs.ProjectID,
		CreatedAt:  time.Now().UTC(),
	}

	candidates := cs.ChangedEntityIDs
	if len(candidates) == 0 {
		candidates = diffscan.ChangedEntities(cs.DiffText)
	}

	seeds, unresolved := a.resolveSeeds(cs.ProjectID, candidates)
	report.UnresolvedIDs = unresolved

	visited := map[string]visit{}
	for _, id := range seeds {
		visited[id] = visit{distance: 0, score: seedScore, reason: "changed directly in this merge request"}
	}

	report.Truncated = a.propagate(ctx, cs.ProjectID, seeds, visited)
	a.augmentSemantic(cs.ProjectID, seeds, visited)

	var scores []float64
	for id, v := range visited {
		node, _ := a.Store.GetNode(cs.ProjectID, id)
		report.AffectedClasses = append(report.AffectedClasses, model.AffectedClass{
			NodeID:      id,
			DisplayName: node.DisplayName,
			Severity:    model.BandSeverity(v.score),
			Score:       round2(v.score),
			Reason:      v.reason,
			Distance:    v.distance,
			Indirect:    v.distance > a.HopLimit,
		})
		scores = append(scores, v.score)
	}

	sort.Slice(report.AffectedClasses, func(i, j int) bool {
		ai, aj := report.AffectedClasses[i], report.AffectedClasses[j]
		if ai.Severity.Rank() != aj.Severity.Rank() {
			return ai.Severity.Rank() > aj.Severity.Rank()
		}
		if ai.Distance != aj.Distance {
			return ai.Distance < aj.Distance
		}
		return ai.NodeID < aj.NodeID
	})

	report.SeverityScore = round2(overallScore(scores))
	report.Summary = a.summarize(ctx, report)

	a.Registry.Put(report)
	return report, nil
}

// Report returns the current report for a merge request.
func (a *Analyzer) Report(mrID string) (*model.ImpactReport, bool) {
	return a.Registry.Get(mrID)
}

// resolveSeeds matches candidate identifiers against the project's nodes,
// by id first, then by display name.
func (a *Analyzer) resolveSeeds(projectID string, candidates []string) (seeds, unresolved []string) {
	var byName map[string]string
	seen := map[string]bool{}
	for _, id := range candidates {
		if _, ok := a.Store.GetNode(projectID, id); ok {
			if !seen[id] {
				seen[id] = true
				seeds = append(seeds, id)
			}
			continue
		}
		if byName == nil {
			byName = map[string]string{}
			for _, n := range a.Store.Nodes(projectID) {
				byName[n.DisplayName] = n.ID
			}
		}
		if nodeID, ok := byName[id]; ok {
			if !seen[nodeID] {
				seen[nodeID] = true
				seeds = append(seeds, nodeID)
			}
			continue
		}
		unresolved = append(unresolved, id)
	}
	sort.Strings(unresolved)
	return seeds, unresolved
}

// propagate runs the bounded breadth-first walk. Returns true when the
// context expired before the walk completed.
func (a *Analyzer) propagate(ctx context.Context, projectID string, seeds []string, visited map[string]visit) (truncated bool) {
	frontier := append([]string(nil), seeds...)
	for depth := 1; depth <= a.HopLimit && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			select {
			case <-ctx.Done():
				return true
			default:
			}
			for _, e := range a.Store.NeighborEdges(projectID, id, propagationRelations, store.Both) {
				neighbor := e.ToID
				if neighbor == id {
					neighbor = e.FromID
				}
				if _, ok := visited[neighbor]; ok {
					continue
				}
				visited[neighbor] = visit{
					distance: depth,
					score:    nodeScore(e.Relation, depth, a.DecayRatio),
					reason:   fmt.Sprintf("%s dependency of %s at distance %d", e.Relation, id, depth),
				}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return false
}

// augmentSemantic adds nodes that the static graph misses but whose
// embeddings sit close to a changed node, e.g. duplicated logic with no
// explicit edge. They join the report as indirect, Low-band entries.
func (a *Analyzer) augmentSemantic(projectID string, seeds []string, visited map[string]visit) {
	if a.Index == nil || a.SemanticK <= 0 {
		return
	}
	for _, seedID := range seeds {
		vec, ok := a.Index.Vector(projectID, seedID)
		if !ok {
			continue
		}
		for _, hit := range a.Index.Search(projectID, vec, a.SemanticK) {
			if hit.NodeID == seedID || hit.Score < a.SemanticMinScore {
				continue
			}
			if _, ok := a.Store.GetNode(projectID, hit.NodeID); !ok {
				continue
			}
			score := 3 * hit.Score // capped inside the Low band
			if prev, ok := visited[hit.NodeID]; ok {
				if prev.distance <= a.HopLimit || prev.score >= score {
					continue
				}
			}
			visited[hit.NodeID] = visit{
				distance: a.HopLimit + 1,
				score:    score,
				reason:   fmt.Sprintf("semantically similar to %s (cosine %.2f), no structural path within %d hops", seedID, hit.Score, a.HopLimit),
			}
		}
	}
}

func (a *Analyzer) summarize(ctx context.Context, report *model.ImpactReport) string {
	summary := deterministicSummary(report)
	if a.Summarizer == nil {
		return summary
	}
	report.Summary = summary
	generated, err := a.Summarizer.Summarize(ctx, report)
	if err != nil || generated == "" {
		if err != nil {
			log.Printf("Summary generation failed for MR %s: %v", report.MRID, err)
		}
		return summary
	}
	return generated
}

func deterministicSummary(report *model.ImpactReport) string {
	s := fmt.Sprintf("Analysis of MR %s affecting %d classes with severity score %.1f/10",
		report.MRID, len(report.AffectedClasses), report.SeverityScore)
	if len(report.UnresolvedIDs) > 0 {
		s += fmt.Sprintf("; %d changed identifiers could not be resolved", len(report.UnresolvedIDs))
	}
	if report.Truncated {
		s += "; propagation truncated by timeout"
	}
	return s
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
