package core

import (
	"context"

	"github.com/impactwise/ripple/internal/config"
	"github.com/impactwise/ripple/internal/core/coupling"
	"github.com/impactwise/ripple/internal/core/impact"
	"github.com/impactwise/ripple/internal/core/ingest"
	"github.com/impactwise/ripple/internal/core/model"
	"github.com/impactwise/ripple/internal/core/recommend"
	"github.com/impactwise/ripple/internal/core/summary"
	"github.com/impactwise/ripple/internal/driver"
	"github.com/impactwise/ripple/internal/index"
	"github.com/impactwise/ripple/internal/llm"
	"github.com/impactwise/ripple/internal/store"
)

// Engine wires the graph store, embedding index, ingestion pipeline,
// impact analyzer and recommender into the single entry point the API
// surface talks to.
type Engine struct {
	Store       *store.Store
	Index       *index.Index
	Embedder    llm.EmbedderClient
	Pipeline    *ingest.Pipeline
	Analyzer    *impact.Analyzer
	Recommender *recommend.Recommender
	Coupling    *coupling.Detector
}

// NewEngine assembles an engine from configuration. llmClient may be nil
// (no generated summaries); mirror may be nil (no dashboard export).
func NewEngine(cfg *config.Config, llmClient llm.LLMClient, embedder llm.EmbedderClient, mirror driver.GraphDriver) *Engine {
	st := store.New()
	ix := index.New()

	pipeline := ingest.NewPipeline(st, ix, embedder)
	pipeline.Mirror = mirror
	if cfg.Concurrency.BulkEmbed > 0 {
		pipeline.BulkEmbed = cfg.Concurrency.BulkEmbed
	}

	analyzer := impact.NewAnalyzer(st, ix)
	if cfg.Analysis.HopLimit > 0 {
		analyzer.HopLimit = cfg.Analysis.HopLimit
	}
	if cfg.Analysis.DecayRatio > 0 && cfg.Analysis.DecayRatio < 1 {
		analyzer.DecayRatio = cfg.Analysis.DecayRatio
	}
	analyzer.Timeout = cfg.AnalysisTimeout()
	if cfg.Analysis.SemanticK > 0 {
		analyzer.SemanticK = cfg.Analysis.SemanticK
	}
	if cfg.Analysis.SemanticMinScore > 0 {
		analyzer.SemanticMinScore = cfg.Analysis.SemanticMinScore
	}
	if llmClient != nil {
		analyzer.Summarizer = summary.NewSummarizer(llmClient)
	}

	recommender := recommend.NewRecommender()
	if cfg.Analysis.RiskDiscount > 0 {
		recommender.RiskDiscount = cfg.Analysis.RiskDiscount
	}

	return &Engine{
		Store:       st,
		Index:       ix,
		Embedder:    embedder,
		Pipeline:    pipeline,
		Analyzer:    analyzer,
		Recommender: recommender,
		Coupling:    coupling.NewDetector(),
	}
}

func (e *Engine) Ingest(ctx context.Context, sub model.GraphSubmission) (model.IngestSummary, error) {
	return e.Pipeline.Ingest(ctx, sub)
}

func (e *Engine) RebuildEmbeddings(ctx context.Context, projectID string) (model.IngestSummary, error) {
	return e.Pipeline.RebuildEmbeddings(ctx, projectID)
}

func (e *Engine) RemoveProject(ctx context.Context, projectID string) {
	e.Pipeline.RemoveProject(ctx, projectID)
}

func (e *Engine) Analyze(ctx context.Context, cs model.ChangeSet) (*model.ImpactReport, error) {
	return e.Analyzer.Analyze(ctx, cs)
}

func (e *Engine) Report(mrID string) (*model.ImpactReport, bool) {
	return e.Analyzer.Report(mrID)
}

func (e *Engine) Recommend(report *model.ImpactReport, catalog []model.TestFlow) []model.RecommendedFlow {
	return e.Recommender.Recommend(report, catalog)
}

// EstimateCoverage folds the project's current coupling into the erosion
// estimate when the report names a known project.
func (e *Engine) EstimateCoverage(report *model.ImpactReport, snapshots []model.CoverageSnapshot) model.CoverageDelta {
	var couplingValue float64
	if report != nil && e.Store.HasProject(report.ProjectID) {
		couplingValue = e.Coupling.CouplingValue(e.Store.Nodes(report.ProjectID), e.Store.Edges(report.ProjectID))
	}
	return e.Recommender.EstimateCoverage(report, snapshots, couplingValue)
}

// CouplingReport summarizes the structural coupling of a project graph.
func (e *Engine) CouplingReport(projectID string) (model.CouplingReport, error) {
	if !e.Store.HasProject(projectID) {
		return model.CouplingReport{}, store.ErrProjectNotFound
	}
	nodes := e.Store.Nodes(projectID)
	edges := e.Store.Edges(projectID)
	return model.CouplingReport{
		ProjectID:     projectID,
		Clusters:      len(e.Coupling.Clusters(nodes, edges)),
		CouplingValue: e.Coupling.CouplingValue(nodes, edges),
		NodeCount:     len(nodes),
		EdgeCount:     len(edges),
	}, nil
}
