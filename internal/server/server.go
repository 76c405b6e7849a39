package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/impactwise/ripple/internal/config"
	"github.com/impactwise/ripple/internal/core"
	"github.com/impactwise/ripple/internal/core/ingest"
	"github.com/impactwise/ripple/internal/core/model"
	"github.com/impactwise/ripple/internal/driver"
	"github.com/impactwise/ripple/internal/llm"
	"github.com/impactwise/ripple/internal/store"
)

type Server struct {
	Engine *core.Engine
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Could not load %s: %v. Using defaults", cfgPath, err)
		cfg = config.Default()
	}
	cfg.ApplyEnv()

	llmClient, embedder, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	var mirror driver.GraphDriver
	if cfg.Mirror.URI != "" {
		d, err := driver.NewMemgraphDriver(cfg.Mirror.URI, cfg.Mirror.User, cfg.Mirror.Password)
		if err != nil {
			log.Printf("Graph mirror unavailable, continuing without it: %v", err)
		} else {
			if err := d.BuildIndices(context.Background()); err != nil {
				log.Printf("Failed to build mirror indices: %v", err)
			}
			mirror = d
		}
	}

	return &Server{Engine: core.NewEngine(cfg, llmClient, embedder, mirror)}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.Health)
	r.POST("/graphs", s.IngestGraph)
	r.POST("/graphs/:projectId/rebuild", s.RebuildEmbeddings)
	r.DELETE("/graphs/:projectId", s.RemoveProject)
	r.POST("/analyze", s.Analyze)
	r.GET("/reports/:mrId", s.GetReport)
	r.POST("/recommend", s.Recommend)
	r.POST("/coverage/estimate", s.EstimateCoverage)
	r.GET("/metrics/:projectId", s.Coupling)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) IngestGraph(c *gin.Context) {
	var sub model.GraphSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	summary, err := s.Engine.Ingest(c.Request.Context(), sub)
	if err != nil {
		var vErr *ingest.ValidationError
		var dErr *store.DanglingEdgeError
		switch {
		case errors.As(err, &vErr), errors.As(err, &dErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			log.Printf("Ingestion failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest graph"})
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) RebuildEmbeddings(c *gin.Context) {
	summary, err := s.Engine.RebuildEmbeddings(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown project"})
			return
		}
		log.Printf("Rebuild failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rebuild embeddings"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) RemoveProject(c *gin.Context) {
	s.Engine.RemoveProject(c.Request.Context(), c.Param("projectId"))
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (s *Server) Analyze(c *gin.Context) {
	var cs model.ChangeSet
	if err := c.ShouldBindJSON(&cs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if cs.MRID == "" || cs.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mr_id and project_id are required"})
		return
	}

	report, err := s.Engine.Analyze(c.Request.Context(), cs)
	if err != nil {
		log.Printf("Analysis failed for MR %s: %v", cs.MRID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze change set"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) GetReport(c *gin.Context) {
	report, ok := s.Engine.Report(c.Param("mrId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No report for this merge request"})
		return
	}
	c.JSON(http.StatusOK, report)
}

type RecommendRequest struct {
	MRID    string           `json:"mr_id"`
	Catalog []model.TestFlow `json:"catalog"`
}

func (s *Server) Recommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	report, ok := s.Engine.Report(req.MRID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No report for this merge request"})
		return
	}

	flows := s.Engine.Recommend(report, req.Catalog)
	c.JSON(http.StatusOK, gin.H{"flows": flows})
}

type EstimateCoverageRequest struct {
	MRID      string                   `json:"mr_id"`
	Snapshots []model.CoverageSnapshot `json:"snapshots"`
}

func (s *Server) EstimateCoverage(c *gin.Context) {
	var req EstimateCoverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	report, ok := s.Engine.Report(req.MRID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No report for this merge request"})
		return
	}

	delta := s.Engine.EstimateCoverage(report, req.Snapshots)
	c.JSON(http.StatusOK, delta)
}

func (s *Server) Coupling(c *gin.Context) {
	report, err := s.Engine.CouplingReport(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown project"})
		return
	}
	c.JSON(http.StatusOK, report)
}
