//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactwise/ripple/internal/config"
	"github.com/impactwise/ripple/internal/core"
	"github.com/impactwise/ripple/internal/core/model"
	"github.com/impactwise/ripple/internal/driver"
	"github.com/impactwise/ripple/internal/llm"
	"github.com/impactwise/ripple/internal/server"
	"github.com/joho/godotenv"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := &server.Server{
		Engine: core.NewEngine(config.Default(), nil, llm.NewLocalEmbedder(), nil),
	}
	ts := httptest.NewServer(s.SetupRouter())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func sampleGraph(projectID string) model.GraphSubmission {
	return model.GraphSubmission{
		ProjectID: projectID,
		Timestamp: time.Now().UTC(),
		Nodes: []model.DependencyNode{
			{ID: "OrderService", DisplayName: "OrderService", Kind: model.KindClass, TextSignature: "class OrderService handles order placement"},
			{ID: "PaymentClient", DisplayName: "PaymentClient", Kind: model.KindClass, TextSignature: "class PaymentClient wraps payment gateway"},
			{ID: "CartComponent", DisplayName: "CartComponent", Kind: model.KindClass, TextSignature: "export class CartComponent renders the cart"},
		},
		Edges: []model.DependencyEdge{
			{FromID: "OrderService", ToID: "PaymentClient", Relation: model.RelationDependsOn},
			{FromID: "CartComponent", ToID: "OrderService", Relation: model.RelationCalls},
		},
	}
}

func TestAPIFullFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Ingest
	resp = postJSON(t, ts, "/graphs", sampleGraph("shop"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[model.IngestSummary](t, resp)
	assert.Equal(t, 3, summary.NodesAdded)
	assert.Equal(t, 3, summary.EmbeddingsComputed)

	// Analyze
	resp = postJSON(t, ts, "/analyze", model.ChangeSet{
		ProjectID:        "shop",
		MRID:             "mr-100",
		ChangedEntityIDs: []string{"OrderService"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[model.ImpactReport](t, resp)
	assert.Equal(t, "mr-100", report.MRID)
	assert.Len(t, report.AffectedClasses, 3)

	// Report retrieval
	resp, err = http.Get(ts.URL + "/reports/mr-100")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stored := decode[model.ImpactReport](t, resp)
	assert.Equal(t, report.AnalysisID, stored.AnalysisID)

	// Recommend
	resp = postJSON(t, ts, "/recommend", map[string]any{
		"mr_id": "mr-100",
		"catalog": []model.TestFlow{
			{ID: "TF-001", Name: "Checkout Flow", CoveredNodeIDs: []string{"OrderService"}},
			{ID: "TF-002", Name: "Profile Flow", CoveredNodeIDs: []string{"UserProfile"}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	recs := decode[struct {
		Flows []model.RecommendedFlow `json:"flows"`
	}](t, resp)
	require.Len(t, recs.Flows, 1)
	assert.Equal(t, "TF-001", recs.Flows[0].ID)

	// Coverage estimate
	resp = postJSON(t, ts, "/coverage/estimate", map[string]any{
		"mr_id":     "mr-100",
		"snapshots": []model.CoverageSnapshot{{Day: "2026-08-23", Overall: 92}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	delta := decode[model.CoverageDelta](t, resp)
	assert.Less(t, delta.Estimated, 92.0)

	// Coupling metrics
	resp, err = http.Get(ts.URL + "/metrics/shop")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	coupling := decode[model.CouplingReport](t, resp)
	assert.Equal(t, 3, coupling.NodeCount)

	// Remove project
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/graphs/shop", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics/shop")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAPIValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	// Empty node set
	resp := postJSON(t, ts, "/graphs", model.GraphSubmission{ProjectID: "empty"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// Dangling edge
	sub := sampleGraph("dangling")
	sub.Edges = append(sub.Edges, model.DependencyEdge{FromID: "OrderService", ToID: "Ghost", Relation: model.RelationCalls})
	resp = postJSON(t, ts, "/graphs", sub)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// Missing report
	resp = postJSON(t, ts, "/recommend", map[string]any{"mr_id": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestMirrorExport(t *testing.T) {
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("MEMGRAPH_URI")
	if uri == "" {
		t.Skip("Skipping mirror test: MEMGRAPH_URI not set")
	}

	d, err := driver.NewMemgraphDriver(uri, os.Getenv("MEMGRAPH_USER"), os.Getenv("MEMGRAPH_PASSWORD"))
	require.NoError(t, err)
	defer d.Close(context.Background())

	ctx := context.Background()
	require.NoError(t, d.BuildIndices(ctx))

	e := core.NewEngine(config.Default(), nil, llm.NewLocalEmbedder(), d)
	projectID := fmt.Sprintf("mirror-test-%d", time.Now().UnixNano())

	_, err = e.Ingest(ctx, sampleGraph(projectID))
	require.NoError(t, err)

	e.RemoveProject(ctx, projectID)
}
