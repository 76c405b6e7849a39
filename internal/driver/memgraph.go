package driver

import (
	"context"
	"fmt"
	"log"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/impactwise/ripple/internal/core/model"
)

type MemgraphDriver struct {
	Driver neo4j.DriverWithContext
}

func NewMemgraphDriver(uri, username, password string) (*MemgraphDriver, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		return nil, err
	}

	log.Println("Connected to graph mirror")
	return &MemgraphDriver{Driver: driver}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE INDEX ON :Dependency(id);",
		"CREATE INDEX ON :Dependency(project_id);",
	}

	for _, q := range queries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// Index may already exist; keep going.
			log.Printf("Warning: failed to create index '%s': %v", q, err)
		}
	}

	return nil
}

// ExportGraph pushes one project's nodes and edges to the mirror.
func ExportGraph(ctx context.Context, d GraphDriver, projectID string, nodes []model.DependencyNode, edges []model.DependencyEdge) error {
	nodeParams := make([]map[string]interface{}, 0, len(nodes))
	for _, n := range nodes {
		nodeParams = append(nodeParams, map[string]interface{}{
			"id":           n.ID,
			"display_name": n.DisplayName,
			"kind":         string(n.Kind),
		})
	}
	if _, err := d.ExecuteQuery(ctx, UpsertNodesQuery, map[string]interface{}{
		"project_id": projectID,
		"nodes":      nodeParams,
	}); err != nil {
		return fmt.Errorf("failed to mirror nodes: %w", err)
	}

	edgeParams := make([]map[string]interface{}, 0, len(edges))
	for _, e := range edges {
		edgeParams = append(edgeParams, map[string]interface{}{
			"from_id":  e.FromID,
			"to_id":    e.ToID,
			"relation": string(e.Relation),
		})
	}
	if _, err := d.ExecuteQuery(ctx, UpsertEdgesQuery, map[string]interface{}{
		"project_id": projectID,
		"edges":      edgeParams,
	}); err != nil {
		return fmt.Errorf("failed to mirror edges: %w", err)
	}

	return nil
}
