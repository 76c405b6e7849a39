package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphDriver is the write-through mirror the ingestion pipeline exports
// each project's graph to. The mirror feeds dashboard queries only; the
// engine never reads it back, and a mirror failure never fails ingestion.
type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error)
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
