package store

import (
	"errors"
	"fmt"
)

// ErrProjectNotFound is returned by lookups against an unknown project.
var ErrProjectNotFound = errors.New("project not found")

// DanglingEdgeError rejects an upsert whose edge references a node absent
// from the merged node set. Index is the position of the offending edge in
// the submitted slice.
type DanglingEdgeError struct {
	Index  int
	FromID string
	ToID   string
}

func (e *DanglingEdgeError) Error() string {
	return fmt.Sprintf("dangling edge at index %d: %s -> %s references an unknown node", e.Index, e.FromID, e.ToID)
}
