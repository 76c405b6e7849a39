package model

// Relation classifies a directed dependency edge.
type Relation string

const (
	RelationDependsOn Relation = "depends-on"
	RelationCalls     Relation = "calls"
	RelationInherits  Relation = "inherits"
	RelationOther     Relation = "other"
)

// NormalizeRelation maps arbitrary submitted relation strings onto the known set.
func NormalizeRelation(s string) Relation {
	switch Relation(s) {
	case RelationDependsOn, RelationCalls, RelationInherits:
		return Relation(s)
	default:
		return RelationOther
	}
}

// DependencyEdge is a directed relationship between two nodes of the same
// project. (FromID, ToID, Relation) is the edge identity; submitting the
// same triple twice stores one edge.
type DependencyEdge struct {
	FromID   string   `json:"from_id"`
	ToID     string   `json:"to_id"`
	Relation Relation `json:"relation"`
}
