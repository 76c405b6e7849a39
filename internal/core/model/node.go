package model

// NodeKind classifies a dependency graph node.
type NodeKind string

const (
	KindClass    NodeKind = "class"
	KindModule   NodeKind = "module"
	KindFunction NodeKind = "function"
	KindOther    NodeKind = "other"
)

// NormalizeKind maps arbitrary submitted kind strings onto the known set.
func NormalizeKind(s string) NodeKind {
	switch NodeKind(s) {
	case KindClass, KindModule, KindFunction:
		return NodeKind(s)
	default:
		return KindOther
	}
}

// DependencyNode is a code entity in a project's dependency graph.
// ID is stable and unique within a project. TextSignature is the source
// text used for embedding, not for display.
type DependencyNode struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"display_name"`
	Kind          NodeKind `json:"kind"`
	TextSignature string   `json:"text_signature,omitempty"`
}
