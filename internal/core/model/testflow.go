package model

// TestFlow is a named regression scenario covering a known set of nodes.
// The catalog is maintained externally; the engine only reads it.
type TestFlow struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	CoveredNodeIDs []string `json:"covered_node_ids"`
	Status         string   `json:"status,omitempty"`
}

// RecommendedFlow is a catalog entry prioritized against an impact report.
type RecommendedFlow struct {
	TestFlow
	Priority Severity `json:"priority"`
}

// CoverageSnapshot is the per-day coverage record read from the external
// metrics table. Day uses YYYY-MM-DD.
type CoverageSnapshot struct {
	Day            string             `json:"day"`
	ModuleCoverage map[string]float64 `json:"module_coverage,omitempty"`
	Overall        float64            `json:"overall"`
	Trend          float64            `json:"trend"`
}

// CoverageDelta is the estimated coverage change for a change set, before
// real test execution verifies it.
type CoverageDelta struct {
	Estimated    float64 `json:"estimated"`
	Previous     float64 `json:"previous"`
	Delta        float64 `json:"delta"`
	RiskDiscount float64 `json:"risk_discount"`
}

// CouplingReport summarizes structural coupling of a project graph.
type CouplingReport struct {
	ProjectID     string  `json:"project_id"`
	Clusters      int     `json:"clusters"`
	CouplingValue float64 `json:"coupling_value"`
	NodeCount     int     `json:"node_count"`
	EdgeCount     int     `json:"edge_count"`
}
