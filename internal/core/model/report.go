package model

import "time"

// Severity bands the 0-10 impact scale.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// BandSeverity maps a 0-10 score onto the Low/Medium/High bands
// (<=3 Low, <=7 Medium, else High).
func BandSeverity(score float64) Severity {
	switch {
	case score <= 3:
		return SeverityLow
	case score <= 7:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// Rank orders severities for sorting (High > Medium > Low).
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// AffectedClass is one node touched by a change, with the scored blast
// radius. Distance is the hop count from the nearest changed node.
// Indirect marks nodes recovered by semantic similarity rather than a
// structural dependency path.
type AffectedClass struct {
	NodeID      string   `json:"node_id"`
	DisplayName string   `json:"display_name,omitempty"`
	Severity    Severity `json:"severity"`
	Score       float64  `json:"score"`
	Reason      string   `json:"reason"`
	Distance    int      `json:"distance"`
	Indirect    bool     `json:"indirect,omitempty"`
}

// ImpactReport is the per-merge-request output of impact analysis.
// AffectedClasses are ordered severity desc, distance asc, node id asc.
// Truncated is set when the propagation timed out before completing.
type ImpactReport struct {
	AnalysisID      string          `json:"analysis_id"`
	MRID            string          `json:"mr_id"`
	ProjectID       string          `json:"project_id"`
	SeverityScore   float64         `json:"severity_score"`
	AffectedClasses []AffectedClass `json:"affected_classes"`
	UnresolvedIDs   []string        `json:"unresolved_ids,omitempty"`
	Truncated       bool            `json:"truncated"`
	Summary         string          `json:"summary"`
	CreatedAt       time.Time       `json:"created_at"`
}

// AffectedNodeIDs returns the set of affected node ids.
func (r *ImpactReport) AffectedNodeIDs() map[string]bool {
	ids := make(map[string]bool, len(r.AffectedClasses))
	for _, ac := range r.AffectedClasses {
		ids[ac.NodeID] = true
	}
	return ids
}

// MaxSeverityFor returns the highest severity among the given node ids,
// and false when none of them appear in the report.
func (r *ImpactReport) MaxSeverityFor(nodeIDs map[string]bool) (Severity, bool) {
	best := SeverityLow
	found := false
	for _, ac := range r.AffectedClasses {
		if !nodeIDs[ac.NodeID] {
			continue
		}
		found = true
		if ac.Severity.Rank() > best.Rank() {
			best = ac.Severity
		}
	}
	return best, found
}
