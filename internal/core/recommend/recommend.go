package recommend

import (
	"sort"

	"github.com/impactwise/ripple/internal/core/model"
)

// Recommender prioritizes catalog test flows against an impact report and
// estimates coverage erosion. The catalog and coverage snapshots are
// externally maintained read-only tables.
type Recommender struct {
	// RiskDiscount is coverage percentage points assumed lost per severity
	// point until real test execution verifies otherwise.
	RiskDiscount float64
}

func NewRecommender() *Recommender {
	return &Recommender{RiskDiscount: 0.5}
}

// Recommend returns the flows whose covered nodes intersect the report's
// affected set, ordered by the highest intersecting severity and then by
// catalog order.
func (r *Recommender) Recommend(report *model.ImpactReport, catalog []model.TestFlow) []model.RecommendedFlow {
	// Non-nil even when empty, so the wire shape stays a JSON array.
	out := []model.RecommendedFlow{}
	if report == nil || len(catalog) == 0 {
		return out
	}
	affected := report.AffectedNodeIDs()
	for _, flow := range catalog {
		covered := map[string]bool{}
		for _, id := range flow.CoveredNodeIDs {
			if affected[id] {
				covered[id] = true
			}
		}
		if len(covered) == 0 {
			continue
		}
		priority, _ := report.MaxSeverityFor(covered)
		out = append(out, model.RecommendedFlow{TestFlow: flow, Priority: priority})
	}

	// Stable keeps catalog order within a priority band.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})
	return out
}

// EstimateCoverage projects the coverage impact of a change before tests
// run: the affected modules' last known coverage minus an erosion
// proportional to the severity score. couplingValue in [0,1] scales the
// erosion up for highly coupled graphs; pass 0 when unknown.
func (r *Recommender) EstimateCoverage(report *model.ImpactReport, snapshots []model.CoverageSnapshot, couplingValue float64) model.CoverageDelta {
	discount := r.RiskDiscount
	if discount <= 0 {
		discount = 0.5
	}
	discount *= 1 + couplingValue

	var latest, previous float64
	if len(snapshots) > 0 {
		ordered := make([]model.CoverageSnapshot, len(snapshots))
		copy(ordered, snapshots)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Day < ordered[j].Day })
		latest = affectedBaseline(report, ordered[len(ordered)-1])
		previous = latest
		if len(ordered) > 1 {
			previous = affectedBaseline(report, ordered[len(ordered)-2])
		}
	}

	estimated := latest
	if report != nil {
		estimated -= report.SeverityScore * discount
	}
	if estimated < 0 {
		estimated = 0
	}
	if estimated > 100 {
		estimated = 100
	}

	return model.CoverageDelta{
		Estimated:    estimated,
		Previous:     previous,
		Delta:        estimated - previous,
		RiskDiscount: discount,
	}
}

// affectedBaseline averages the snapshot's per-module coverage over the
// report's affected nodes, matched by node id or display name. Falls back
// to the overall figure when the snapshot tracks no affected module.
func affectedBaseline(report *model.ImpactReport, s model.CoverageSnapshot) float64 {
	if report == nil || len(s.ModuleCoverage) == 0 {
		return s.Overall
	}
	var sum float64
	matched := 0
	for _, ac := range report.AffectedClasses {
		v, ok := s.ModuleCoverage[ac.NodeID]
		if !ok {
			v, ok = s.ModuleCoverage[ac.DisplayName]
		}
		if ok {
			sum += v
			matched++
		}
	}
	if matched == 0 {
		return s.Overall
	}
	return sum / float64(matched)
}
