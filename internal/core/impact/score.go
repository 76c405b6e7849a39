package impact

import (
	"math"

	"github.com/impactwise/ripple/internal/core/model"
)

// Base severities on the 0-10 scale, by the relation the impact arrived
// through. Seeds (distance 0) always score seedScore. The decay ratio
// halves the weight per hop by default; both are tunables, not fixed law.
const (
	seedScore         = 10.0
	baseInherits      = 10.0
	baseDependsOn     = 9.0
	baseCalls         = 8.0
	baseOther         = 6.0
	defaultDecayRatio = 0.5
)

func baseSeverity(rel model.Relation) float64 {
	switch rel {
	case model.RelationInherits:
		return baseInherits
	case model.RelationDependsOn:
		return baseDependsOn
	case model.RelationCalls:
		return baseCalls
	default:
		return baseOther
	}
}

// nodeScore decays the relation's base severity by hop distance.
func nodeScore(rel model.Relation, distance int, decayRatio float64) float64 {
	if distance <= 0 {
		return seedScore
	}
	if decayRatio <= 0 || decayRatio >= 1 {
		decayRatio = defaultDecayRatio
	}
	return baseSeverity(rel) * math.Pow(decayRatio, float64(distance))
}

// overallScore aggregates per-node scores: the maximum, plus a small
// breadth bonus so a change touching forty nodes outranks one touching
// two, clamped to [0, 10].
func overallScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	max := 0.0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	bonus := 0.25 * float64(len(scores)-1)
	if bonus > 2 {
		bonus = 2
	}
	total := max + bonus
	if total > 10 {
		total = 10
	}
	if total < 0 {
		total = 0
	}
	return total
}
