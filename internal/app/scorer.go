package app

import (
	"math"

	"homefinder/internal/domain"
)

// Score sums weighted distances per candidate. Row i of m belongs to candidates[i] and
// column j to pois[j]; m must be at least len(candidates) x len(pois).
// With no POIs every candidate is Unscored with no legs.
func Score(candidates []domain.PropertyCandidate, pois []domain.PointOfInterest, m domain.Matrix) []domain.ScoredCandidate {
	if len(pois) == 0 {
		return unscored(candidates)
	}
	out := make([]domain.ScoredCandidate, 0, len(candidates))
	for i, c := range candidates {
		legs := make([]domain.RouteLeg, 0, len(pois))
		total := 0.0
		for j, p := range pois {
			leg := domain.RouteLeg{
				DistanceMeters:  m.Distances[i][j],
				DurationSeconds: m.Durations[i][j],
				Weight:          p.EffectiveWeight(),
				POIIndex:        j,
			}
			leg.WeightedDistance = weighted(leg.DistanceMeters, leg.Weight)
			total += leg.WeightedDistance
			legs = append(legs, leg)
		}
		out = append(out, domain.ScoredCandidate{Property: c, Score: total, Legs: legs})
	}
	return out
}

// weighted keeps unroutable legs at +Inf and zero-weight legs at 0 so no score becomes NaN.
func weighted(distance, weight float64) float64 {
	switch {
	case weight == 0:
		return 0
	case math.IsInf(distance, 1):
		return math.Inf(1)
	default:
		return distance * weight
	}
}

func unscored(candidates []domain.PropertyCandidate) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.ScoredCandidate{Property: c, Score: domain.Unscored, Legs: []domain.RouteLeg{}})
	}
	return out
}
