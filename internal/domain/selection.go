package domain

import "math"

// Unscored marks a candidate that could not be scored.
var Unscored = math.Inf(1)

// PointOfInterest is a user-chosen destination. A nil Weight means 1.0.
type PointOfInterest struct {
	Latitude  float64
	Longitude float64
	Weight    *float64
}

func (p PointOfInterest) Coordinate() Coordinate {
	return Coordinate{Lat: p.Latitude, Lon: p.Longitude}
}

// EffectiveWeight returns Weight when it is a finite number, else 1.0.
func (p PointOfInterest) EffectiveWeight() float64 {
	if p.Weight == nil || math.IsInf(*p.Weight, 0) || math.IsNaN(*p.Weight) {
		return 1.0
	}
	return *p.Weight
}

// RouteLeg is one candidate-to-POI relationship.
type RouteLeg struct {
	DistanceMeters   float64
	DurationSeconds  float64
	Weight           float64
	WeightedDistance float64
	POIIndex         int
}

// ScoredCandidate is a candidate with its aggregate weighted distance. Lower is better.
type ScoredCandidate struct {
	Property PropertyCandidate
	Score    float64
	Legs     []RouteLeg
}

// Scored reports whether Score is a usable finite number.
func (s ScoredCandidate) Scored() bool { return !math.IsInf(s.Score, 0) && !math.IsNaN(s.Score) }

// Selection is the outcome of one find-best request.
type Selection struct {
	Best      *PropertyCandidate
	BestScore float64
	Legs      []RouteLeg
	Ranked    []ScoredCandidate
	// Degraded is set when the routing service failed and every candidate fell back to Unscored.
	Degraded bool
}

// Distances returns the best candidate's leg distances in POI order.
func (s Selection) Distances() []float64 {
	out := make([]float64, 0, len(s.Legs))
	for _, l := range s.Legs {
		out = append(out, l.DistanceMeters)
	}
	return out
}

// Durations returns the best candidate's leg durations in POI order.
func (s Selection) Durations() []float64 {
	out := make([]float64, 0, len(s.Legs))
	for _, l := range s.Legs {
		out = append(out, l.DurationSeconds)
	}
	return out
}
