package app_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homefinder/internal/app"
	"homefinder/internal/domain"
)

func TestScore_WeightedAggregation(t *testing.T) {
	cands := []domain.PropertyCandidate{cand(1, 23.8, 90.4)}
	pois := []domain.PointOfInterest{
		{Latitude: 23.7, Longitude: 90.3, Weight: ptr(2.0)},
		{Latitude: 23.9, Longitude: 90.5, Weight: ptr(0.5)},
	}
	m := domain.Matrix{
		Distances: [][]float64{{1000, 2000}},
		Durations: [][]float64{{90, 180}},
	}

	out := app.Score(cands, pois, m)
	require.Len(t, out, 1)
	assert.Equal(t, 3000.0, out[0].Score)
	require.Len(t, out[0].Legs, 2)
	assert.Equal(t, domain.RouteLeg{DistanceMeters: 1000, DurationSeconds: 90, Weight: 2, WeightedDistance: 2000, POIIndex: 0}, out[0].Legs[0])
	assert.Equal(t, domain.RouteLeg{DistanceMeters: 2000, DurationSeconds: 180, Weight: 0.5, WeightedDistance: 1000, POIIndex: 1}, out[0].Legs[1])
}

func TestScore_DefaultWeight(t *testing.T) {
	pois := []domain.PointOfInterest{
		poi(23.7, 90.3),
		{Latitude: 23.9, Longitude: 90.5, Weight: ptr(math.NaN())},
		{Latitude: 23.9, Longitude: 90.5, Weight: ptr(math.Inf(1))},
	}
	m := domain.Matrix{
		Distances: [][]float64{{500, 700, 900}},
		Durations: [][]float64{{1, 2, 3}},
	}
	out := app.Score([]domain.PropertyCandidate{cand(1, 23.8, 90.4)}, pois, m)
	for _, leg := range out[0].Legs {
		assert.Equal(t, 1.0, leg.Weight)
		assert.Equal(t, leg.DistanceMeters, leg.WeightedDistance)
	}
	assert.Equal(t, 2100.0, out[0].Score)
}

func TestScore_NoPOIsIsUnscored(t *testing.T) {
	cands := []domain.PropertyCandidate{cand(1, 23.8, 90.4), cand(2, 23.7, 90.4)}
	out := app.Score(cands, nil, domain.Matrix{})
	require.Len(t, out, 2)
	for _, sc := range out {
		assert.True(t, math.IsInf(sc.Score, 1))
		assert.Empty(t, sc.Legs)
		assert.False(t, sc.Scored())
	}
}

func TestScore_UnroutableAndZeroWeight(t *testing.T) {
	pois := []domain.PointOfInterest{
		poi(23.7, 90.3),
		{Latitude: 23.9, Longitude: 90.5, Weight: ptr(0.0)},
	}
	m := domain.Matrix{
		Distances: [][]float64{{math.Inf(1), math.Inf(1)}, {100, math.Inf(1)}},
		Durations: [][]float64{{math.Inf(1), math.Inf(1)}, {10, math.Inf(1)}},
	}
	out := app.Score([]domain.PropertyCandidate{cand(1, 23.8, 90.4), cand(2, 23.7, 90.4)}, pois, m)
	assert.True(t, math.IsInf(out[0].Score, 1), "unroutable leg keeps candidate unscored")
	assert.Equal(t, 100.0, out[1].Score, "zero weight ignores an unroutable POI")
	assert.False(t, math.IsNaN(out[0].Legs[1].WeightedDistance))
}

func TestRank_StableAscending(t *testing.T) {
	sc := []domain.ScoredCandidate{
		{Property: cand(1, 0, 0), Score: 50},
		{Property: cand(2, 0, 0), Score: 10},
		{Property: cand(3, 0, 0), Score: math.Inf(1)},
		{Property: cand(4, 0, 0), Score: 30},
		{Property: cand(5, 0, 0), Score: 10},
	}
	app.Rank(sc)
	ids := make([]int64, len(sc))
	for i, s := range sc {
		ids[i] = s.Property.ID
	}
	assert.Equal(t, []int64{2, 5, 4, 1, 3}, ids)
}
