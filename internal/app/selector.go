package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"homefinder/internal/adapters/observability"
	"homefinder/internal/domain"
)

var ErrNoCoordinates = errors.New("property has no usable coordinates")

// Filters restricts candidate retrieval. Nil or non-positive values are not applied.
type Filters struct {
	MinPrice *float64
	MaxPrice *float64
	Rooms    *int
}

// SelectionRequest is one find-best query. Weights[j] applies to POIs[j] as submitted,
// before invalid POIs are dropped, and overrides the POI's own weight when finite.
type SelectionRequest struct {
	POIs    []domain.PointOfInterest
	Filters Filters
	Limit   int
	Weights []float64
}

type SelectionService struct {
	repo         domain.PropertyRepository
	matrix       domain.MatrixClient
	defaultLimit int
	maxLimit     int
}

func NewSelectionService(r domain.PropertyRepository, m domain.MatrixClient, defaultLimit, maxLimit int) *SelectionService {
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &SelectionService{repo: r, matrix: m, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// FindBest ranks candidates by weighted travel distance to every POI, ascending.
// Routing failures never surface as errors: every candidate is Unscored and Degraded is set.
// Only a candidate-store failure is returned.
func (s *SelectionService) FindBest(ctx context.Context, req SelectionRequest) (domain.Selection, error) {
	empty := domain.Selection{BestScore: domain.Unscored, Legs: []domain.RouteLeg{}, Ranked: []domain.ScoredCandidate{}}

	pois := ValidPOIs(req.POIs, req.Weights)
	if len(pois) == 0 {
		observability.ObserveSelection("no_pois", 0)
		return empty, nil
	}

	cands, err := s.repo.FindCandidates(ctx, s.candidateFilter(req))
	if err != nil {
		observability.ObserveSelection("error", 0)
		return domain.Selection{}, fmt.Errorf("find candidates: %w", err)
	}
	cands = withCoordinates(cands)
	log.Debug().Int("pois", len(pois)).Int("candidates", len(cands)).Msg("scoring candidates")
	if len(cands) == 0 {
		observability.ObserveSelection("no_candidates", 0)
		return empty, nil
	}

	origins := make([]domain.Coordinate, len(cands))
	for i, c := range cands {
		origins[i] = c.Coordinate()
	}
	dests := make([]domain.Coordinate, len(pois))
	for j, p := range pois {
		dests[j] = p.Coordinate()
	}

	sel := domain.Selection{BestScore: domain.Unscored, Legs: []domain.RouteLeg{}}
	outcome := "ok"
	m, err := s.matrix.FetchMatrix(ctx, origins, dests)
	if err != nil {
		log.Warn().Err(err).Str("error_type", observability.LabelErr(err)).Int("candidates", len(cands)).Int("pois", len(pois)).Msg("routing failed, returning unscored candidates")
		sel.Ranked = unscored(cands)
		sel.Degraded = true
		outcome = "degraded"
	} else {
		sel.Ranked = Score(cands, pois, m)
	}

	Rank(sel.Ranked)
	if len(sel.Ranked) > 0 && sel.Ranked[0].Scored() {
		top := sel.Ranked[0]
		best := top.Property
		sel.Best, sel.BestScore, sel.Legs = &best, top.Score, top.Legs
	}

	observability.ObserveSelection(outcome, len(cands))
	ev := log.Info().Int("candidates", len(cands)).Bool("degraded", sel.Degraded)
	if sel.Best != nil {
		ev = ev.Int64("best_id", sel.Best.ID).Float64("best_score", sel.BestScore)
	}
	ev.Msg("selection ranked")
	return sel, nil
}

// Distances returns one leg per valid POI from a single stored property.
// Unlike FindBest, routing errors are returned to the caller.
func (s *SelectionService) Distances(ctx context.Context, propertyID int64, pois []domain.PointOfInterest) ([]domain.RouteLeg, error) {
	p, err := s.repo.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	c, ok := p.Candidate()
	if !ok {
		return nil, ErrNoCoordinates
	}
	valid := ValidPOIs(pois, nil)
	if len(valid) == 0 {
		return []domain.RouteLeg{}, nil
	}
	dests := make([]domain.Coordinate, len(valid))
	for j, v := range valid {
		dests[j] = v.Coordinate()
	}
	m, err := s.matrix.FetchMatrix(ctx, []domain.Coordinate{c.Coordinate()}, dests)
	if err != nil {
		return nil, err
	}
	return Score([]domain.PropertyCandidate{c}, valid, m)[0].Legs, nil
}

func (s *SelectionService) Property(ctx context.Context, id int64) (domain.Property, error) {
	return s.repo.GetProperty(ctx, id)
}

// ValidPOIs applies per-index weight overrides and drops POIs without valid coordinates.
func ValidPOIs(pois []domain.PointOfInterest, weights []float64) []domain.PointOfInterest {
	out := make([]domain.PointOfInterest, 0, len(pois))
	for j, p := range pois {
		if j < len(weights) && !math.IsInf(weights[j], 0) && !math.IsNaN(weights[j]) {
			w := weights[j]
			p.Weight = &w
		}
		if !p.Coordinate().Valid() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Rank sorts ascending by score; equal scores keep retrieval order.
func Rank(sc []domain.ScoredCandidate) {
	sort.SliceStable(sc, func(i, j int) bool { return sc[i].Score < sc[j].Score })
}

func (s *SelectionService) candidateFilter(req SelectionRequest) domain.CandidateFilter {
	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	f := domain.CandidateFilter{Limit: limit}
	if v := req.Filters.MinPrice; v != nil && *v > 0 {
		f.MinPrice = v
	}
	if v := req.Filters.MaxPrice; v != nil && *v > 0 {
		f.MaxPrice = v
	}
	if v := req.Filters.Rooms; v != nil && *v > 0 {
		f.Rooms = v
	}
	return f
}

func withCoordinates(in []domain.PropertyCandidate) []domain.PropertyCandidate {
	out := make([]domain.PropertyCandidate, 0, len(in))
	for _, c := range in {
		if c.Coordinate().Valid() {
			out = append(out, c)
		}
	}
	return out
}
