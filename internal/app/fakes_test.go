package app_test

import (
	"context"
	"sync"

	"homefinder/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	cands      []domain.PropertyCandidate
	props      map[int64]domain.Property
	err        error
	lastFilter domain.CandidateFilter
	calls      int
}

func (f *fakeRepo) UpsertProperty(ctx context.Context, p domain.Property) (int64, error) {
	return p.ID, nil
}

func (f *fakeRepo) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	p, ok := f.props[id]
	if !ok {
		return domain.Property{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) FindCandidates(ctx context.Context, flt domain.CandidateFilter) ([]domain.PropertyCandidate, error) {
	f.calls++
	f.lastFilter = flt
	if f.err != nil {
		return nil, f.err
	}
	out := f.cands
	if flt.Limit > 0 && len(out) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

// fakeMatrix answers from a distance table keyed by origin row; durations are distance/10.
type fakeMatrix struct {
	mu      sync.Mutex
	rows    [][]float64
	err     error
	calls   int
	origins [][]domain.Coordinate
	dests   [][]domain.Coordinate
}

func (f *fakeMatrix) FetchMatrix(ctx context.Context, origins, destinations []domain.Coordinate) (domain.Matrix, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.origins = append(f.origins, origins)
	f.dests = append(f.dests, destinations)
	if f.err != nil {
		return domain.Matrix{}, f.err
	}
	m := domain.Matrix{
		Distances: make([][]float64, len(origins)),
		Durations: make([][]float64, len(origins)),
	}
	for i := range origins {
		m.Distances[i] = make([]float64, len(destinations))
		m.Durations[i] = make([]float64, len(destinations))
		for j := range destinations {
			d := 100.0
			if i < len(f.rows) && j < len(f.rows[i]) {
				d = f.rows[i][j]
			}
			m.Distances[i][j] = d
			m.Durations[i][j] = d / 10
		}
	}
	return m, nil
}

func cand(id int64, lat, lon float64) domain.PropertyCandidate {
	return domain.PropertyCandidate{ID: id, HouseName: "house", Latitude: lat, Longitude: lon}
}

func poi(lat, lon float64) domain.PointOfInterest {
	return domain.PointOfInterest{Latitude: lat, Longitude: lon}
}

func ptr[T any](v T) *T { return &v }
