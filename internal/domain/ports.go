package domain

import "context"

type PropertyRepository interface {
	// Write paths
	UpsertProperty(ctx context.Context, p Property) (int64, error)

	// Read paths
	GetProperty(ctx context.Context, id int64) (Property, error)
	// FindCandidates returns listings with coordinates matching f, in id order, at most f.Limit.
	FindCandidates(ctx context.Context, f CandidateFilter) ([]PropertyCandidate, error)
}

// MatrixClient computes travel distance/duration tables.
type MatrixClient interface {
	// FetchMatrix returns a len(origins) x len(destinations) matrix or a *RoutingError.
	FetchMatrix(ctx context.Context, origins, destinations []Coordinate) (Matrix, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
