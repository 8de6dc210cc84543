package osrm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"

	"homefinder/internal/adapters/observability"
	"homefinder/internal/domain"
)

// Breaker wraps a MatrixClient with a circuit breaker.
// Only routing failures count; invalid input, cancellations and deadlines leave the breaker alone.
// While open, calls fail fast with a *domain.RoutingError.
type Breaker struct {
	next domain.MatrixClient
	cb   *gobreaker.CircuitBreaker[domain.Matrix]
}

// NewBreaker opens after failures consecutive routing errors and probes again after cooldown.
func NewBreaker(next domain.MatrixClient, failures uint32, cooldown time.Duration) *Breaker {
	if failures == 0 {
		failures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	const name = "osrm-table"
	observability.SetBreakerState(name, 0)

	cb := gobreaker.NewCircuitBreaker[domain.Matrix](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			var re *domain.RoutingError
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			return !errors.As(err, &re)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			observability.SetBreakerState(name, stateValue(to))
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) FetchMatrix(ctx context.Context, origins, destinations []domain.Coordinate) (domain.Matrix, error) {
	m, err := b.cb.Execute(func() (domain.Matrix, error) {
		return b.next.FetchMatrix(ctx, origins, destinations)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.Matrix{}, &domain.RoutingError{Message: "circuit open", Err: err}
	}
	return m, err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
