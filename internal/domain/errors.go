package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// RoutingError reports a failed or malformed routing-service response.
// Status is 0 when no HTTP response was received.
type RoutingError struct {
	Status  int
	Message string
	Err     error
}

func (e *RoutingError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("routing service: status %d: %s", e.Status, e.Message)
	}
	return "routing service: " + e.Message
}

func (e *RoutingError) Unwrap() error { return e.Err }
