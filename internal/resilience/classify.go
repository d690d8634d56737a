// Package resilience wraps outbound backend calls in a composed policy:
// Timeout -> CircuitBreaker -> Retry -> operation.
package resilience

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// IsTransient reports whether an RPC error is worth retrying and whether
// it counts toward circuit breaker failure accounting. Only unavailable,
// deadline-exceeded, resource-exhausted and internal qualify; everything
// else (not-found, invalid-argument, ...) bypasses retry and breaker.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	s, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch s.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal:
		return true
	default:
		return false
	}
}
