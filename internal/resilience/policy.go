package resilience

import (
	"context"
	"time"
)

// Policy composes the per-backend resilience layers around an operation.
// Logical ordering, outer to inner: Timeout -> CircuitBreaker -> Retry ->
// operation. The retry loop sits inside the breaker so that one composed
// call records exactly one breaker outcome, however many attempts it took.
type Policy struct {
	name       string
	timeout    time.Duration
	maxRetries int
	breaker    *Breaker
}

// NewPolicy builds a policy with the standard retry budget. The breaker is
// a process-wide singleton per backend: every caller of the policy shares
// its state.
func NewPolicy(name string, timeout time.Duration, breaker *Breaker) *Policy {
	return &Policy{
		name:       name,
		timeout:    timeout,
		maxRetries: DefaultMaxRetries,
		breaker:    breaker,
	}
}

// Name returns the policy name (backend identifier).
func (p *Policy) Name() string {
	return p.name
}

// Breaker exposes the shared breaker, for health reporting and metrics.
func (p *Policy) Breaker() *Breaker {
	return p.breaker
}

// Execute runs op under the composed policy. The wall-clock timeout is
// independent of caller cancellation; whichever fires first wins. Its
// expiry surfaces as context.DeadlineExceeded, which is transient for
// breaker accounting but terminal for the caller.
func (p *Policy) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.breaker.Execute(ctx, func(ctx context.Context) error {
		return Retry(ctx, p.maxRetries, op)
	})
}
