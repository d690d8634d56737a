package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // Normal operation, requests pass through
	StateOpen                  // Failure threshold exceeded, requests blocked
	StateHalfOpen              // Testing if backend recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Common errors
var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// BreakerConfig holds circuit breaker configuration
type BreakerConfig struct {
	// Name identifies this circuit breaker (backend name)
	Name string

	// MaxRequests is the number of probe requests allowed in half-open state
	MaxRequests uint32

	// Interval is the rolling window in closed state for clearing counts
	Interval time.Duration

	// Timeout is the period of open state before switching to half-open
	Timeout time.Duration

	// MinimumThroughput is the evaluated-request floor before the failure
	// ratio is considered at all
	MinimumThroughput uint32

	// FailureRatio at or above which the breaker trips
	FailureRatio float64

	// OnStateChange is called whenever the circuit state changes
	OnStateChange func(name string, from State, to State)
}

// DefaultBreakerConfig matches the gateway's backend policy: 10 s rolling
// window, at least 5 evaluated requests, trip at 50% transient failures,
// stay open 30 s, admit a single half-open probe.
func DefaultBreakerConfig(name string) *BreakerConfig {
	return &BreakerConfig{
		Name:              name,
		MaxRequests:       1,
		Interval:          10 * time.Second,
		Timeout:           30 * time.Second,
		MinimumThroughput: 5,
		FailureRatio:      0.5,
		OnStateChange: func(name string, from State, to State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
}

// Counts holds evaluated request/outcome counts for the current generation.
// Requests tracks admissions (half-open gating); TotalSuccesses and
// TotalFailures track only evaluated outcomes — bypassed errors appear in
// neither.
type Counts struct {
	Requests       uint32
	TotalSuccesses uint32
	TotalFailures  uint32
}

// Evaluated returns the number of requests that completed with a counted
// outcome.
func (c Counts) Evaluated() uint32 {
	return c.TotalSuccesses + c.TotalFailures
}

// FailureRatio returns the failure ratio over evaluated requests.
func (c Counts) FailureRatio() float64 {
	if c.Evaluated() == 0 {
		return 0.0
	}
	return float64(c.TotalFailures) / float64(c.Evaluated())
}

func (c *Counts) clear() {
	c.Requests = 0
	c.TotalSuccesses = 0
	c.TotalFailures = 0
}

// outcome of a single execution as seen by breaker accounting.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFailure         // transient error: counts toward tripping
	outcomeBypass          // non-transient error: no accounting at all
)

// Breaker implements the circuit breaker pattern with transient-only
// failure accounting. State is shared by every caller of the owning
// policy; transitions are observed monotonically (an execution that
// begins after an open transition sees open).
type Breaker struct {
	cfg *BreakerConfig

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	expiry     time.Time
}

// NewBreaker creates a circuit breaker in the closed state.
func NewBreaker(cfg *BreakerConfig) *Breaker {
	if cfg == nil {
		cfg = DefaultBreakerConfig("default")
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	b := &Breaker{cfg: cfg, state: StateClosed}
	b.toNewGeneration(time.Now())
	return b
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.cfg.Name
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, _ := b.currentState(time.Now())
	return state
}

// Counts returns the current generation's counts.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Execute runs op if the breaker admits it. A transient error counts as a
// failure, a non-transient error is passed through without accounting,
// and ErrCircuitOpen is returned without invoking op when the breaker is
// open.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	generation, err := b.beforeRequest()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			b.afterRequest(generation, outcomeFailure)
			panic(r)
		}
	}()

	err = op(ctx)
	switch {
	case err == nil:
		b.afterRequest(generation, outcomeSuccess)
	case IsTransient(err):
		b.afterRequest(generation, outcomeFailure)
	default:
		b.afterRequest(generation, outcomeBypass)
	}
	return err
}

func (b *Breaker) beforeRequest() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state, generation := b.currentState(now)

	if state == StateOpen {
		return generation, ErrCircuitOpen
	}
	if state == StateHalfOpen && b.counts.Requests >= b.cfg.MaxRequests {
		return generation, ErrTooManyRequests
	}

	b.counts.Requests++
	return generation, nil
}

func (b *Breaker) afterRequest(generation uint64, result outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state, currentGeneration := b.currentState(now)

	// Ignore stale results from a previous generation
	if generation != currentGeneration {
		return
	}

	switch result {
	case outcomeSuccess:
		b.onSuccess(state, now)
	case outcomeFailure:
		b.onFailure(state, now)
	case outcomeBypass:
		// Release the admission so a half-open probe slot is not burned
		// by an error that carries no signal about backend health.
		if b.counts.Requests > 0 {
			b.counts.Requests--
		}
	}
}

func (b *Breaker) onSuccess(state State, now time.Time) {
	switch state {
	case StateClosed:
		b.counts.TotalSuccesses++
	case StateHalfOpen:
		b.counts.TotalSuccesses++
		b.setState(StateClosed, now)
	}
}

func (b *Breaker) onFailure(state State, now time.Time) {
	switch state {
	case StateClosed:
		b.counts.TotalFailures++
		if b.counts.Evaluated() >= b.cfg.MinimumThroughput &&
			b.counts.FailureRatio() >= b.cfg.FailureRatio {
			b.setState(StateOpen, now)
		}
	case StateHalfOpen:
		b.setState(StateOpen, now)
	}
}

// currentState returns the current state and possibly advances it:
// closed-state windows roll over, open transitions to half-open after
// the cool-down expires.
func (b *Breaker) currentState(now time.Time) (State, uint64) {
	switch b.state {
	case StateClosed:
		if !b.expiry.IsZero() && b.expiry.Before(now) {
			b.toNewGeneration(now)
		}
	case StateOpen:
		if b.expiry.Before(now) {
			b.setState(StateHalfOpen, now)
		}
	}
	return b.state, b.generation
}

func (b *Breaker) setState(state State, now time.Time) {
	if b.state == state {
		return
	}

	prevState := b.state
	b.state = state

	b.toNewGeneration(now)

	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, prevState, state)
	}
}

func (b *Breaker) toNewGeneration(now time.Time) {
	b.generation++
	b.counts.clear()

	var expiry time.Time
	switch b.state {
	case StateClosed:
		if b.cfg.Interval > 0 {
			expiry = now.Add(b.cfg.Interval)
		}
	case StateOpen:
		expiry = now.Add(b.cfg.Timeout)
	}
	b.expiry = expiry
}
