// Package middleware provides the admission layer: rate limiting,
// correlation ids, and request logging.
package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ritunjaym/vector-catalog-service/internal/monitoring"
)

// ErrRateLimited is returned when both the permit budget and the queue of
// the current window are exhausted.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitConfig defines the fixed-window thresholds.
type RateLimitConfig struct {
	PermitLimit int           // Requests admitted immediately per window
	Window      time.Duration // Window length
	QueueLimit  int           // Requests parked until the window rolls, oldest-first
}

// FixedWindowLimiter admits up to PermitLimit requests per window, parks
// up to QueueLimit more until the window rolls, and rejects the rest.
// The partition key is the process: rate limiting is the gateway's sole
// intentional back-pressure signal, not a per-caller quota.
type FixedWindowLimiter struct {
	mu          sync.Mutex
	cfg         RateLimitConfig
	windowStart time.Time
	granted     int
	queued      int

	metrics *monitoring.Metrics
	logger  *slog.Logger
}

// NewFixedWindowLimiter creates a limiter with the given thresholds,
// falling back to 100 permits / 10 s / 50 queued when zero-valued.
// metrics may be nil.
func NewFixedWindowLimiter(cfg RateLimitConfig, metrics *monitoring.Metrics) *FixedWindowLimiter {
	if cfg.PermitLimit == 0 {
		cfg.PermitLimit = 100
	}
	if cfg.Window == 0 {
		cfg.Window = 10 * time.Second
	}
	if cfg.QueueLimit == 0 {
		cfg.QueueLimit = 50
	}
	return &FixedWindowLimiter{
		cfg:         cfg,
		windowStart: time.Now(),
		metrics:     metrics,
		logger:      slog.Default().With("component", "rate-limiter"),
	}
}

// Acquire blocks until a permit is granted, the window queue is full
// (ErrRateLimited), or the request context ends.
func (l *FixedWindowLimiter) Acquire(r *http.Request) error {
	l.mu.Lock()
	now := time.Now()
	l.roll(now)

	if l.granted < l.cfg.PermitLimit {
		l.granted++
		l.mu.Unlock()
		return nil
	}

	if l.queued >= l.cfg.QueueLimit {
		l.mu.Unlock()
		l.logger.Warn("rate limit exceeded", "permit_limit", l.cfg.PermitLimit, "queue_limit", l.cfg.QueueLimit)
		if l.metrics != nil {
			l.metrics.RateLimited.Inc()
		}
		return ErrRateLimited
	}

	l.queued++
	wait := l.windowStart.Add(l.cfg.Window).Sub(now)
	l.mu.Unlock()

	select {
	case <-r.Context().Done():
		l.mu.Lock()
		l.queued--
		l.mu.Unlock()
		return r.Context().Err()
	case <-time.After(wait):
		l.mu.Lock()
		l.queued--
		l.roll(time.Now())
		l.granted++
		l.mu.Unlock()
		return nil
	}
}

// RetryAfterSeconds reports how long until the current window rolls,
// rounded up, for the Retry-After header.
func (l *FixedWindowLimiter) RetryAfterSeconds() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	remaining := l.windowStart.Add(l.cfg.Window).Sub(time.Now())
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// roll starts a fresh window when the current one has elapsed. Caller
// holds the lock.
func (l *FixedWindowLimiter) roll(now time.Time) {
	if now.Sub(l.windowStart) >= l.cfg.Window {
		l.windowStart = now
		l.granted = 0
	}
}

// Middleware enforces the limiter before any request work begins.
func (l *FixedWindowLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := l.Acquire(r); err != nil {
			if errors.Is(err, ErrRateLimited) {
				writeRateLimited(w, r, l.RetryAfterSeconds())
			}
			// Context cancellation: the client is gone, nothing to write.
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeRateLimited(w http.ResponseWriter, r *http.Request, retryAfter int) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]any{
		"type":          "about:blank",
		"title":         "Too Many Requests",
		"status":        http.StatusTooManyRequests,
		"detail":        "rate limit exceeded",
		"correlationId": monitoring.CorrelationIDFromContext(r.Context()),
	})
}
