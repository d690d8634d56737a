package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ritunjaym/vector-catalog-service/internal/monitoring"
)

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	return httptest.NewRequest("POST", "/api/v1/search", nil)
}

func TestLimiter_AdmitsWithinPermits(t *testing.T) {
	l := NewFixedWindowLimiter(RateLimitConfig{
		PermitLimit: 3,
		Window:      time.Minute,
		QueueLimit:  1,
	}, nil)

	for i := 0; i < 3; i++ {
		if err := l.Acquire(newRequest(t)); err != nil {
			t.Fatalf("request %d should be admitted immediately: %v", i+1, err)
		}
	}
}

func TestLimiter_RejectsWhenQueueFull(t *testing.T) {
	l := NewFixedWindowLimiter(RateLimitConfig{
		PermitLimit: 1,
		Window:      time.Minute,
		QueueLimit:  1,
	}, nil)

	if err := l.Acquire(newRequest(t)); err != nil {
		t.Fatalf("first request should be admitted: %v", err)
	}

	// Second request occupies the single queue slot
	queued := make(chan error, 1)
	go func() { queued <- l.Acquire(newRequest(t)) }()
	time.Sleep(20 * time.Millisecond)

	// Third request finds both budget and queue exhausted
	if err := l.Acquire(newRequest(t)); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited with a full queue, got %v", err)
	}
}

func TestLimiter_QueuedRequestAdmittedAfterWindowRolls(t *testing.T) {
	l := NewFixedWindowLimiter(RateLimitConfig{
		PermitLimit: 1,
		Window:      50 * time.Millisecond,
		QueueLimit:  1,
	}, nil)

	if err := l.Acquire(newRequest(t)); err != nil {
		t.Fatalf("first request should be admitted: %v", err)
	}

	start := time.Now()
	if err := l.Acquire(newRequest(t)); err != nil {
		t.Fatalf("queued request should be admitted once the window rolls: %v", err)
	}
	if waited := time.Since(start); waited < 30*time.Millisecond {
		t.Errorf("queued request should park until the window end, waited only %v", waited)
	}
}

func TestLimiter_QueuedRequestHonorsCancellation(t *testing.T) {
	l := NewFixedWindowLimiter(RateLimitConfig{
		PermitLimit: 1,
		Window:      time.Minute,
		QueueLimit:  1,
	}, nil)

	if err := l.Acquire(newRequest(t)); err != nil {
		t.Fatalf("first request should be admitted: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	req := newRequest(t).WithContext(ctx)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := l.Acquire(req); !errors.Is(err, context.Canceled) {
		t.Errorf("a parked request whose client disconnects should return the context error, got %v", err)
	}
}

func TestLimiter_RetryAfterAtLeastOneSecond(t *testing.T) {
	l := NewFixedWindowLimiter(RateLimitConfig{
		PermitLimit: 1,
		Window:      10 * time.Second,
		QueueLimit:  1,
	}, nil)

	if got := l.RetryAfterSeconds(); got < 1 || got > 10 {
		t.Errorf("Retry-After should be within the window bounds, got %d", got)
	}
}

func TestLimiter_MiddlewareWrites429Problem(t *testing.T) {
	l := NewFixedWindowLimiter(RateLimitConfig{
		PermitLimit: 1,
		Window:      time.Minute,
		QueueLimit:  1,
	}, nil)

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Exhaust the permit and the queue slot
	l.Acquire(newRequest(t))
	go l.Acquire(newRequest(t))
	time.Sleep(20 * time.Millisecond)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(t))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected a problem+json body, got Content-Type %q", ct)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}
}

func TestCorrelationID_EchoesClientHeader(t *testing.T) {
	var seen string
	handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = monitoring.CorrelationIDFromContext(r.Context())
	}))

	req := newRequest(t)
	req.Header.Set(HeaderCorrelationID, "client-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "client-supplied-id" {
		t.Errorf("context should carry the client id, got %q", seen)
	}
	if got := rec.Header().Get(HeaderCorrelationID); got != "client-supplied-id" {
		t.Errorf("response should echo the client id, got %q", got)
	}
}

func TestCorrelationID_SynthesizesWhenAbsent(t *testing.T) {
	handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(t))

	id := rec.Header().Get(HeaderCorrelationID)
	if len(id) != 16 {
		t.Fatalf("synthesized id should be 16 hex chars, got %q", id)
	}
	for _, c := range id {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("synthesized id should be lowercase hex, got %q", id)
		}
	}
}

func TestNewCorrelationID_Unique(t *testing.T) {
	a, b := NewCorrelationID(), NewCorrelationID()
	if a == b {
		t.Errorf("consecutive ids should differ: %s", a)
	}
}

func TestRequestLogging_PreservesStatus(t *testing.T) {
	handler := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(t))
	if rec.Code != http.StatusTeapot {
		t.Errorf("logging middleware must not alter the status, got %d", rec.Code)
	}
}
