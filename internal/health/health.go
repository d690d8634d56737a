// Package health implements the liveness and readiness probes.
package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ritunjaym/vector-catalog-service/internal/backend"
	"github.com/ritunjaym/vector-catalog-service/internal/cache"
	"github.com/ritunjaym/vector-catalog-service/internal/resilience"
)

// probeTimeout bounds the whole readiness evaluation.
const probeTimeout = 3 * time.Second

// Check status values per dependency.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

// Report is the readiness probe result.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Healthy reports whether every dependency check passed.
func (r *Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Checker probes the tagged dependencies: cache (PING) and index backend
// (GetIndexInfo). The process itself is always live; readiness is the
// conjunction of the dependency probes. Breaker states from the given
// policies are reported alongside the checks but do not gate readiness:
// an open index circuit still serves degraded responses.
type Checker struct {
	cache    *cache.Cache
	index    *backend.IndexClient
	policies []*resilience.Policy
}

// NewChecker wires the dependency probes.
func NewChecker(c *cache.Cache, index *backend.IndexClient, policies ...*resilience.Policy) *Checker {
	return &Checker{cache: c, index: index, policies: policies}
}

// Ready runs all dependency probes in parallel under the shared deadline.
func (c *Checker) Ready(ctx context.Context) *Report {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	report := &Report{Status: StatusHealthy, Checks: map[string]string{}}
	var mu sync.Mutex
	record := func(name, status string) {
		mu.Lock()
		defer mu.Unlock()
		report.Checks[name] = status
		if status != StatusHealthy && report.Status == StatusHealthy {
			report.Status = status
		}
		if status == StatusUnhealthy {
			report.Status = StatusUnhealthy
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		record("cache", classify(c.cache.Ping(ctx)))
		return nil
	})
	g.Go(func() error {
		_, err := c.index.Info(ctx, "")
		record("index", classify(err))
		return nil
	})
	g.Wait()

	for _, p := range c.policies {
		report.Checks[p.Name()+"_breaker"] = p.Breaker().State().String()
	}

	return report
}

// classify maps a probe error to a check status: nil is healthy, an
// unavailable/timeout signal is unhealthy, anything unexpected is
// degraded.
func classify(err error) string {
	if err == nil {
		return StatusHealthy
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return StatusUnhealthy
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded:
			return StatusUnhealthy
		}
	}
	return StatusDegraded
}
