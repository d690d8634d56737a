package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ritunjaym/vector-catalog-service/internal/backend"
	"github.com/ritunjaym/vector-catalog-service/internal/cache"
	"github.com/ritunjaym/vector-catalog-service/internal/resilience"
	"github.com/ritunjaym/vector-catalog-service/pb"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, StatusHealthy},
		{"unavailable", status.Error(codes.Unavailable, "down"), StatusUnhealthy},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), StatusUnhealthy},
		{"context deadline", context.DeadlineExceeded, StatusUnhealthy},
		{"not found", status.Error(codes.NotFound, "missing"), StatusDegraded},
		{"plain", errors.New("weird"), StatusDegraded},
	}
	for _, tc := range cases {
		if got := classify(tc.err); got != tc.want {
			t.Errorf("%s: classify=%s, want %s", tc.name, got, tc.want)
		}
	}
}

func newIndexClient(mock *pb.MockIndexClient) *backend.IndexClient {
	return backend.NewIndexClient(mock,
		resilience.NewPolicy("index", 5*time.Second,
			resilience.NewBreaker(resilience.DefaultBreakerConfig("index"))))
}

func TestReady_AllHealthy(t *testing.T) {
	c := cache.New(cache.NewMemoryBackend(), "vc:", time.Minute)
	checker := NewChecker(c, newIndexClient(&pb.MockIndexClient{Shard: "nyc_taxi_2023"}))

	report := checker.Ready(context.Background())
	if !report.Healthy() {
		t.Fatalf("expected a healthy report, got %+v", report)
	}
	if report.Checks["cache"] != StatusHealthy || report.Checks["index"] != StatusHealthy {
		t.Errorf("both checks should be healthy: %+v", report.Checks)
	}
}

func TestReady_IndexUnavailable(t *testing.T) {
	c := cache.New(cache.NewMemoryBackend(), "vc:", time.Minute)
	idx := &pb.MockIndexClient{Err: status.Error(codes.Unavailable, "index down")}
	checker := NewChecker(c, newIndexClient(idx))

	report := checker.Ready(context.Background())
	if report.Healthy() {
		t.Fatal("an unavailable index must fail readiness")
	}
	if report.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy overall, got %s", report.Status)
	}
	if report.Checks["cache"] != StatusHealthy {
		t.Errorf("the cache check should still be healthy: %+v", report.Checks)
	}
}

func TestReady_ReportsBreakerStates(t *testing.T) {
	c := cache.New(cache.NewMemoryBackend(), "vc:", time.Minute)

	idxBreaker := resilience.NewBreaker(resilience.DefaultBreakerConfig("index"))
	idxPolicy := resilience.NewPolicy("index", 5*time.Second, idxBreaker)
	idxClient := backend.NewIndexClient(&pb.MockIndexClient{Shard: "nyc_taxi_2023"}, idxPolicy)
	embPolicy := resilience.NewPolicy("embedding", 10*time.Second,
		resilience.NewBreaker(resilience.DefaultBreakerConfig("embedding")))

	checker := NewChecker(c, idxClient, embPolicy, idxPolicy)

	report := checker.Ready(context.Background())
	if report.Checks["embedding_breaker"] != "CLOSED" || report.Checks["index_breaker"] != "CLOSED" {
		t.Errorf("closed breakers should be reported: %+v", report.Checks)
	}

	// Trip the index breaker; readiness reports it but is not gated by it
	failing := func(ctx context.Context) error {
		return status.Error(codes.Unavailable, "index down")
	}
	for i := 0; i < 5; i++ {
		idxBreaker.Execute(context.Background(), failing)
	}

	report = checker.Ready(context.Background())
	if report.Checks["index_breaker"] != "OPEN" {
		t.Errorf("open breaker should be reported: %+v", report.Checks)
	}
	if !report.Healthy() {
		t.Error("an open breaker alone must not fail readiness")
	}
}

type failingPingBackend struct {
	cache.Backend
}

func (failingPingBackend) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestReady_CacheDegraded(t *testing.T) {
	c := cache.New(failingPingBackend{Backend: cache.NewMemoryBackend()}, "vc:", time.Minute)
	checker := NewChecker(c, newIndexClient(&pb.MockIndexClient{Shard: "nyc_taxi_2023"}))

	report := checker.Ready(context.Background())
	if report.Healthy() {
		t.Fatal("a failing cache ping must fail readiness")
	}
	if report.Checks["cache"] != StatusDegraded {
		t.Errorf("a generic ping failure should classify as degraded: %+v", report.Checks)
	}
}
