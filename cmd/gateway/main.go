package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ritunjaym/vector-catalog-service/internal/api"
	"github.com/ritunjaym/vector-catalog-service/internal/backend"
	"github.com/ritunjaym/vector-catalog-service/internal/cache"
	"github.com/ritunjaym/vector-catalog-service/internal/config"
	"github.com/ritunjaym/vector-catalog-service/internal/health"
	"github.com/ritunjaym/vector-catalog-service/internal/middleware"
	"github.com/ritunjaym/vector-catalog-service/internal/monitoring"
	"github.com/ritunjaym/vector-catalog-service/internal/resilience"
	"github.com/ritunjaym/vector-catalog-service/internal/router"
	"github.com/ritunjaym/vector-catalog-service/internal/search"
)

func main() {
	// Local development convenience; absent .env is fine
	_ = godotenv.Load()

	cfg := loadConfig()

	metrics := monitoring.NewMetrics()

	// One multiplexed HTTP/2 channel for both sidecar services
	conn, err := backend.Dial(cfg.Sidecar.GrpcAddress)
	if err != nil {
		log.Fatalf("Failed to dial sidecar at %s: %v", cfg.Sidecar.GrpcAddress, err)
	}
	defer conn.Close()

	// Process-wide breakers, one per backend, with the open/closed gauge
	// bound to state transitions
	embBreakerCfg := resilience.DefaultBreakerConfig("embedding")
	embBreakerCfg.OnStateChange = breakerStateHook(metrics)
	idxBreakerCfg := resilience.DefaultBreakerConfig("index")
	idxBreakerCfg.OnStateChange = breakerStateHook(metrics)

	embPolicy := resilience.NewPolicy("embedding",
		time.Duration(cfg.Embedding.TimeoutSeconds)*time.Second,
		resilience.NewBreaker(embBreakerCfg))
	idxPolicy := resilience.NewPolicy("index",
		time.Duration(cfg.Index.TimeoutSeconds)*time.Second,
		resilience.NewBreaker(idxBreakerCfg))

	embClient := backend.NewEmbeddingClient(
		backend.NewEmbeddingServiceClient(conn), embPolicy, cfg.Embedding.ModelName, metrics)
	idxClient := backend.NewIndexClient(backend.NewIndexServiceClient(conn), idxPolicy)

	cacheBackend := connectCache(cfg.Redis.ConnectionString)
	responseCache := cache.New(cacheBackend, cfg.Redis.KeyPrefix,
		time.Duration(cfg.Redis.DefaultCacheTtlSeconds)*time.Second)
	defer responseCache.Close()

	shardRouter := router.New(cfg.Faiss.DefaultShardKey)

	orchestrator := search.NewOrchestrator(
		embClient, idxClient, responseCache, shardRouter, metrics,
		cfg.Faiss.DefaultTopK, cfg.Faiss.DefaultNprobe)

	checker := health.NewChecker(responseCache, idxClient, embPolicy, idxPolicy)

	limiter := middleware.NewFixedWindowLimiter(middleware.RateLimitConfig{
		PermitLimit: cfg.RateLimit.PermitLimit,
		Window:      time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		QueueLimit:  cfg.RateLimit.QueueLimit,
	}, metrics)

	server := api.NewServer(orchestrator, idxClient, checker, limiter)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Handler(),
		// Write timeout must outlast the worst-case pipeline:
		// embedding (10 s) + index (5 s) + overhead
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown (Cloud Run sends SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("shutdown signal received, draining")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("gateway listening",
		"port", cfg.Server.Port,
		"sidecar", cfg.Sidecar.GrpcAddress,
		"default_shard", cfg.Faiss.DefaultShardKey,
		"model", cfg.Embedding.ModelName,
		"cache_ttl", responseCache.DefaultTTL())

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
	slog.Info("gateway stopped")
}

func loadConfig() *config.Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		return config.FromEnv()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", path, err)
	}
	return cfg
}

// connectCache connects to Redis, falling back to the in-memory backend
// so a missing cache degrades performance instead of availability.
func connectCache(addr string) cache.Backend {
	backendImpl, err := cache.NewGoRedisBackend(addr)
	if err != nil {
		slog.Warn("Redis unavailable, falling back to in-memory cache", "addr", addr, "error", err)
		return cache.NewMemoryBackend()
	}
	return backendImpl
}

func breakerStateHook(metrics *monitoring.Metrics) func(name string, from, to resilience.State) {
	return func(name string, from, to resilience.State) {
		slog.Warn("circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
		open := 0.0
		if to == resilience.StateOpen {
			open = 1.0
		}
		metrics.CircuitBreakerOpen.WithLabelValues(name).Set(open)
	}
}
