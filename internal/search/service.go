package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ritunjaym/vector-catalog-service/internal/backend"
	"github.com/ritunjaym/vector-catalog-service/internal/cache"
	"github.com/ritunjaym/vector-catalog-service/internal/monitoring"
	"github.com/ritunjaym/vector-catalog-service/internal/router"
	"github.com/ritunjaym/vector-catalog-service/pb"
)

// cachePopulateTimeout bounds the detached fire-and-forget cache write.
const cachePopulateTimeout = 5 * time.Second

// Orchestrator owns one search request end-to-end. All collaborators are
// injected at construction; circuit breakers and metrics behind them are
// process-wide singletons.
type Orchestrator struct {
	embedder      *backend.EmbeddingClient
	index         *backend.IndexClient
	cache         *cache.Cache
	router        *router.ShardRouter
	metrics       *monitoring.Metrics
	defaultTopK   int
	defaultNprobe int
	logger        *slog.Logger
}

// NewOrchestrator wires the pipeline. defaultTopK and defaultNprobe are
// the configured fallbacks applied when the request omits them.
func NewOrchestrator(
	embedder *backend.EmbeddingClient,
	index *backend.IndexClient,
	c *cache.Cache,
	r *router.ShardRouter,
	metrics *monitoring.Metrics,
	defaultTopK, defaultNprobe int,
) *Orchestrator {
	return &Orchestrator{
		embedder:      embedder,
		index:         index,
		cache:         c,
		router:        r,
		metrics:       metrics,
		defaultTopK:   defaultTopK,
		defaultNprobe: defaultNprobe,
		logger:        slog.Default().With("component", "orchestrator"),
	}
}

// DefaultTopK returns the configured topK fallback, for request validation
// at the HTTP surface.
func (o *Orchestrator) DefaultTopK() int {
	return o.defaultTopK
}

// Search runs the pipeline: resolve shard, fingerprint, cache lookup,
// embed, ANN search, assemble, fire-and-forget populate. The request must
// already be validated.
func (o *Orchestrator) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	start := time.Now()
	o.metrics.ActiveSearches.Inc()
	defer o.metrics.ActiveSearches.Dec()

	ctx, span := monitoring.StartSpan(ctx, "search")
	defer span.End()
	monitoring.SetCorrelationID(ctx, monitoring.CorrelationIDFromContext(ctx))
	logger := monitoring.ContextLogger(ctx, o.logger)

	shardKey := o.router.ResolveOne(req.ShardKey)
	fingerprint := cache.Fingerprint(req.Query, req.TopK, shardKey)
	nprobe := req.Nprobe
	if nprobe == 0 {
		nprobe = o.defaultNprobe
	}

	span.SetAttributes(
		attribute.Int("search.query_length", len(req.Query)),
		attribute.Int("search.top_k", req.TopK),
		attribute.String("search.shard_key", shardKey),
		attribute.Int("search.nprobe", nprobe),
		attribute.String("search.query_hash", fingerprint),
	)

	var cached SearchResponse
	if o.cache.Get(ctx, fingerprint, &cached) {
		o.metrics.CacheHits.Inc()
		cached.CacheHit = true
		cached.TotalLatencyMs = elapsedMs(start)
		o.finishSpan(span, &cached)
		o.metrics.SearchDuration.Observe(cached.TotalLatencyMs)
		return &cached, nil
	}
	o.metrics.CacheMisses.Inc()

	// The embedder sees the original query text; only the fingerprint is
	// normalized.
	emb, err := o.embedder.Generate(ctx, req.Query)
	if err != nil {
		return nil, backendUnavailable("embedding backend unavailable", err)
	}

	resp, degraded, err := o.index.Search(ctx, emb.Vector, req.TopK, shardKey, nprobe)
	if err != nil {
		return nil, backendUnavailable("index backend unavailable", err)
	}

	out := &SearchResponse{
		Results:         o.assembleHits(logger, resp.Results, req.TopK),
		ShardKey:        shardKey,
		SearchLatencyMs: resp.SearchLatencyMs,
		CacheHit:        false,
		QueryHash:       fingerprint,
	}
	if resp.ShardKey != "" {
		out.ShardKey = resp.ShardKey
	}

	// A degraded (circuit-open) response is never cached: an empty result
	// set must not shadow real hits for the TTL.
	if !degraded {
		o.populateCache(ctx, fingerprint, *out)
	}

	out.TotalLatencyMs = elapsedMs(start)
	o.finishSpan(span, out)
	o.metrics.SearchDuration.Observe(out.TotalLatencyMs)
	return out, nil
}

// Warmup embeds a batch of queries in one sidecar round trip, searches
// each, and populates the cache. Individual search failures are counted,
// not fatal.
func (o *Orchestrator) Warmup(ctx context.Context, req *WarmupRequest) (*WarmupResponse, error) {
	logger := monitoring.ContextLogger(ctx, o.logger)
	topK := req.TopK
	if topK == 0 {
		topK = o.defaultTopK
	}
	shardKey := o.router.ResolveOne(req.ShardKey)

	embeddings, err := o.embedder.GenerateBatch(ctx, req.Queries)
	if err != nil {
		return nil, backendUnavailable("embedding backend unavailable", err)
	}

	out := &WarmupResponse{}
	for i, emb := range embeddings {
		if i >= len(req.Queries) {
			break
		}
		resp, degraded, err := o.index.Search(ctx, emb.Vector, topK, shardKey, o.defaultNprobe)
		if err != nil || degraded {
			out.Failed++
			continue
		}
		fingerprint := cache.Fingerprint(req.Queries[i], topK, shardKey)
		value := SearchResponse{
			Results:         o.assembleHits(logger, resp.Results, topK),
			ShardKey:        shardKey,
			SearchLatencyMs: resp.SearchLatencyMs,
			QueryHash:       fingerprint,
		}
		o.cache.Set(ctx, fingerprint, value, 0)
		out.Warmed++
	}
	return out, nil
}

// Invalidate removes the cache entry for a canonical (query, topK, shard)
// tuple, reporting whether an entry existed.
func (o *Orchestrator) Invalidate(ctx context.Context, query string, topK int, shardKey string) bool {
	if topK == 0 {
		topK = o.defaultTopK
	}
	resolved := o.router.ResolveOne(shardKey)
	return o.cache.Delete(ctx, cache.Fingerprint(query, topK, resolved))
}

// assembleHits maps backend results to ranked hits: tolerant metadata
// decoding, descending score with ascending id tie-break, truncated to
// topK.
func (o *Orchestrator) assembleHits(logger *slog.Logger, results []*pb.SearchResult, topK int) []SearchHit {
	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		metadata := map[string]any{}
		if r.MetadataJson != "" {
			if err := json.Unmarshal([]byte(r.MetadataJson), &metadata); err != nil {
				// A bad metadata blob downgrades to an empty mapping; the
				// hit itself still ranks.
				logger.Warn("hit metadata not decodable", "id", r.Id, "error", err)
				metadata = map[string]any{}
			}
		}
		hits = append(hits, SearchHit{ID: r.Id, Score: r.Score, Metadata: metadata})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// populateCache issues the fire-and-forget write. It runs on a detached
// context so a disconnecting client cannot abort the write and defeat the
// cache for subsequent callers; the orchestrator never awaits it. The
// correlation id is re-bound so a failed write still logs it.
func (o *Orchestrator) populateCache(parent context.Context, fingerprint string, value SearchResponse) {
	correlationID := monitoring.CorrelationIDFromContext(parent)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cachePopulateTimeout)
		defer cancel()
		ctx = monitoring.ContextWithCorrelationID(ctx, correlationID)
		o.cache.Set(ctx, fingerprint, value, 0)
	}()
}

func (o *Orchestrator) finishSpan(span trace.Span, resp *SearchResponse) {
	span.SetAttributes(
		attribute.Bool("search.cache_hit", resp.CacheHit),
		attribute.Int("search.result_count", len(resp.Results)),
		attribute.Float64("search.total_latency_ms", resp.TotalLatencyMs),
		attribute.Float64("search.search_latency_ms", resp.SearchLatencyMs),
	)
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
