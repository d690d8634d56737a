// Package search owns the request pipeline: validation, cache-aside
// lookup, shard routing, embedding, ANN search, result assembly and
// fire-and-forget cache population.
package search

import (
	"fmt"
	"strings"
)

const (
	maxQueryLength = 2000
	maxTopK        = 100
	maxNprobe      = 256
	maxWarmupBatch = 32
)

// SearchRequest is the validated input to the orchestrator.
type SearchRequest struct {
	Query    string `json:"query"`
	TopK     int    `json:"topK,omitempty"`
	ShardKey string `json:"shardKey,omitempty"`
	Nprobe   int    `json:"nprobe,omitempty"`
}

// ValidateAndDefault enforces the field constraints and fills in the
// configured topK default. The query itself is left un-normalized: only
// fingerprinting lowercases and trims it, the embedder sees the original.
func (r *SearchRequest) ValidateAndDefault(defaultTopK int) *GatewayError {
	if strings.TrimSpace(r.Query) == "" {
		return validationError("query must be a non-empty string")
	}
	if len(strings.TrimSpace(r.Query)) > maxQueryLength {
		return validationError(fmt.Sprintf("query must be at most %d characters", maxQueryLength))
	}
	if r.TopK == 0 {
		r.TopK = defaultTopK
	}
	if r.TopK < 1 || r.TopK > maxTopK {
		return validationError(fmt.Sprintf("topK must be between 1 and %d", maxTopK))
	}
	if r.Nprobe != 0 && (r.Nprobe < 1 || r.Nprobe > maxNprobe) {
		return validationError(fmt.Sprintf("nprobe must be between 1 and %d", maxNprobe))
	}
	return nil
}

// SearchHit is one ranked result.
type SearchHit struct {
	ID       int64          `json:"id"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// SearchResponse is the assembled pipeline output. On a cache hit,
// SearchLatencyMs keeps the original backend-reported value while
// TotalLatencyMs reflects the current request.
type SearchResponse struct {
	Results         []SearchHit `json:"results"`
	ShardKey        string      `json:"shardKey"`
	SearchLatencyMs float64     `json:"searchLatencyMs"`
	TotalLatencyMs  float64     `json:"totalLatencyMs"`
	CacheHit        bool        `json:"cacheHit"`
	QueryHash       string      `json:"queryHash"`
}

// WarmupRequest seeds the cache for a batch of queries.
type WarmupRequest struct {
	Queries  []string `json:"queries"`
	TopK     int      `json:"topK,omitempty"`
	ShardKey string   `json:"shardKey,omitempty"`
}

// Validate enforces the warmup batch constraints.
func (r *WarmupRequest) Validate() *GatewayError {
	if len(r.Queries) == 0 {
		return validationError("queries must contain at least one entry")
	}
	if len(r.Queries) > maxWarmupBatch {
		return validationError(fmt.Sprintf("queries must contain at most %d entries", maxWarmupBatch))
	}
	for _, q := range r.Queries {
		if strings.TrimSpace(q) == "" {
			return validationError("queries must not contain empty entries")
		}
	}
	return nil
}

// WarmupResponse reports the outcome per batch.
type WarmupResponse struct {
	Warmed int `json:"warmed"`
	Failed int `json:"failed"`
}
