// Package pb defines the message types and client interfaces for the
// vector sidecar's two gRPC services (vector.EmbeddingService and
// vector.IndexService). The concrete transport lives in internal/backend;
// mocks for tests live in mock.go.
package pb

import (
	"context"

	"google.golang.org/grpc"
)

// Method paths as exposed by the sidecar.
const (
	MethodGenerateEmbedding      = "/vector.EmbeddingService/GenerateEmbedding"
	MethodGenerateEmbeddingBatch = "/vector.EmbeddingService/GenerateEmbeddingBatch"
	MethodSearchIndex            = "/vector.IndexService/SearchIndex"
	MethodGetIndexInfo           = "/vector.IndexService/GetIndexInfo"
	MethodReloadIndex            = "/vector.IndexService/ReloadIndex"
)

// ============================================================================
// EMBEDDING SERVICE
// ============================================================================

type EmbeddingRequest struct {
	Text      string `json:"text"`
	ModelName string `json:"model_name,omitempty"`
}

type EmbeddingResponse struct {
	Vector    []float32 `json:"vector"`
	ModelName string    `json:"model_name"`
	Dimension int32     `json:"dimension"`
	LatencyMs float64   `json:"latency_ms"`
}

type EmbeddingBatchRequest struct {
	Texts     []string `json:"texts"`
	ModelName string   `json:"model_name,omitempty"`
}

type EmbeddingBatchResponse struct {
	Embeddings []*EmbeddingResponse `json:"embeddings"`
}

type EmbeddingServiceClient interface {
	GenerateEmbedding(ctx context.Context, in *EmbeddingRequest, opts ...grpc.CallOption) (*EmbeddingResponse, error)
	GenerateEmbeddingBatch(ctx context.Context, in *EmbeddingBatchRequest, opts ...grpc.CallOption) (*EmbeddingBatchResponse, error)
}

// ============================================================================
// INDEX SERVICE
// ============================================================================

type SearchRequest struct {
	QueryVector []float32 `json:"query_vector"`
	TopK        int32     `json:"top_k"`
	ShardKey    string    `json:"shard_key,omitempty"`
	Nprobe      int32     `json:"nprobe,omitempty"`
}

type SearchResult struct {
	Id           int64   `json:"id"`
	Score        float32 `json:"score"`
	MetadataJson string  `json:"metadata_json,omitempty"`
}

type SearchResponse struct {
	Results         []*SearchResult `json:"results"`
	ShardKey        string          `json:"shard_key"`
	SearchLatencyMs float64         `json:"search_latency_ms"`
}

type IndexInfoRequest struct {
	ShardKey string `json:"shard_key,omitempty"`
}

type ShardInfo struct {
	ShardKey       string `json:"shard_key"`
	TotalVectors   int64  `json:"total_vectors"`
	Dimension      int32  `json:"dimension"`
	IndexType      string `json:"index_type,omitempty"`
	IsTrained      bool   `json:"is_trained"`
	IndexSizeBytes int64  `json:"index_size_bytes"`
}

type IndexInfoResponse struct {
	Shards []*ShardInfo `json:"shards"`
}

type ReloadIndexRequest struct {
	ShardKey string `json:"shard_key,omitempty"`
}

type ReloadIndexResponse struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	ReloadedShards []string `json:"reloaded_shards"`
}

type IndexServiceClient interface {
	SearchIndex(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error)
	GetIndexInfo(ctx context.Context, in *IndexInfoRequest, opts ...grpc.CallOption) (*IndexInfoResponse, error)
	ReloadIndex(ctx context.Context, in *ReloadIndexRequest, opts ...grpc.CallOption) (*ReloadIndexResponse, error)
}
