package pb

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

// MockEmbeddingClient returns a fixed-dimension deterministic vector.
// Used by tests and by local runs without a sidecar.
type MockEmbeddingClient struct {
	Dimension int
	// Err, when set, is returned by every call. Calls counts attempts
	// either way.
	Err   error
	Calls int
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, in *EmbeddingRequest, opts ...grpc.CallOption) (*EmbeddingResponse, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	dim := m.Dimension
	if dim == 0 {
		dim = 384
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = float32(len(in.Text)%7) / 10.0
	}
	return &EmbeddingResponse{
		Vector:    vec,
		ModelName: in.ModelName,
		Dimension: int32(dim),
		LatencyMs: 1.5,
	}, nil
}

func (m *MockEmbeddingClient) GenerateEmbeddingBatch(ctx context.Context, in *EmbeddingBatchRequest, opts ...grpc.CallOption) (*EmbeddingBatchResponse, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := &EmbeddingBatchResponse{}
	for _, t := range in.Texts {
		dim := m.Dimension
		if dim == 0 {
			dim = 384
		}
		vec := make([]float32, dim)
		for i := range vec {
			vec[i] = float32(len(t)%7) / 10.0
		}
		out.Embeddings = append(out.Embeddings, &EmbeddingResponse{
			Vector:    vec,
			ModelName: in.ModelName,
			Dimension: int32(dim),
			LatencyMs: 1.5,
		})
	}
	return out, nil
}

// MockIndexClient serves canned hits out of a single in-memory shard.
type MockIndexClient struct {
	Shard string
	Hits  []*SearchResult
	Err   error
	Calls int

	// LastRequest records the most recent SearchIndex request for
	// assertions on shard routing and nprobe propagation.
	LastRequest *SearchRequest
}

func (m *MockIndexClient) SearchIndex(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	m.Calls++
	m.LastRequest = in
	if m.Err != nil {
		return nil, m.Err
	}
	hits := m.Hits
	if in.TopK > 0 && int32(len(hits)) > in.TopK {
		hits = hits[:in.TopK]
	}
	shard := in.ShardKey
	if shard == "" {
		shard = m.Shard
	}
	return &SearchResponse{
		Results:         hits,
		ShardKey:        shard,
		SearchLatencyMs: 2.0,
	}, nil
}

func (m *MockIndexClient) GetIndexInfo(ctx context.Context, in *IndexInfoRequest, opts ...grpc.CallOption) (*IndexInfoResponse, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return &IndexInfoResponse{
		Shards: []*ShardInfo{{
			ShardKey:     m.Shard,
			TotalVectors: int64(len(m.Hits)),
			Dimension:    384,
			IndexType:    "IVF,PQ",
			IsTrained:    true,
		}},
	}, nil
}

func (m *MockIndexClient) ReloadIndex(ctx context.Context, in *ReloadIndexRequest, opts ...grpc.CallOption) (*ReloadIndexResponse, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if in.ShardKey == "" {
		return &ReloadIndexResponse{Success: false, Message: "shard_key is required"}, nil
	}
	return &ReloadIndexResponse{
		Success:        true,
		Message:        fmt.Sprintf("Shard '%s' reloaded successfully", in.ShardKey),
		ReloadedShards: []string{in.ShardKey},
	}, nil
}
