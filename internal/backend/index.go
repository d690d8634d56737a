package backend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ritunjaym/vector-catalog-service/internal/monitoring"
	"github.com/ritunjaym/vector-catalog-service/internal/resilience"
	"github.com/ritunjaym/vector-catalog-service/pb"
)

// IndexTimeout caps a composed ANN search call, retries included.
const IndexTimeout = 5 * time.Second

// IndexClient is the typed, resilience-decorated wrapper over the ANN
// search RPC. When the breaker is open it degrades to an empty result set
// instead of failing the request; info and reload are administrative
// pass-throughs outside the breaker.
type IndexClient struct {
	client pb.IndexServiceClient
	policy *resilience.Policy
	logger *slog.Logger
}

// NewIndexClient wires the raw pb client behind the composed policy.
func NewIndexClient(client pb.IndexServiceClient, policy *resilience.Policy) *IndexClient {
	return &IndexClient{
		client: client,
		policy: policy,
		logger: slog.Default().With("component", "index-client"),
	}
}

// Search runs the ANN lookup. The second return reports degraded mode:
// true means the circuit was open and the caller got an empty result set
// for the resolved shard, which must not be cached.
func (c *IndexClient) Search(ctx context.Context, vector []float32, topK int, shardKey string, nprobe int) (*pb.SearchResponse, bool, error) {
	var resp *pb.SearchResponse
	err := c.policy.Execute(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.client.SearchIndex(ctx, &pb.SearchRequest{
			QueryVector: vector,
			TopK:        int32(topK),
			ShardKey:    shardKey,
			Nprobe:      int32(nprobe),
		})
		return callErr
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
			monitoring.ContextLogger(ctx, c.logger).Warn("index circuit open, returning degraded empty response", "shard_key", shardKey)
			return &pb.SearchResponse{Results: nil, ShardKey: shardKey}, true, nil
		}
		return nil, false, err
	}
	return resp, false, nil
}

// Info returns shard descriptors, optionally filtered by shard key. Used
// by the admin endpoint and the readiness probe; the caller owns the
// deadline.
func (c *IndexClient) Info(ctx context.Context, shardKey string) (*pb.IndexInfoResponse, error) {
	return c.client.GetIndexInfo(ctx, &pb.IndexInfoRequest{ShardKey: shardKey})
}

// Reload triggers a hot reload of a shard's index files in the sidecar.
func (c *IndexClient) Reload(ctx context.Context, shardKey string) (*pb.ReloadIndexResponse, error) {
	return c.client.ReloadIndex(ctx, &pb.ReloadIndexRequest{ShardKey: shardKey})
}
