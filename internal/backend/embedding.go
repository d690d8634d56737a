package backend

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ritunjaym/vector-catalog-service/internal/monitoring"
	"github.com/ritunjaym/vector-catalog-service/internal/resilience"
	"github.com/ritunjaym/vector-catalog-service/pb"
)

// EmbeddingTimeout caps a composed embedding call, retries included.
const EmbeddingTimeout = 10 * time.Second

// EmbeddingClient is the typed, resilience-decorated wrapper over the
// embedding RPC. The model name is pinned at construction. There is no
// degraded path: an unavailable embedder fails the request.
type EmbeddingClient struct {
	client  pb.EmbeddingServiceClient
	policy  *resilience.Policy
	model   string
	metrics *monitoring.Metrics
}

// NewEmbeddingClient wires the raw pb client behind the composed policy.
func NewEmbeddingClient(client pb.EmbeddingServiceClient, policy *resilience.Policy, model string, metrics *monitoring.Metrics) *EmbeddingClient {
	return &EmbeddingClient{client: client, policy: policy, model: model, metrics: metrics}
}

// Generate converts text to a dense vector. Cancellation from the request
// context propagates into the underlying RPC.
func (c *EmbeddingClient) Generate(ctx context.Context, text string) (*pb.EmbeddingResponse, error) {
	ctx, span := monitoring.StartSpan(ctx, "embedding.generate")
	defer span.End()
	span.SetAttributes(
		attribute.Int("embedding.text_length", len(text)),
		attribute.String("embedding.model", c.model),
	)

	start := time.Now()
	var resp *pb.EmbeddingResponse
	err := c.policy.Execute(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.client.GenerateEmbedding(ctx, &pb.EmbeddingRequest{
			Text:      text,
			ModelName: c.model,
		})
		return callErr
	})
	c.metrics.EmbeddingDuration.Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("embedding.dimension", int(resp.Dimension)))
	return resp, nil
}

// GenerateBatch embeds several texts in one sidecar round trip. Used by
// cache warmup; shares the single-call policy and timeout.
func (c *EmbeddingClient) GenerateBatch(ctx context.Context, texts []string) ([]*pb.EmbeddingResponse, error) {
	ctx, span := monitoring.StartSpan(ctx, "embedding.generate_batch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("embedding.batch_size", len(texts)),
		attribute.String("embedding.model", c.model),
	)

	start := time.Now()
	var resp *pb.EmbeddingBatchResponse
	err := c.policy.Execute(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.client.GenerateEmbeddingBatch(ctx, &pb.EmbeddingBatchRequest{
			Texts:     texts,
			ModelName: c.model,
		})
		return callErr
	})
	c.metrics.EmbeddingDuration.Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		return nil, err
	}
	return resp.Embeddings, nil
}
