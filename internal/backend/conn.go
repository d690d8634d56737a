package backend

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/ritunjaym/vector-catalog-service/pb"
)

// Dial opens the shared sidecar channel. Both services live behind one
// address; streams are multiplexed over a single HTTP/2 connection with
// keepalive pings so idle periods do not tear it down.
func Dial(address string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                60 * time.Second,
			Timeout:             30 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithIdleTimeout(5*time.Minute),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial sidecar %s: %w", address, err)
	}
	return conn, nil
}

// embeddingServiceClient implements pb.EmbeddingServiceClient over a
// ClientConn.
type embeddingServiceClient struct {
	cc *grpc.ClientConn
}

// NewEmbeddingServiceClient returns the raw (undecorated) embedding client.
func NewEmbeddingServiceClient(cc *grpc.ClientConn) pb.EmbeddingServiceClient {
	return &embeddingServiceClient{cc: cc}
}

func (c *embeddingServiceClient) GenerateEmbedding(ctx context.Context, in *pb.EmbeddingRequest, opts ...grpc.CallOption) (*pb.EmbeddingResponse, error) {
	out := new(pb.EmbeddingResponse)
	if err := c.cc.Invoke(ctx, pb.MethodGenerateEmbedding, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *embeddingServiceClient) GenerateEmbeddingBatch(ctx context.Context, in *pb.EmbeddingBatchRequest, opts ...grpc.CallOption) (*pb.EmbeddingBatchResponse, error) {
	out := new(pb.EmbeddingBatchResponse)
	if err := c.cc.Invoke(ctx, pb.MethodGenerateEmbeddingBatch, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// indexServiceClient implements pb.IndexServiceClient over a ClientConn.
type indexServiceClient struct {
	cc *grpc.ClientConn
}

// NewIndexServiceClient returns the raw (undecorated) index client.
func NewIndexServiceClient(cc *grpc.ClientConn) pb.IndexServiceClient {
	return &indexServiceClient{cc: cc}
}

func (c *indexServiceClient) SearchIndex(ctx context.Context, in *pb.SearchRequest, opts ...grpc.CallOption) (*pb.SearchResponse, error) {
	out := new(pb.SearchResponse)
	if err := c.cc.Invoke(ctx, pb.MethodSearchIndex, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *indexServiceClient) GetIndexInfo(ctx context.Context, in *pb.IndexInfoRequest, opts ...grpc.CallOption) (*pb.IndexInfoResponse, error) {
	out := new(pb.IndexInfoResponse)
	if err := c.cc.Invoke(ctx, pb.MethodGetIndexInfo, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *indexServiceClient) ReloadIndex(ctx context.Context, in *pb.ReloadIndexRequest, opts ...grpc.CallOption) (*pb.ReloadIndexResponse, error) {
	out := new(pb.ReloadIndexResponse)
	if err := c.cc.Invoke(ctx, pb.MethodReloadIndex, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
