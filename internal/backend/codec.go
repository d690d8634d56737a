// Package backend owns the sidecar gRPC connection and the typed,
// resilience-decorated embedding and index clients built on top of it.
package backend

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC call content-subtype used on the sidecar channel.
// Messages stay length-prefixed over multiplexed HTTP/2; only the payload
// encoding is JSON instead of proto, which keeps pb/ free of generated
// code (the pb package hand-rolls its types and client interfaces).
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return CodecName
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec: %w", err)
	}
	return nil
}
