package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("taxi ride from JFK", 10, "nyc_taxi_2023")
	b := Fingerprint("taxi ride from JFK", 10, "nyc_taxi_2023")
	if a != b {
		t.Errorf("same canonical tuple produced different fingerprints: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("fingerprint should be 16 hex chars, got %d: %s", len(a), a)
	}
}

func TestFingerprint_CaseAndTrimInsensitive(t *testing.T) {
	base := Fingerprint("taxi ride", 10, "s1")
	if got := Fingerprint("  Taxi Ride  ", 10, "s1"); got != base {
		t.Errorf("fingerprint should normalize case and whitespace: %s vs %s", got, base)
	}
	if got := Fingerprint("\tTAXI RIDE\n", 10, "s1"); got != base {
		t.Errorf("fingerprint should trim all leading/trailing whitespace: %s vs %s", got, base)
	}
}

func TestFingerprint_Discriminates(t *testing.T) {
	base := Fingerprint("taxi ride", 10, "s1")
	if Fingerprint("bus ride", 10, "s1") == base {
		t.Error("different queries should produce different fingerprints")
	}
	if Fingerprint("taxi ride", 20, "s1") == base {
		t.Error("different topK should produce different fingerprints")
	}
	if Fingerprint("taxi ride", 10, "s2") == base {
		t.Error("different shardKey should produce different fingerprints")
	}
}

type payload struct {
	Hits  []int64 `json:"hits"`
	Shard string  `json:"shard"`
}

func TestCache_RoundTrip(t *testing.T) {
	c := New(NewMemoryBackend(), "vc:", time.Minute)
	ctx := context.Background()

	in := payload{Hits: []int64{3, 1, 2}, Shard: "nyc_taxi_2023"}
	c.Set(ctx, "abcd1234abcd1234", in, 0)

	var out payload
	if !c.Get(ctx, "abcd1234abcd1234", &out) {
		t.Fatal("expected a hit after Set within TTL")
	}
	if out.Shard != in.Shard || len(out.Hits) != 3 || out.Hits[0] != 3 {
		t.Errorf("round-trip mismatch: %+v vs %+v", out, in)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(NewMemoryBackend(), "vc:", time.Minute)
	ctx := context.Background()

	c.Set(ctx, "deadbeefdeadbeef", payload{Shard: "x"}, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	var out payload
	if c.Get(ctx, "deadbeefdeadbeef", &out) {
		t.Error("expected a miss after TTL expiry")
	}
}

func TestCache_DefaultTTL(t *testing.T) {
	if got := New(NewMemoryBackend(), "vc:", 0).DefaultTTL(); got != 300*time.Second {
		t.Errorf("zero ttl should fall back to 300s, got %v", got)
	}
	if got := New(NewMemoryBackend(), "vc:", time.Minute).DefaultTTL(); got != time.Minute {
		t.Errorf("configured ttl should be reported, got %v", got)
	}
}

func TestCache_Delete(t *testing.T) {
	c := New(NewMemoryBackend(), "vc:", time.Minute)
	ctx := context.Background()

	c.Set(ctx, "feedfacefeedface", payload{Shard: "x"}, 0)
	if !c.Delete(ctx, "feedfacefeedface") {
		t.Error("Delete should report true for an existing key")
	}
	if c.Delete(ctx, "feedfacefeedface") {
		t.Error("Delete should report false for a missing key")
	}
}

// failingBackend raises on every operation.
type failingBackend struct{}

var errBackendDown = errors.New("connection refused")

func (failingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errBackendDown
}
func (failingBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errBackendDown
}
func (failingBackend) Del(ctx context.Context, key string) (int64, error) {
	return 0, errBackendDown
}
func (failingBackend) Ping(ctx context.Context) error { return errBackendDown }
func (failingBackend) Close() error                   { return nil }

func TestCache_FaultTolerance(t *testing.T) {
	c := New(failingBackend{}, "vc:", time.Minute)
	ctx := context.Background()

	var out payload
	if c.Get(ctx, "0123456789abcdef", &out) {
		t.Error("Get must report a miss when the backend raises")
	}

	// Set must swallow the failure, not panic or propagate
	c.Set(ctx, "0123456789abcdef", payload{Shard: "x"}, 0)

	if c.Delete(ctx, "0123456789abcdef") {
		t.Error("Delete must report false when the backend raises")
	}
}

func TestCache_CorruptValueIsMiss(t *testing.T) {
	backend := NewMemoryBackend()
	backend.Set(context.Background(), "vc:cafebabecafebabe", []byte("{not json"), 0)

	c := New(backend, "vc:", time.Minute)
	var out payload
	if c.Get(context.Background(), "cafebabecafebabe", &out) {
		t.Error("a corrupt cache value must read as a miss")
	}
}
