package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ritunjaym/vector-catalog-service/internal/monitoring"
)

// ErrNotFound marks a cache miss inside the backend; it never escapes Get.
var ErrNotFound = errors.New("cache: key not found")

// Cache namespaces keys with a prefix and stores JSON-serialized values.
// All requests are independent: concurrent misses for the same fingerprint
// each go to the backends, a deliberate tradeoff to keep the substrate
// simple.
type Cache struct {
	backend    Backend
	prefix     string
	defaultTTL time.Duration
	logger     *slog.Logger
}

// New builds a cache over the given backend. prefix defaults to "vc:" and
// ttl to 300 s when zero-valued.
func New(backend Backend, prefix string, defaultTTL time.Duration) *Cache {
	if prefix == "" {
		prefix = "vc:"
	}
	if defaultTTL == 0 {
		defaultTTL = 300 * time.Second
	}
	return &Cache{
		backend:    backend,
		prefix:     prefix,
		defaultTTL: defaultTTL,
		logger:     slog.Default().With("component", "cache"),
	}
}

// Fingerprint derives the 16-hex cache key body: the first 8 bytes of
// SHA-256 over lower(trim(query)) | "|" | topK | "|" | shardKey.
// Identical canonical tuples always yield identical fingerprints.
func Fingerprint(query string, topK int, shardKey string) string {
	canonical := fmt.Sprintf("%s|%d|%s", strings.ToLower(strings.TrimSpace(query)), topK, shardKey)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8])
}

// DefaultTTL returns the configured default TTL for writes.
func (c *Cache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Get reads a fingerprint and unmarshals into dest. It returns false on a
// miss, on a deserialization failure, and on any backend error; it never
// propagates cache-subsystem failures to the caller.
func (c *Cache) Get(ctx context.Context, fingerprint string, dest any) bool {
	raw, err := c.backend.Get(ctx, c.prefix+fingerprint)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			monitoring.ContextLogger(ctx, c.logger).Warn("cache read failed, treating as miss", "fingerprint", fingerprint, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		monitoring.ContextLogger(ctx, c.logger).Warn("cache value corrupt, treating as miss", "fingerprint", fingerprint, "error", err)
		return false
	}
	return true
}

// Set writes a JSON-serialized value with the given TTL (default when
// ttl <= 0). Backend failures are swallowed and logged.
func (c *Cache) Set(ctx context.Context, fingerprint string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		monitoring.ContextLogger(ctx, c.logger).Warn("cache value not serializable, skipping write", "fingerprint", fingerprint, "error", err)
		return
	}
	if err := c.backend.Set(ctx, c.prefix+fingerprint, raw, ttl); err != nil {
		monitoring.ContextLogger(ctx, c.logger).Warn("cache write failed", "fingerprint", fingerprint, "error", err)
	}
}

// Delete removes a fingerprint entry, reporting whether a key was removed.
func (c *Cache) Delete(ctx context.Context, fingerprint string) bool {
	n, err := c.backend.Del(ctx, c.prefix+fingerprint)
	if err != nil {
		monitoring.ContextLogger(ctx, c.logger).Warn("cache delete failed", "fingerprint", fingerprint, "error", err)
		return false
	}
	return n > 0
}

// Ping probes the backend for the readiness check.
func (c *Cache) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

// Close releases the backend connection pool.
func (c *Cache) Close() error {
	return c.backend.Close()
}
