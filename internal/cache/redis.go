// Package cache is the gateway's response cache substrate: fingerprint
// derivation, JSON value serialization, TTL handling, and failure-tolerant
// reads and writes over Redis.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend is the minimal key/value surface the cache needs: get/set with
// TTL, atomic delete, and a liveness ping. Tests substitute an in-memory
// implementation.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// GoRedisBackend wraps go-redis v9 to implement Backend.
type GoRedisBackend struct {
	rdb *redis.Client
}

// NewGoRedisBackend connects to Redis and verifies connectivity with a
// ping. The connection is pooled; the caller decides whether a failure is
// fatal.
func NewGoRedisBackend(addr string) (*GoRedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     20,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed (%s): %w", addr, err)
	}

	slog.Info("Redis connected", "addr", addr)
	return &GoRedisBackend{rdb: rdb}, nil
}

func (b *GoRedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := b.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *GoRedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.rdb.Set(ctx, key, value, ttl).Err()
}

func (b *GoRedisBackend) Del(ctx context.Context, key string) (int64, error) {
	return b.rdb.Del(ctx, key).Result()
}

func (b *GoRedisBackend) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *GoRedisBackend) Close() error {
	return b.rdb.Close()
}
