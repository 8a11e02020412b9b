// Package cache provides the key-value cache that accelerates streak reads
// and social engagement counters.
//
// The cache is never the system of record. A Backend talks to the actual
// store (Redis, an embedded badger database, or process memory); the Client
// wraps a Backend, validates keys, records metrics and turns connectivity
// failures into misses and no-ops so that an unreachable cache only costs
// latency.
package cache

import (
	"context"
	"time"
)

// Backend is the raw contract a cache store implements. Keys and patterns
// are already validated by the Client.
//
// Connectivity failures must be wrapped with ErrUnavailable. A missing key
// is reported as ErrMiss by Get and as the zero value by the other reads.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key matching a Redis-style glob and
	// returns how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)

	// Incr and Decr treat a missing key as 0 and keep any existing TTL.
	Incr(ctx context.Context, key string) (int64, error)
	Decr(ctx context.Context, key string) (int64, error)

	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SCard(ctx context.Context, key string) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
