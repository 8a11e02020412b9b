package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 200

// RedisConfig holds connection settings for a Redis server.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// DialTimeout bounds connection attempts so a missing server degrades
	// quickly instead of stalling requests.
	DialTimeout time.Duration
}

// RedisBackend stores cache entries in Redis.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend creates a backend for the server described by cfg. The
// connection is established lazily on first use.
func NewRedisBackend(cfg RedisConfig) *RedisBackend {
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = 500 * time.Millisecond
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dial,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   1,
	})
	return &RedisBackend{client: client}
}

// NewRedisBackendFromClient wraps an existing go-redis client.
func NewRedisBackendFromClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// classify maps go-redis errors onto the cache error taxonomy. Replies from
// the server are programming errors; everything else is connectivity.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	var reply redis.Error
	if errors.As(err, &reply) {
		msg := reply.Error()
		if strings.HasPrefix(msg, "WRONGTYPE") || strings.Contains(msg, "not an integer") {
			return fmt.Errorf("%w: %s", ErrWrongType, msg)
		}
		return fmt.Errorf("redis: %w", err)
	}
	return unavailable(err)
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, classify(err)
	}
	return v, nil
}

func (b *RedisBackend) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return classify(b.client.Set(ctx, key, value, ttl).Err())
}

func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	return classify(b.client.Del(ctx, keys...).Err())
}

func (b *RedisBackend) DeletePattern(ctx context.Context, pattern string) (int, error) {
	removed := 0
	iter := b.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	batch := make([]string, 0, scanBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := b.client.Del(ctx, batch...).Result()
		if err != nil {
			return classify(err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, classify(err)
	}
	return removed, flush()
}

func (b *RedisBackend) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return classify(b.client.Expire(ctx, key, ttl).Err())
}

func (b *RedisBackend) Exists(ctx context.Context, key string) (bool, error) {
	n, err := b.client.Exists(ctx, key).Result()
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

func (b *RedisBackend) Incr(ctx context.Context, key string) (int64, error) {
	n, err := b.client.Incr(ctx, key).Result()
	return n, classify(err)
}

func (b *RedisBackend) Decr(ctx context.Context, key string) (int64, error) {
	n, err := b.client.Decr(ctx, key).Result()
	return n, classify(err)
}

func (b *RedisBackend) SAdd(ctx context.Context, key string, members ...string) error {
	return classify(b.client.SAdd(ctx, key, toArgs(members)...).Err())
}

func (b *RedisBackend) SRem(ctx context.Context, key string, members ...string) error {
	return classify(b.client.SRem(ctx, key, toArgs(members)...).Err())
}

func (b *RedisBackend) SIsMember(ctx context.Context, key, member string) (bool, error) {
	ok, err := b.client.SIsMember(ctx, key, member).Result()
	return ok, classify(err)
}

func (b *RedisBackend) SCard(ctx context.Context, key string) (int64, error) {
	n, err := b.client.SCard(ctx, key).Result()
	return n, classify(err)
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return classify(b.client.Ping(ctx).Err())
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func toArgs(members []string) []interface{} {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return args
}
