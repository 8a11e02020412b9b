package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backendFactory returns a fresh backend plus a function that advances the
// backend's notion of time.
type backendFactory func(t *testing.T) (Backend, func(time.Duration))

func backendFactories() map[string]backendFactory {
	return map[string]backendFactory{
		"memory": func(t *testing.T) (Backend, func(time.Duration)) {
			now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
			b, err := NewMemoryBackend(100, WithMemoryClock(func() time.Time { return now }))
			require.NoError(t, err)
			return b, func(d time.Duration) { now = now.Add(d) }
		},
		"redis": func(t *testing.T) (Backend, func(time.Duration)) {
			srv := miniredis.RunT(t)
			b := NewRedisBackend(RedisConfig{Addr: srv.Addr()})
			t.Cleanup(func() { b.Close() })
			return b, srv.FastForward
		},
		"badger": func(t *testing.T) (Backend, func(time.Duration)) {
			b, err := OpenBadgerBackend(BadgerConfig{InMemory: true})
			require.NoError(t, err)
			t.Cleanup(func() { b.Close() })
			return b, nil
		},
	}
}

func TestBackendConformance(t *testing.T) {
	ctx := context.Background()

	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("get set delete", func(t *testing.T) {
				b, _ := factory(t)

				_, err := b.Get(ctx, "streak:current:daily:h1")
				assert.ErrorIs(t, err, ErrMiss)

				require.NoError(t, b.SetWithTTL(ctx, "streak:current:daily:h1", []byte("4"), time.Minute))
				v, err := b.Get(ctx, "streak:current:daily:h1")
				require.NoError(t, err)
				assert.Equal(t, []byte("4"), v)

				exists, err := b.Exists(ctx, "streak:current:daily:h1")
				require.NoError(t, err)
				assert.True(t, exists)

				require.NoError(t, b.Delete(ctx, "streak:current:daily:h1", "never:set"))
				_, err = b.Get(ctx, "streak:current:daily:h1")
				assert.ErrorIs(t, err, ErrMiss)
			})

			t.Run("counters", func(t *testing.T) {
				b, _ := factory(t)

				n, err := b.Incr(ctx, "post:p1:comments")
				require.NoError(t, err)
				assert.Equal(t, int64(1), n)

				n, err = b.Incr(ctx, "post:p1:comments")
				require.NoError(t, err)
				assert.Equal(t, int64(2), n)

				n, err = b.Decr(ctx, "post:p1:comments")
				require.NoError(t, err)
				assert.Equal(t, int64(1), n)

				v, err := b.Get(ctx, "post:p1:comments")
				require.NoError(t, err)
				assert.Equal(t, "1", string(v))
			})

			t.Run("sets", func(t *testing.T) {
				b, _ := factory(t)

				require.NoError(t, b.SAdd(ctx, "post:p1:likes", "u1", "u2"))
				require.NoError(t, b.SAdd(ctx, "post:p1:likes", "u2"))

				n, err := b.SCard(ctx, "post:p1:likes")
				require.NoError(t, err)
				assert.Equal(t, int64(2), n)

				ok, err := b.SIsMember(ctx, "post:p1:likes", "u1")
				require.NoError(t, err)
				assert.True(t, ok)

				ok, err = b.SIsMember(ctx, "post:p1:likes", "u3")
				require.NoError(t, err)
				assert.False(t, ok)

				require.NoError(t, b.SRem(ctx, "post:p1:likes", "u1", "u2"))
				exists, err := b.Exists(ctx, "post:p1:likes")
				require.NoError(t, err)
				assert.False(t, exists, "empty sets are dropped")

				n, err = b.SCard(ctx, "post:missing:likes")
				require.NoError(t, err)
				assert.Zero(t, n)
			})

			t.Run("wrong type", func(t *testing.T) {
				b, _ := factory(t)

				require.NoError(t, b.SAdd(ctx, "post:p1:likes", "u1"))
				_, err := b.Incr(ctx, "post:p1:likes")
				assert.ErrorIs(t, err, ErrWrongType)

				require.NoError(t, b.SetWithTTL(ctx, "post:p1:like_count", []byte("3"), time.Minute))
				err = b.SAdd(ctx, "post:p1:like_count", "u1")
				assert.ErrorIs(t, err, ErrWrongType)
			})

			t.Run("delete pattern", func(t *testing.T) {
				b, _ := factory(t)

				require.NoError(t, b.SetWithTTL(ctx, "streak:current:daily:h1", []byte("1"), time.Minute))
				require.NoError(t, b.SetWithTTL(ctx, "streak:longest:daily:h1", []byte("2"), time.Minute))
				require.NoError(t, b.SetWithTTL(ctx, "streak:current:daily:h2", []byte("3"), time.Minute))

				n, err := b.DeletePattern(ctx, "streak:*:h1")
				require.NoError(t, err)
				assert.Equal(t, 2, n)

				_, err = b.Get(ctx, "streak:current:daily:h2")
				assert.NoError(t, err)
			})

			t.Run("ttl expiry", func(t *testing.T) {
				b, advance := factory(t)
				if advance == nil {
					t.Skip("backend clock cannot be advanced")
				}

				require.NoError(t, b.SetWithTTL(ctx, "post:p1:like_count", []byte("5"), 10*time.Second))
				advance(11 * time.Second)
				_, err := b.Get(ctx, "post:p1:like_count")
				assert.ErrorIs(t, err, ErrMiss)

				require.NoError(t, b.SetWithTTL(ctx, "post:p2:like_count", []byte("5"), 10*time.Second))
				require.NoError(t, b.Expire(ctx, "post:p2:like_count", time.Hour))
				advance(11 * time.Second)
				_, err = b.Get(ctx, "post:p2:like_count")
				assert.NoError(t, err)
			})

			t.Run("ping", func(t *testing.T) {
				b, _ := factory(t)
				assert.NoError(t, b.Ping(ctx))
			})
		})
	}
}

func TestRedisBackend_Unreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	b := NewRedisBackend(RedisConfig{Addr: srv.Addr(), DialTimeout: 100 * time.Millisecond})
	defer b.Close()
	srv.Close()

	ctx := context.Background()
	_, err := b.Get(ctx, "post:p1:comments")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, b.Ping(ctx), ErrUnavailable)
	_, err = b.SIsMember(ctx, "post:p1:likes", "u1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBadgerBackend_Closed(t *testing.T) {
	b, err := OpenBadgerBackend(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	ctx := context.Background()
	assert.ErrorIs(t, b.Ping(ctx), ErrUnavailable)
	_, err = b.Get(ctx, "post:p1:comments")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBadgerBackend_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := OpenBadgerBackend(BadgerConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, b.SAdd(ctx, "post:p1:likes", "u1"))
	require.NoError(t, b.Close())

	b, err = OpenBadgerBackend(BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer b.Close()

	ok, err := b.SIsMember(ctx, "post:p1:likes", "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryBackend_Eviction(t *testing.T) {
	b, err := NewMemoryBackend(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.SetWithTTL(ctx, "k:1", []byte("1"), time.Minute))
	require.NoError(t, b.SetWithTTL(ctx, "k:2", []byte("2"), time.Minute))
	require.NoError(t, b.SetWithTTL(ctx, "k:3", []byte("3"), time.Minute))

	_, err = b.Get(ctx, "k:1")
	assert.ErrorIs(t, err, ErrMiss, "oldest key is evicted")
	_, err = b.Get(ctx, "k:3")
	assert.NoError(t, err)
}
