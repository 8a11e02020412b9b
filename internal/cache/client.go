package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/julianstephens/sovereign/internal/logger"
)

// Client is the application's handle on the cache. It is constructed once at
// process start, shared by every component and closed at shutdown.
//
// Reads return an extra boolean reporting whether the backend answered; it is
// false on a miss and when the backend is unavailable. Writes silently become
// no-ops when the backend is unavailable. Only programming errors, such as
// malformed keys or type mismatches, are returned.
type Client struct {
	backend Backend
	metrics *Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMetrics records hits, misses and degraded operations on m.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient wraps backend. A nil backend behaves like a disabled cache.
func NewClient(backend Backend, opts ...ClientOption) *Client {
	if backend == nil {
		backend = NewDisabledBackend()
	}
	c := &Client{backend: backend}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping checks backend connectivity. Unlike every other method it reports
// connectivity failures, for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

// Close releases the backend.
func (c *Client) Close() error {
	return c.backend.Close()
}

// Get returns the value stored at key. ok is false on a miss.
func (c *Client) Get(ctx context.Context, key Key) (value []byte, ok bool, err error) {
	if err := key.Validate(); err != nil {
		return nil, false, err
	}
	value, err = c.backend.Get(ctx, key.String())
	switch {
	case err == nil:
		c.metrics.hit("get")
		return value, true, nil
	case errors.Is(err, ErrMiss):
		c.metrics.miss("get")
		return nil, false, nil
	default:
		return nil, false, c.degrade("get", key.String(), err)
	}
}

// GetInt reads an integer value written by SetInt or the counter operations.
func (c *Client) GetInt(ctx context.Context, key Key) (int64, bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s holds %q", ErrWrongType, key, raw)
	}
	return n, true, nil
}

// SetWithTTL stores value at key for ttl.
func (c *Client) SetWithTTL(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("cache set %s: ttl must be positive, got %v", key, ttl)
	}
	return c.degrade("set", key.String(), c.backend.SetWithTTL(ctx, key.String(), value, ttl))
}

// SetInt stores an integer at key for ttl.
func (c *Client) SetInt(ctx context.Context, key Key, n int64, ttl time.Duration) error {
	return c.SetWithTTL(ctx, key, []byte(strconv.FormatInt(n, 10)), ttl)
}

// Delete removes keys.
func (c *Client) Delete(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	raw := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := k.Validate(); err != nil {
			return err
		}
		raw = append(raw, k.String())
	}
	return c.degrade("delete", raw[0], c.backend.Delete(ctx, raw...))
}

// DeletePattern removes every key matching pattern and returns the number
// removed. It returns 0 when the backend is unavailable.
func (c *Client) DeletePattern(ctx context.Context, pattern Pattern) (int, error) {
	if err := pattern.Validate(); err != nil {
		return 0, err
	}
	n, err := c.backend.DeletePattern(ctx, pattern.String())
	if err != nil {
		return 0, c.degrade("delete_pattern", pattern.String(), err)
	}
	return n, nil
}

// Expire sets a new TTL on an existing key.
func (c *Client) Expire(ctx context.Context, key Key, ttl time.Duration) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return c.degrade("expire", key.String(), c.backend.Expire(ctx, key.String(), ttl))
}

// Exists reports whether key is present. ok is false if the backend did
// not answer.
func (c *Client) Exists(ctx context.Context, key Key) (exists, ok bool, err error) {
	if err := key.Validate(); err != nil {
		return false, false, err
	}
	exists, err = c.backend.Exists(ctx, key.String())
	if err != nil {
		return false, false, c.degrade("exists", key.String(), err)
	}
	return exists, true, nil
}

// Incr increments the counter at key.
func (c *Client) Incr(ctx context.Context, key Key) (int64, bool, error) {
	return c.counter(ctx, "incr", key, c.backend.Incr)
}

// Decr decrements the counter at key.
func (c *Client) Decr(ctx context.Context, key Key) (int64, bool, error) {
	return c.counter(ctx, "decr", key, c.backend.Decr)
}

func (c *Client) counter(ctx context.Context, op string, key Key, fn func(context.Context, string) (int64, error)) (int64, bool, error) {
	if err := key.Validate(); err != nil {
		return 0, false, err
	}
	n, err := fn(ctx, key.String())
	if err != nil {
		return 0, false, c.degrade(op, key.String(), err)
	}
	return n, true, nil
}

// SAdd adds members to the set at key.
func (c *Client) SAdd(ctx context.Context, key Key, members ...string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	return c.degrade("sadd", key.String(), c.backend.SAdd(ctx, key.String(), members...))
}

// SRem removes members from the set at key.
func (c *Client) SRem(ctx context.Context, key Key, members ...string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	return c.degrade("srem", key.String(), c.backend.SRem(ctx, key.String(), members...))
}

// SIsMember reports whether member is in the set at key.
func (c *Client) SIsMember(ctx context.Context, key Key, member string) (isMember, ok bool, err error) {
	if err := key.Validate(); err != nil {
		return false, false, err
	}
	isMember, err = c.backend.SIsMember(ctx, key.String(), member)
	if err != nil {
		return false, false, c.degrade("sismember", key.String(), err)
	}
	if isMember {
		c.metrics.hit("sismember")
	} else {
		c.metrics.miss("sismember")
	}
	return isMember, true, nil
}

// SCard returns the cardinality of the set at key.
func (c *Client) SCard(ctx context.Context, key Key) (int64, bool, error) {
	if err := key.Validate(); err != nil {
		return 0, false, err
	}
	n, err := c.backend.SCard(ctx, key.String())
	if err != nil {
		return 0, false, c.degrade("scard", key.String(), err)
	}
	return n, true, nil
}

// degrade swallows connectivity failures and passes everything else through.
func (c *Client) degrade(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		c.metrics.degrade(op)
		if !errors.Is(err, ErrDisabled) {
			logger.Warn("Cache operation skipped", "op", op, "key", key, "error", err)
		}
		return nil
	}
	return fmt.Errorf("cache %s %s: %w", op, key, err)
}
