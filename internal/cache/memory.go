package cache

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

type memoryEntry struct {
	value     []byte
	set       map[string]struct{}
	expiresAt time.Time // zero means no expiry
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryBackend is an in-process, size-bounded backend. It serves single
// process deployments and tests; least recently used keys are evicted once
// maxEntries is reached.
type MemoryBackend struct {
	mu      sync.Mutex
	entries *simplelru.LRU[string, *memoryEntry]
	now     func() time.Time
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithMemoryClock overrides the clock used for TTL expiry.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(b *MemoryBackend) {
		b.now = now
	}
}

// NewMemoryBackend creates a backend holding at most maxEntries keys.
func NewMemoryBackend(maxEntries int, opts ...MemoryOption) (*MemoryBackend, error) {
	entries, err := simplelru.NewLRU[string, *memoryEntry](maxEntries, nil)
	if err != nil {
		return nil, err
	}
	b := &MemoryBackend{entries: entries, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// lookup returns a live entry, dropping it if it has expired. Caller holds mu.
func (b *MemoryBackend) lookup(key string) (*memoryEntry, bool) {
	e, ok := b.entries.Get(key)
	if !ok {
		return nil, false
	}
	if e.expired(b.now()) {
		b.entries.Remove(key)
		return nil, false
	}
	return e, true
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.lookup(key)
	if !ok {
		return nil, ErrMiss
	}
	if e.set != nil {
		return nil, ErrWrongType
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (b *MemoryBackend) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	b.entries.Add(key, &memoryEntry{value: stored, expiresAt: b.now().Add(ttl)})
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, k := range keys {
		b.entries.Remove(k)
	}
	return nil
}

func (b *MemoryBackend) DeletePattern(_ context.Context, pattern string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for _, k := range b.entries.Keys() {
		matched, err := path.Match(pattern, k)
		if err != nil {
			return removed, ErrMalformedKey
		}
		if matched && b.entries.Remove(k) {
			removed++
		}
	}
	return removed, nil
}

func (b *MemoryBackend) Expire(_ context.Context, key string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.lookup(key); ok {
		e.expiresAt = b.now().Add(ttl)
	}
	return nil
}

func (b *MemoryBackend) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.lookup(key)
	return ok, nil
}

func (b *MemoryBackend) Incr(_ context.Context, key string) (int64, error) {
	return b.add(key, 1)
}

func (b *MemoryBackend) Decr(_ context.Context, key string) (int64, error) {
	return b.add(key, -1)
}

func (b *MemoryBackend) add(key string, delta int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.lookup(key)
	if !ok {
		e = &memoryEntry{value: []byte("0")}
		b.entries.Add(key, e)
	}
	if e.set != nil {
		return 0, ErrWrongType
	}
	n, err := strconv.ParseInt(string(e.value), 10, 64)
	if err != nil {
		return 0, ErrWrongType
	}
	n += delta
	e.value = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// setEntry returns the set stored at key, creating it when create is true.
// Caller holds mu.
func (b *MemoryBackend) setEntry(key string, create bool) (*memoryEntry, error) {
	e, ok := b.lookup(key)
	if !ok {
		if !create {
			return nil, nil
		}
		e = &memoryEntry{set: make(map[string]struct{})}
		b.entries.Add(key, e)
		return e, nil
	}
	if e.set == nil {
		return nil, ErrWrongType
	}
	return e, nil
}

func (b *MemoryBackend) SAdd(_ context.Context, key string, members ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.setEntry(key, true)
	if err != nil {
		return err
	}
	for _, m := range members {
		e.set[m] = struct{}{}
	}
	return nil
}

func (b *MemoryBackend) SRem(_ context.Context, key string, members ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.setEntry(key, false)
	if err != nil || e == nil {
		return err
	}
	for _, m := range members {
		delete(e.set, m)
	}
	// Redis drops empty sets; mirror that so Exists behaves the same.
	if len(e.set) == 0 {
		b.entries.Remove(key)
	}
	return nil
}

func (b *MemoryBackend) SIsMember(_ context.Context, key, member string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.setEntry(key, false)
	if err != nil || e == nil {
		return false, err
	}
	_, ok := e.set[member]
	return ok, nil
}

func (b *MemoryBackend) SCard(_ context.Context, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.setEntry(key, false)
	if err != nil || e == nil {
		return 0, err
	}
	return int64(len(e.set)), nil
}

func (b *MemoryBackend) Ping(context.Context) error { return nil }

func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries.Purge()
	return nil
}
