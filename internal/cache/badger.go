package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/julianstephens/sovereign/internal/logger"
)

const (
	tagValue byte = 'v'
	tagSet   byte = 's'

	maxTxnRetries = 5
)

// BadgerConfig holds settings for an embedded badger cache.
type BadgerConfig struct {
	// Path is the directory for badger files. Ignored when InMemory is true.
	Path string
	// InMemory keeps the cache entirely in memory.
	InMemory bool
}

// BadgerBackend persists cache entries in an embedded badger database, so a
// single-node deployment keeps warm counters across restarts without Redis.
// Sets are stored as a single value; like sets are small enough for that.
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadgerBackend opens (or creates) the badger database described by cfg.
func OpenBadgerBackend(cfg BadgerConfig) (*BadgerBackend, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger cache path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(logger.BadgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

func classifyBadger(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrMiss
	case errors.Is(err, ErrWrongType), errors.Is(err, ErrMiss):
		return err
	case errors.Is(err, badger.ErrDBClosed), errors.Is(err, badger.ErrBlockedWrites),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return unavailable(err)
	default:
		return err
	}
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (b *BadgerBackend) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return unavailable(ctxErr)
		}
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return classifyBadger(err)
		}
	}
	return unavailable(err)
}

func (b *BadgerBackend) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	return classifyBadger(b.db.View(fn))
}

type badgerItem struct {
	tag       byte
	payload   []byte
	expiresAt uint64
}

func readItem(txn *badger.Txn, key string) (badgerItem, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return badgerItem{}, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return badgerItem{}, err
	}
	if len(raw) == 0 {
		return badgerItem{}, fmt.Errorf("%w: empty entry at %s", ErrWrongType, key)
	}
	return badgerItem{tag: raw[0], payload: raw[1:], expiresAt: item.ExpiresAt()}, nil
}

func writeItem(txn *badger.Txn, key string, it badgerItem) error {
	raw := append([]byte{it.tag}, it.payload...)
	e := badger.NewEntry([]byte(key), raw)
	e.ExpiresAt = it.expiresAt
	return txn.SetEntry(e)
}

func decodeSet(payload []byte) (map[string]struct{}, error) {
	var members []string
	if err := json.Unmarshal(payload, &members); err != nil {
		return nil, fmt.Errorf("%w: corrupt set: %v", ErrWrongType, err)
	}
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set, nil
}

func encodeSet(set map[string]struct{}) ([]byte, error) {
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	sort.Strings(members)
	return json.Marshal(members)
}

func (b *BadgerBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.view(ctx, func(txn *badger.Txn) error {
		it, err := readItem(txn, key)
		if err != nil {
			return err
		}
		if it.tag != tagValue {
			return ErrWrongType
		}
		out = it.payload
		return nil
	})
	return out, err
}

func (b *BadgerBackend) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.update(ctx, func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), append([]byte{tagValue}, value...)).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

func (b *BadgerBackend) Delete(ctx context.Context, keys ...string) error {
	return b.update(ctx, func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerBackend) DeletePattern(ctx context.Context, pattern string) (int, error) {
	prefix := pattern
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		prefix = pattern[:i]
	}

	var matches [][]byte
	err := b.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().KeyCopy(nil)
			ok, err := path.Match(pattern, string(k))
			if err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedKey, err)
			}
			if ok {
				matches = append(matches, k)
			}
		}
		return nil
	})
	if err != nil || len(matches) == 0 {
		return 0, err
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range matches {
		if err := wb.Delete(k); err != nil {
			return 0, classifyBadger(err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, classifyBadger(err)
	}
	return len(matches), nil
}

func (b *BadgerBackend) Expire(ctx context.Context, key string, ttl time.Duration) error {
	err := b.update(ctx, func(txn *badger.Txn) error {
		it, err := readItem(txn, key)
		if err != nil {
			return err
		}
		it.expiresAt = uint64(time.Now().Add(ttl).Unix())
		return writeItem(txn, key, it)
	})
	if errors.Is(err, ErrMiss) {
		return nil
	}
	return err
}

func (b *BadgerBackend) Exists(ctx context.Context, key string) (bool, error) {
	err := b.view(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	return err == nil, err
}

func (b *BadgerBackend) Incr(ctx context.Context, key string) (int64, error) {
	return b.add(ctx, key, 1)
}

func (b *BadgerBackend) Decr(ctx context.Context, key string) (int64, error) {
	return b.add(ctx, key, -1)
}

func (b *BadgerBackend) add(ctx context.Context, key string, delta int64) (int64, error) {
	var n int64
	err := b.update(ctx, func(txn *badger.Txn) error {
		it, err := readItem(txn, key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			it = badgerItem{tag: tagValue, payload: []byte("0")}
		case err != nil:
			return err
		case it.tag != tagValue:
			return ErrWrongType
		}
		cur, err := strconv.ParseInt(string(it.payload), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s is not an integer", ErrWrongType, key)
		}
		n = cur + delta
		it.payload = []byte(strconv.FormatInt(n, 10))
		return writeItem(txn, key, it)
	})
	return n, err
}

// mutateSet loads the set at key (empty if absent), applies fn and writes it
// back, deleting the key once the set is empty.
func (b *BadgerBackend) mutateSet(ctx context.Context, key string, fn func(map[string]struct{})) error {
	return b.update(ctx, func(txn *badger.Txn) error {
		it, err := readItem(txn, key)
		set := map[string]struct{}{}
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			it = badgerItem{tag: tagSet}
		case err != nil:
			return err
		case it.tag != tagSet:
			return ErrWrongType
		default:
			if set, err = decodeSet(it.payload); err != nil {
				return err
			}
		}
		fn(set)
		if len(set) == 0 {
			return txn.Delete([]byte(key))
		}
		if it.payload, err = encodeSet(set); err != nil {
			return err
		}
		return writeItem(txn, key, it)
	})
}

func (b *BadgerBackend) SAdd(ctx context.Context, key string, members ...string) error {
	return b.mutateSet(ctx, key, func(set map[string]struct{}) {
		for _, m := range members {
			set[m] = struct{}{}
		}
	})
}

func (b *BadgerBackend) SRem(ctx context.Context, key string, members ...string) error {
	return b.mutateSet(ctx, key, func(set map[string]struct{}) {
		for _, m := range members {
			delete(set, m)
		}
	})
}

func (b *BadgerBackend) readSet(ctx context.Context, key string) (map[string]struct{}, error) {
	var set map[string]struct{}
	err := b.view(ctx, func(txn *badger.Txn) error {
		it, err := readItem(txn, key)
		if err != nil {
			return err
		}
		if it.tag != tagSet {
			return ErrWrongType
		}
		set, err = decodeSet(it.payload)
		return err
	})
	if errors.Is(err, ErrMiss) {
		return map[string]struct{}{}, nil
	}
	return set, err
}

func (b *BadgerBackend) SIsMember(ctx context.Context, key, member string) (bool, error) {
	set, err := b.readSet(ctx, key)
	if err != nil {
		return false, err
	}
	_, ok := set[member]
	return ok, nil
}

func (b *BadgerBackend) SCard(ctx context.Context, key string) (int64, error) {
	set, err := b.readSet(ctx, key)
	if err != nil {
		return 0, err
	}
	return int64(len(set)), nil
}

func (b *BadgerBackend) Ping(ctx context.Context) error {
	if b.db.IsClosed() {
		return unavailable(badger.ErrDBClosed)
	}
	return ctx.Err()
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
