package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/julianstephens/sovereign/internal/cache"
	"github.com/julianstephens/sovereign/internal/config"
	"github.com/julianstephens/sovereign/internal/constants"
	"github.com/julianstephens/sovereign/internal/engagement"
	"github.com/julianstephens/sovereign/internal/habits"
	"github.com/julianstephens/sovereign/internal/logger"
	"github.com/julianstephens/sovereign/internal/storage"
	"github.com/julianstephens/sovereign/internal/storage/postgres"
	"github.com/julianstephens/sovereign/internal/storage/sqlite"
	"github.com/julianstephens/sovereign/internal/streak"
	"github.com/julianstephens/sovereign/internal/utils"
)

// Context carries the process-wide handles every command runs against.
type Context struct {
	Config     config.Config
	ConfigPath string

	Store    storage.Provider
	Cache    *cache.Client
	Registry *prometheus.Registry
	Location *time.Location

	Streaks  *streak.Engine
	Habits   *habits.Service
	Counters *engagement.Counters

	Out io.Writer
}

// NewContext opens the store and cache described by cfg and wires the
// services on top of them. The store is not loaded.
func NewContext(cfg config.Config) (*Context, error) {
	store, err := OpenStore(cfg.Database)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	client, err := OpenCache(cfg.Cache, reg)
	if err != nil {
		return nil, err
	}
	return Wire(cfg, store, client, reg)
}

// Wire builds a Context around an existing store and cache client.
func Wire(cfg config.Config, store storage.Provider, client *cache.Client, reg *prometheus.Registry) (*Context, error) {
	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	ttl := cfg.Cache.TTL
	engine := streak.NewEngine(store, client,
		streak.WithLocation(loc),
		streak.WithTTL(ttl.Streak),
	)
	return &Context{
		Config:   cfg,
		Store:    store,
		Cache:    client,
		Registry: reg,
		Location: loc,
		Streaks:  engine,
		Habits:   habits.NewService(store, engine, habits.WithLocation(loc)),
		Counters: engagement.NewCounters(store, client,
			engagement.WithCountTTL(ttl.Count),
			engagement.WithMembershipTTL(ttl.Membership),
		),
		Out: os.Stdout,
	}, nil
}

// OpenStore returns the provider for a SQLite path or a PostgreSQL
// connection string.
func OpenStore(database string) (storage.Provider, error) {
	if storage.IsPostgresURL(database) || strings.Contains(database, "host=") {
		if _, err := postgres.ValidateConnString(database); err != nil {
			return nil, err
		}
		return postgres.New(database), nil
	}
	return sqlite.NewStore(database), nil
}

// OpenCache constructs the cache client for the configured backend with its
// metrics registered on reg.
func OpenCache(cfg config.CacheConfig, reg prometheus.Registerer) (*cache.Client, error) {
	var backend cache.Backend
	switch cfg.Backend {
	case constants.CacheBackendRedis:
		backend = cache.NewRedisBackend(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case constants.CacheBackendBadger:
		b, err := cache.OpenBadgerBackend(cache.BadgerConfig{
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
		})
		if err != nil {
			return nil, err
		}
		backend = b
	case constants.CacheBackendMemory:
		b, err := cache.NewMemoryBackend(cfg.Memory.MaxEntries)
		if err != nil {
			return nil, err
		}
		backend = b
	case constants.CacheBackendNone, "":
		backend = nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	logger.Debug("Cache configured", "backend", cfg.Backend)
	return cache.NewClient(backend, cache.WithMetrics(cache.NewMetrics(reg))), nil
}

// Close releases the cache and the store.
func (c *Context) Close() error {
	cacheErr := c.Cache.Close()
	if err := c.Store.Close(); err != nil {
		return err
	}
	return cacheErr
}

// Writer returns the command output stream.
func (c *Context) Writer() io.Writer {
	if c == nil || c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Flush removes cached entries matching pattern, "*" for everything.
func (c *Context) Flush(ctx context.Context, pattern string) (int, error) {
	p, err := cache.ParsePattern(pattern)
	if err != nil {
		return 0, err
	}
	return c.Cache.DeletePattern(ctx, p)
}
