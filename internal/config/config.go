// Package config loads sovereign's YAML configuration, applies environment
// overrides and fills secrets from the OS keyring.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/sovereign/internal/constants"
	"github.com/julianstephens/sovereign/internal/keyring"
	"github.com/julianstephens/sovereign/internal/logger"
	"github.com/julianstephens/sovereign/internal/storage"
	"github.com/julianstephens/sovereign/internal/storage/postgres"
	"github.com/julianstephens/sovereign/internal/utils"
)

// Config is the on-disk configuration.
type Config struct {
	// Database is a SQLite file path or a PostgreSQL connection string.
	Database string      `yaml:"database"`
	Timezone string      `yaml:"timezone"`
	Log      LogConfig   `yaml:"log"`
	Cache    CacheConfig `yaml:"cache"`
}

type LogConfig struct {
	Debug bool   `yaml:"debug"`
	Dir   string `yaml:"dir"`
}

type CacheConfig struct {
	Backend string       `yaml:"backend"`
	Redis   RedisConfig  `yaml:"redis"`
	Badger  BadgerConfig `yaml:"badger"`
	Memory  MemoryConfig `yaml:"memory"`
	TTL     TTLConfig    `yaml:"ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Password string `yaml:"password,omitempty"`
}

type BadgerConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type MemoryConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// TTLConfig holds cache entry lifetimes, e.g. "5m" or "300s".
type TTLConfig struct {
	Streak     time.Duration `yaml:"streak"`
	Count      time.Duration `yaml:"count"`
	Membership time.Duration `yaml:"membership"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Database: constants.DefaultDatabasePath,
		Timezone: constants.DefaultTimezone,
		Log: LogConfig{
			Dir: filepath.Join(constants.DefaultConfigDir, "logs"),
		},
		Cache: CacheConfig{
			Backend: constants.CacheBackendMemory,
			Redis:   RedisConfig{Addr: constants.DefaultRedisAddr},
			Badger:  BadgerConfig{Path: filepath.Join(constants.DefaultConfigDir, constants.DefaultBadgerDirName)},
			Memory:  MemoryConfig{MaxEntries: constants.DefaultMemoryMaxEntries},
			TTL: TTLConfig{
				Streak:     constants.StreakTTL,
				Count:      constants.CountTTL,
				Membership: constants.MembershipTTL,
			},
		},
	}
}

// Load reads the config file at path, falling back to defaults when it does
// not exist, then applies environment overrides and keyring secrets.
func Load(path string) (Config, error) {
	cfg := Default()
	cfg.Database = ""

	expanded, err := utils.ExpandPath(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(expanded)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("No config file, using defaults", "path", expanded)
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config file %s: %w", expanded, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", expanded, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.applyKeyring()
	if cfg.Database == "" {
		cfg.Database = constants.DefaultDatabasePath
	}

	if err := cfg.expandPaths(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg Config) error {
	expanded, err := utils.ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	// Secrets belong in the keyring or the environment.
	cfg.Cache.Redis.Password = ""
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(expanded, data, 0600)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(constants.EnvDBConnection); ok && v != "" {
		c.Database = v
	}
	if v, ok := lookup(constants.EnvRedisAddr); ok && v != "" {
		c.Cache.Redis.Addr = v
	}
	if v, ok := lookup(constants.EnvRedisPassword); ok && v != "" {
		c.Cache.Redis.Password = v
	}
	if v, ok := lookup(constants.EnvCacheBackend); ok && v != "" {
		c.Cache.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(constants.EnvTimezone); ok && v != "" {
		c.Timezone = v
	}
}

func (c *Config) applyKeyring() {
	if c.Database == "" {
		if connStr, err := keyring.GetConnectionString(); err == nil {
			c.Database = connStr
		} else if !errors.Is(err, keyring.ErrNotFound) {
			logger.Warn("Keyring lookup failed", "entry", keyring.DatabaseConnection, "error", err)
		}
	}
	if c.Cache.Backend == constants.CacheBackendRedis && c.Cache.Redis.Password == "" {
		if pw, err := keyring.Get(keyring.RedisPassword); err == nil {
			c.Cache.Redis.Password = pw
		} else if !errors.Is(err, keyring.ErrNotFound) {
			logger.Warn("Keyring lookup failed", "entry", keyring.RedisPassword, "error", err)
		}
	}
}

func (c *Config) expandPaths() error {
	var err error
	if c.Database != "" && !storage.IsPostgresURL(c.Database) && !strings.Contains(c.Database, "host=") {
		if c.Database, err = utils.ExpandPath(c.Database); err != nil {
			return err
		}
	}
	if c.Log.Dir, err = utils.ExpandPath(c.Log.Dir); err != nil {
		return err
	}
	if c.Cache.Badger.Path, err = utils.ExpandPath(c.Cache.Badger.Path); err != nil {
		return err
	}
	return nil
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("database is not configured (set it in the config file, %s, or the keyring)", constants.EnvDBConnection)
	}
	if storage.IsPostgresURL(c.Database) || strings.Contains(c.Database, "host=") {
		if _, err := postgres.ValidateConnString(c.Database); err != nil {
			return err
		}
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	switch c.Cache.Backend {
	case constants.CacheBackendRedis:
		if c.Cache.Redis.Addr == "" {
			return errors.New("cache.redis.addr is required for the redis backend")
		}
	case constants.CacheBackendBadger:
		if !c.Cache.Badger.InMemory && c.Cache.Badger.Path == "" {
			return errors.New("cache.badger.path is required unless cache.badger.in_memory is set")
		}
	case constants.CacheBackendMemory:
		if c.Cache.Memory.MaxEntries <= 0 {
			return fmt.Errorf("cache.memory.max_entries must be positive, got %d", c.Cache.Memory.MaxEntries)
		}
	case constants.CacheBackendNone:
	default:
		return fmt.Errorf("unknown cache backend %q (expected redis, badger, memory or none)", c.Cache.Backend)
	}
	ttls := map[string]time.Duration{
		"streak":     c.Cache.TTL.Streak,
		"count":      c.Cache.TTL.Count,
		"membership": c.Cache.TTL.Membership,
	}
	for name, ttl := range ttls {
		if ttl <= 0 {
			return fmt.Errorf("cache.ttl.%s must be positive, got %s", name, ttl)
		}
	}
	return nil
}
