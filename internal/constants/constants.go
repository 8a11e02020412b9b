package constants

import "time"

const (
	AppName                 = "sovereign"
	DefaultKeyringUser      = "database-connection"
	DefaultRedisKeyringUser = "redis-password"
	DefaultConfigDir        = "~/.config/sovereign"
	DefaultConfigFile       = "~/.config/sovereign/config.yaml"
	DefaultDatabasePath     = "~/.config/sovereign/sovereign.db"
	DefaultTimezone         = "UTC"
	Version                 = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Cache backends
	CacheBackendRedis  = "redis"
	CacheBackendBadger = "badger"
	CacheBackendMemory = "memory"
	CacheBackendNone   = "none"

	DefaultRedisAddr        = "localhost:6379"
	DefaultMemoryMaxEntries = 10000
	DefaultBadgerDirName    = "cache"

	// Cache lifetimes
	StreakTTL     = 300 * time.Second
	CountTTL      = 3600 * time.Second
	MembershipTTL = 86400 * time.Second

	// StreakGenerationTTL outlives any cached streak.
	StreakGenerationTTL = 24 * time.Hour

	// Environment overrides
	EnvDBConnection  = "SOVEREIGN_DB_CONNECTION"
	EnvRedisAddr     = "SOVEREIGN_REDIS_ADDR"
	EnvRedisPassword = "SOVEREIGN_REDIS_PASSWORD"
	EnvCacheBackend  = "SOVEREIGN_CACHE_BACKEND"
	EnvTimezone      = "SOVEREIGN_TIMEZONE"
)
