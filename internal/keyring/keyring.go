// Package keyring stores sovereign's secrets in the OS keyring.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/sovereign/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Entry names a secret held in the keyring.
type Entry string

const (
	// DatabaseConnection is the PostgreSQL connection string.
	DatabaseConnection Entry = constants.DefaultKeyringUser
	// RedisPassword is the password of the Redis cache.
	RedisPassword Entry = constants.DefaultRedisKeyringUser
)

// Entries lists every known entry.
var Entries = []Entry{DatabaseConnection, RedisPassword}

// ParseEntry resolves a user supplied entry name. "db" and "redis" are
// accepted as shorthands.
func ParseEntry(name string) (Entry, error) {
	switch name {
	case "db", string(DatabaseConnection):
		return DatabaseConnection, nil
	case "redis", string(RedisPassword):
		return RedisPassword, nil
	}
	return "", fmt.Errorf("unknown keyring entry %q (expected db or redis)", name)
}

// Get retrieves the secret stored under e.
// Returns ErrNotFound if nothing is stored.
func Get(e Entry) (string, error) {
	secret, err := keyring.Get(constants.AppName, string(e))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

// Set stores secret under e.
func Set(e Entry, secret string) error {
	if secret == "" {
		return fmt.Errorf("%s cannot be empty", e)
	}
	if err := keyring.Set(constants.AppName, string(e), secret); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", e, err)
	}
	return nil
}

// Delete removes the secret stored under e.
func Delete(e Entry) error {
	err := keyring.Delete(constants.AppName, string(e))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", e, err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string.
func GetConnectionString() (string, error) {
	return Get(DatabaseConnection)
}

// SetConnectionString stores the database connection string.
func SetConnectionString(connStr string) error {
	return Set(DatabaseConnection, connStr)
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
