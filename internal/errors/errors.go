package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/sovereign/internal/cache"
	"github.com/julianstephens/sovereign/internal/habits"
	"github.com/julianstephens/sovereign/internal/logger"
	"github.com/julianstephens/sovereign/internal/models"
	"github.com/julianstephens/sovereign/internal/storage"
	"github.com/julianstephens/sovereign/internal/streak"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err, "kind", Kind(err))
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}

var kinds = []struct {
	target error
	name   string
}{
	{streak.ErrLogUnavailable, "log_unavailable"},
	{models.ErrInvalidCadence, "invalid_cadence"},
	{cache.ErrMalformedKey, "malformed_key"},
	{cache.ErrWrongType, "wrong_type"},
	{cache.ErrUnavailable, "cache_unavailable"},
	{storage.ErrNotFound, "not_found"},
	{habits.ErrNotOwner, "not_owner"},
	{habits.ErrInactive, "inactive"},
}

// Kind names the error class of err for log lines. Errors outside the known
// classes are "internal"; nil is "".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if stderrors.Is(err, k.target) {
			return k.name
		}
	}
	return "internal"
}
