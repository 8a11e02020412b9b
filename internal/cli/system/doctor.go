package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/sovereign/internal/cache"
	"github.com/julianstephens/sovereign/internal/cli"
	"github.com/julianstephens/sovereign/internal/keyring"
	"github.com/julianstephens/sovereign/internal/utils"
)

const doctorTimeout = 3 * time.Second

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	out := ctx.Writer()
	fmt.Fprintln(out, "Running diagnostics...")
	fmt.Fprintln(out)

	hasError := false
	loadErr := ctx.Store.Load()

	// Check 1: DB reachable
	dbReachable := false
	if err := checkDBReachable(ctx); err != nil {
		cli.Failure(out, "Database reachable: FAIL")
		cli.Detail(out, "Error: %v", err)
		if loadErr != nil {
			cli.Detail(out, "Load: %v", loadErr)
		}
		hasError = true
	} else {
		cli.Success(out, "Database reachable: OK")
		dbReachable = true
	}

	// Check 2: Schema version (only if DB is reachable)
	if dbReachable {
		if err := checkSchemaVersion(ctx, loadErr); err != nil {
			cli.Failure(out, "Schema version: FAIL")
			cli.Detail(out, "Error: %v", err)
			hasError = true
		} else {
			cli.Success(out, "Schema version: OK")
		}
	} else {
		cli.Skipped(out, "Schema version: SKIPPED (database not reachable)")
	}

	// Check 3: Cache reachable. A down cache only costs latency.
	switch err := checkCache(ctx); {
	case errors.Is(err, cache.ErrDisabled):
		cli.Skipped(out, "Cache reachable: SKIPPED (cache disabled)")
	case err != nil:
		cli.Warning(out, "Cache reachable: WARNING (%s backend)", ctx.Config.Cache.Backend)
		cli.Detail(out, "%v", err)
		cli.Detail(out, "Reads fall back to the database until the cache returns.")
	default:
		cli.Success(out, "Cache reachable: OK (%s backend)", ctx.Config.Cache.Backend)
	}

	// Check 4: Clock/timezone sanity
	if err := checkClockTimezone(ctx); err != nil {
		cli.Failure(out, "Clock/timezone: FAIL")
		cli.Detail(out, "Error: %v", err)
		hasError = true
	} else {
		cli.Success(out, "Clock/timezone: OK (%s)", ctx.Config.Timezone)
	}

	// Check 5: Keyring (informational)
	if keyring.IsAvailable() {
		cli.Success(out, "OS keyring: OK")
	} else {
		cli.Warning(out, "OS keyring: UNAVAILABLE")
		cli.Detail(out, "Use environment variables for secrets instead.")
	}

	fmt.Fprintln(out)
	if hasError {
		fmt.Fprintln(out, "Some checks failed. Please review the errors above.")
		return fmt.Errorf("diagnostics failed")
	}
	fmt.Fprintln(out, "All checks passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	c, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()
	return ctx.Store.Ping(c)
}

func checkSchemaVersion(ctx *cli.Context, loadErr error) error {
	if loadErr != nil {
		return loadErr
	}
	version, err := ctx.Store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version <= 0 {
		return fmt.Errorf("no migrations applied, run 'sovereign init'")
	}
	return ctx.Store.ValidateSchemaVersion()
}

func checkCache(ctx *cli.Context) error {
	c, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()
	return ctx.Cache.Ping(c)
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, err := utils.LoadLocation(ctx.Config.Timezone); err != nil {
		return err
	}
	return nil
}
