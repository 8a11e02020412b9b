package system

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/sovereign/internal/cache"
	"github.com/julianstephens/sovereign/internal/cli"
	"github.com/julianstephens/sovereign/internal/config"
	"github.com/julianstephens/sovereign/internal/storage"
)

type InitCmd struct {
	Force       bool `help:"Force reset by deleting an existing SQLite database before initialization."`
	WriteConfig bool `help:"Write the effective configuration to the config file if none exists." default:"true" negatable:""`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	out := ctx.Writer()

	if c.Force {
		if storage.IsPostgresURL(ctx.Config.Database) {
			return fmt.Errorf("--force only resets SQLite databases")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			// Close first to release the file.
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Fprintf(out, "Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Initialized sovereign storage at: %s\n", ctx.Store.GetConfigPath())

	if c.WriteConfig && ctx.ConfigPath != "" {
		if _, err := os.Stat(ctx.ConfigPath); os.IsNotExist(err) {
			if err := config.Save(ctx.ConfigPath, ctx.Config); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintf(out, "Wrote config to: %s\n", ctx.ConfigPath)
		}
	}

	// Cached values may predate the reset.
	if c.Force {
		if n, err := ctx.Flush(context.Background(), cache.Wildcard); err == nil && n > 0 {
			fmt.Fprintf(out, "Flushed %d cached entries\n", n)
		}
	}
	return nil
}
