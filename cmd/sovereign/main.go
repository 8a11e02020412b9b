package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/sovereign/internal/cli"
	"github.com/julianstephens/sovereign/internal/cli/caches"
	"github.com/julianstephens/sovereign/internal/cli/habits"
	"github.com/julianstephens/sovereign/internal/cli/posts"
	"github.com/julianstephens/sovereign/internal/cli/system"
	"github.com/julianstephens/sovereign/internal/config"
	"github.com/julianstephens/sovereign/internal/constants"
	"github.com/julianstephens/sovereign/internal/errors"
	"github.com/julianstephens/sovereign/internal/logger"
	"github.com/julianstephens/sovereign/internal/utils"
)

var CLI struct {
	Version    kong.VersionFlag
	ConfigFile string `help:"Config file path." type:"string" default:"~/.config/sovereign/config.yaml"`
	Database   string `help:"SQLite path or PostgreSQL connection string, overriding the config file. For PostgreSQL, credentials must NOT be embedded; use the environment, .pgpass or the OS keyring." type:"string"`
	Debug      bool   `help:"Log debug output to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize sovereign storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show a stored secret (masked)."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove a secret from the OS keyring."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability."`
	} `cmd:"" help:"Manage credentials in the OS keyring."`
	Habit habits.HabitCmd `cmd:"" help:"Manage habits and record completions."`
	Post  posts.PostCmd   `cmd:"" help:"Manage posts, likes and comments."`
	Cache caches.CacheCmd `cmd:"" help:"Inspect and maintain the cache."`
}

// Commands that run against an unloaded store.
var skipLoad = map[string]bool{
	"init":    true,
	"migrate": true,
	"doctor":  true,
	"keyring": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit streaks and community engagement, backed by a consistent cache"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.ConfigFile)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Database != "" {
		cfg.Database = CLI.Database
		if err := cfg.Validate(); err != nil {
			errors.Fatal(err)
		}
	}
	cfg.Log.Debug = cfg.Log.Debug || CLI.Debug

	if err := logger.Init(logger.Config{Debug: cfg.Log.Debug, Dir: cfg.Log.Dir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	appCtx, err := cli.NewContext(cfg)
	if err != nil {
		errors.Fatal(err)
	}
	if appCtx.ConfigPath, err = utils.ExpandPath(CLI.ConfigFile); err != nil {
		errors.Fatal(err)
	}
	defer appCtx.Close()

	if ctx.Selected() != nil && !skipLoad[rootCommand(ctx)] {
		if err := appCtx.Store.Load(); err != nil {
			appCtx.Close()
			errors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		appCtx.Close()
		errors.Fatal(err)
	}
}

// rootCommand returns the first command word of the parsed invocation.
func rootCommand(ctx *kong.Context) string {
	for _, p := range ctx.Path {
		if p.Command != nil {
			return p.Command.Name
		}
	}
	return ""
}
