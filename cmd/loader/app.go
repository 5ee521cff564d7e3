package main

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/creditdesk/internal/config"
	"github.com/JonMunkholm/creditdesk/internal/core"
	"github.com/JonMunkholm/creditdesk/internal/database"
	"github.com/JonMunkholm/creditdesk/internal/logging"
)

// app holds what a database command needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	pool    *pgxpool.Pool
	service *core.Service
}

// newApp loads configuration, applies command-line overrides and connects.
// check, when set, runs on the loader options before anything connects.
// Logs go to stderr so stdout carries only results.
func newApp(cmd *cobra.Command, check func(core.LoaderOptions) error) (*app, error) {
	envErr := godotenv.Overload()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if envErr == nil {
		logger.Debug("loaded .env file")
	}

	loaderOpts, err := cfg.Loader.Options()
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(loaderOpts); err != nil {
			return nil, err
		}
	}

	ctx := cmd.Context()
	pool, err := cfg.Database.Connect(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoSchema {
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	loader := core.NewLoader(pool, loaderOpts, logger)
	return &app{
		cfg:     cfg,
		logger:  logger,
		pool:    pool,
		service: core.NewService(pool, loader, cfg.Report.Core(), logger),
	}, nil
}

func (a *app) close() {
	a.pool.Close()
}

// loadConfig reads the environment and applies the flags that were set.
// The database target is checked when connecting, after local input.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.ValidateSettings(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides cfg with the loader flags given on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	textFlags := map[string]*string{
		"data-dir":     &cfg.Loader.DataDir,
		"delimiter":    &cfg.Loader.Delimiter,
		"on-duplicate": &cfg.Loader.OnDuplicate,
		"commit":       &cfg.Loader.Commit,
	}
	for name, dst := range textFlags {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if flags.Changed("day-first") {
		cfg.Loader.DayFirst, _ = flags.GetBool("day-first")
	}
}
