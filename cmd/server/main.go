package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/creditdesk/internal/config"
	"github.com/JonMunkholm/creditdesk/internal/core"
	_ "github.com/JonMunkholm/creditdesk/internal/core/tables" // Register all entities
	"github.com/JonMunkholm/creditdesk/internal/database"
	"github.com/JonMunkholm/creditdesk/internal/logging"
	"github.com/JonMunkholm/creditdesk/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"data_dir", cfg.Loader.DataDir,
		"db_max_conns", cfg.Database.MaxConns,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	logger.Debug("effective configuration", "config", cfg.String())

	opts, err := cfg.Loader.Options()
	if err != nil {
		logger.Error("invalid loader options", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := cfg.Database.Connect(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", core.FormatUserError(err), "cause", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database", "name", pool.Config().ConnConfig.Database)

	if cfg.Database.AutoSchema {
		if err := database.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to create schema", "error", err)
			os.Exit(1)
		}
	}

	loader := core.NewLoader(pool, opts, logger)
	service := core.NewService(pool, loader, cfg.Report.Core(), logger)

	logger.Info("entities registered", "entities", core.Names())

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	logger.Info("server stopped")
}
