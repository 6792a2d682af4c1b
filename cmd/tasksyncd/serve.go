package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/marcus/tasksync/internal/api"
	"github.com/marcus/tasksync/internal/clock"
	"github.com/marcus/tasksync/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync server",
	Long: `Run the sync server.

Configuration is read from environment variables:

  TASKSYNC_ADDR          listen address (default :8080)
  TASKSYNC_DB_DRIVER     sqlite (default) or postgres
  TASKSYNC_DB_PATH       sqlite database file (default ./data/tasksync.db)
  TASKSYNC_DB_URL        postgres connection string
  TASKSYNC_ALLOW_SIGNUP  set to false to disable open registration
  TASKSYNC_TOKEN_TTL     lifetime of issued tokens (default 168h)
  TASKSYNC_LOG_FORMAT    json (default) or text
  TASKSYNC_LOG_LEVEL     debug, info (default), warn, error
  TASKSYNC_LOG_FILE      rotating log file; empty logs to stderr

The server shuts down cleanly on SIGINT and SIGTERM, draining in-flight
requests up to TASKSYNC_SHUTDOWN_TIMEOUT.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := api.LoadConfig()
	setupLogging(cfg)

	st, err := store.Open(cfg.StoreConfig())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	srv, err := api.NewServer(cfg, st, clock.NewMonotonic())
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	slog.Info("server started", "addr", cfg.ListenAddr, "driver", cfg.DBDriver)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}
	return nil
}

// setupLogging installs the default slog logger from config. When a log file
// is configured, output goes through lumberjack for rotation.
func setupLogging(cfg api.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.LogFormat) == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
}
