package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ishangavidusha/httpserver"
	"github.com/ishangavidusha/httpserver/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use at the given level.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// serveCmd starts the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server",
	Long: `Start the HTTP server.

The server will:
  - Load configuration from the specified YAML file
  - Register the configured static and stream routes
  - Accept connections on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  httpserver serve -c config.yaml
  httpserver serve --config /etc/httpserver/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// level already validated during config parsing
	level, _ := httpserver.ParseLevel(cfg.LogLevel)
	logger := newLogger(level)

	logger.Info("config loaded",
		"static_routes", len(cfg.Static),
		"stream_routes", len(cfg.Streams),
	)
	logger.Info("starting server",
		"port", cfg.Port,
		"poll_interval", cfg.PollInterval.Duration().String(),
	)

	// convert config to SDK routes
	router, cache, err := config.BuildRouter(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build routes: %w", err)
	}
	if cache != nil {
		defer cache.Close()
	}

	opts := append(config.BuildOptions(cfg, logger), httpserver.WithRouter(router))

	srv, err := httpserver.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	// wait for server to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
