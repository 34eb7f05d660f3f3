package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vigicrawl/vigicrawl/internal/blob"
	"github.com/vigicrawl/vigicrawl/internal/config"
	"github.com/vigicrawl/vigicrawl/internal/database"
	"github.com/vigicrawl/vigicrawl/internal/orchestrator"
	"github.com/vigicrawl/vigicrawl/internal/probe"
	"github.com/vigicrawl/vigicrawl/internal/server"
)

// shutdownTimeout bounds the graceful HTTP shutdown on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the crawl orchestration HTTP API",
		Long: `Serve exposes the crawl orchestrator over HTTP.

Submitted crawl jobs run asynchronously on a bounded worker pool; clients
poll for progress and results.

Routes:
  POST   /api/crawls            submit a crawl job
  GET    /api/crawls/:id        poll job status
  POST   /api/crawls/:id/cancel request a cancel
  DELETE /api/data              erase all crawl data

Examples:
  # Serve on the default port
  vigicrawl serve

  # Serve on a custom address with three concurrent jobs
  vigicrawl serve --listen :9000 --concurrency 3`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addCrawlFlags(cmd)
	cmd.Flags().StringP("listen", "l", config.DefaultListenAddr,
		"HTTP listen address")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of crawl jobs running at once")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	cfg.ListenAddr, err = cmd.Flags().GetString("listen")
	if err != nil {
		return err
	}
	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, cfg, logger)
}

// runServe opens the storage layers, builds the orchestrator and serves
// HTTP until the context is cancelled.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	logger.Info("database opened", "dir", cfg.DBDir)

	blobs, err := blob.NewFS(cfg.BlobDir)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	opts := []orchestrator.Option{orchestrator.WithLogger(logger)}
	if !cfg.SkipProbe {
		opts = append(opts, orchestrator.WithLivenessChecker(probe.NewChecker()))
	}
	orch := orchestrator.New(cfg, store, blobs, opts...)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(orch, server.WithLogger(logger)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving crawl API", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		_ = orch.Close()
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http shutdown failed", "error", err)
	}

	if err := orch.Close(); err != nil {
		logger.Error("failed to drain running jobs", "error", err)
	}
	return nil
}
