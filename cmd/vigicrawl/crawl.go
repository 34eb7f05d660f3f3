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

	"github.com/vigicrawl/vigicrawl/internal/blob"
	"github.com/vigicrawl/vigicrawl/internal/config"
	"github.com/vigicrawl/vigicrawl/internal/database"
	"github.com/vigicrawl/vigicrawl/internal/model"
	"github.com/vigicrawl/vigicrawl/internal/orchestrator"
	"github.com/vigicrawl/vigicrawl/internal/probe"
	"github.com/vigicrawl/vigicrawl/internal/urlnorm"
)

// pollInterval is how often the one-shot crawl polls job progress.
const pollInterval = 500 * time.Millisecond

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl a website once and print the audit sample",
		Long: `Crawl performs a one-shot crawl of a public website.

It renders each page in a headless browser, follows same-origin links
breadth-first up to the configured depth and page bound, classifies every
page by purpose and selects a representative sample for auditing.

Results are stored in the local database; the selected sample is printed
when the crawl finishes.

Examples:
  # Crawl with default bounds
  vigicrawl crawl https://www.example.fr

  # Shallow crawl limited to 20 pages
  vigicrawl crawl -d 1 -p 20 https://www.example.fr

  # Honor robots.txt and slow down between fetches
  vigicrawl crawl --respect-robots --delay 2s https://www.example.fr`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	addCrawlFlags(cmd)

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	// One job at a time for a one-shot crawl.
	cfg.Concurrency = 1

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, args[0], logger)
}

// runCrawl submits one job, polls it to a terminal state and prints the
// selected audit sample.
func runCrawl(ctx context.Context, cfg *config.Config, target string, logger *slog.Logger) error {
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	blobs, err := blob.NewFS(cfg.BlobDir)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	opts := []orchestrator.Option{orchestrator.WithLogger(logger)}
	if !cfg.SkipProbe {
		opts = append(opts, orchestrator.WithLivenessChecker(probe.NewChecker()))
	}
	orch := orchestrator.New(cfg, store, blobs, opts...)
	defer orch.Close()

	resp, err := orch.Submit(ctx, orchestrator.SubmitRequest{URL: target})
	if err != nil {
		return err
	}

	fmt.Printf("Crawling %s...\n", target)
	startTime := time.Now()

	status, err := pollUntilDone(ctx, orch, resp.CrawlJobID)
	if err != nil {
		// Interrupted: flag the job cancelled so the crawl stops between
		// pages, then let Close drain it.
		if cancelErr := orch.Cancel(context.Background(), resp.CrawlJobID); cancelErr != nil {
			logger.Warn("failed to cancel job", "job_id", resp.CrawlJobID, "error", cancelErr)
		}
		return err
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Crawl %s in %s\n\n", status.Status, elapsed.Round(time.Millisecond))

	if status.Status == model.StatusFailed {
		return fmt.Errorf("crawl failed: %s", status.ErrorMessage)
	}
	if status.Status != model.StatusCompleted {
		return nil
	}

	printAuditLine(ctx, store, target, logger)
	return printSample(ctx, store, resp.CrawlJobID)
}

// printAuditLine prints which audit the crawl belongs to. Best effort.
func printAuditLine(ctx context.Context, store *database.Store, target string, logger *slog.Logger) {
	normalizer, err := urlnorm.New(target)
	if err != nil {
		return
	}
	audit, err := store.GetAudit(ctx, normalizer.Origin())
	if err != nil || audit == nil {
		if err != nil {
			logger.Warn("failed to load audit", "origin", normalizer.Origin(), "error", err)
		}
		return
	}
	fmt.Printf("Audit #%d: %s (first audited %s)\n",
		audit.ID, audit.URL, audit.CreatedAt.Format("2006-01-02"))
}

// pollUntilDone polls job status, printing progress, until the job
// reaches a terminal state or the context is cancelled.
func pollUntilDone(ctx context.Context, orch *orchestrator.Orchestrator, jobID string) (*orchestrator.StatusResponse, error) {
	var lastCrawled int
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}

		status, err := orch.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}

		if status.PagesCrawled > lastCrawled {
			lastCrawled = status.PagesCrawled
			if status.LatestPage != nil {
				fmt.Printf("  [%d/%d] %s\n",
					status.PagesCrawled, status.PagesDiscovered, status.LatestPage.URL)
			}
		}

		if status.Status.IsTerminal() {
			return status, nil
		}
	}
}

// printSample prints the pages selected for auditing.
func printSample(ctx context.Context, store *database.Store, jobID string) error {
	pages, err := store.PagesForJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load pages: %w", err)
	}

	var selected []*model.CrawledPage
	for _, page := range pages {
		if page.SelectedForAudit {
			selected = append(selected, page)
		}
	}

	fmt.Printf("Crawled %d pages, selected %d for auditing:\n", len(pages), len(selected))
	for _, page := range selected {
		title := page.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(os.Stdout, "  %-22s %s  %s\n", page.Category, page.NormalizedURL, title)
	}

	return nil
}
