package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vigicrawl/vigicrawl/internal/blob"
	"github.com/vigicrawl/vigicrawl/internal/browser"
	"github.com/vigicrawl/vigicrawl/internal/config"
	"github.com/vigicrawl/vigicrawl/internal/crawler"
	"github.com/vigicrawl/vigicrawl/internal/database"
	"github.com/vigicrawl/vigicrawl/internal/model"
	"github.com/vigicrawl/vigicrawl/internal/pipeline"
	"github.com/vigicrawl/vigicrawl/internal/urlnorm"
)

// ErrInvalidURL rejects a submission whose URL does not parse as an
// absolute http or https URL. The message is the user-facing one.
var ErrInvalidURL = errors.New("URL invalide")

// ErrOriginUnreachable rejects a submission whose origin failed the
// liveness probe.
var ErrOriginUnreachable = errors.New("origin failed liveness probe")

// LivenessChecker is the pre-submission probe. The probe package provides
// the production implementation.
type LivenessChecker interface {
	IsReachable(ctx context.Context, rawURL string) error
}

// FetcherFactory builds the page fetcher for one job, returning a release
// function invoked when the job finishes. The default factory opens a
// dedicated browser session per job.
type FetcherFactory func(ctx context.Context) (crawler.Fetcher, func(), error)

// SubmitRequest is one crawl submission.
type SubmitRequest struct {
	// URL is the origin to crawl. Must be absolute http or https.
	URL string `json:"url"`

	// MaxDepth overrides the configured crawl depth when positive.
	MaxDepth int `json:"maxDepth"`

	// MaxPages overrides the configured discovery bound when positive.
	MaxPages int `json:"maxPages"`
}

// SubmitResponse identifies the created audit and job.
type SubmitResponse struct {
	AuditID    int64  `json:"auditId"`
	CrawlJobID string `json:"crawlJobId"`
}

// LatestPage is the most recently processed page, for progress display.
type LatestPage struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// StatusResponse is one poll result.
type StatusResponse struct {
	Status          model.Status `json:"status"`
	PagesCrawled    int          `json:"pagesCrawled"`
	PagesDiscovered int          `json:"pagesDiscovered"`
	ErrorMessage    string       `json:"errorMessage,omitempty"`
	LatestPage      *LatestPage  `json:"latestPage,omitempty"`
}

// Orchestrator coordinates crawl jobs end to end.
type Orchestrator struct {
	cfg     *config.Config
	store   *database.Store
	blobs   blob.Store
	runner  *pipeline.Runner
	checker LivenessChecker
	fetcher FetcherFactory
	logger  *slog.Logger

	// jobs is the bounded worker pool. Job errors are logged, never
	// propagated between jobs.
	jobs   *errgroup.Group
	jobCtx context.Context
	stop   context.CancelFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLivenessChecker enables the pre-submission probe.
func WithLivenessChecker(checker LivenessChecker) Option {
	return func(o *Orchestrator) {
		o.checker = checker
	}
}

// WithFetcherFactory replaces the per-job fetcher construction. Used in
// tests to avoid launching a real browser.
func WithFetcherFactory(factory FetcherFactory) Option {
	return func(o *Orchestrator) {
		o.fetcher = factory
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator. Call Close to drain running jobs.
func New(cfg *config.Config, store *database.Store, blobs blob.Store, opts ...Option) *Orchestrator {
	jobCtx, stop := context.WithCancel(context.Background())

	o := &Orchestrator{
		cfg:    cfg,
		store:  store,
		blobs:  blobs,
		logger: slog.Default(),
		jobs:   &errgroup.Group{},
		jobCtx: jobCtx,
		stop:   stop,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.fetcher == nil {
		o.fetcher = o.browserFetcherFactory
	}
	o.runner = pipeline.NewRunner(store, pipeline.WithLogger(o.logger))
	o.jobs.SetLimit(cfg.Concurrency)
	return o
}

// Submit validates a submission, records it and enqueues the crawl.
// Validation errors are synchronous; they never create a job.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	normalizer, err := urlnorm.New(req.URL)
	if err != nil {
		return nil, ErrInvalidURL
	}

	if o.checker != nil {
		if err := o.checker.IsReachable(ctx, req.URL); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOriginUnreachable, err)
		}
	}

	auditID, err := o.store.UpsertAudit(ctx, normalizer.Origin())
	if err != nil {
		return nil, fmt.Errorf("failed to record audit: %w", err)
	}

	maxDepth, maxPages, site := o.jobBounds(req, normalizer.Origin())
	job := &model.CrawlJob{
		ID:       uuid.NewString(),
		AuditID:  auditID,
		Status:   model.StatusPending,
		MaxDepth: maxDepth,
		MaxPages: maxPages,
	}
	if err := o.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	o.logger.Info("crawl job submitted",
		"job_id", job.ID,
		"origin", normalizer.Origin(),
		"max_depth", maxDepth,
		"max_pages", maxPages,
	)

	baseURL := req.URL
	o.jobs.Go(func() error {
		o.runJob(o.jobCtx, job, baseURL, site)
		return nil
	})

	return &SubmitResponse{AuditID: auditID, CrawlJobID: job.ID}, nil
}

// Status returns the current poll view of one job.
func (o *Orchestrator) Status(ctx context.Context, jobID string) (*StatusResponse, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	resp := &StatusResponse{
		Status:          job.Status,
		PagesCrawled:    job.PagesCrawled,
		PagesDiscovered: job.PagesDiscovered,
		ErrorMessage:    job.ErrorMessage,
	}
	switch {
	case job.LatestPageURL != "":
		resp.LatestPage = &LatestPage{URL: job.LatestPageURL, Title: job.LatestPageTitle}
	default:
		// No progress columns (job predates them, or they were reset):
		// fall back to the persisted page rows.
		page, err := o.store.LatestPage(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if page != nil {
			resp.LatestPage = &LatestPage{URL: page.NormalizedURL, Title: page.Title}
		}
	}
	return resp, nil
}

// Cancel records an advisory cancel request for a job. The running crawl
// notices it between page attempts.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) error {
	return o.store.RequestCancel(ctx, jobID)
}

// EraseAll removes every screenshot blob, then every audit, job and page
// row. Irreversible.
func (o *Orchestrator) EraseAll(ctx context.Context) error {
	if err := o.blobs.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to erase blobs: %w", err)
	}
	if err := o.store.EraseAll(ctx); err != nil {
		return fmt.Errorf("failed to erase rows: %w", err)
	}
	o.logger.Info("all crawl data erased")
	return nil
}

// Close stops accepting work and waits for running jobs to notice the
// shutdown.
func (o *Orchestrator) Close() error {
	o.stop()
	return o.jobs.Wait()
}

// Wait blocks until all submitted jobs finish. Used by one-shot callers.
func (o *Orchestrator) Wait() error {
	return o.jobs.Wait()
}

// jobBounds resolves the effective depth, page bound and site overrides
// for one submission.
func (o *Orchestrator) jobBounds(req SubmitRequest, origin string) (int, int, config.SiteConfig) {
	var site config.SiteConfig
	if o.cfg.SiteConfigs != nil {
		if u, err := url.Parse(origin); err == nil {
			site = o.cfg.SiteConfigs.GetSiteConfig(u.Host)
		}
	}

	maxDepth := o.cfg.MaxDepth
	if site.MaxDepth > 0 {
		maxDepth = site.MaxDepth
	}
	if req.MaxDepth > 0 {
		maxDepth = req.MaxDepth
	}

	maxPages := o.cfg.MaxPages
	if site.MaxPages > 0 {
		maxPages = site.MaxPages
	}
	if req.MaxPages > 0 {
		maxPages = req.MaxPages
	}

	return maxDepth, maxPages, site
}

// runJob executes one job on the worker pool.
func (o *Orchestrator) runJob(ctx context.Context, job *model.CrawlJob, baseURL string, site config.SiteConfig) {
	fetcher, release, err := o.fetcher(ctx)
	if err != nil {
		o.logger.Error("failed to acquire fetcher", "job_id", job.ID, "error", err)
		if dbErr := o.store.UpdateJobStatus(ctx, job.ID, model.StatusFailed, err.Error()); dbErr != nil {
			o.logger.Error("failed to mark job failed", "job_id", job.ID, "error", dbErr)
		}
		return
	}
	defer release()

	delay := o.cfg.CrawlDelay
	if site.Delay > 0 {
		delay = site.Delay.Std()
	}

	scheduler := crawler.NewScheduler(fetcher,
		crawler.WithMaxDepth(job.MaxDepth),
		crawler.WithMaxPages(job.MaxPages),
		crawler.WithDelay(delay),
		crawler.WithRespectRobots(o.cfg.RespectRobots),
		crawler.WithIncludePaths(site.IncludePaths),
		crawler.WithExcludePaths(site.ExcludePaths),
		crawler.WithLogger(o.logger),
		crawler.WithCancelCheck(func(ctx context.Context) bool {
			return o.store.CancelRequested(ctx, job.ID)
		}),
		crawler.WithScreenshotSink(func(ctx context.Context, pageURL string, png []byte) (string, error) {
			return o.blobs.Put(ctx, job.ID, pageURL, png)
		}),
		crawler.WithProgressFunc(func(p crawler.Progress) {
			if err := o.store.UpdateJobProgress(ctx, job.ID, p.Crawled, p.Discovered, p.CurrentURL, p.CurrentTitle); err != nil {
				o.logger.Warn("failed to persist progress", "job_id", job.ID, "error", err)
			}
		}),
	)

	if err := o.runner.Run(ctx, job, baseURL, scheduler); err != nil {
		o.logger.Error("crawl job failed", "job_id", job.ID, "error", err)
		return
	}
	o.logger.Info("crawl job finished", "job_id", job.ID, "status", job.Status)
}

// browserFetcherFactory opens a dedicated browser session for one job.
func (o *Orchestrator) browserFetcherFactory(ctx context.Context) (crawler.Fetcher, func(), error) {
	session, err := browser.NewSession(ctx,
		browser.WithUserAgent(o.cfg.UserAgent),
		browser.WithSessionLogger(o.logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}
	fetcher := browser.NewFetcher(session,
		browser.WithNavigationTimeout(o.cfg.NavigationTimeout),
		browser.WithFetcherLogger(o.logger),
	)
	return fetcher, session.Close, nil
}
