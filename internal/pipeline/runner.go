package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vigicrawl/vigicrawl/internal/crawler"
	"github.com/vigicrawl/vigicrawl/internal/database"
	"github.com/vigicrawl/vigicrawl/internal/model"
	"github.com/vigicrawl/vigicrawl/internal/selector"
)

// DefaultMaxRetries is the number of additional attempts after a failed one.
const DefaultMaxRetries = 2

// Crawler runs the breadth-first crawl for one job. The crawler package
// provides the production implementation; tests inject fakes.
type Crawler interface {
	Crawl(ctx context.Context, baseURL string) (*crawler.Result, error)
}

// JobState is the in-memory state threaded through the steps of one
// attempt. The crawl result never outlives the attempt that produced it.
type JobState struct {
	// Job is the job row as loaded at submission.
	Job *model.CrawlJob

	// BaseURL is the submitted origin URL.
	BaseURL string

	// Result is set by the crawl step and consumed by save-pages.
	Result *crawler.Result
}

// Step is one named unit of job work.
type Step interface {
	// Name returns the step's durable marker name.
	Name() string

	// Memoized reports whether a completion marker lets the runner skip
	// this step on a re-run.
	Memoized() bool

	// Do executes the step against the shared state.
	Do(ctx context.Context, state *JobState) error
}

// Runner drives one job through its steps with retries and checkpointing.
type Runner struct {
	store      *database.Store
	selector   *selector.Selector
	maxRetries int
	logger     *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithMaxRetries overrides the retry budget.
func WithMaxRetries(retries int) Option {
	return func(r *Runner) {
		if retries >= 0 {
			r.maxRetries = retries
		}
	}
}

// WithSelector overrides the audit sample selector.
func WithSelector(sel *selector.Selector) Option {
	return func(r *Runner) {
		r.selector = sel
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner over the given store.
func NewRunner(store *database.Store, opts ...Option) *Runner {
	r := &Runner{
		store:      store,
		selector:   selector.New(),
		maxRetries: DefaultMaxRetries,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the job to a terminal state. A cancelled job returns nil;
// after the retry budget is exhausted the job is marked failed and the
// last attempt's error is returned.
func (r *Runner) Run(ctx context.Context, job *model.CrawlJob, baseURL string, crawl Crawler) error {
	steps := []Step{
		&markRunningStep{store: r.store},
		&executeCrawlStep{crawler: crawl},
		&savePagesStep{store: r.store, logger: r.logger},
		&selectPagesStep{store: r.store, selector: r.selector, logger: r.logger},
		&markCompletedStep{store: r.store},
	}

	var lastErr error
	for attempt := 1; attempt <= 1+r.maxRetries; attempt++ {
		state := &JobState{Job: job, BaseURL: baseURL}
		err := r.runOnce(ctx, state, steps)
		if err == nil {
			return nil
		}
		if errors.Is(err, crawler.ErrCancelled) {
			r.logger.Info("job cancelled", "job_id", job.ID)
			return nil
		}
		if ctx.Err() != nil {
			// Shutdown, not a job failure. Markers let a restart resume.
			return err
		}
		lastErr = err
		r.logger.Warn("job attempt failed",
			"job_id", job.ID,
			"attempt", attempt,
			"error", err,
		)
	}

	if err := r.store.UpdateJobStatus(ctx, job.ID, model.StatusFailed, lastErr.Error()); err != nil {
		r.logger.Error("failed to mark job failed", "job_id", job.ID, "error", err)
	}
	return lastErr
}

// runOnce executes one attempt, skipping steps whose marker is present.
func (r *Runner) runOnce(ctx context.Context, state *JobState, steps []Step) error {
	for _, step := range steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if r.store.CancelRequested(ctx, state.Job.ID) {
			return crawler.ErrCancelled
		}

		if step.Memoized() {
			done, err := r.store.StepDone(ctx, state.Job.ID, step.Name())
			if err != nil {
				return fmt.Errorf("failed to check step marker: %w", err)
			}
			if done {
				r.logger.Debug("step already done", "job_id", state.Job.ID, "step", step.Name())
				continue
			}
		}

		r.logger.Info("executing step", "job_id", state.Job.ID, "step", step.Name())
		if err := step.Do(ctx, state); err != nil {
			return fmt.Errorf("step %s: %w", step.Name(), err)
		}

		if step.Memoized() {
			if err := r.store.MarkStepDone(ctx, state.Job.ID, step.Name()); err != nil {
				return fmt.Errorf("failed to mark step done: %w", err)
			}
		}
	}
	return nil
}
