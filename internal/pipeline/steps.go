package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vigicrawl/vigicrawl/internal/database"
	"github.com/vigicrawl/vigicrawl/internal/model"
	"github.com/vigicrawl/vigicrawl/internal/selector"
)

// Durable step names. They key the job_steps markers, so renaming one
// invalidates resume state of in-flight jobs.
const (
	StepMarkRunning   = "mark-running"
	StepExecuteCrawl  = "execute-crawl"
	StepSavePages     = "save-pages"
	StepSelectPages   = "select-pages"
	StepMarkCompleted = "mark-completed"
)

// markRunningStep moves the job out of pending.
type markRunningStep struct {
	store *database.Store
}

func (s *markRunningStep) Name() string   { return StepMarkRunning }
func (s *markRunningStep) Memoized() bool { return true }

func (s *markRunningStep) Do(ctx context.Context, state *JobState) error {
	// A crash between the status write and the marker leaves the job
	// already running; that is not a transition error on resume.
	if state.Job.Status == model.StatusRunning {
		return nil
	}
	if err := s.store.UpdateJobStatus(ctx, state.Job.ID, model.StatusRunning, ""); err != nil {
		return err
	}
	state.Job.Status = model.StatusRunning
	return nil
}

// executeCrawlStep runs the breadth-first crawl. It is deliberately not
// memoized: its result exists only in memory.
type executeCrawlStep struct {
	crawler Crawler
}

func (s *executeCrawlStep) Name() string   { return StepExecuteCrawl }
func (s *executeCrawlStep) Memoized() bool { return false }

func (s *executeCrawlStep) Do(ctx context.Context, state *JobState) error {
	// Page-level failures are non-fatal: a crawl that fetched nothing
	// still succeeds with an empty page set. Only a crawl-level error
	// (unparsable seed, dead browser) fails the step.
	result, err := s.crawler.Crawl(ctx, state.BaseURL)
	if err != nil {
		return err
	}
	state.Result = result
	return nil
}

// savePagesStep persists the crawl result in one transaction.
type savePagesStep struct {
	store  *database.Store
	logger *slog.Logger
}

func (s *savePagesStep) Name() string   { return StepSavePages }
func (s *savePagesStep) Memoized() bool { return true }

func (s *savePagesStep) Do(ctx context.Context, state *JobState) error {
	for _, pageErr := range state.Result.Errors {
		s.logger.Warn("page skipped during crawl",
			"job_id", state.Job.ID,
			"url", pageErr.URL,
			"reason", pageErr.Reason,
		)
	}
	return s.store.InsertPages(ctx, state.Job.ID, state.Result.Pages)
}

// selectPagesStep marks the audit sample. It reads pages back from the
// store rather than from memory, so it works on resume when save-pages
// was checkpointed by an earlier attempt.
type selectPagesStep struct {
	store    *database.Store
	selector *selector.Selector
	logger   *slog.Logger
}

func (s *selectPagesStep) Name() string   { return StepSelectPages }
func (s *selectPagesStep) Memoized() bool { return true }

func (s *selectPagesStep) Do(ctx context.Context, state *JobState) error {
	pages, err := s.store.PagesForJob(ctx, state.Job.ID)
	if err != nil {
		return err
	}

	report := s.selector.Select(pages)

	ids := make([]int64, 0, report.Selected)
	for _, page := range pages {
		if page.SelectedForAudit {
			ids = append(ids, page.ID)
		}
	}
	if err := s.store.MarkSelected(ctx, ids); err != nil {
		return err
	}

	if len(report.MissingCategories) > 0 {
		s.logger.Info("mandatory categories absent from crawl",
			"job_id", state.Job.ID,
			"missing", fmt.Sprint(report.MissingCategories),
		)
	}
	s.logger.Info("audit sample selected",
		"job_id", state.Job.ID,
		"selected", report.Selected,
		"mandatory", report.MandatorySelected,
		"special", report.SpecialSelected,
	)
	return nil
}

// markCompletedStep moves the job to its terminal success state.
type markCompletedStep struct {
	store *database.Store
}

func (s *markCompletedStep) Name() string   { return StepMarkCompleted }
func (s *markCompletedStep) Memoized() bool { return true }

func (s *markCompletedStep) Do(ctx context.Context, state *JobState) error {
	if err := s.store.UpdateJobStatus(ctx, state.Job.ID, model.StatusCompleted, ""); err != nil {
		return err
	}
	state.Job.Status = model.StatusCompleted
	return nil
}
