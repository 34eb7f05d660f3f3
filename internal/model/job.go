package model

import "time"

// Status represents the lifecycle state of a crawl job.
//
// Transitions are monotonic and one-directional:
//
//	pending -> running -> completed
//	                   -> failed
//	pending/running    -> cancelled
//
// No transition ever leaves a terminal state.
type Status string

// Crawl job statuses.
const (
	// StatusPending means the job has been created but not yet picked up.
	StatusPending Status = "pending"

	// StatusRunning means the job is currently executing its steps.
	StatusRunning Status = "running"

	// StatusCompleted means the job finished and its pages are persisted.
	StatusCompleted Status = "completed"

	// StatusFailed means the job gave up after exhausting its retries.
	StatusFailed Status = "failed"

	// StatusCancelled means a cancel request took effect before completion.
	StatusCancelled Status = "cancelled"
)

// String returns the status as a string.
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status is a final state.
// Pollers stop polling once a job reaches a terminal status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to next is a legal
// state-machine transition. Terminal states accept no transitions.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusFailed || next == StatusCancelled
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed || next == StatusCancelled
	default:
		return false
	}
}

// CrawlJob is one bounded execution attempt of crawling an origin.
// An audit accumulates many jobs over time (re-audit history); each job is
// owned exclusively by the orchestrator after creation. The only
// user-initiated mutation is an advisory cancel request.
type CrawlJob struct {
	// ID is an opaque unique token identifying the job.
	ID string `json:"id"`

	// AuditID is the owning audit.
	AuditID int64 `json:"audit_id"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// MaxDepth is the crawl depth bound (0 = seed page only).
	MaxDepth int `json:"max_depth"`

	// MaxPages bounds the total number of pages discovered.
	MaxPages int `json:"max_pages"`

	// PagesCrawled counts pages successfully fetched so far.
	// Progress counters are last-write-wins; pollers only need
	// eventual consistency.
	PagesCrawled int `json:"pages_crawled"`

	// PagesDiscovered counts unique URLs admitted to the frontier.
	PagesDiscovered int `json:"pages_discovered"`

	// ErrorMessage holds the failure reason for failed jobs.
	ErrorMessage string `json:"error_message,omitempty"`

	// LatestPageURL is the URL of the most recently processed page,
	// updated alongside the progress counters.
	LatestPageURL string `json:"latest_page_url,omitempty"`

	// LatestPageTitle is the rendered title of that page.
	LatestPageTitle string `json:"latest_page_title,omitempty"`

	// CancelRequested is set by the advisory cancel operation.
	// The scheduler checks it cooperatively between page attempts.
	CancelRequested bool `json:"cancel_requested,omitempty"`

	// StartedAt is when the job entered the running state.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// CreatedAt is when the job was submitted.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the last mutation time.
	UpdatedAt time.Time `json:"updated_at"`
}
