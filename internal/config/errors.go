package config

import "errors"

// Configuration validation errors.
//
// Design decision: package-level sentinel errors rather than new error
// instances in Validate(), so callers can use errors.Is() while still
// getting human-readable messages.
var (
	// ErrInvalidListenAddr is returned when the listen address is empty.
	ErrInvalidListenAddr = errors.New("invalid listen address: must not be empty")

	// ErrInvalidMaxDepth is returned when the crawl depth is negative.
	// Depth 0 is valid and crawls only the seed page.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page bound is not positive.
	// A bound of zero would make every crawl empty.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidTimeout is returned when the navigation timeout is not
	// positive. A zero timeout would fail every page load immediately.
	ErrInvalidTimeout = errors.New("invalid navigation timeout: must be positive")

	// ErrInvalidConcurrency is returned when the job concurrency is not
	// positive. Zero concurrency would mean no job ever runs.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")
)
