package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "vigicrawl"

	// DefaultMaxDepth bounds breadth-first distance from the seed page.
	// Depth 0 means only the seed itself. Three levels reach the vast
	// majority of public-facing pages on institutional sites.
	DefaultMaxDepth = 3

	// DefaultMaxPages is the maximum number of pages discovered per job.
	// This prevents runaway crawling on large or infinitely-generating
	// sites. Users can override this per submission.
	DefaultMaxPages = 100

	// DefaultCrawlDelay is the delay between page fetches within one job.
	// This is a politeness setting toward the audited site; crawling is
	// serialized per job, so this directly caps the request rate.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultNavigationTimeout bounds a single rendered page load.
	// Rendered navigation includes script execution, so this is more
	// generous than a plain HTTP timeout.
	DefaultNavigationTimeout = 30 * time.Second

	// DefaultConcurrency is the number of crawl jobs running at once.
	// Each running job owns one headless browser, so this is primarily a
	// memory bound.
	DefaultConcurrency = 2

	// DefaultListenAddr is the HTTP API listen address.
	DefaultListenAddr = ":8087"

	// DefaultUserAgent identifies the crawler in HTTP requests so site
	// operators can recognize audit traffic in their logs.
	DefaultUserAgent = "VigiCrawl/1.0 (+https://github.com/vigicrawl/vigicrawl)"
)

// Config holds all configuration options for the crawl service.
// It is populated from CLI flags and passed through the application via
// dependency injection rather than global state.
//
// Design decision: a single flat struct instead of nested sub-structs.
// The number of options is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// ListenAddr is the HTTP API listen address in "host:port" format.
	ListenAddr string

	// MaxDepth is the default crawl depth for submitted jobs.
	MaxDepth int

	// MaxPages is the default discovery bound for submitted jobs.
	MaxPages int

	// CrawlDelay is the delay between page fetches within one job.
	CrawlDelay time.Duration

	// NavigationTimeout bounds a single rendered page load.
	NavigationTimeout time.Duration

	// Concurrency is the number of jobs that may run at once.
	Concurrency int

	// RespectRobots enables the robots.txt gate during crawling.
	RespectRobots bool

	// SkipProbe disables the pre-submission liveness probe.
	SkipProbe bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only info and above are logged.
	Verbose bool

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// BlobDir is the directory holding screenshot blobs.
	// Defaults to screenshots/ under the XDG data directory.
	BlobDir string

	// UserAgent is the User-Agent header sent by the rendering browser.
	UserAgent string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .vigicrawl in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site crawl overrides loaded from the config
	// file, keyed by origin host.
	SiteConfigs *File
}

// NewConfig creates a Config with default values.
//
// Design decision: a constructor instead of relying on zero values,
// because most defaults are non-zero. It also documents what the
// defaults are.
func NewConfig() *Config {
	return &Config{
		ListenAddr:        DefaultListenAddr,
		MaxDepth:          DefaultMaxDepth,
		MaxPages:          DefaultMaxPages,
		CrawlDelay:        DefaultCrawlDelay,
		NavigationTimeout: DefaultNavigationTimeout,
		Concurrency:       DefaultConcurrency,
		UserAgent:         DefaultUserAgent,
		DBDir:             XDGDataDir(),
		BlobDir:           filepath.Join(XDGDataDir(), "screenshots"),
	}
}

// XDGDataDir returns the XDG data directory for the application.
// On Linux: ~/.local/share/vigicrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the application.
// On Linux: ~/.config/vigicrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks whether the configuration is usable.
// It returns the first error found; fixing one error often makes others
// irrelevant.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return ErrInvalidListenAddr
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.NavigationTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	return nil
}
