package browser

import (
	"context"
	"errors"
	"log/slog"

	"github.com/chromedp/chromedp"
)

// ErrSessionClosed is returned when fetching through a closed session.
var ErrSessionClosed = errors.New("browser session closed")

// Session owns one headless browser instance.
//
// A session is scoped to a single crawl: the orchestrator acquires it before
// the first page and releases it on every exit path (success, per-page error
// or orchestration abort). Each Fetch opens a fresh tab inside the session,
// so pages do not share navigation state.
type Session struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc

	browserCtx    context.Context
	browserCancel context.CancelFunc

	closed bool
	logger *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	userAgent string
	logger    *slog.Logger
	execPath  string
}

// WithUserAgent sets the User-Agent the browser sends on every request.
func WithUserAgent(ua string) SessionOption {
	return func(c *sessionConfig) {
		c.userAgent = ua
	}
}

// WithSessionLogger sets a custom logger for the session.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		c.logger = logger
	}
}

// WithExecPath sets an explicit Chrome/Chromium binary path.
// When empty, chromedp searches the usual installation locations.
func WithExecPath(path string) SessionOption {
	return func(c *sessionConfig) {
		c.execPath = path
	}
}

// NewSession starts a headless browser and returns the owning Session.
// The caller must Close the session when the crawl finishes.
func NewSession(ctx context.Context, opts ...SessionOption) (*Session, error) {
	cfg := &sessionConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.userAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(cfg.userAgent))
	}
	if cfg.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser process now so acquisition failures surface at
	// crawl start instead of on the first page.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, err
	}

	return &Session{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		logger:        cfg.logger,
	}, nil
}

// Close shuts the browser down and releases the allocator.
// Close is idempotent.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.browserCancel()
	s.allocCancel()
	s.logger.Debug("browser session closed")
}
