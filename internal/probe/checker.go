package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Probe errors.
var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("URL scheme must be http or https")

	// ErrUnreachable is returned when the origin does not answer with a
	// success or redirect status.
	ErrUnreachable = errors.New("origin is not reachable")
)

// Default probe settings.
const (
	// DefaultTimeout bounds the whole probe including retries.
	DefaultTimeout = 5 * time.Second

	// DefaultRetryMax is the number of automatic retries on transient
	// failures.
	DefaultRetryMax = 1
)

// Checker performs the pre-crawl liveness probe.
type Checker struct {
	client  *retryablehttp.Client
	timeout time.Duration
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout overrides the overall probe deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Used in tests to
// point the probe at a local server.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		c.client.HTTPClient = client
	}
}

// NewChecker creates a Checker.
func NewChecker(opts ...Option) *Checker {
	client := retryablehttp.NewClient()
	client.RetryMax = DefaultRetryMax
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 500 * time.Millisecond
	client.Logger = nil

	c := &Checker{
		client:  client,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsReachable reports whether rawURL answers a HEAD request with a 2xx or
// 3xx status within the probe deadline. A nil return means reachable.
func (c *Checker) IsReachable(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w, got %q", ErrUnsupportedScheme, u.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Debug("probe request failed", "url", rawURL, "error", err)
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return nil
	}
	return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
}
