package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/vigicrawl/vigicrawl/internal/model"
)

// Default fetcher settings.
const (
	// DefaultNavigationTimeout bounds one rendered navigation. A timeout is
	// a page-level error, never a job-level failure.
	DefaultNavigationTimeout = 30 * time.Second

	// DefaultSettleDelay is the extra wait after the DOM is ready, giving
	// client-side rendering a chance to populate the page. Best effort:
	// there is no general way to know when a SPA has finished.
	DefaultSettleDelay = 2 * time.Second
)

// PageResult is the outcome of rendering a single page.
type PageResult struct {
	// URL is the fetched URL.
	URL string

	// Title is the rendered document title.
	Title string

	// HTTPStatus is the status of the main document response, 0 if the
	// browser never reported one.
	HTTPStatus int

	// ResponseTime is the wall time of the rendered navigation.
	ResponseTime time.Duration

	// ContentType is the MIME type of the main document response.
	ContentType string

	// HTML is the rendered document markup.
	HTML string

	// Links are raw hrefs found in the rendered DOM.
	Links []string

	// Characteristics are the DOM-derived page signals.
	Characteristics model.Characteristics

	// Screenshot is the captured PNG, nil when capture failed.
	// Capture failure is non-fatal.
	Screenshot []byte
}

// Fetcher renders pages in fresh tabs of one browser session.
type Fetcher struct {
	session *Session
	timeout time.Duration
	settle  time.Duration
	logger  *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithNavigationTimeout bounds each rendered navigation.
func WithNavigationTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithSettleDelay sets the post-load wait for client-side rendering.
func WithSettleDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.settle = d
	}
}

// WithFetcherLogger sets a custom logger for the fetcher.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher over an open session.
func NewFetcher(session *Session, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		session: session,
		timeout: DefaultNavigationTimeout,
		settle:  DefaultSettleDelay,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch renders one page and extracts its signals.
// Navigation errors and timeouts are returned as errors for the scheduler
// to record as per-page failures.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*PageResult, error) {
	if f.session.closed {
		return nil, ErrSessionClosed
	}

	// Fresh tab per page; bounded by the navigation timeout and released
	// when the fetch returns.
	tabCtx, cancelTab := chromedp.NewContext(f.session.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	// Propagate caller cancellation into the tab.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	// The main document response arrives on the event stream; the first
	// document-type response belongs to the navigation.
	var (
		mu          sync.Mutex
		status      int
		contentType string
	)
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		mu.Lock()
		if status == 0 {
			status = int(resp.Response.Status)
			contentType = resp.Response.MimeType
		}
		mu.Unlock()
	})

	var title, html string
	start := time.Now()
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.settle),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("rendered navigation failed for %s: %w", pageURL, err)
	}

	inspector, err := NewInspector(html)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", pageURL, err)
	}

	mu.Lock()
	result := &PageResult{
		URL:             pageURL,
		Title:           title,
		HTTPStatus:      status,
		ResponseTime:    elapsed,
		ContentType:     contentType,
		HTML:            html,
		Links:           inspector.Links(),
		Characteristics: inspector.Characteristics(),
	}
	mu.Unlock()

	// Screenshot capture is best effort.
	var shot []byte
	if err := chromedp.Run(tabCtx, chromedp.CaptureScreenshot(&shot)); err != nil {
		f.logger.Warn("screenshot capture failed", "url", pageURL, "error", err)
	} else {
		result.Screenshot = shot
	}

	return result, nil
}
