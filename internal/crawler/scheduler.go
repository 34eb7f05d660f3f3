package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vigicrawl/vigicrawl/internal/browser"
	"github.com/vigicrawl/vigicrawl/internal/classifier"
	"github.com/vigicrawl/vigicrawl/internal/model"
	"github.com/vigicrawl/vigicrawl/internal/urlnorm"
)

// ErrCancelled is returned when a cancel request takes effect mid-crawl.
// The partial result accompanying it must not be persisted.
var ErrCancelled = errors.New("crawl cancelled")

// Default scheduler settings.
const (
	// DefaultMaxDepth bounds breadth-first distance from the seed.
	DefaultMaxDepth = 3

	// DefaultMaxPages bounds total discovery per job. This prevents
	// runaway crawling on large or infinitely-generating sites.
	DefaultMaxPages = 100

	// DefaultDelay is the pacing delay between page fetches.
	DefaultDelay = 1 * time.Second
)

// Fetcher renders a single page. The browser package provides the production
// implementation; tests inject fakes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*browser.PageResult, error)
}

// Progress is delivered to the observer after every page attempt.
type Progress struct {
	// Crawled is the number of successfully fetched pages so far.
	Crawled int

	// Discovered is the number of unique URLs admitted to the frontier.
	Discovered int

	// CurrentURL is the URL of the attempt that just finished.
	CurrentURL string

	// CurrentTitle is the rendered title of that page, empty on failure.
	CurrentTitle string
}

// ProgressFunc observes crawl progress. Callbacks fire after every attempt,
// in order, with Crawled never decreasing and each increment reported
// exactly once.
type ProgressFunc func(Progress)

// ScreenshotSink stores a captured screenshot and returns its opaque URL.
// A sink error is non-fatal: the page keeps an empty screenshot URL.
type ScreenshotSink func(ctx context.Context, pageURL string, png []byte) (string, error)

// CancelCheck reports whether an advisory cancel has been requested for the
// running job. The scheduler consults it between page attempts.
type CancelCheck func(ctx context.Context) bool

// PageError records one failed page attempt.
type PageError struct {
	// URL is the page that failed.
	URL string `json:"url"`

	// Reason is the failure description.
	Reason string `json:"reason"`
}

// Result is the outcome of one crawl.
type Result struct {
	// Pages are the fetched pages in discovery order, classified.
	Pages []*model.CrawledPage

	// Errors are the per-page failures; they never abort the crawl.
	Errors []PageError
}

// Scheduler is the breadth-first URL frontier for one crawl job.
type Scheduler struct {
	fetcher       Fetcher
	maxDepth      int
	maxPages      int
	delay         time.Duration
	respectRobots bool
	includePaths  []string
	excludePaths  []string
	progress      ProgressFunc
	screenshots   ScreenshotSink
	cancelCheck   CancelCheck
	robotsClient  *http.Client
	logger        *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxDepth sets the crawl depth bound. 0 means only the seed page.
func WithMaxDepth(depth int) Option {
	return func(s *Scheduler) {
		s.maxDepth = depth
	}
}

// WithMaxPages sets the discovery bound.
func WithMaxPages(maxPages int) Option {
	return func(s *Scheduler) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the pacing delay between fetches.
func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		s.delay = d
	}
}

// WithRespectRobots enables the robots.txt gate.
func WithRespectRobots(respect bool) Option {
	return func(s *Scheduler) {
		s.respectRobots = respect
	}
}

// WithIncludePaths restricts enqueueing to URLs whose path starts with one
// of the given prefixes. Empty means all paths are allowed.
func WithIncludePaths(prefixes []string) Option {
	return func(s *Scheduler) {
		s.includePaths = prefixes
	}
}

// WithExcludePaths skips URLs whose path starts with any of the prefixes.
func WithExcludePaths(prefixes []string) Option {
	return func(s *Scheduler) {
		s.excludePaths = prefixes
	}
}

// WithProgressFunc sets the progress observer.
func WithProgressFunc(fn ProgressFunc) Option {
	return func(s *Scheduler) {
		s.progress = fn
	}
}

// WithScreenshotSink sets the screenshot store for fetched pages.
func WithScreenshotSink(sink ScreenshotSink) Option {
	return func(s *Scheduler) {
		s.screenshots = sink
	}
}

// WithCancelCheck sets the advisory-cancel probe.
func WithCancelCheck(check CancelCheck) Option {
	return func(s *Scheduler) {
		s.cancelCheck = check
	}
}

// WithRobotsClient sets the HTTP client used for the one-time robots.txt
// fetch. Defaults to http.DefaultClient with a short timeout.
func WithRobotsClient(client *http.Client) Option {
	return func(s *Scheduler) {
		s.robotsClient = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler creates a Scheduler around the given fetcher.
func NewScheduler(fetcher Fetcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		fetcher:      fetcher,
		maxDepth:     DefaultMaxDepth,
		maxPages:     DefaultMaxPages,
		delay:        DefaultDelay,
		robotsClient: &http.Client{Timeout: 10 * time.Second},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// queueItem is one frontier entry.
type queueItem struct {
	url   string
	depth int
}

// Crawl runs the frontier from baseURL until it is exhausted or a bound is
// hit, then classifies the accumulated pages.
//
// The only scheduler-level failure is an unparsable seed URL. Cancellation
// (advisory or via ctx) returns the error alongside the partial result;
// callers decide whether partial results are persisted.
func (s *Scheduler) Crawl(ctx context.Context, baseURL string) (*Result, error) {
	normalizer, err := urlnorm.New(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL %q: %w", baseURL, err)
	}

	seed, err := normalizer.Normalize(normalizer.Origin() + seedPath(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL %q: %w", baseURL, err)
	}

	var robots *robotsRules
	if s.respectRobots {
		robots = fetchRobots(ctx, s.robotsClient, normalizer.Origin())
	}

	var limiter *rate.Limiter
	if s.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.delay), 1)
	}

	result := &Result{}
	visited := map[string]bool{seed: true}
	queue := []queueItem{{url: seed, depth: 0}}
	discovered := 1
	crawled := 0

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		if s.cancelCheck != nil && s.cancelCheck(ctx) {
			s.logger.Info("crawl cancelled", "crawled", crawled, "discovered", discovered)
			return result, ErrCancelled
		}

		item := queue[0]
		queue = queue[1:]

		// Politeness pacing. The first fetch proceeds immediately.
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return result, err
			}
		}

		page, pageErr := s.fetchOne(ctx, item)
		title := ""
		if pageErr != nil {
			result.Errors = append(result.Errors, PageError{URL: item.url, Reason: pageErr.Error()})
			s.logger.Warn("page fetch failed", "url", item.url, "error", pageErr)
		} else {
			result.Pages = append(result.Pages, page.record)
			crawled++
			title = page.record.Title

			// Enqueue unvisited children while bounds allow.
			if item.depth+1 <= s.maxDepth {
				for _, raw := range page.links {
					if discovered >= s.maxPages {
						break
					}
					normalized, err := normalizer.NormalizeRef(raw, page.parsed)
					if err != nil || visited[normalized] {
						continue
					}
					if !s.admit(normalized, robots) {
						continue
					}
					visited[normalized] = true
					discovered++
					queue = append(queue, queueItem{url: normalized, depth: item.depth + 1})
				}
			}
		}

		if s.progress != nil {
			s.progress(Progress{
				Crawled:      crawled,
				Discovered:   discovered,
				CurrentURL:   item.url,
				CurrentTitle: title,
			})
		}
	}

	s.classify(result.Pages)
	return result, nil
}

// fetchedPage bundles a page record with its extracted links.
type fetchedPage struct {
	record *model.CrawledPage
	links  []string
	parsed *url.URL
}

// fetchOne renders one frontier item and builds its page record.
func (s *Scheduler) fetchOne(ctx context.Context, item queueItem) (*fetchedPage, error) {
	res, err := s.fetcher.Fetch(ctx, item.url)
	if err != nil {
		return nil, err
	}

	parsed, err := url.Parse(item.url)
	if err != nil {
		return nil, fmt.Errorf("unparsable page URL: %w", err)
	}

	record := &model.CrawledPage{
		URL:             item.url,
		NormalizedURL:   item.url, // frontier entries are already normalized
		Title:           res.Title,
		Depth:           item.depth,
		HTTPStatus:      res.HTTPStatus,
		ResponseTime:    res.ResponseTime,
		ContentType:     res.ContentType,
		Characteristics: res.Characteristics,
	}

	if s.screenshots != nil && len(res.Screenshot) > 0 {
		shotURL, err := s.screenshots(ctx, item.url, res.Screenshot)
		if err != nil {
			s.logger.Warn("screenshot upload failed", "url", item.url, "error", err)
		} else {
			record.ScreenshotURL = shotURL
		}
	}

	return &fetchedPage{record: record, links: res.Links, parsed: parsed}, nil
}

// admit applies path-prefix filters and the robots gate to a normalized URL.
func (s *Scheduler) admit(normalized string, robots *robotsRules) bool {
	u, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, prefix := range s.excludePaths {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	if len(s.includePaths) > 0 {
		allowed := false
		for _, prefix := range s.includePaths {
			if strings.HasPrefix(path, prefix) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	return robots.Allows(path)
}

// classify assigns categories once the whole crawl is known, so the
// distinct-layout rule can compare against the dominant signature.
func (s *Scheduler) classify(pages []*model.CrawledPage) {
	crawlCtx := classifier.Context{
		DominantLayoutSignature: classifier.DominantSignature(pages),
	}
	for _, page := range pages {
		category, confidence := classifier.Classify(page, crawlCtx)
		page.Category = category
		page.CategoryConfidence = confidence
	}
}

// seedPath preserves the path component of the submitted URL so crawls can
// start below the origin root.
func seedPath(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
