package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/vigicrawl/vigicrawl/internal/browser"
	"github.com/vigicrawl/vigicrawl/internal/model"
)

// fakeFetcher serves canned page results keyed by normalized URL.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]*browser.PageResult
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*browser.PageResult, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()

	res, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no route for %s", url)
	}
	return res, nil
}

func pageResult(title string, links ...string) *browser.PageResult {
	return &browser.PageResult{
		Title:      title,
		HTTPStatus: 200,
		Links:      links,
	}
}

// TestCrawlBounds verifies depth and discovery limits together: a seed at
// depth 0 linking to many children with maxDepth=1 and maxPages=5 crawls
// exactly 5 pages.
func TestCrawlBounds(t *testing.T) {
	t.Parallel()

	links := []string{"/contact", "/mentions-legales"}
	for i := 0; i < 10; i++ {
		links = append(links, fmt.Sprintf("/page-%d", i))
	}

	fetcher := &fakeFetcher{pages: map[string]*browser.PageResult{
		"https://example.com/":                pageResult("Accueil", links...),
		"https://example.com/contact":         pageResult("Contact"),
		"https://example.com/mentions-legales": pageResult("Mentions légales"),
		"https://example.com/page-0":          pageResult("Page 0", "/page-99"),
		"https://example.com/page-1":          pageResult("Page 1"),
	}}

	var progress []Progress
	s := NewScheduler(fetcher,
		WithMaxDepth(1),
		WithMaxPages(5),
		WithDelay(0),
		WithProgressFunc(func(p Progress) { progress = append(progress, p) }),
	)

	result, err := s.Crawl(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}

	if len(result.Pages) != 5 {
		t.Fatalf("crawled %d pages, want 5", len(result.Pages))
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected page errors: %v", result.Errors)
	}

	t.Run("discovery order is breadth first", func(t *testing.T) {
		want := []string{
			"https://example.com/",
			"https://example.com/contact",
			"https://example.com/mentions-legales",
			"https://example.com/page-0",
			"https://example.com/page-1",
		}
		for i, p := range result.Pages {
			if p.NormalizedURL != want[i] {
				t.Errorf("page %d = %s, want %s", i, p.NormalizedURL, want[i])
			}
			if i == 0 && p.Depth != 0 {
				t.Errorf("seed depth = %d, want 0", p.Depth)
			}
			if i > 0 && p.Depth != 1 {
				t.Errorf("page %d depth = %d, want 1", i, p.Depth)
			}
		}
	})

	t.Run("deeper links never fetched", func(t *testing.T) {
		// page-0 links to page-99 at depth 2, beyond maxDepth.
		for _, url := range fetcher.fetched {
			if url == "https://example.com/page-99" {
				t.Error("depth-2 page should not be fetched")
			}
		}
	})

	t.Run("progress reported per attempt", func(t *testing.T) {
		if len(progress) != 5 {
			t.Fatalf("got %d progress callbacks, want 5", len(progress))
		}
		for i, p := range progress {
			if p.Crawled != i+1 {
				t.Errorf("callback %d: Crawled = %d, want %d", i, p.Crawled, i+1)
			}
			if p.Discovered > 5 {
				t.Errorf("callback %d: Discovered = %d, exceeds cap", i, p.Discovered)
			}
		}
		last := progress[len(progress)-1]
		if last.Discovered != 5 {
			t.Errorf("final Discovered = %d, want 5", last.Discovered)
		}
	})

	t.Run("classification applied", func(t *testing.T) {
		byURL := map[string]*model.CrawledPage{}
		for _, p := range result.Pages {
			byURL[p.NormalizedURL] = p
		}
		if got := byURL["https://example.com/"].Category; got != model.CategoryHomepage {
			t.Errorf("seed category = %s, want homepage", got)
		}
		if got := byURL["https://example.com/contact"].Category; got != model.CategoryContact {
			t.Errorf("contact category = %s, want contact", got)
		}
		if got := byURL["https://example.com/mentions-legales"].Category; got != model.CategoryLegalNotices {
			t.Errorf("legal category = %s, want legal_notices", got)
		}
	})
}

// TestCrawlDeduplication verifies that URL variants of an already-visited
// page are admitted only once.
func TestCrawlDeduplication(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]*browser.PageResult{
		"https://example.com/": pageResult("Accueil",
			"/aide", "/aide/", "/aide?utm_source=news", "https://example.com/aide#faq"),
		"https://example.com/aide": pageResult("Aide"),
	}}

	s := NewScheduler(fetcher, WithDelay(0))
	result, err := s.Crawl(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}

	if len(result.Pages) != 2 {
		t.Fatalf("crawled %d pages, want 2", len(result.Pages))
	}
	if len(fetcher.fetched) != 2 {
		t.Errorf("fetched %d times, want 2: %v", len(fetcher.fetched), fetcher.fetched)
	}
}

// TestCrawlScopeAndFilters verifies external links, exclusions and
// inclusions never reach the fetcher.
func TestCrawlScopeAndFilters(t *testing.T) {
	t.Parallel()

	t.Run("external hosts skipped", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]*browser.PageResult{
			"https://example.com/": pageResult("Accueil",
				"https://other.org/page", "/interne"),
			"https://example.com/interne": pageResult("Interne"),
		}}
		s := NewScheduler(fetcher, WithDelay(0))
		result, err := s.Crawl(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}
		if len(result.Pages) != 2 {
			t.Errorf("crawled %d pages, want 2", len(result.Pages))
		}
	})

	t.Run("exclude prefix wins over include", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]*browser.PageResult{
			"https://example.com/": pageResult("Accueil",
				"/docs/guide", "/docs/prive/secret", "/blog/post"),
			"https://example.com/docs/guide": pageResult("Guide"),
		}}
		s := NewScheduler(fetcher,
			WithDelay(0),
			WithIncludePaths([]string{"/docs"}),
			WithExcludePaths([]string{"/docs/prive"}),
		)
		result, err := s.Crawl(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}
		if len(result.Pages) != 2 {
			t.Fatalf("crawled %d pages, want 2", len(result.Pages))
		}
		for _, url := range fetcher.fetched {
			if url == "https://example.com/docs/prive/secret" ||
				url == "https://example.com/blog/post" {
				t.Errorf("filtered URL was fetched: %s", url)
			}
		}
	})
}

// TestCrawlPageFailureContinues verifies a failed page is recorded and the
// frontier keeps draining.
func TestCrawlPageFailureContinues(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]*browser.PageResult{
		"https://example.com/": pageResult("Accueil", "/casse", "/contact"),
		// /casse intentionally has no route and will fail.
		"https://example.com/contact": pageResult("Contact"),
	}}

	s := NewScheduler(fetcher, WithDelay(0))
	result, err := s.Crawl(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}

	if len(result.Pages) != 2 {
		t.Errorf("crawled %d pages, want 2", len(result.Pages))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(result.Errors))
	}
	if result.Errors[0].URL != "https://example.com/casse" {
		t.Errorf("error URL = %s", result.Errors[0].URL)
	}
}

// TestCrawlInvalidSeed verifies the only scheduler-level failure mode.
func TestCrawlInvalidSeed(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&fakeFetcher{}, WithDelay(0))
	if _, err := s.Crawl(context.Background(), "ftp://example.com"); err == nil {
		t.Error("expected error for non-http seed")
	}
	if _, err := s.Crawl(context.Background(), "://broken"); err == nil {
		t.Error("expected error for unparsable seed")
	}
}

// TestCrawlCancel verifies the advisory cancel takes effect between
// attempts and surfaces ErrCancelled.
func TestCrawlCancel(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]*browser.PageResult{
		"https://example.com/":  pageResult("Accueil", "/a", "/b", "/c"),
		"https://example.com/a": pageResult("A"),
		"https://example.com/b": pageResult("B"),
		"https://example.com/c": pageResult("C"),
	}}

	attempts := 0
	s := NewScheduler(fetcher,
		WithDelay(0),
		WithCancelCheck(func(context.Context) bool {
			attempts++
			return attempts > 2
		}),
	)

	result, err := s.Crawl(context.Background(), "https://example.com")
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if len(result.Pages) != 2 {
		t.Errorf("partial result has %d pages, want 2", len(result.Pages))
	}
}

// TestCrawlContextCancel verifies ctx cancellation stops the frontier.
func TestCrawlContextCancel(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]*browser.PageResult{
		"https://example.com/":  pageResult("Accueil", "/a"),
		"https://example.com/a": pageResult("A"),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(fetcher,
		WithDelay(0),
		WithProgressFunc(func(Progress) { cancel() }),
	)

	_, err := s.Crawl(ctx, "https://example.com")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestCrawlRobotsGate verifies disallowed paths are never enqueued when the
// gate is on, and that the gate is off by default.
func TestCrawlRobotsGate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprintln(w, "User-agent: *")
			fmt.Fprintln(w, "Disallow: /admin")
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	fetcher := &fakeFetcher{pages: map[string]*browser.PageResult{
		srv.URL + "/":      pageResult("Accueil", "/admin/login", "/public"),
		srv.URL + "/public": pageResult("Public"),
		srv.URL + "/admin/login": pageResult("Admin"),
	}}

	t.Run("gate enabled", func(t *testing.T) {
		s := NewScheduler(fetcher,
			WithDelay(0),
			WithRespectRobots(true),
			WithRobotsClient(srv.Client()),
		)
		result, err := s.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}
		for _, p := range result.Pages {
			if p.NormalizedURL == srv.URL+"/admin/login" {
				t.Error("disallowed page was crawled")
			}
		}
		if len(result.Pages) != 2 {
			t.Errorf("crawled %d pages, want 2", len(result.Pages))
		}
	})

	t.Run("gate off by default", func(t *testing.T) {
		s := NewScheduler(fetcher, WithDelay(0))
		result, err := s.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}
		if len(result.Pages) != 3 {
			t.Errorf("crawled %d pages, want 3", len(result.Pages))
		}
	})
}

// TestCrawlScreenshotSink verifies sink wiring and that sink failures are
// non-fatal.
func TestCrawlScreenshotSink(t *testing.T) {
	t.Parallel()

	shot := &browser.PageResult{
		Title:      "Accueil",
		HTTPStatus: 200,
		Screenshot: []byte{0x89, 'P', 'N', 'G'},
	}
	fetcher := &fakeFetcher{pages: map[string]*browser.PageResult{
		"https://example.com/": shot,
	}}

	t.Run("stored URL recorded", func(t *testing.T) {
		s := NewScheduler(fetcher, WithDelay(0),
			WithScreenshotSink(func(_ context.Context, pageURL string, png []byte) (string, error) {
				if len(png) != 4 {
					t.Errorf("sink got %d bytes", len(png))
				}
				return "file:///shots/home.png", nil
			}),
		)
		result, err := s.Crawl(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}
		if result.Pages[0].ScreenshotURL != "file:///shots/home.png" {
			t.Errorf("ScreenshotURL = %q", result.Pages[0].ScreenshotURL)
		}
	})

	t.Run("sink failure keeps page", func(t *testing.T) {
		s := NewScheduler(fetcher, WithDelay(0),
			WithScreenshotSink(func(context.Context, string, []byte) (string, error) {
				return "", errors.New("disk full")
			}),
		)
		result, err := s.Crawl(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}
		if result.Pages[0].ScreenshotURL != "" {
			t.Errorf("ScreenshotURL = %q, want empty", result.Pages[0].ScreenshotURL)
		}
	})
}

// TestCrawlSeedPath verifies crawls can start below the origin root.
func TestCrawlSeedPath(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]*browser.PageResult{
		"https://example.com/docs": pageResult("Docs"),
	}}

	s := NewScheduler(fetcher, WithDelay(0))
	result, err := s.Crawl(context.Background(), "https://example.com/docs")
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}
	if len(result.Pages) != 1 || result.Pages[0].NormalizedURL != "https://example.com/docs" {
		t.Errorf("unexpected pages: %+v", result.Pages)
	}
}
