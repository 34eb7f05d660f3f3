// Package crawler implements the URL frontier that drives page fetching
// within one crawl job.
//
// # Architecture
//
// The Scheduler runs a breadth-first queue of (url, depth) pairs seeded with
// the base URL. A visited set of normalized URLs prevents re-enqueueing;
// discovery is capped at maxPages and depth at maxDepth. Fetching is
// delegated to a Fetcher (the browser package in production, fakes in tests)
// and classification runs over the accumulated pages once the frontier is
// exhausted, so the distinct-layout rule sees the whole crawl's dominant
// signature.
//
// # Politeness
//
// Crawling within a job is serialized: one page at a time, with a pacing
// delay between fetches enforced by a rate limiter. robots.txt is fetched
// once per crawl and its User-agent: * disallow rules gate enqueueing when
// enabled.
//
// # Failure model
//
// A per-page failure is recorded and the crawl continues; it never aborts
// the job. The scheduler itself fails only when the seed URL cannot be
// parsed.
package crawler
