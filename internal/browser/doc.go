// Package browser provides rendered page fetching for the crawl engine.
//
// # Architecture
//
//   - Session: an explicitly owned headless browser resource (chromedp
//     allocator plus browser context). It is acquired at crawl start and
//     released on every exit path; nothing in this package relies on
//     process-wide browser state.
//   - Fetcher: renders one page in a fresh tab with a bounded timeout and
//     extracts status, timing, title, links, characteristics, the layout
//     signature and a screenshot.
//   - Inspector: a parsed view of the rendered HTML. All DOM inspection
//     goes through it, so classification logic never depends on the
//     underlying rendering engine.
//
// Pages must be rendered (client-side content executed) rather than fetched
// raw, because the characteristics extractor inspects the DOM as a visitor
// would see it. Rendering is best-effort: a page that fails to render is a
// page-level error consumed by the scheduler, never a crawl-level failure.
package browser
