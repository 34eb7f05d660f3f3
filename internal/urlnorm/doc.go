// Package urlnorm canonicalizes URLs for deduplication and same-origin
// scoping during a crawl.
//
// Normalization lower-cases the host, drops the scheme's default port,
// removes the fragment, collapses a trailing slash on non-root paths, and
// strips known tracking query parameters. The result is a fixed point:
// normalizing an already-normalized URL returns it unchanged.
//
// URLs whose scheme, host or port differ from the crawl's base origin are
// rejected with ErrOutOfScope so the scheduler can skip them without
// treating them as errors.
package urlnorm
