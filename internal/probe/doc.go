// Package probe answers one question before a crawl job is accepted:
// does the submitted origin respond at all.
//
// The check is a HEAD request with a short overall deadline and a couple
// of automatic retries for transient failures. Any 2xx or 3xx response
// counts as reachable; redirects are not followed beyond the client's
// defaults because only liveness matters here, not content.
package probe
