// Package orchestrator owns the lifecycle of crawl jobs: submission,
// polling, advisory cancellation and bulk erase.
//
// A submission validates the URL, optionally probes the origin, upserts
// the audit row and creates a pending job; the crawl itself runs
// asynchronously on a bounded worker pool. Each running job acquires its
// own browser session, released on every exit path. Jobs are isolated by
// id and share no mutable state beyond independent database rows.
package orchestrator
