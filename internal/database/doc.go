// Package database provides SQLite-based storage for audits, crawl jobs,
// crawled pages and the durable step markers of the job workflow.
//
// The store enforces the data-model invariants at the schema level where
// possible (origin-unique audits, normalized-URL uniqueness per job) and in
// code where not (status state-machine transitions). Pages are written in
// one bulk-insert transaction after a crawl finishes; nothing is streamed
// row by row.
package database
