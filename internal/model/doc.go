// Package model defines the core data types shared across the crawl engine:
// audits, crawl jobs with their status lifecycle, crawled pages with their
// extracted characteristics, and the page category taxonomy.
//
// Types in this package are plain data with small behavior methods
// (validation, state transitions). They carry no storage or transport
// concerns; those live in the database and server packages.
package model
