// Package blob stores captured page screenshots outside the relational
// database.
//
// The Store interface exposes write, cursor-paginated listing and bulk
// deletion; FS is the filesystem implementation, rooted at a fixed prefix
// under the application data directory. Keys are opaque to callers and
// returned as file URLs suitable for persisting alongside crawled pages.
package blob
