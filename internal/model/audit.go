package model

import "time"

// Audit records that a given site origin has been examined.
// There is exactly one Audit per unique origin: resubmitting the same origin
// updates the existing row rather than creating a new one. Crawl history for
// an origin lives in the CrawlJob rows owned by the audit.
type Audit struct {
	// ID is the database identifier of the audit.
	ID int64 `json:"id"`

	// URL is the site origin being audited (scheme://host[:port]).
	// It is the natural key: unique across all audits.
	URL string `json:"url"`

	// CreatedAt is when this origin was first submitted.
	CreatedAt time.Time `json:"created_at"`
}
