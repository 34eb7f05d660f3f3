package model

import "time"

// Characteristics are boolean signals derived from a page's rendered DOM,
// plus the structural layout signature. They feed both classification and
// the diversity step of audit sampling.
type Characteristics struct {
	// HasForm is true when the page carries a visible interactive form,
	// excluding pure search boxes.
	HasForm bool `json:"has_form"`

	// HasTable is true when data-table markup is present.
	HasTable bool `json:"has_table"`

	// HasMultimedia is true when video/audio/embedded players are present.
	HasMultimedia bool `json:"has_multimedia"`

	// HasDocuments is true when the page links to downloadable documents
	// (PDF, office formats, archives).
	HasDocuments bool `json:"has_documents"`

	// HasAuthentication is true when a password input or login wording
	// is present.
	HasAuthentication bool `json:"has_authentication"`

	// LayoutSignature is a coarse fingerprint of the page's DOM skeleton:
	// a digest over the ordered sequence of major structural element tags
	// and their counts. It detects structural diversity, never content
	// similarity.
	LayoutSignature string `json:"layout_signature"`
}

// Special reports whether the page has at least one special characteristic
// relevant to diversity sampling (multimedia, table, form or documents).
func (c Characteristics) Special() bool {
	return c.HasMultimedia || c.HasTable || c.HasForm || c.HasDocuments
}

// CrawledPage is one fetched page within a crawl job, with its derived
// classification and characteristics.
//
// Invariants: NormalizedURL is unique within a job; Depth never exceeds the
// job's MaxDepth; the number of pages per job never exceeds MaxPages.
type CrawledPage struct {
	// ID is the database identifier, assigned at bulk insert.
	ID int64 `json:"id"`

	// CrawlJobID is the owning job.
	CrawlJobID string `json:"crawl_job_id"`

	// URL is the page URL as discovered.
	URL string `json:"url"`

	// NormalizedURL is the canonical form used for deduplication.
	NormalizedURL string `json:"normalized_url"`

	// Title is the rendered document title, empty when unavailable.
	Title string `json:"title,omitempty"`

	// Depth is the breadth-first distance from the seed page.
	Depth int `json:"depth"`

	// HTTPStatus is the main document response status, 0 when unknown.
	HTTPStatus int `json:"http_status,omitempty"`

	// ResponseTime is how long the rendered navigation took.
	ResponseTime time.Duration `json:"response_time,omitempty"`

	// ContentType is the MIME type of the main document response.
	ContentType string `json:"content_type,omitempty"`

	// Category is the classified page purpose.
	Category Category `json:"category"`

	// CategoryConfidence records how the category was derived.
	CategoryConfidence float64 `json:"category_confidence"`

	// Characteristics holds the DOM-derived signals.
	Characteristics Characteristics `json:"characteristics"`

	// ScreenshotURL references the captured screenshot blob.
	// Empty when the capture or upload failed; that failure is non-fatal.
	ScreenshotURL string `json:"screenshot_url,omitempty"`

	// SelectedForAudit marks pages chosen for deep auditing.
	// Mutated exactly once, by the sample selector, after insertion.
	SelectedForAudit bool `json:"selected_for_audit"`

	// CreatedAt is the insertion time; discovery order follows it.
	CreatedAt time.Time `json:"created_at"`
}
