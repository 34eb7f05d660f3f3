package model

// Category classifies the purpose of a crawled page.
//
// The taxonomy is a fixed closed set: classification never produces a value
// outside it, and an unmatched page always resolves to CategoryOther.
// The same labels drive the mandatory-coverage step of audit sampling.
type Category string

// Page categories, in classifier precedence order where applicable.
const (
	CategoryHomepage         Category = "homepage"
	CategoryContact          Category = "contact"
	CategoryLegalNotices     Category = "legal_notices"
	CategoryAccessibility    Category = "accessibility"
	CategorySitemap          Category = "sitemap"
	CategoryHelp             Category = "help"
	CategoryAuthentication   Category = "authentication"
	CategoryMultiStepProcess Category = "multi_step_process"
	CategoryDistinctLayout   Category = "distinct_layout"
	CategoryForm             Category = "form"
	CategoryTable            Category = "table"
	CategoryMultimedia       Category = "multimedia"
	CategoryDocument         Category = "document"
	CategoryOther            Category = "other"
)

// String returns the category label.
func (c Category) String() string {
	return string(c)
}

// Valid reports whether the category belongs to the fixed taxonomy.
func (c Category) Valid() bool {
	switch c {
	case CategoryHomepage, CategoryContact, CategoryLegalNotices,
		CategoryAccessibility, CategorySitemap, CategoryHelp,
		CategoryAuthentication, CategoryMultiStepProcess,
		CategoryDistinctLayout, CategoryForm, CategoryTable,
		CategoryMultimedia, CategoryDocument, CategoryOther:
		return true
	default:
		return false
	}
}

// MandatoryCategories is the ordered list of categories that the sample
// selector must cover when present in a crawl. The order is significant:
// it is both the selection order and the classifier keyword precedence.
func MandatoryCategories() []Category {
	return []Category{
		CategoryHomepage,
		CategoryContact,
		CategoryLegalNotices,
		CategoryAccessibility,
		CategorySitemap,
		CategoryHelp,
		CategoryAuthentication,
	}
}

// Confidence expresses how a classification was derived.
// It is a small fixed enum so classification stays fully reproducible
// given identical input signals; nothing is learned.
type Confidence float64

// Classification confidence levels.
const (
	// ConfidenceExact means an exact keyword or structural match.
	ConfidenceExact Confidence = 1.0

	// ConfidenceCharacteristic means inference from a characteristic flag.
	ConfidenceCharacteristic Confidence = 0.6

	// ConfidenceFallback means the classifier fell through to "other".
	ConfidenceFallback Confidence = 0.2
)

// Float returns the numeric confidence value.
func (c Confidence) Float() float64 {
	return float64(c)
}
