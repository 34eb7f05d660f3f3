package selector

import (
	"github.com/vigicrawl/vigicrawl/internal/model"
)

// DefaultSpecialCap is the diversity-pass selection bound.
const DefaultSpecialCap = 15

// Report summarizes one selection run.
type Report struct {
	// Selected is the total number of pages marked for audit.
	Selected int

	// MandatorySelected counts pages chosen by the coverage pass.
	MandatorySelected int

	// SpecialSelected counts pages chosen by the diversity pass.
	SpecialSelected int

	// MissingCategories lists mandatory categories absent from the crawl.
	MissingCategories []model.Category
}

// Selector implements the audit sample algorithm.
type Selector struct {
	specialCap int
}

// Option configures a Selector.
type Option func(*Selector)

// WithSpecialCap overrides the diversity-pass bound.
func WithSpecialCap(cap int) Option {
	return func(s *Selector) {
		if cap >= 0 {
			s.specialCap = cap
		}
	}
}

// New creates a Selector.
func New(opts ...Option) *Selector {
	s := &Selector{specialCap: DefaultSpecialCap}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select marks the audit sample on the given pages, which must be in
// discovery order. It mutates SelectedForAudit in place and returns the
// selection report.
func (s *Selector) Select(pages []*model.CrawledPage) Report {
	report := Report{}

	// Pass 1: mandatory coverage, one representative per category present.
	for _, category := range model.MandatoryCategories() {
		found := false
		for _, page := range pages {
			if page.SelectedForAudit || page.Category != category {
				continue
			}
			page.SelectedForAudit = true
			report.MandatorySelected++
			found = true
			break
		}
		if !found {
			report.MissingCategories = append(report.MissingCategories, category)
		}
	}

	// Pass 2: diversity coverage over special characteristics.
	for _, page := range pages {
		if report.SpecialSelected >= s.specialCap {
			break
		}
		if page.SelectedForAudit || !page.Characteristics.Special() {
			continue
		}
		page.SelectedForAudit = true
		report.SpecialSelected++
	}

	report.Selected = report.MandatorySelected + report.SpecialSelected
	return report
}
