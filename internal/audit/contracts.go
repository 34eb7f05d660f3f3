package audit

import (
	"context"

	"github.com/vigicrawl/vigicrawl/internal/model"
)

// Violation is one accessibility rule violation on a page. Mapping generic
// rule tags onto a regulatory-criteria taxonomy is the adapter's concern,
// not the core's.
type Violation struct {
	// RuleID identifies the violated rule in the engine's own vocabulary.
	RuleID string `json:"ruleId"`

	// ImpactSeverity is the engine's severity label (e.g. minor, serious).
	ImpactSeverity string `json:"impactSeverity"`

	// AffectedNodeCount is how many DOM nodes violate the rule.
	AffectedNodeCount int `json:"affectedNodeCount"`

	// SampleNodes holds representative selectors or snippets.
	SampleNodes []string `json:"sampleNodes,omitempty"`

	// Tags are the engine's rule tags.
	Tags []string `json:"tags,omitempty"`
}

// AccessibilityAuditor runs an accessibility rule engine against one
// selected page.
type AccessibilityAuditor interface {
	Audit(ctx context.Context, page *model.CrawledPage) ([]Violation, error)
}

// Scores holds the quality scorer's four axes, each in [0, 1].
type Scores struct {
	Accessibility float64 `json:"accessibility"`
	Performance   float64 `json:"performance"`
	BestPractices float64 `json:"bestPractices"`
	SEO           float64 `json:"seo"`
}

// ScoreResult bundles the scores with the scorer's raw report artifact.
type ScoreResult struct {
	// Scores are the normalized axis scores.
	Scores Scores `json:"scores"`

	// Artifact is the scorer's full report document, persisted under the
	// name produced by ReportArtifactName.
	Artifact []byte `json:"-"`
}

// QualityScorer runs a performance/quality audit against one URL.
type QualityScorer interface {
	Score(ctx context.Context, url string) (*ScoreResult, error)
}

// PrivacyResult holds the privacy heuristic findings for one page,
// observed before any user interaction.
type PrivacyResult struct {
	// CookiesDetectedBeforeConsent reports cookies or storage written
	// before any consent was given.
	CookiesDetectedBeforeConsent bool `json:"cookiesDetectedBeforeConsent"`

	// ConsentBannerDetected reports whether a consent banner was found by
	// matching visible text against the consent vocabulary.
	ConsentBannerDetected bool `json:"consentBannerDetected"`

	// HTTPSSecure reports whether the page was served over HTTPS.
	HTTPSSecure bool `json:"httpsSecure"`
}

// PrivacyScanner runs the privacy heuristics against one rendered page.
type PrivacyScanner interface {
	Scan(ctx context.Context, page *model.CrawledPage) (PrivacyResult, error)
}
