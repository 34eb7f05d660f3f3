package classifier

import (
	"net/url"
	"strings"

	"github.com/vigicrawl/vigicrawl/internal/model"
)

// Context carries crawl-wide signals a single page cannot know by itself.
type Context struct {
	// DominantLayoutSignature is the most frequent layout signature across
	// the crawl. Pages whose signature differs are structurally distinct.
	DominantLayoutSignature string
}

// Classify maps a crawled page onto the category taxonomy.
// Rules run in precedence order and the first match wins; the fallback rule
// always matches, so the result is always a valid taxonomy member.
func Classify(page *model.CrawledPage, crawlCtx Context) (model.Category, float64) {
	path := pagePath(page.URL)
	foldedPath := fold(path)
	foldedTitle := fold(page.Title)

	keywordHit := func(keywords []string) bool {
		return matchesAny(foldedPath, keywords) || matchesAny(foldedTitle, keywords)
	}

	switch {
	case keywordHit(authenticationKeywords),
		page.Characteristics.HasAuthentication && page.Characteristics.HasForm:
		// Password-field pages carry both flags; login wording alone (a nav
		// link on every page) is not enough without the form.
		return model.CategoryAuthentication, model.ConfidenceExact.Float()

	case keywordHit(legalKeywords):
		return model.CategoryLegalNotices, model.ConfidenceExact.Float()

	case keywordHit(accessibilityKeywords):
		return model.CategoryAccessibility, model.ConfidenceExact.Float()

	case keywordHit(contactKeywords):
		return model.CategoryContact, model.ConfidenceExact.Float()

	case keywordHit(sitemapKeywords), strings.HasPrefix(path, "/sitemap"):
		return model.CategorySitemap, model.ConfidenceExact.Float()

	case keywordHit(helpKeywords):
		return model.CategoryHelp, model.ConfidenceExact.Float()

	case page.Depth == 0 && isRootPath(path):
		return model.CategoryHomepage, model.ConfidenceExact.Float()

	case page.Characteristics.HasDocuments:
		return model.CategoryDocument, model.ConfidenceCharacteristic.Float()

	case page.Characteristics.HasTable:
		return model.CategoryTable, model.ConfidenceCharacteristic.Float()

	case page.Characteristics.HasMultimedia:
		return model.CategoryMultimedia, model.ConfidenceCharacteristic.Float()

	case page.Characteristics.HasForm:
		return model.CategoryForm, model.ConfidenceCharacteristic.Float()

	case isDistinctLayout(page, crawlCtx):
		return model.CategoryDistinctLayout, model.ConfidenceCharacteristic.Float()

	default:
		return model.CategoryOther, model.ConfidenceFallback.Float()
	}
}

// isDistinctLayout reports whether the page's skeleton differs from the
// crawl's dominant one. Signatures are digests, so any difference is beyond
// the dissimilarity threshold.
func isDistinctLayout(page *model.CrawledPage, crawlCtx Context) bool {
	sig := page.Characteristics.LayoutSignature
	return sig != "" && crawlCtx.DominantLayoutSignature != "" &&
		sig != crawlCtx.DominantLayoutSignature
}

// DominantSignature returns the most frequent layout signature among the
// pages. Ties resolve to the signature that reached the top count first,
// keeping classification deterministic for a given crawl order.
func DominantSignature(pages []*model.CrawledPage) string {
	counts := make(map[string]int)
	best := ""
	bestCount := 0
	for _, page := range pages {
		sig := page.Characteristics.LayoutSignature
		if sig == "" {
			continue
		}
		counts[sig]++
		if counts[sig] > bestCount {
			best = sig
			bestCount = counts[sig]
		}
	}
	return best
}

// pagePath extracts the URL path, defaulting to root.
func pagePath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// isRootPath reports whether the path addresses the site root.
func isRootPath(path string) bool {
	return path == "" || path == "/"
}
