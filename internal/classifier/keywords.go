package classifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Keyword tables per rule, matched against the folded path and title.
// Path separators and hyphens fold to spaces, so "/mentions-legales" matches
// "mentions legales".
var (
	authenticationKeywords = []string{
		"login", "log in", "sign in", "signin", "connexion",
		"se connecter", "authentification", "mon compte", "my account",
	}

	legalKeywords = []string{
		"mentions legales", "legal notice", "legal notices", "legal",
		"cgu", "cgv", "conditions generales", "terms of service",
		"terms and conditions", "politique de confidentialite",
		"privacy policy", "donnees personnelles",
	}

	accessibilityKeywords = []string{
		"accessibilite", "accessibility",
		"declaration d accessibilite", "accessibility statement",
	}

	contactKeywords = []string{
		"contact", "contactez nous", "nous contacter", "contact us",
		"nous ecrire",
	}

	sitemapKeywords = []string{
		"sitemap", "plan du site", "site map",
	}

	helpKeywords = []string{
		"aide", "faq", "help", "support", "assistance",
		"questions frequentes", "frequently asked",
	}
)

// foldTransformer lower-cases nothing by itself; it decomposes characters
// and removes combining marks, turning "légales" into "legales".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold prepares text for keyword matching: diacritics stripped, lower-cased,
// separators collapsed to single spaces.
func fold(s string) string {
	stripped, _, err := transform.String(foldTransformer, s)
	if err != nil {
		stripped = s
	}
	stripped = strings.ToLower(stripped)

	replacer := strings.NewReplacer("-", " ", "_", " ", "/", " ", ".", " ")
	return strings.Join(strings.Fields(replacer.Replace(stripped)), " ")
}

// matchesAny reports whether the folded text contains any of the keywords.
func matchesAny(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}
