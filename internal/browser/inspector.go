package browser

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/blake2b"

	"github.com/vigicrawl/vigicrawl/internal/model"
)

// layoutTags are the structural and landmark tags that make up the layout
// signature, in the order checked. The signature hashes the document-order
// sequence of these tags together with their counts, so pages with the same
// skeleton share a signature regardless of content.
var layoutTags = []string{
	"header", "nav", "main", "aside", "footer",
	"section", "article", "form", "table", "h1", "h2",
}

// documentExtensions identify links to downloadable documents.
var documentExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true,
	".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".odt": true, ".ods": true, ".csv": true, ".zip": true,
}

// Inspector answers DOM questions about one rendered page using a parsed
// document tree. The fetcher builds one per fetched page and derives the
// page's links and characteristics from it.
type Inspector struct {
	doc *goquery.Document
}

// NewInspector parses rendered HTML into an Inspector.
func NewInspector(html string) (*Inspector, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered HTML: %w", err)
	}
	return &Inspector{doc: doc}, nil
}

// HasElementMatching reports whether any element matches the CSS selector.
func (in *Inspector) HasElementMatching(selector string) bool {
	return in.doc.Find(selector).Length() > 0
}

// ExtractVisibleText returns the visible body text with whitespace collapsed.
func (in *Inspector) ExtractVisibleText() string {
	body := in.doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return strings.Join(strings.Fields(body.Text()), " ")
}

// ComputeLayoutSignature hashes the ordered sequence of structural tags and
// their counts. Two pages built from the same template produce the same
// signature even when their text differs.
func (in *Inspector) ComputeLayoutSignature() string {
	var sequence []string
	counts := make(map[string]int)

	in.doc.Find(strings.Join(layoutTags, ", ")).Each(func(_ int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		tag := s.Nodes[0].Data
		sequence = append(sequence, tag)
		counts[tag]++
	})

	var b strings.Builder
	b.WriteString(strings.Join(sequence, ","))
	b.WriteByte('|')
	for _, tag := range layoutTags {
		fmt.Fprintf(&b, "%s:%d;", tag, counts[tag])
	}

	sum := blake2b.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

// Title returns the rendered document title.
func (in *Inspector) Title() string {
	return strings.TrimSpace(in.doc.Find("title").First().Text())
}

// Links returns the href attributes of all anchors, as written in the DOM.
// Resolution against the page URL is the caller's concern.
func (in *Inspector) Links() []string {
	var links []string
	in.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "javascript:") {
			return
		}
		links = append(links, href)
	})
	return links
}

// Characteristics derives the boolean page signals and the layout signature
// from the rendered DOM.
func (in *Inspector) Characteristics() model.Characteristics {
	return model.Characteristics{
		HasForm:           in.hasInteractiveForm(),
		HasTable:          in.hasDataTable(),
		HasMultimedia:     in.hasMultimedia(),
		HasDocuments:      in.hasDocumentLinks(),
		HasAuthentication: in.hasAuthentication(),
		LayoutSignature:   in.ComputeLayoutSignature(),
	}
}

// hasInteractiveForm reports whether the page carries at least one visible
// interactive form that is not a pure search box.
func (in *Inspector) hasInteractiveForm() bool {
	found := false
	in.doc.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		if isSearchForm(form) {
			return true
		}
		fields := form.Find("input, select, textarea").FilterFunction(func(_ int, f *goquery.Selection) bool {
			t := strings.ToLower(f.AttrOr("type", "text"))
			return t != "hidden" && t != "submit" && t != "button" && t != "image"
		})
		if fields.Length() > 0 {
			found = true
			return false
		}
		return true
	})
	return found
}

// isSearchForm reports whether a form is a pure search box: either marked as
// such, or carrying a single text field named like a search query.
func isSearchForm(form *goquery.Selection) bool {
	if strings.EqualFold(form.AttrOr("role", ""), "search") {
		return true
	}
	if form.Find(`input[type="search"]`).Length() > 0 {
		return true
	}

	fields := form.Find("input, select, textarea").FilterFunction(func(_ int, f *goquery.Selection) bool {
		t := strings.ToLower(f.AttrOr("type", "text"))
		return t != "hidden" && t != "submit" && t != "button" && t != "image"
	})
	if fields.Length() != 1 {
		return false
	}

	hint := strings.ToLower(fields.AttrOr("name", "") + " " + fields.AttrOr("placeholder", "") + " " + fields.AttrOr("id", ""))
	name := strings.ToLower(fields.AttrOr("name", ""))
	return name == "q" || name == "s" ||
		strings.Contains(hint, "search") || strings.Contains(hint, "recherche")
}

// hasDataTable reports whether data-table markup is present.
// Layout tables without header cells or multiple rows do not count.
func (in *Inspector) hasDataTable() bool {
	found := false
	in.doc.Find("table, [role=\"table\"]").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		if tbl.Find("th").Length() > 0 || tbl.Find("tr").Length() > 1 {
			found = true
			return false
		}
		return true
	})
	return found
}

// hasMultimedia reports whether video/audio/embedded players are present.
func (in *Inspector) hasMultimedia() bool {
	if in.HasElementMatching("video, audio, embed, object") {
		return true
	}

	found := false
	in.doc.Find("iframe[src]").EachWithBreak(func(_ int, f *goquery.Selection) bool {
		src := strings.ToLower(f.AttrOr("src", ""))
		for _, host := range []string{"youtube", "vimeo", "dailymotion", "soundcloud"} {
			if strings.Contains(src, host) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// hasDocumentLinks reports whether the page links to downloadable documents.
func (in *Inspector) hasDocumentLinks() bool {
	found := false
	in.doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.ToLower(a.AttrOr("href", ""))
		// Ignore query string and fragment when matching the extension.
		if i := strings.IndexAny(href, "?#"); i >= 0 {
			href = href[:i]
		}
		if i := strings.LastIndex(href, "."); i >= 0 && documentExtensions[href[i:]] {
			found = true
			return false
		}
		return true
	})
	return found
}

// loginKeywords flag authentication pages in visible text or link labels.
var loginKeywords = []string{
	"login", "log in", "sign in", "se connecter", "connexion",
	"mon compte", "my account", "identifiant", "mot de passe",
}

// hasAuthentication reports whether a password input or login wording
// is present.
func (in *Inspector) hasAuthentication() bool {
	if in.HasElementMatching(`input[type="password"]`) {
		return true
	}
	text := strings.ToLower(in.ExtractVisibleText())
	for _, kw := range loginKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
