package audit

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/markdown"
)

// timestampSanitizer makes an ISO 8601 timestamp filename-safe.
var timestampSanitizer = strings.NewReplacer(":", "-", ".", "-")

// ReportArtifactName builds the persisted filename for a quality report:
// report-<hostname>-<ISO 8601 timestamp with ":" and "." replaced by "-">.
func ReportArtifactName(pageURL string, now time.Time) string {
	hostname := "unknown"
	if u, err := url.Parse(pageURL); err == nil && u.Hostname() != "" {
		hostname = u.Hostname()
	}
	stamp := timestampSanitizer.Replace(now.UTC().Format(time.RFC3339))
	return fmt.Sprintf("report-%s-%s", hostname, stamp)
}

// WriteScoreReport renders a markdown summary of one quality score run.
func WriteScoreReport(w io.Writer, pageURL string, scores Scores, now time.Time) error {
	md := markdown.NewMarkdown(w)

	md.H1("Quality Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + pageURL + "`"},
			{"Date", now.UTC().Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	md.H2("Scores")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Axis", "Score"},
		Rows: [][]string{
			{"Accessibility", formatScore(scores.Accessibility)},
			{"Performance", formatScore(scores.Performance)},
			{"Best Practices", formatScore(scores.BestPractices)},
			{"SEO", formatScore(scores.SEO)},
		},
	})

	return md.Build()
}

// formatScore renders a [0, 1] score as a percentage.
func formatScore(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}
