package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"labrat/session"
)

// testOrder fixes the section order of the report; unknown keys are
// appended alphabetically after these.
var testOrder = []string{
	"descriptive",
	"two_group",
	"anova",
	"correlation",
	"regression",
	"chi_square",
	"dose_response",
	"kaplan_meier",
}

// testTitles maps stored result keys to report headings.
var testTitles = map[string]string{
	"descriptive":   "Descriptive Statistics",
	"two_group":     "Two-Group Comparison",
	"anova":         "One-Way ANOVA",
	"correlation":   "Correlation",
	"regression":    "Linear Regression",
	"chi_square":    "Chi-Square / Fisher's Exact",
	"dose_response": "Dose-Response Curve",
	"kaplan_meier":  "Kaplan-Meier Survival",
}

// ReportMarkdown builds the analysis report for a session as a
// markdown document: dataset summary first, then one section per
// stored result with its plain-language interpretation and the full
// structured output.
func ReportMarkdown(ds *session.Dataset, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Analysis Report: %s\n\n", ds.Filename)
	fmt.Fprintf(&b, "Generated %s\n\n", now.Format("2006-01-02 15:04 MST"))

	b.WriteString("## Dataset\n\n")
	fmt.Fprintf(&b, "%d rows, %d columns.\n\n", ds.RowCount, len(ds.Columns))
	b.WriteString("| Column | Type | Missing |\n|---|---|---|\n")
	for _, col := range ds.Columns {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", col.Name, col.Type, col.Missing)
	}
	b.WriteString("\n")

	for _, key := range orderedResultKeys(ds.Results) {
		title := testTitles[key]
		if title == "" {
			title = key
		}
		fmt.Fprintf(&b, "## %s\n\n", title)

		raw := ds.Results[key]
		if interp := extractInterpretation(raw); interp != "" {
			fmt.Fprintf(&b, "%s\n\n", interp)
		}
		if pretty, err := JSON(raw); err == nil {
			fmt.Fprintf(&b, "```json\n%s\n```\n\n", pretty)
		}
	}

	if len(ds.Results) == 0 {
		b.WriteString("## Results\n\nNo analyses have been run for this session.\n")
	}
	return b.String()
}

// ReportHTML renders the markdown report as a standalone HTML page.
func ReportHTML(ds *session.Dataset, now time.Time) []byte {
	md := []byte(ReportMarkdown(ds, now))

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse(md)

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Analysis Report: " + ds.Filename,
	})
	return markdown.Render(doc, renderer)
}

func orderedResultKeys(results map[string]json.RawMessage) []string {
	var keys []string
	seen := map[string]bool{}
	for _, key := range testOrder {
		if _, ok := results[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	var rest []string
	for key := range results {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// extractInterpretation pulls the interpretation field out of a stored
// result without needing the concrete type.
func extractInterpretation(raw json.RawMessage) string {
	var probe struct {
		Interpretation string `json:"interpretation"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.Interpretation
}
