package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/reviewscan/internal/model"
)

// markdownTextWidth caps review texts inside table cells.
const markdownTextWidth = 120

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report of one analysis in Markdown format.
func (w *MarkdownWriter) Write(analysis *model.Analysis) (int, error) {
	return w.WriteBatch([]*model.Analysis{analysis})
}

// WriteBatch outputs one section per analysis in a single document.
func (w *MarkdownWriter) WriteBatch(analyses []*model.Analysis) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Review Analysis Report")
	md.PlainText("")

	for _, analysis := range analyses {
		s := NewSummary(analysis)
		w.writeHeader(md, s)
		if !s.Succeeded() {
			continue
		}
		w.writeSummary(md, s)
		w.writeReviews(md, "Fake Reviews", s.FakeReviews)
		w.writeReviews(md, "Genuine Reviews", s.GenuineReviews)
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the analysis information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s Summary) {
	md.H2(s.Source)
	md.PlainText("")

	rows := [][]string{
		{"Source", "`" + s.Source + "`"},
		{"Analysis Date", s.DateAnalyzed.Format("2006-01-02 15:04:05 MST")},
		{"Scrape Time", strconv.FormatFloat(s.ScrapeTime, 'f', 2, 64) + "s"},
	}
	if s.ModelFingerprint != "" {
		rows = append(rows, []string{"Model", "`" + shortFingerprint(s.ModelFingerprint) + "`"})
	}
	rows = append(rows, []string{"Status", w.getStatusText(s)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on summary state.
func (w *MarkdownWriter) getStatusText(s Summary) string {
	if s.Error != "" {
		return "❌ Error - " + escapeCell(s.Error)
	}
	return "✅ Complete"
}

// writeSummary writes the label totals, the pie chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s Summary) {
	md.H3("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Label", "Count", "Percentage"},
		Rows: [][]string{
			{"🔴 Fake", strconv.Itoa(s.FakeCount), formatPercent(s.FakePercentage)},
			{"🟢 Genuine", strconv.Itoa(s.GenuineCount), formatPercent(s.GenuinePercentage)},
			{"**Total**", "**" + strconv.Itoa(s.Total) + "**", ""},
		},
	})
	md.PlainText("")

	if s.Total > 0 {
		w.writePieChart(md, s)
	}

	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart for the label distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Review Label Distribution"),
		piechart.WithShowData(true),
	)

	if s.FakeCount > 0 {
		chart.LabelAndIntValue("Fake", uint64(s.FakeCount))
	}
	if s.GenuineCount > 0 {
		chart.LabelAndIntValue("Genuine", uint64(s.GenuineCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert that matches the fake share.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s Summary) {
	switch {
	case s.Total == 0:
		md.Note("No review could be classified.")
	case s.FakePercentage >= 50:
		md.Cautionf("%s of the reviews look fake.", formatPercent(s.FakePercentage))
	case s.FakeCount > 0:
		md.Warningf("%d review(s) look fake.", s.FakeCount)
	default:
		md.Tip("No fake reviews detected.")
	}
	md.PlainText("")

	if s.Skipped > 0 {
		md.Importantf("%d review(s) could not be classified and were skipped.", s.Skipped)
		md.PlainText("")
	}
}

// writeReviews writes one bucket of reviews as a table.
func (w *MarkdownWriter) writeReviews(md *markdown.Markdown, title string, reviews []ReviewEntry) {
	md.H3(title)
	md.PlainText("")

	if len(reviews) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(reviews))
	for i, rev := range reviews {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			escapeCell(truncateString(oneLine(rev.Text), markdownTextWidth)),
			FormatConfidence(rev.Confidence),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Review", "Confidence"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [reviewscan](https://github.com/nao1215/reviewscan)*")
}

// escapeCell keeps a value from breaking the table layout.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
