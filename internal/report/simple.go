package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/reviewscan/internal/model"
)

// reviewTextWidth is how much of a review the non-verbose output shows.
const reviewTextWidth = 100

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting and plain ASCII markers, so it pipes cleanly to files.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether empty review sections are shown.
	showEmpty bool

	// verbose prints full review texts and the skipped count.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report of one analysis in human-readable format.
func (w *SimpleWriter) Write(analysis *model.Analysis) (int, error) {
	var sb strings.Builder
	w.writeReport(&sb, NewSummary(analysis))
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

// WriteBatch outputs one report section per analysis and a single footer.
func (w *SimpleWriter) WriteBatch(analyses []*model.Analysis) (int, error) {
	var sb strings.Builder
	for _, analysis := range analyses {
		w.writeReport(&sb, NewSummary(analysis))
	}
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeReport(sb *strings.Builder, s Summary) {
	w.writeHeader(sb, s)
	if !s.Succeeded() {
		return
	}
	w.writeSummary(sb, s)
	w.writeReviews(sb, "FAKE REVIEWS", "!", s.FakeReviews)
	w.writeReviews(sb, "GENUINE REVIEWS", "+", s.GenuineReviews)
}

// writeHeader writes the report header with analysis information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, s Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         REVIEWSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Source:         %s\n", s.Source))
	sb.WriteString(fmt.Sprintf("Analysis Date:  %s\n", s.DateAnalyzed.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Scrape Time:    %.2fs\n", s.ScrapeTime))
	if s.ModelFingerprint != "" {
		sb.WriteString(fmt.Sprintf("Model:          %s\n", shortFingerprint(s.ModelFingerprint)))
	}

	if s.Error != "" {
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", s.Error))
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the fake/genuine totals.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, s Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  FAKE:     %d (%s)\n", s.FakeCount, formatPercent(s.FakePercentage)))
	sb.WriteString(fmt.Sprintf("  GENUINE:  %d (%s)\n", s.GenuineCount, formatPercent(s.GenuinePercentage)))
	if w.verbose {
		sb.WriteString(fmt.Sprintf("  EXTRACTED: %d (%d kept after filtering)\n", s.Extracted, s.Filtered))
	}
	if w.verbose || s.Skipped > 0 {
		sb.WriteString(fmt.Sprintf("  SKIPPED:  %d\n", s.Skipped))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:    %d reviews\n", s.Total))
	sb.WriteString("\n")
}

// writeReviews writes one bucket of reviews with their confidence.
func (w *SimpleWriter) writeReviews(sb *strings.Builder, title, indicator string, reviews []ReviewEntry) {
	if len(reviews) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(reviews) == 0 {
		sb.WriteString("  No reviews\n\n")
		return
	}

	for _, rev := range reviews {
		text := oneLine(rev.Text)
		if !w.verbose {
			text = truncateString(text, reviewTextWidth)
		}
		sb.WriteString(fmt.Sprintf("  [%s] (%s) %s\n", indicator, FormatConfidence(rev.Confidence), text))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by reviewscan\n")
	sb.WriteString("https://github.com/nao1215/reviewscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
