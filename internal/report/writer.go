package report

import (
	"io"

	"github.com/nao1215/reviewscan/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report of a single analysis.
	// Returns the number of bytes written and any error encountered.
	Write(analysis *model.Analysis) (int, error)

	// WriteBatch outputs the reports of several analyses, in order.
	WriteBatch(analyses []*model.Analysis) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(analysis *model.Analysis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(analysis)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch outputs the reports to all configured Writers.
func (m *MultiWriter) WriteBatch(analyses []*model.Analysis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(analyses)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
