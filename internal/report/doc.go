// Package report renders analysis results.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: The Summary display structure as JSON
//   - MarkdownWriter: Tables and a mermaid pie chart for sharing
//
// Summary is the display structure shared with the HTTP server, so the
// CLI and the JSON API return the same fields.
package report
