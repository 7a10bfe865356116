package extract

import (
	"bytes"
	"strings"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/model"
	"golang.org/x/net/html"
)

// MarkerStrategy extracts the text of elements matching a Marker.
// Nested matches are reported separately, outer element first.
type MarkerStrategy struct {
	settings
	marker config.Marker
}

// NewMarkerStrategy creates a MarkerStrategy. A zero marker is replaced
// by config.DefaultMarker.
func NewMarkerStrategy(marker config.Marker, opts ...Option) *MarkerStrategy {
	if marker.IsZero() {
		marker = config.DefaultMarker
	}
	return &MarkerStrategy{settings: newSettings(opts), marker: marker}
}

// Name returns the marker as a selector-like string.
func (m *MarkerStrategy) Name() string {
	return "marker " + m.marker.String()
}

// Extract implements Strategy.
func (m *MarkerStrategy) Extract(page []byte, limit int) []model.Candidate {
	candidates := make([]model.Candidate, 0)
	if limit <= 0 || len(page) == 0 {
		return candidates
	}

	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		m.logger.Warn("failed to parse page", "strategy", m.Name(), "error", err)
		return candidates
	}

	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && m.matches(n) {
			candidates = append(candidates, model.Candidate{
				Text:     nodeText(n),
				Position: len(candidates),
			})
			if len(candidates) >= limit {
				return false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)

	if len(candidates) == 0 {
		m.logger.Debug("no review elements found", "strategy", m.Name())
	}
	return candidates
}

func (m *MarkerStrategy) matches(n *html.Node) bool {
	if m.marker.Tag != "" && !strings.EqualFold(n.Data, m.marker.Tag) {
		return false
	}
	val, ok := getAttr(n, m.marker.Attr)
	if !ok {
		return false
	}
	if m.marker.Value == "" {
		return true
	}
	if strings.EqualFold(m.marker.Attr, "class") {
		for _, class := range strings.Fields(val) {
			if class == m.marker.Value {
				return true
			}
		}
		return false
	}
	return val == m.marker.Value
}
