package extract

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/reviewscan/internal/model"
)

// SelectorStrategy extracts the text of elements matching a CSS selector.
type SelectorStrategy struct {
	settings
	selector string
}

// NewSelectorStrategy creates a SelectorStrategy for the given selector.
func NewSelectorStrategy(selector string, opts ...Option) *SelectorStrategy {
	return &SelectorStrategy{settings: newSettings(opts), selector: selector}
}

// Name returns the selector.
func (s *SelectorStrategy) Name() string {
	return "selector " + s.selector
}

// Extract implements Strategy. An invalid selector matches nothing.
func (s *SelectorStrategy) Extract(page []byte, limit int) (candidates []model.Candidate) {
	candidates = make([]model.Candidate, 0)
	if limit <= 0 || len(page) == 0 {
		return candidates
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("selector evaluation failed", "strategy", s.Name(), "panic", r)
			candidates = make([]model.Candidate, 0)
		}
	}()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		s.logger.Warn("failed to parse page", "strategy", s.Name(), "error", err)
		return candidates
	}

	doc.Find(s.selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, n := range sel.Nodes {
			candidates = append(candidates, model.Candidate{
				Text:     nodeText(n),
				Position: len(candidates),
			})
		}
		return len(candidates) < limit
	})

	if len(candidates) == 0 {
		s.logger.Debug("no review elements found", "strategy", s.Name())
	}
	return candidates
}
