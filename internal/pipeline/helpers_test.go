package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/ml"
	"github.com/nao1215/reviewscan/internal/model"
)

const testVectorizerJSON = `{"vectorizer": {
  "vocabulary": {"amazing": 0, "best": 1, "ever": 2, "broke": 3, "refund": 4, "week": 5, "scam": 6, "fake": 7},
  "ngram_range": [1, 1]
}}`

const testLogisticJSON = `{"model": {
  "type": "logistic_regression",
  "coef": [2, 2, 1, -2, -2, -1, 3, 1],
  "intercept": 0
}}`

const testSVCJSON = `{"model": {
  "type": "linear_svc",
  "coef": [2, 2, 1, -2, -2, -1, 3, 1],
  "intercept": 0
}}`

func testArtifacts(t *testing.T, modelJSON string) *ml.Artifacts {
	t.Helper()

	a, err := ml.ParseArtifacts([]byte(modelJSON), []byte(testVectorizerJSON))
	if err != nil {
		t.Fatalf("failed to parse test artifacts: %v", err)
	}
	return a
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// reviewPage renders texts as Amazon-style review bodies.
func reviewPage(texts ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><div id=\"reviews\">")
	for _, text := range texts {
		fmt.Fprintf(&b, `<div class="review"><span data-hook="review-body"><span>%s</span></span></div>`, text)
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

// stubFetcher serves pages from a map and records the requests it sees.
type stubFetcher struct {
	pages map[string]string
	err   error

	mu    sync.Mutex
	urls  []string
	sites []config.SiteConfig
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string, site config.SiteConfig) (*model.Page, error) {
	s.mu.Lock()
	s.urls = append(s.urls, rawURL)
	s.sites = append(s.sites, site)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	body, ok := s.pages[rawURL]
	if !ok {
		return nil, fmt.Errorf("not found: %s", rawURL)
	}
	page := &model.Page{URL: rawURL, StatusCode: 200, ContentType: "text/html", Raw: []byte(body)}
	page.ComputeHash()
	return page, nil
}

func (s *stubFetcher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// staticSites returns the same site configuration for every host.
type staticSites config.SiteConfig

func (s staticSites) SiteFor(string) config.SiteConfig { return config.SiteConfig(s) }
