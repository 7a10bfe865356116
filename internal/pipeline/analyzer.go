package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nao1215/reviewscan/internal/aggregate"
	"github.com/nao1215/reviewscan/internal/fetch"
	"github.com/nao1215/reviewscan/internal/ml"
	"github.com/nao1215/reviewscan/internal/model"
)

// Analyzer classifies the reviews of product pages. It holds only
// read-only state and is safe for concurrent use.
type Analyzer struct {
	vectorizer  aggregate.Vectorizer
	classifier  aggregate.Classifier
	fingerprint string
	loadErr     error

	fetcher  fetch.Fetcher
	sites    SiteResolver
	observer func(model.ClassifiedReview)
	logger   *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithArtifacts sets the loaded vectorizer and classifier.
func WithArtifacts(a *ml.Artifacts) AnalyzerOption {
	return func(an *Analyzer) {
		if a == nil {
			return
		}
		an.vectorizer = a.Vectorizer
		an.classifier = a.Classifier
		an.fingerprint = a.Fingerprint
	}
}

// WithModel sets the vectorizer and classifier directly.
func WithModel(vectorizer aggregate.Vectorizer, classifier aggregate.Classifier) AnalyzerOption {
	return func(an *Analyzer) {
		an.vectorizer = vectorizer
		an.classifier = classifier
	}
}

// WithLoadError records why the artifacts are missing. It is returned
// inside the *ConfigurationError of every call.
func WithLoadError(err error) AnalyzerOption {
	return func(an *Analyzer) {
		an.loadErr = err
	}
}

// WithFetcher sets the page fetcher. The default is fetch.NewHTTPFetcher.
func WithFetcher(f fetch.Fetcher) AnalyzerOption {
	return func(an *Analyzer) {
		an.fetcher = f
	}
}

// WithSites sets the per-site configuration.
func WithSites(sites SiteResolver) AnalyzerOption {
	return func(an *Analyzer) {
		an.sites = sites
	}
}

// WithObserver registers fn to be called for every classified review.
func WithObserver(fn func(model.ClassifiedReview)) AnalyzerOption {
	return func(an *Analyzer) {
		an.observer = fn
	}
}

// WithAnalyzerLogger sets the logger.
func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(an *Analyzer) {
		an.logger = logger
	}
}

// NewAnalyzer creates an Analyzer. Without WithArtifacts or WithModel
// every call fails with a *ConfigurationError.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	an := &Analyzer{}
	for _, opt := range opts {
		opt(an)
	}
	if an.logger == nil {
		an.logger = slog.Default()
	}
	if an.sites == nil {
		an.sites = noSites{}
	}
	if an.fetcher == nil {
		an.fetcher = fetch.NewHTTPFetcher(fetch.WithLogger(an.logger))
	}
	return an
}

// Ready reports whether the analyzer has a vectorizer and a classifier.
func (an *Analyzer) Ready() bool {
	return an.vectorizer != nil && an.classifier != nil
}

// Fingerprint returns the artifact fingerprint, empty when unknown.
func (an *Analyzer) Fingerprint() string {
	return an.fingerprint
}

// CheckReady returns a *ConfigurationError when the analyzer is not ready.
func (an *Analyzer) CheckReady() error {
	if an.Ready() {
		return nil
	}
	return &ConfigurationError{Err: an.loadErr}
}

// Analyze runs the pipeline over source. A source with an http or https
// scheme is fetched; anything else is taken as the page's HTML.
//
// The returned analysis is nil only when the call failed before the
// pipeline started (configuration error or negative limit). Otherwise it
// is returned even on error and records how far the pipeline got.
func (an *Analyzer) Analyze(ctx context.Context, source string, limit int) (*model.Analysis, error) {
	if err := an.precheck(limit); err != nil {
		return nil, err
	}

	var analysis *model.Analysis
	if fetch.IsURL(source) {
		analysis = model.NewURLAnalysis(strings.TrimSpace(source), limit)
	} else {
		analysis = model.NewContentAnalysis("", []byte(source), limit)
	}
	return analysis, an.run(ctx, analysis)
}

// AnalyzeContent runs the pipeline over already retrieved page content.
func (an *Analyzer) AnalyzeContent(ctx context.Context, content []byte, limit int) (*model.Analysis, error) {
	return an.AnalyzeNamedContent(ctx, "", content, limit)
}

// AnalyzeNamedContent is AnalyzeContent with a name, such as a file
// path, recorded as the analysis source.
func (an *Analyzer) AnalyzeNamedContent(ctx context.Context, name string, content []byte, limit int) (*model.Analysis, error) {
	if err := an.precheck(limit); err != nil {
		return nil, err
	}
	analysis := model.NewContentAnalysis(name, content, limit)
	return analysis, an.run(ctx, analysis)
}

func (an *Analyzer) precheck(limit int) error {
	if err := an.CheckReady(); err != nil {
		return err
	}
	if limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}

func (an *Analyzer) run(ctx context.Context, analysis *model.Analysis) error {
	p := New(WithLogger(an.logger))
	p.AddSteps(
		NewFetchStep(an.fetcher, an.sites, an.logger),
		NewExtractStep(an.sites, an.logger),
		NewFilterStep(),
		NewClassifyStep(an.vectorizer, an.classifier, an.fingerprint, an.observer, an.logger),
	)
	return p.Execute(ctx, analysis)
}
