package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/reviewscan/internal/aggregate"
	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/extract"
	"github.com/nao1215/reviewscan/internal/fetch"
	"github.com/nao1215/reviewscan/internal/model"
)

// Step names.
const (
	StepFetch    = "fetch"
	StepExtract  = "extract"
	StepFilter   = "filter"
	StepClassify = "classify"
)

// SiteResolver returns the configuration for a host. *config.Config
// implements it.
type SiteResolver interface {
	SiteFor(host string) config.SiteConfig
}

type noSites struct{}

func (noSites) SiteFor(string) config.SiteConfig { return config.SiteConfig{} }

// errNoFetcher is recorded when a URL is analyzed without a fetcher.
var errNoFetcher = errors.New("no fetcher configured")

// FetchStep downloads the page of a URL analysis. Supplied content is
// left untouched. A failed fetch is logged and recorded in
// ExtractionError; the analysis continues with no page.
type FetchStep struct {
	fetcher fetch.Fetcher
	sites   SiteResolver
	logger  *slog.Logger
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(fetcher fetch.Fetcher, sites SiteResolver, logger *slog.Logger) *FetchStep {
	return &FetchStep{fetcher: fetcher, sites: sites, logger: logger}
}

// Name returns the step name.
func (s *FetchStep) Name() string { return StepFetch }

// Do implements Step.
func (s *FetchStep) Do(ctx context.Context, analysis *model.Analysis) error {
	if analysis.Kind != model.SourceURL {
		return nil
	}
	if s.fetcher == nil {
		analysis.ExtractionError = errNoFetcher.Error()
		return nil
	}

	start := time.Now()
	page, err := s.fetcher.Fetch(ctx, analysis.Source, s.sites.SiteFor(analysis.Host()))
	analysis.ScrapeTime += time.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Warn("failed to fetch page", "url", analysis.Source, "error", err)
		analysis.ExtractionError = err.Error()
		return nil
	}
	analysis.Page = page
	return nil
}

// ExtractStep runs the site's extraction strategy over the page.
type ExtractStep struct {
	sites  SiteResolver
	logger *slog.Logger
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(sites SiteResolver, logger *slog.Logger) *ExtractStep {
	return &ExtractStep{sites: sites, logger: logger}
}

// Name returns the step name.
func (s *ExtractStep) Name() string { return StepExtract }

// Do implements Step. It never fails.
func (s *ExtractStep) Do(_ context.Context, analysis *model.Analysis) error {
	if analysis.Page == nil || analysis.Page.Size() == 0 {
		analysis.SetCandidates(make([]model.Candidate, 0))
		return nil
	}

	start := time.Now()
	strategy := extract.ForSite(s.sites.SiteFor(analysis.Host()), extract.WithLogger(s.logger))
	analysis.SetCandidates(strategy.Extract(analysis.Page.Raw, analysis.Limit))
	analysis.ScrapeTime += time.Since(start)

	s.logger.Debug("extracted candidates",
		"source", analysis.Source,
		"strategy", strategy.Name(),
		"count", analysis.ExtractedCount,
	)
	return nil
}

// FilterStep drops short candidates. It returns ErrNoReviews when
// nothing is left.
type FilterStep struct{}

// NewFilterStep creates a FilterStep.
func NewFilterStep() *FilterStep {
	return &FilterStep{}
}

// Name returns the step name.
func (s *FilterStep) Name() string { return StepFilter }

// Do implements Step.
func (s *FilterStep) Do(_ context.Context, analysis *model.Analysis) error {
	analysis.SetFiltered(extract.Filter(analysis.Candidates))
	if analysis.FilteredCount == 0 {
		return ErrNoReviews
	}
	return nil
}

// ClassifyStep classifies the filtered candidates and stores the result.
type ClassifyStep struct {
	vectorizer  aggregate.Vectorizer
	classifier  aggregate.Classifier
	fingerprint string
	observer    func(model.ClassifiedReview)
	logger      *slog.Logger
}

// NewClassifyStep creates a ClassifyStep. observer may be nil.
func NewClassifyStep(
	vectorizer aggregate.Vectorizer,
	classifier aggregate.Classifier,
	fingerprint string,
	observer func(model.ClassifiedReview),
	logger *slog.Logger,
) *ClassifyStep {
	return &ClassifyStep{
		vectorizer:  vectorizer,
		classifier:  classifier,
		fingerprint: fingerprint,
		observer:    observer,
		logger:      logger,
	}
}

// Name returns the step name.
func (s *ClassifyStep) Name() string { return StepClassify }

// Do implements Step.
func (s *ClassifyStep) Do(ctx context.Context, analysis *model.Analysis) error {
	opts := []aggregate.Option{aggregate.WithLogger(s.logger)}
	if s.observer != nil {
		opts = append(opts, aggregate.WithObserver(s.observer))
	}

	result := aggregate.Aggregate(ctx, analysis.Filtered, s.vectorizer, s.classifier, opts...)
	if err := ctx.Err(); err != nil {
		return err
	}
	analysis.Result = &result
	analysis.ModelFingerprint = s.fingerprint

	if result.Skipped > 0 {
		s.logger.Warn("some reviews could not be classified",
			"source", analysis.Source,
			"skipped", result.Skipped,
			"analyzed", result.TotalAnalyzed,
		)
	}
	return nil
}
