package pipeline

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/ml"
	"github.com/nao1215/reviewscan/internal/model"
)

func newTestAnalyzer(t *testing.T, opts ...AnalyzerOption) *Analyzer {
	t.Helper()

	base := []AnalyzerOption{
		WithArtifacts(testArtifacts(t, testLogisticJSON)),
		WithAnalyzerLogger(quietLogger()),
		WithFetcher(&stubFetcher{}),
	}
	return NewAnalyzer(append(base, opts...)...)
}

func TestAnalyzer_ShortCandidatesAreFiltered(t *testing.T) {
	t.Parallel()

	an := newTestAnalyzer(t)
	page := reviewPage("Great product, works well", "a", "Fake seller scam alert here")

	analysis, err := an.AnalyzeContent(context.Background(), []byte(page), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.ExtractedCount != 3 || analysis.FilteredCount != 2 {
		t.Errorf("expected 3 extracted and 2 filtered, got %d/%d", analysis.ExtractedCount, analysis.FilteredCount)
	}

	r := analysis.Result
	if r.TotalAnalyzed != 2 {
		t.Fatalf("expected 2 analyzed, got %d", r.TotalAnalyzed)
	}
	if r.FakeCount() != 1 || r.Fake[0].Text != "Fake seller scam alert here" {
		t.Errorf("unexpected fake bucket %+v", r.Fake)
	}
	if r.GenuineCount() != 1 || r.Genuine[0].Text != "Great product, works well" {
		t.Errorf("unexpected genuine bucket %+v", r.Genuine)
	}
	if r.FakePercentage != 50 || r.GenuinePercentage != 50 {
		t.Errorf("expected 50/50, got %v/%v", r.FakePercentage, r.GenuinePercentage)
	}
	if analysis.ModelFingerprint == "" || analysis.ModelFingerprint != an.Fingerprint() {
		t.Errorf("unexpected fingerprint %q", analysis.ModelFingerprint)
	}
	want := []string{StepFetch, StepExtract, StepFilter, StepClassify}
	for i, name := range want {
		if analysis.PerformedSteps[i] != name {
			t.Errorf("step %d: expected %s, got %s", i, name, analysis.PerformedSteps[i])
		}
	}
}

func TestAnalyzer_NoMarkersIsNoReviews(t *testing.T) {
	t.Parallel()

	an := newTestAnalyzer(t)
	analysis, err := an.AnalyzeContent(context.Background(), []byte("<html><body><p>No reviews yet</p></body></html>"), 50)

	if !errors.Is(err, ErrNoReviews) {
		t.Fatalf("expected ErrNoReviews, got %v", err)
	}
	if analysis == nil || analysis.Result != nil {
		t.Fatalf("expected an analysis without result, got %+v", analysis)
	}
	if !errors.Is(analysis.Error, ErrNoReviews) {
		t.Errorf("expected the error to be recorded, got %v", analysis.Error)
	}
}

func TestAnalyzer_AllShortIsNoReviews(t *testing.T) {
	t.Parallel()

	an := newTestAnalyzer(t)
	_, err := an.AnalyzeContent(context.Background(), []byte(reviewPage("ok", "123456789", "   ")), 50)
	if !errors.Is(err, ErrNoReviews) {
		t.Errorf("expected ErrNoReviews, got %v", err)
	}
}

// failingClassifier rejects every vector.
type failingClassifier struct{}

func (failingClassifier) Classify(ml.FeatureVector) (ml.Prediction, error) {
	return ml.Prediction{}, errors.New("model unavailable for this input")
}

func TestAnalyzer_ZeroClassifiedIsValidResult(t *testing.T) {
	t.Parallel()

	a := testArtifacts(t, testLogisticJSON)
	an := NewAnalyzer(
		WithModel(a.Vectorizer, failingClassifier{}),
		WithAnalyzerLogger(quietLogger()),
	)

	analysis, err := an.AnalyzeContent(context.Background(), []byte(reviewPage("long enough review text")), 50)
	if err != nil {
		t.Fatalf("expected a valid result, got %v", err)
	}
	r := analysis.Result
	if r.TotalAnalyzed != 0 || r.Skipped != 1 {
		t.Errorf("expected 0 analyzed and 1 skipped, got %d/%d", r.TotalAnalyzed, r.Skipped)
	}
	if r.FakePercentage != 0 || r.GenuinePercentage != 0 {
		t.Errorf("expected zero percentages, got %v/%v", r.FakePercentage, r.GenuinePercentage)
	}
}

func TestAnalyzer_MissingArtifacts(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{pages: map[string]string{"https://shop.example/p": reviewPage("Best product ever, amazing")}}
	loadErr := &os.PathError{Op: "open", Path: "model/fake_review_model.json", Err: os.ErrNotExist}
	an := NewAnalyzer(WithLoadError(loadErr), WithFetcher(fetcher), WithAnalyzerLogger(quietLogger()))

	if an.Ready() {
		t.Fatal("analyzer without artifacts must not be ready")
	}

	for range 3 {
		analysis, err := an.Analyze(context.Background(), "https://shop.example/p", 50)
		if !errors.Is(err, ErrConfiguration) {
			t.Fatalf("expected ErrConfiguration, got %v", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected the load error to be wrapped, got %v", err)
		}
		if analysis != nil {
			t.Error("expected no analysis")
		}
	}

	_, err := an.AnalyzeContent(context.Background(), []byte(reviewPage("Best product ever")), 50)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *ConfigurationError, got %v", err)
	}

	if fetcher.calls() != 0 {
		t.Errorf("expected no fetch, got %d", fetcher.calls())
	}
}

func TestAnalyzer_NoProbabilities(t *testing.T) {
	t.Parallel()

	an := newTestAnalyzer(t, WithArtifacts(testArtifacts(t, testSVCJSON)))
	page := reviewPage("Best product ever, amazing", "Broke after a week, refund", "Total scam, fake listing", "Plain ordinary text")

	analysis, err := an.AnalyzeContent(context.Background(), []byte(page), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := analysis.Result
	for _, rev := range r.Reviews() {
		if rev.HasConfidence() {
			t.Errorf("expected no confidence for %q", rev.Text)
		}
	}
	if r.FakeCount() != 2 || r.GenuineCount() != 2 {
		t.Errorf("expected 2/2, got %d/%d", r.FakeCount(), r.GenuineCount())
	}
	if r.FakePercentage != 50 || r.GenuinePercentage != 50 {
		t.Errorf("expected 50/50, got %v/%v", r.FakePercentage, r.GenuinePercentage)
	}
}

func TestAnalyzer_URLSource(t *testing.T) {
	t.Parallel()

	const productURL = "https://www.amazon.com/dp/B000TEST"

	t.Run("fetches and classifies", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubFetcher{pages: map[string]string{
			productURL: reviewPage("Best product ever, amazing", "Broke after a week, refund"),
		}}
		site := config.SiteConfig{Cookie: "session-id=1"}
		an := newTestAnalyzer(t, WithFetcher(fetcher), WithSites(staticSites(site)))

		analysis, err := an.Analyze(context.Background(), "  "+productURL+" ", 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if analysis.Kind != model.SourceURL || analysis.Source != productURL {
			t.Errorf("unexpected source %q (%s)", analysis.Source, analysis.Kind)
		}
		if analysis.Host() != "www.amazon.com" {
			t.Errorf("unexpected host %q", analysis.Host())
		}
		if fetcher.sites[0].Cookie != "session-id=1" {
			t.Error("expected the site configuration to reach the fetcher")
		}
		if analysis.Result.FakeCount() != 1 || analysis.Result.GenuineCount() != 1 {
			t.Errorf("unexpected result %+v", analysis.Result)
		}
		if analysis.Page == nil || analysis.Page.StatusCode != 200 {
			t.Error("expected the fetched page to be kept")
		}
	})

	t.Run("fetch failure is no reviews", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubFetcher{err: errors.New("connection reset")}
		an := newTestAnalyzer(t, WithFetcher(fetcher))

		analysis, err := an.Analyze(context.Background(), productURL, 50)
		if !errors.Is(err, ErrNoReviews) {
			t.Fatalf("expected ErrNoReviews, got %v", err)
		}
		if analysis.ExtractionError != "connection reset" {
			t.Errorf("expected the fetch error to be recorded, got %q", analysis.ExtractionError)
		}
	})

	t.Run("site selector is used", func(t *testing.T) {
		t.Parallel()

		page := `<div class="c"><p class="t">Best product ever, amazing</p><p class="t">Refund please, it broke</p></div>`
		fetcher := &stubFetcher{pages: map[string]string{productURL: page}}
		an := newTestAnalyzer(t, WithFetcher(fetcher), WithSites(staticSites(config.SiteConfig{Selector: "p.t"})))

		analysis, err := an.Analyze(context.Background(), productURL, 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if analysis.Result.TotalAnalyzed != 2 {
			t.Errorf("expected 2 analyzed, got %d", analysis.Result.TotalAnalyzed)
		}
	})
}

func TestAnalyzer_NonURLSourceIsContent(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	an := newTestAnalyzer(t, WithFetcher(fetcher))

	analysis, err := an.Analyze(context.Background(), reviewPage("Best product ever, amazing"), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Kind != model.SourceContent {
		t.Errorf("expected content source, got %s", analysis.Kind)
	}
	if fetcher.calls() != 0 {
		t.Error("content must not be fetched")
	}
}

func TestAnalyzer_Limit(t *testing.T) {
	t.Parallel()

	an := newTestAnalyzer(t)
	page := []byte(reviewPage("Best product ever, amazing", "Broke after a week, refund", "Total scam, fake listing"))

	t.Run("negative limit", func(t *testing.T) {
		t.Parallel()

		if _, err := an.AnalyzeContent(context.Background(), page, -1); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("expected ErrInvalidLimit, got %v", err)
		}
	})

	t.Run("zero limit", func(t *testing.T) {
		t.Parallel()

		if _, err := an.AnalyzeContent(context.Background(), page, 0); !errors.Is(err, ErrNoReviews) {
			t.Errorf("expected ErrNoReviews, got %v", err)
		}
	})

	t.Run("limit caps candidates", func(t *testing.T) {
		t.Parallel()

		analysis, err := an.AnalyzeContent(context.Background(), page, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if analysis.ExtractedCount != 2 || analysis.Result.TotalAnalyzed != 2 {
			t.Errorf("expected 2 candidates, got %d/%d", analysis.ExtractedCount, analysis.Result.TotalAnalyzed)
		}
	})
}

func TestAnalyzer_Observer(t *testing.T) {
	t.Parallel()

	var fake, genuine atomic.Int32
	an := newTestAnalyzer(t, WithObserver(func(r model.ClassifiedReview) {
		if r.Label.IsFake() {
			fake.Add(1)
		} else {
			genuine.Add(1)
		}
	}))

	page := reviewPage("Best product ever, amazing", "Broke after a week, refund", "Total scam, fake listing")
	if _, err := an.AnalyzeContent(context.Background(), []byte(page), 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.Load() != 2 || genuine.Load() != 1 {
		t.Errorf("expected 2 fake and 1 genuine observed, got %d/%d", fake.Load(), genuine.Load())
	}
}

func TestAnalyzer_NamedContent(t *testing.T) {
	t.Parallel()

	an := newTestAnalyzer(t)
	analysis, err := an.AnalyzeNamedContent(context.Background(), "reviews.html", []byte(reviewPage("Best product ever, amazing")), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Source != "reviews.html" {
		t.Errorf("unexpected source %q", analysis.Source)
	}
}
