package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/reviewscan/internal/ml"
	"github.com/nao1215/reviewscan/internal/model"
)

// ErrAdapterPanic wraps a panic raised by a vectorizer or classifier.
var ErrAdapterPanic = errors.New("adapter panicked")

// ErrInvalidLabel is returned when a classifier yields a label outside
// genuine/fake.
var ErrInvalidLabel = errors.New("classifier returned an invalid label")

// Vectorizer turns review text into a feature vector.
type Vectorizer interface {
	Transform(text string) (ml.FeatureVector, error)
}

// Classifier labels a feature vector.
type Classifier interface {
	Classify(vec ml.FeatureVector) (ml.Prediction, error)
}

// Option configures Aggregate.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	onClassified func(model.ClassifiedReview)
}

// WithLogger sets the logger for per-item failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver registers fn to be called for every classified review,
// in order. Metrics collectors use it.
func WithObserver(fn func(model.ClassifiedReview)) Option {
	return func(o *options) {
		o.onClassified = fn
	}
}

// Aggregate classifies each candidate in order and partitions the results.
//
// A candidate whose vectorization or classification fails is logged and
// skipped; the returned result then has TotalAnalyzed less than
// len(candidates). When ctx is canceled the remaining candidates are
// skipped. Aggregate holds no state between calls.
func Aggregate(ctx context.Context, candidates []model.Candidate, vectorizer Vectorizer, classifier Classifier, opts ...Option) model.AnalysisResult {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		fake    []model.ClassifiedReview
		genuine []model.ClassifiedReview
		skipped int
	)

	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			skipped += len(candidates) - i
			o.logger.Warn("classification canceled", "remaining", len(candidates)-i, "error", err)
			break
		}

		review, err := classifyOne(c, vectorizer, classifier)
		if err != nil {
			skipped++
			o.logger.Warn("skipping review", "position", c.Position, "text", c.Text, "error", err)
			continue
		}

		if review.Label.IsFake() {
			fake = append(fake, review)
		} else {
			genuine = append(genuine, review)
		}
		if o.onClassified != nil {
			o.onClassified(review)
		}
	}

	result := model.NewAnalysisResult(fake, genuine)
	result.Candidates = len(candidates)
	result.Skipped = skipped
	return result
}

// classifyOne vectorizes and classifies one candidate. A panic in either
// adapter is returned as an error wrapping ErrAdapterPanic.
func classifyOne(c model.Candidate, vectorizer Vectorizer, classifier Classifier) (review model.ClassifiedReview, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrAdapterPanic, r)
		}
	}()

	vec, err := vectorizer.Transform(c.Text)
	if err != nil {
		return model.ClassifiedReview{}, fmt.Errorf("vectorize: %w", err)
	}
	pred, err := classifier.Classify(vec)
	if err != nil {
		return model.ClassifiedReview{}, fmt.Errorf("classify: %w", err)
	}
	if !pred.Label.Valid() {
		return model.ClassifiedReview{}, fmt.Errorf("%w: %d", ErrInvalidLabel, int(pred.Label))
	}

	return model.ClassifiedReview{
		Text:       c.Text,
		Label:      pred.Label,
		Confidence: pred.Confidence,
		Position:   c.Position,
	}, nil
}
