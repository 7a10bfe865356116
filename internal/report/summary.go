package report

import (
	"errors"
	"time"

	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/pipeline"
)

// NoReviewsMessage is shown when a page yielded no review text.
const NoReviewsMessage = "No reviews found. Please check the URL and try again."

// ReviewEntry is one classified review as displayed to users.
// Confidence is a percentage with one decimal, or nil when the
// classifier has no probability estimate.
type ReviewEntry struct {
	Text       string   `json:"text"`
	IsFake     bool     `json:"is_fake"`
	Confidence *float64 `json:"confidence"`
}

// Summary is the display structure of one analysis.
type Summary struct {
	Source            string        `json:"source"`
	DateAnalyzed      time.Time     `json:"date_analyzed"`
	Total             int           `json:"total"`
	FakeCount         int           `json:"fake_count"`
	GenuineCount      int           `json:"genuine_count"`
	FakePercentage    float64       `json:"fake_percentage"`
	GenuinePercentage float64       `json:"genuine_percentage"`
	ScrapeTime        float64       `json:"scrape_time"`
	Extracted         int           `json:"extracted"`
	Filtered          int           `json:"filtered"`
	Skipped           int           `json:"skipped"`
	FakeReviews       []ReviewEntry `json:"fake_reviews"`
	GenuineReviews    []ReviewEntry `json:"genuine_reviews"`
	Reviews           []ReviewEntry `json:"reviews"`
	ModelFingerprint  string        `json:"model_fingerprint,omitempty"`
	Error             string        `json:"error,omitempty"`
}

// NewSummary builds the display structure of an analysis.
// An analysis that ended with pipeline.ErrNoReviews reports
// NoReviewsMessage.
func NewSummary(analysis *model.Analysis) Summary {
	s := Summary{
		Source:           analysis.Source,
		DateAnalyzed:     analysis.DateAnalyzed,
		ScrapeTime:       analysis.ScrapeSeconds(),
		Extracted:        analysis.ExtractedCount,
		Filtered:         analysis.FilteredCount,
		ModelFingerprint: analysis.ModelFingerprint,
		FakeReviews:      []ReviewEntry{},
		GenuineReviews:   []ReviewEntry{},
		Reviews:          []ReviewEntry{},
	}

	if analysis.Error != nil {
		s.Error = analysis.Error.Error()
		if errors.Is(analysis.Error, pipeline.ErrNoReviews) {
			s.Error = NoReviewsMessage
		}
	}

	r := analysis.Result
	if r == nil {
		return s
	}

	s.Total = r.TotalAnalyzed
	s.FakeCount = r.FakeCount()
	s.GenuineCount = r.GenuineCount()
	s.FakePercentage = r.FakePercentage
	s.GenuinePercentage = r.GenuinePercentage
	s.Skipped = r.Skipped
	s.FakeReviews = entries(r.Fake)
	s.GenuineReviews = entries(r.Genuine)
	s.Reviews = entries(r.Reviews())
	return s
}

// Succeeded reports whether the summary holds a result.
func (s Summary) Succeeded() bool {
	return s.Error == ""
}

func entries(reviews []model.ClassifiedReview) []ReviewEntry {
	out := make([]ReviewEntry, len(reviews))
	for i, rev := range reviews {
		out[i] = ReviewEntry{
			Text:       rev.Text,
			IsFake:     rev.Label.IsFake(),
			Confidence: rev.Confidence,
		}
	}
	return out
}

// FormatConfidence renders a confidence for display.
func FormatConfidence(c *float64) string {
	if c == nil {
		return "n/a"
	}
	return formatPercent(*c)
}
