package model

import "math"

// Candidate is a single extracted review string.
// Position is its index in extraction (document) order.
type Candidate struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// NewCandidates wraps texts as candidates numbered in order.
func NewCandidates(texts ...string) []Candidate {
	candidates := make([]Candidate, len(texts))
	for i, text := range texts {
		candidates[i] = Candidate{Text: text, Position: i}
	}
	return candidates
}

// ClassifiedReview is a candidate after classification.
// Confidence is nil when the classifier exposes no class probabilities;
// that is different from a confidence of zero.
type ClassifiedReview struct {
	Text       string   `json:"text"`
	Label      Label    `json:"label"`
	Confidence *float64 `json:"confidence"`
	Position   int      `json:"position"`
}

// HasConfidence reports whether a calibrated confidence is available.
func (r ClassifiedReview) HasConfidence() bool {
	return r.Confidence != nil
}

// AnalysisResult is the fake/genuine partition of one batch of reviews.
//
// TotalAnalyzed always equals len(Fake)+len(Genuine). Both percentages are
// zero when nothing was analyzed. The percentages are rounded
// independently and may not add up to exactly 100.
type AnalysisResult struct {
	Fake              []ClassifiedReview `json:"fake"`
	Genuine           []ClassifiedReview `json:"genuine"`
	TotalAnalyzed     int                `json:"total_analyzed"`
	FakePercentage    float64            `json:"fake_percentage"`
	GenuinePercentage float64            `json:"genuine_percentage"`

	// Candidates is the number of filtered candidates that entered
	// classification.
	Candidates int `json:"candidates"`

	// Skipped is the number of candidates dropped because vectorizing or
	// classifying them failed.
	Skipped int `json:"skipped"`
}

// NewAnalysisResult builds a result from the two buckets and derives
// the totals and percentages.
func NewAnalysisResult(fake, genuine []ClassifiedReview) AnalysisResult {
	if fake == nil {
		fake = []ClassifiedReview{}
	}
	if genuine == nil {
		genuine = []ClassifiedReview{}
	}

	total := len(fake) + len(genuine)
	r := AnalysisResult{
		Fake:          fake,
		Genuine:       genuine,
		TotalAnalyzed: total,
		Candidates:    total,
	}
	if total > 0 {
		r.FakePercentage = Percentage(len(fake), total)
		r.GenuinePercentage = Percentage(len(genuine), total)
	}
	return r
}

// FakeCount returns the number of reviews labeled fake.
func (r AnalysisResult) FakeCount() int {
	return len(r.Fake)
}

// GenuineCount returns the number of reviews labeled genuine.
func (r AnalysisResult) GenuineCount() int {
	return len(r.Genuine)
}

// IsEmpty reports whether no review could be classified.
func (r AnalysisResult) IsEmpty() bool {
	return r.TotalAnalyzed == 0
}

// Reviews returns all classified reviews merged back into extraction order.
func (r AnalysisResult) Reviews() []ClassifiedReview {
	merged := make([]ClassifiedReview, 0, r.TotalAnalyzed)
	i, j := 0, 0
	for i < len(r.Fake) || j < len(r.Genuine) {
		switch {
		case j >= len(r.Genuine):
			merged = append(merged, r.Fake[i])
			i++
		case i >= len(r.Fake):
			merged = append(merged, r.Genuine[j])
			j++
		case r.Fake[i].Position < r.Genuine[j].Position:
			merged = append(merged, r.Fake[i])
			i++
		default:
			merged = append(merged, r.Genuine[j])
			j++
		}
	}
	return merged
}

// Percentage returns part/total*100 rounded to one decimal place.
// It returns 0 when total is not positive.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return RoundTenth(float64(part) / float64(total) * 100)
}

// RoundTenth rounds v to one decimal place, halves to even.
func RoundTenth(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}

// RoundHundredth rounds v to two decimal places, halves to even.
func RoundHundredth(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
