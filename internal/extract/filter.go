package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/nao1215/reviewscan/internal/model"
)

// MinReviewLength is the minimum number of characters, after trimming
// surrounding whitespace, a candidate needs to be classified.
const MinReviewLength = 10

// IsReview reports whether text is long enough to be classified.
func IsReview(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinReviewLength
}

// Filter returns the candidates that pass IsReview, in their original
// order and with their original text and position.
func Filter(candidates []model.Candidate) []model.Candidate {
	kept := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if IsReview(c.Text) {
			kept = append(kept, c)
		}
	}
	return kept
}
