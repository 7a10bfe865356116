// Package aggregate classifies a batch of candidate reviews and builds
// the fake/genuine partition with its percentages.
//
// A failure on one candidate never affects the others: vectorizer and
// classifier errors, including panics, are logged and the candidate is
// counted as skipped.
package aggregate
