// Package pipeline runs one review analysis from source to result.
//
// An analysis goes through four steps, each filling part of a
// model.Analysis:
//
//	fetch     download the page (skipped for supplied content)
//	extract   pull candidate review texts with the site's strategy
//	filter    drop candidates shorter than extract.MinReviewLength
//	classify  vectorize, classify and aggregate the survivors
//
// Fetch and parse failures are recovered as "no candidates" and surface
// as ErrNoReviews. When the pretrained artifacts are missing every call
// fails with a *ConfigurationError before any work is done.
//
// Analyzer is the entry point. BatchProcessor runs several analyses
// concurrently with errgroup, one Analysis per source.
package pipeline
