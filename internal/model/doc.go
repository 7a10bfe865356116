// Package model defines the core data structures used throughout reviewscan.
//
// This package contains the following main types:
//   - Page: A fetched web page whose markup is searched for reviews
//   - Candidate: A single extracted review string and its position
//   - ClassifiedReview: A candidate after labeling, with optional confidence
//   - AnalysisResult: The fake/genuine partition and its summary statistics
//   - Analysis: The per-call record threaded through the pipeline steps
//
// Models live in their own package so that extract, aggregate, pipeline,
// report, database and server can share them without import cycles.
// All of them serialize to JSON for report output and database storage.
package model
