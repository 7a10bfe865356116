package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoSource is returned when analyze is run without a URL or file.
	ErrNoSource = errors.New("no source specified: provide a product page URL, an HTML file, or '-' for stdin")

	// ErrInvalidLimit is returned when the review limit is negative.
	ErrInvalidLimit = errors.New("invalid limit: must be non-negative")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRenderWait is returned when the render wait is negative.
	ErrInvalidRenderWait = errors.New("invalid render wait: must be non-negative")

	// ErrNoModelDir is returned when no model directory is configured.
	ErrNoModelDir = errors.New("no model directory configured")
)
