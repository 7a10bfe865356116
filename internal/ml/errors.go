package ml

import "errors"

var (
	// ErrInvalidText is returned for text that is not valid UTF-8.
	ErrInvalidText = errors.New("text is not valid UTF-8")

	// ErrFeatureOutOfRange is returned when a feature index is outside
	// the model's dimension.
	ErrFeatureOutOfRange = errors.New("feature index out of range")

	// ErrUnknownModelType is returned for an unsupported classifier type.
	ErrUnknownModelType = errors.New("unknown model type")

	// ErrInvalidArtifact is returned when an artifact is malformed.
	ErrInvalidArtifact = errors.New("invalid artifact")

	// ErrDimensionMismatch is returned when the classifier and the
	// vectorizer disagree on the number of features.
	ErrDimensionMismatch = errors.New("classifier and vectorizer dimensions differ")
)
