package pipeline

import (
	"errors"
	"strings"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("pretrained artifacts are not available")

	// ErrNoReviews is returned when no candidate survives extraction and
	// filtering. A batch where every candidate failed classification is
	// not an error; it yields a result with TotalAnalyzed == 0.
	ErrNoReviews = errors.New("no reviews found")

	// ErrInvalidLimit is returned for a negative limit.
	ErrInvalidLimit = errors.New("limit must not be negative")
)

// ConfigurationError reports that the analyzer cannot classify because
// its artifacts failed to load. Err is the load error, if known.
type ConfigurationError struct {
	Err error
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return ErrConfiguration.Error()
	}
	return ErrConfiguration.Error() + ": " + e.Err.Error()
}

// Unwrap returns the load error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ErrorFromMessage rebuilds an analysis error from its stored message.
// Messages of the sentinel errors map back to the sentinels so that
// errors.Is keeps working on analyses loaded from history.
func ErrorFromMessage(msg string) error {
	switch msg {
	case "":
		return nil
	case ErrNoReviews.Error():
		return ErrNoReviews
	case ErrInvalidLimit.Error():
		return ErrInvalidLimit
	}
	if strings.HasPrefix(msg, ErrConfiguration.Error()) {
		cause := strings.TrimPrefix(strings.TrimPrefix(msg, ErrConfiguration.Error()), ": ")
		if cause == "" {
			return &ConfigurationError{}
		}
		return &ConfigurationError{Err: errors.New(cause)}
	}
	return errors.New(msg)
}
