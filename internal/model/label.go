package model

import (
	"encoding/json"
	"fmt"
)

// Label is the binary outcome of classifying a review.
type Label int

const (
	// LabelGenuine marks a review the classifier considers authentic.
	LabelGenuine Label = iota

	// LabelFake marks a review the classifier considers fabricated.
	LabelFake
)

// String returns the lowercase label name.
func (l Label) String() string {
	switch l {
	case LabelGenuine:
		return "genuine"
	case LabelFake:
		return "fake"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// IsFake reports whether the label is LabelFake.
func (l Label) IsFake() bool {
	return l == LabelFake
}

// Valid reports whether l is one of the two defined labels.
func (l Label) Valid() bool {
	return l == LabelGenuine || l == LabelFake
}

// MarshalJSON encodes the label as its name.
func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a label from its name.
func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "genuine":
		*l = LabelGenuine
	case "fake":
		*l = LabelFake
	default:
		return fmt.Errorf("unknown label %q", s)
	}
	return nil
}
