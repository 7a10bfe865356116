package ml

import (
	"fmt"
	"math"
)

// FeatureVector is a sparse feature vector. Indices are strictly
// increasing and every value is non-zero.
type FeatureVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// NNZ returns the number of stored (non-zero) features.
func (v FeatureVector) NNZ() int {
	return len(v.Indices)
}

// IsEmpty reports whether no feature is set.
func (v FeatureVector) IsEmpty() bool {
	return len(v.Indices) == 0
}

// Dot returns the inner product of v with the dense weights w.
func (v FeatureVector) Dot(w []float64) (float64, error) {
	if len(v.Indices) != len(v.Values) {
		return 0, fmt.Errorf("%w: %d indices, %d values", ErrInvalidArtifact, len(v.Indices), len(v.Values))
	}
	var sum float64
	for i, idx := range v.Indices {
		if idx < 0 || idx >= len(w) {
			return 0, fmt.Errorf("%w: index %d, dimension %d", ErrFeatureOutOfRange, idx, len(w))
		}
		sum += w[idx] * v.Values[i]
	}
	return sum, nil
}

func normalize(values []float64, norm string) {
	var total float64
	switch norm {
	case NormL2:
		for _, x := range values {
			total += x * x
		}
		total = math.Sqrt(total)
	case NormL1:
		for _, x := range values {
			total += math.Abs(x)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}
