package ml

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

// Norm names accepted by the vectorizer.
const (
	NormL2   = "l2"
	NormL1   = "l1"
	NormNone = ""
)

// TFIDFVectorizer maps text to TF-IDF weighted word n-gram vectors.
// It is read-only after construction.
type TFIDFVectorizer struct {
	vocabulary  map[string]int
	idf         []float64
	ngramMin    int
	ngramMax    int
	text        textOptions
	sublinearTF bool
	norm        string
	stopWords   map[string]struct{}
}

// VectorizerOption configures a TFIDFVectorizer.
type VectorizerOption func(*TFIDFVectorizer)

// WithNgramRange sets the n-gram range. The default is (1, 1).
func WithNgramRange(minN, maxN int) VectorizerOption {
	return func(v *TFIDFVectorizer) {
		v.ngramMin = minN
		v.ngramMax = maxN
	}
}

// WithLowercase enables or disables lowercasing. Enabled by default.
func WithLowercase(lowercase bool) VectorizerOption {
	return func(v *TFIDFVectorizer) {
		v.text.lowercase = lowercase
	}
}

// WithNormalize applies NFKC normalization before tokenizing. Off by
// default; enable it only for vocabularies fitted on NFKC text.
func WithNormalize(enabled bool) VectorizerOption {
	return func(v *TFIDFVectorizer) {
		v.text.normalize = enabled
	}
}

// WithStripAccents sets the accent stripping mode: StripAccentsNone
// (default), StripAccentsUnicode or StripAccentsASCII.
func WithStripAccents(mode string) VectorizerOption {
	return func(v *TFIDFVectorizer) {
		v.text.stripAccents = mode
	}
}

// WithSublinearTF replaces term frequency tf with 1 + ln(tf).
func WithSublinearTF(sublinear bool) VectorizerOption {
	return func(v *TFIDFVectorizer) {
		v.sublinearTF = sublinear
	}
}

// WithNorm sets the row normalization: NormL2 (default), NormL1 or NormNone.
func WithNorm(norm string) VectorizerOption {
	return func(v *TFIDFVectorizer) {
		v.norm = norm
	}
}

// WithStopWords sets tokens removed before n-grams are built.
func WithStopWords(words []string) VectorizerOption {
	return func(v *TFIDFVectorizer) {
		if len(words) == 0 {
			v.stopWords = nil
			return
		}
		v.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			v.stopWords[w] = struct{}{}
		}
	}
}

// NewTFIDFVectorizer creates a vectorizer from a vocabulary mapping terms
// to feature indices 0..len(vocabulary)-1 and the matching IDF weights.
// A nil idf disables IDF weighting.
func NewTFIDFVectorizer(vocabulary map[string]int, idf []float64, opts ...VectorizerOption) (*TFIDFVectorizer, error) {
	v := &TFIDFVectorizer{
		vocabulary: make(map[string]int, len(vocabulary)),
		ngramMin:   1,
		ngramMax:   1,
		text:       textOptions{lowercase: true},
		norm:       NormL2,
	}
	for _, opt := range opts {
		opt(v)
	}

	if len(vocabulary) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrInvalidArtifact)
	}
	seen := make([]bool, len(vocabulary))
	for term, idx := range vocabulary {
		if idx < 0 || idx >= len(vocabulary) {
			return nil, fmt.Errorf("%w: term %q has index %d outside [0,%d)", ErrInvalidArtifact, term, idx, len(vocabulary))
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: duplicate index %d", ErrInvalidArtifact, idx)
		}
		seen[idx] = true
		v.vocabulary[term] = idx
	}
	if idf != nil {
		if len(idf) != len(vocabulary) {
			return nil, fmt.Errorf("%w: %d idf weights for %d terms", ErrInvalidArtifact, len(idf), len(vocabulary))
		}
		v.idf = append([]float64(nil), idf...)
	}
	if v.ngramMin < 1 || v.ngramMax < v.ngramMin {
		return nil, fmt.Errorf("%w: ngram range (%d, %d)", ErrInvalidArtifact, v.ngramMin, v.ngramMax)
	}
	switch v.norm {
	case NormL2, NormL1, NormNone:
	default:
		return nil, fmt.Errorf("%w: unknown norm %q", ErrInvalidArtifact, v.norm)
	}
	switch v.text.stripAccents {
	case StripAccentsNone, StripAccentsUnicode, StripAccentsASCII:
	default:
		return nil, fmt.Errorf("%w: unknown strip_accents %q", ErrInvalidArtifact, v.text.stripAccents)
	}
	return v, nil
}

// Dim returns the number of features.
func (v *TFIDFVectorizer) Dim() int {
	return len(v.vocabulary)
}

// Transform converts one text into a feature vector. Text that matches no
// vocabulary term yields an empty vector. Invalid UTF-8 is an error.
func (v *TFIDFVectorizer) Transform(text string) (FeatureVector, error) {
	if !utf8.ValidString(text) {
		return FeatureVector{}, ErrInvalidText
	}

	tokens := tokenize(preprocess(text, v.text), v.stopWords)
	counts := make(map[int]int)
	for _, term := range ngrams(tokens, v.ngramMin, v.ngramMax) {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}

	vec := FeatureVector{
		Dim:     v.Dim(),
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)

	for _, idx := range vec.Indices {
		tf := float64(counts[idx])
		if v.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		if v.idf != nil {
			tf *= v.idf[idx]
		}
		vec.Values = append(vec.Values, tf)
	}
	normalize(vec.Values, v.norm)
	return vec, nil
}

// TransformBatch converts texts in order. It stops at the first error,
// reporting the failing position.
func (v *TFIDFVectorizer) TransformBatch(texts []string) ([]FeatureVector, error) {
	out := make([]FeatureVector, len(texts))
	for i, text := range texts {
		vec, err := v.Transform(text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}
