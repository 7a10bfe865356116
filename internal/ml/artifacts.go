package ml

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/sha3"
)

// vectorizerFile is the on-disk form of the vectorizer artifact.
type vectorizerFile struct {
	Vectorizer *vectorizerSpec `json:"vectorizer"`
}

type vectorizerSpec struct {
	Type         string         `json:"type"`
	Vocabulary   map[string]int `json:"vocabulary"`
	IDF          []float64      `json:"idf"`
	NgramRange   []int          `json:"ngram_range"`
	Lowercase    *bool          `json:"lowercase"`
	Normalize    bool           `json:"normalize"`
	StripAccents *string        `json:"strip_accents"`
	SublinearTF  bool           `json:"sublinear_tf"`
	Norm         *string        `json:"norm"`
	StopWords    []string       `json:"stop_words"`
}

// modelFile is the on-disk form of the classifier artifact.
type modelFile struct {
	Model *modelSpec `json:"model"`
}

type modelSpec struct {
	Type           string      `json:"type"`
	Coef           []float64   `json:"coef"`
	Intercept      float64     `json:"intercept"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
	Classes        []int       `json:"classes"`
}

// Artifacts is a loaded vectorizer and classifier pair.
type Artifacts struct {
	Vectorizer *TFIDFVectorizer
	Classifier Classifier

	// Fingerprint is the hex SHA3-256 digest of the model file followed
	// by the vectorizer file.
	Fingerprint string
}

// ShortFingerprint returns the first 12 hex digits of the fingerprint.
func (a *Artifacts) ShortFingerprint() string {
	if len(a.Fingerprint) < 12 {
		return a.Fingerprint
	}
	return a.Fingerprint[:12]
}

// LoadArtifacts reads and validates the model and vectorizer files.
func LoadArtifacts(modelPath, vectorizerPath string) (*Artifacts, error) {
	modelData, err := os.ReadFile(modelPath) //nolint:gosec // Model path comes from the user
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	vectorizerData, err := os.ReadFile(vectorizerPath) //nolint:gosec // Vectorizer path comes from the user
	if err != nil {
		return nil, fmt.Errorf("failed to read vectorizer: %w", err)
	}
	return ParseArtifacts(modelData, vectorizerData)
}

// ParseArtifacts decodes artifacts from the contents of the two files.
func ParseArtifacts(modelData, vectorizerData []byte) (*Artifacts, error) {
	classifier, err := ParseClassifier(modelData)
	if err != nil {
		return nil, err
	}
	vectorizer, err := ParseVectorizer(vectorizerData)
	if err != nil {
		return nil, err
	}
	if classifier.Dim() != vectorizer.Dim() {
		return nil, fmt.Errorf("%w: model %d, vectorizer %d", ErrDimensionMismatch, classifier.Dim(), vectorizer.Dim())
	}
	return &Artifacts{
		Vectorizer:  vectorizer,
		Classifier:  classifier,
		Fingerprint: Fingerprint(modelData, vectorizerData),
	}, nil
}

// ParseVectorizer decodes a {"vectorizer": {...}} document.
func ParseVectorizer(data []byte) (*TFIDFVectorizer, error) {
	var file vectorizerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: vectorizer: %w", ErrInvalidArtifact, err)
	}
	raw := file.Vectorizer
	if raw == nil {
		return nil, fmt.Errorf("%w: missing \"vectorizer\" key", ErrInvalidArtifact)
	}
	if raw.Type != "" && raw.Type != "tfidf" {
		return nil, fmt.Errorf("%w: vectorizer type %q", ErrUnknownModelType, raw.Type)
	}

	opts := []VectorizerOption{WithSublinearTF(raw.SublinearTF), WithStopWords(raw.StopWords)}
	switch len(raw.NgramRange) {
	case 0:
	case 2:
		opts = append(opts, WithNgramRange(raw.NgramRange[0], raw.NgramRange[1]))
	default:
		return nil, fmt.Errorf("%w: ngram_range must have 2 values", ErrInvalidArtifact)
	}
	if raw.Lowercase != nil {
		opts = append(opts, WithLowercase(*raw.Lowercase))
	}
	if raw.Norm != nil {
		opts = append(opts, WithNorm(*raw.Norm))
	}
	if raw.Normalize {
		opts = append(opts, WithNormalize(true))
	}
	if raw.StripAccents != nil {
		opts = append(opts, WithStripAccents(*raw.StripAccents))
	}

	v, err := NewTFIDFVectorizer(raw.Vocabulary, raw.IDF, opts...)
	if err != nil {
		return nil, fmt.Errorf("vectorizer: %w", err)
	}
	return v, nil
}

// ParseClassifier decodes a {"model": {...}} document.
func ParseClassifier(data []byte) (Classifier, error) {
	var file modelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: model: %w", ErrInvalidArtifact, err)
	}
	raw := file.Model
	if raw == nil {
		return nil, fmt.Errorf("%w: missing \"model\" key", ErrInvalidArtifact)
	}

	var (
		c   Classifier
		err error
	)
	switch raw.Type {
	case KindLogisticRegression, KindLinearSVC:
		c, err = NewLinearClassifier(raw.Type, raw.Coef, raw.Intercept, raw.Classes)
	case KindMultinomialNB:
		c, err = NewNaiveBayesClassifier(raw.ClassLogPrior, raw.FeatureLogProb, raw.Classes)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownModelType, raw.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return c, nil
}

// Fingerprint returns the hex SHA3-256 digest of the concatenated inputs.
func Fingerprint(parts ...[]byte) string {
	h := sha3.New256()
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// IsArtifactError reports whether err came from a malformed artifact
// rather than from reading the files.
func IsArtifactError(err error) bool {
	return errors.Is(err, ErrInvalidArtifact) ||
		errors.Is(err, ErrUnknownModelType) ||
		errors.Is(err, ErrDimensionMismatch)
}
