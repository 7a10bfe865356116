package ml

import (
	"fmt"
	"math"

	"github.com/nao1215/reviewscan/internal/model"
)

// Classifier kinds as they appear in the model artifact.
const (
	KindLogisticRegression = "logistic_regression"
	KindLinearSVC          = "linear_svc"
	KindMultinomialNB      = "multinomial_nb"
)

// Prediction is the outcome of classifying one feature vector.
// Confidence is nil when the model exposes no class probabilities.
type Prediction struct {
	Label      model.Label
	Confidence *float64
}

// HasConfidence reports whether the prediction carries a confidence.
func (p Prediction) HasConfidence() bool {
	return p.Confidence != nil
}

// Classifier assigns a label to a feature vector.
type Classifier interface {
	Classify(vec FeatureVector) (Prediction, error)

	// Kind returns the artifact type name.
	Kind() string

	// Dim returns the number of features the model expects.
	Dim() int
}

// Confidence converts the winning class probability to a percentage with
// one decimal place.
func Confidence(probability float64) float64 {
	return model.RoundTenth(probability * 100)
}

// classes maps model output columns to labels. Column 0 is always
// genuine and column 1 always fake.
type classes [2]model.Label

var defaultClasses = classes{model.LabelGenuine, model.LabelFake}

// newClasses accepts an absent class list or exactly [0, 1], the sorted
// order in which scikit-learn stores classes_.
func newClasses(raw []int) (classes, error) {
	if raw == nil {
		return defaultClasses, nil
	}
	if len(raw) != 2 || raw[0] != int(model.LabelGenuine) || raw[1] != int(model.LabelFake) {
		return classes{}, fmt.Errorf("%w: classes %v must be [0, 1]", ErrInvalidArtifact, raw)
	}
	return defaultClasses, nil
}

func checkDim(vec FeatureVector, dim int) error {
	if vec.Dim > dim {
		return fmt.Errorf("%w: vector dimension %d, model dimension %d", ErrFeatureOutOfRange, vec.Dim, dim)
	}
	return nil
}

// LinearClassifier is a binary linear model: the positive column wins
// when coef.x + intercept > 0.
type LinearClassifier struct {
	kind      string
	coef      []float64
	intercept float64
	classes   classes
}

// NewLinearClassifier creates a linear classifier of kind
// KindLogisticRegression or KindLinearSVC. classLabels may be nil.
func NewLinearClassifier(kind string, coef []float64, intercept float64, classLabels []int) (*LinearClassifier, error) {
	if kind != KindLogisticRegression && kind != KindLinearSVC {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelType, kind)
	}
	if len(coef) == 0 {
		return nil, fmt.Errorf("%w: empty coefficients", ErrInvalidArtifact)
	}
	c, err := newClasses(classLabels)
	if err != nil {
		return nil, err
	}
	return &LinearClassifier{
		kind:      kind,
		coef:      append([]float64(nil), coef...),
		intercept: intercept,
		classes:   c,
	}, nil
}

// Kind implements Classifier.
func (c *LinearClassifier) Kind() string { return c.kind }

// Dim implements Classifier.
func (c *LinearClassifier) Dim() int { return len(c.coef) }

// Decision returns the value of the decision function for vec.
func (c *LinearClassifier) Decision(vec FeatureVector) (float64, error) {
	if err := checkDim(vec, len(c.coef)); err != nil {
		return 0, err
	}
	d, err := vec.Dot(c.coef)
	if err != nil {
		return 0, err
	}
	return d + c.intercept, nil
}

// Classify implements Classifier. Only logistic regression reports a
// confidence.
func (c *LinearClassifier) Classify(vec FeatureVector) (Prediction, error) {
	d, err := c.Decision(vec)
	if err != nil {
		return Prediction{}, err
	}

	label := c.classes[0]
	if d > 0 {
		label = c.classes[1]
	}
	if c.kind != KindLogisticRegression {
		return Prediction{Label: label}, nil
	}

	p := sigmoid(d)
	conf := Confidence(math.Max(p, 1-p))
	return Prediction{Label: label, Confidence: &conf}, nil
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// NaiveBayesClassifier is a multinomial naive Bayes model.
type NaiveBayesClassifier struct {
	classLogPrior  [2]float64
	featureLogProb [2][]float64
	classes        classes
}

// NewNaiveBayesClassifier creates a naive Bayes classifier from per-class
// log priors and per-class feature log probabilities. classLabels may be nil.
func NewNaiveBayesClassifier(classLogPrior []float64, featureLogProb [][]float64, classLabels []int) (*NaiveBayesClassifier, error) {
	if len(classLogPrior) != 2 || len(featureLogProb) != 2 {
		return nil, fmt.Errorf("%w: naive Bayes needs exactly 2 classes", ErrInvalidArtifact)
	}
	if len(featureLogProb[0]) == 0 || len(featureLogProb[0]) != len(featureLogProb[1]) {
		return nil, fmt.Errorf("%w: feature log probabilities have lengths %d and %d",
			ErrInvalidArtifact, len(featureLogProb[0]), len(featureLogProb[1]))
	}
	c, err := newClasses(classLabels)
	if err != nil {
		return nil, err
	}
	return &NaiveBayesClassifier{
		classLogPrior: [2]float64{classLogPrior[0], classLogPrior[1]},
		featureLogProb: [2][]float64{
			append([]float64(nil), featureLogProb[0]...),
			append([]float64(nil), featureLogProb[1]...),
		},
		classes: c,
	}, nil
}

// Kind implements Classifier.
func (c *NaiveBayesClassifier) Kind() string { return KindMultinomialNB }

// Dim implements Classifier.
func (c *NaiveBayesClassifier) Dim() int { return len(c.featureLogProb[0]) }

// Classify implements Classifier. Ties go to the first class.
func (c *NaiveBayesClassifier) Classify(vec FeatureVector) (Prediction, error) {
	if err := checkDim(vec, c.Dim()); err != nil {
		return Prediction{}, err
	}

	var jll [2]float64
	for k := range jll {
		d, err := vec.Dot(c.featureLogProb[k])
		if err != nil {
			return Prediction{}, err
		}
		jll[k] = c.classLogPrior[k] + d
	}

	// Softmax of two log-likelihoods, shifted by the maximum.
	hi := math.Max(jll[0], jll[1])
	e0, e1 := math.Exp(jll[0]-hi), math.Exp(jll[1]-hi)
	p1 := e1 / (e0 + e1)

	label, p := c.classes[0], 1-p1
	if jll[1] > jll[0] {
		label, p = c.classes[1], p1
	}
	conf := Confidence(p)
	return Prediction{Label: label, Confidence: &conf}, nil
}
