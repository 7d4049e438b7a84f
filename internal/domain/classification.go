package domain

import (
	"fmt"
	"math"
)

// Label is the binary flood risk class.
type Label string

const (
	LabelLow  Label = "LOW"
	LabelHigh Label = "HIGH"
)

// LabelFromClass maps the classifier's positive class (1) to HIGH and the
// negative class (0) to LOW.
func LabelFromClass(class int) (Label, error) {
	switch class {
	case 0:
		return LabelLow, nil
	case 1:
		return LabelHigh, nil
	default:
		return "", fmt.Errorf("%w: unexpected class %d", ErrClassification, class)
	}
}

// ClassificationResult is the scored outcome for one feature vector.
// Probability is the HIGH-class probability as a percentage.
type ClassificationResult struct {
	Label       Label   `json:"label"`
	Probability float64 `json:"probability"`
	Confident   bool    `json:"confident"`
}

// NewClassificationResult converts a positive-class probability in [0,1] to a
// clamped percentage rounded to 2 decimal places.
func NewClassificationResult(label Label, positiveProb float64) ClassificationResult {
	return ClassificationResult{
		Label:       label,
		Probability: ProbabilityPercent(positiveProb),
		Confident:   true,
	}
}

// UnscoredResult is used for a point whose features could not be classified.
func UnscoredResult() ClassificationResult {
	return ClassificationResult{Label: LabelLow, Probability: 0, Confident: false}
}

// ProbabilityPercent scales p to [0,100] and rounds to 2 decimal places.
// NaN maps to 0.
func ProbabilityPercent(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	pct := math.Max(0, math.Min(100, p*100))
	return roundTo(pct, 2)
}

// Classifier scores a feature vector. Implementations must be deterministic
// and safe for concurrent use.
type Classifier interface {
	Classify(features SampleFeatureVector) (ClassificationResult, error)
}
