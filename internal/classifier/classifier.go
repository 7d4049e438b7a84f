// Package classifier adapts a pre-trained binary flood model to the
// domain.Classifier contract.
package classifier

import (
	"fmt"
	"io"
	"math"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Model is an opaque, pre-trained binary classifier over the 3-feature
// vector. It returns the predicted class (0 or 1) and the probability of the
// positive class in [0,1]. Implementations are read-only after loading.
type Model interface {
	Predict(x []float64) (class int, positiveProb float64, err error)
	Name() string
}

// Adapter implements domain.Classifier over a Model.
type Adapter struct {
	model Model
}

// NewAdapter wraps a loaded model.
func NewAdapter(m Model) *Adapter {
	return &Adapter{model: m}
}

// ModelName identifies the wrapped model.
func (a *Adapter) ModelName() string {
	return a.model.Name()
}

// Close releases native resources held by the model, if any.
func (a *Adapter) Close() error {
	if c, ok := a.model.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Classify scores one feature vector. Any failure is reported as
// domain.ErrClassification.
func (a *Adapter) Classify(features domain.SampleFeatureVector) (domain.ClassificationResult, error) {
	x := features.Values()
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.ClassificationResult{}, fmt.Errorf("%w: feature %d is not finite", domain.ErrClassification, i)
		}
	}
	if features.RainfallMM < 0 {
		return domain.ClassificationResult{}, fmt.Errorf("%w: negative rainfall %v", domain.ErrClassification, features.RainfallMM)
	}

	class, prob, err := a.model.Predict(x)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("%w: %s: %v", domain.ErrClassification, a.model.Name(), err)
	}
	label, err := domain.LabelFromClass(class)
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	return domain.NewClassificationResult(label, prob), nil
}
