package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// FeatureCount is the width of the flood feature vector.
const FeatureCount = 3

// LogisticModel is a binary logistic regression exported from training as
// JSON:
//
//	{
//	  "name": "flood-logit-v1",
//	  "features": ["rainfall_mm", "elevation", "drainage_capacity"],
//	  "weights": [0.12, -0.3, -0.05],
//	  "intercept": 1.5,
//	  "threshold": 0.5
//	}
//
// Optional "means"/"scales" apply standard scaling before the dot product.
type LogisticModel struct {
	ModelName string    `json:"name"`
	Features  []string  `json:"features"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	Threshold float64   `json:"threshold"`
	Means     []float64 `json:"means,omitempty"`
	Scales    []float64 `json:"scales,omitempty"`
}

// LoadLogisticModel reads and validates a JSON model artifact.
func LoadLogisticModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m LogisticModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if m.Threshold == 0 {
		m.Threshold = 0.5
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *LogisticModel) validate() error {
	if len(m.Weights) != FeatureCount {
		return fmt.Errorf("model expects %d weights, got %d", FeatureCount, len(m.Weights))
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		return fmt.Errorf("threshold %v outside (0, 1)", m.Threshold)
	}
	if len(m.Means) != 0 && len(m.Means) != FeatureCount {
		return errors.New("means must match feature count")
	}
	if len(m.Scales) != 0 && len(m.Scales) != FeatureCount {
		return errors.New("scales must match feature count")
	}
	for _, s := range m.Scales {
		if s == 0 {
			return errors.New("scales must be non-zero")
		}
	}
	vals := append([]float64{m.Intercept}, m.Weights...)
	vals = append(vals, m.Means...)
	vals = append(vals, m.Scales...)
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("model parameters must be finite")
		}
	}
	return nil
}

func (m *LogisticModel) Name() string {
	if m.ModelName == "" {
		return "logistic"
	}
	return m.ModelName
}

// Predict returns class 1 when the positive probability exceeds the threshold.
func (m *LogisticModel) Predict(x []float64) (int, float64, error) {
	if len(x) != FeatureCount {
		return 0, 0, fmt.Errorf("expected %d features, got %d", FeatureCount, len(x))
	}
	z := m.Intercept
	for i, v := range x {
		if len(m.Means) > 0 {
			v = (v - m.Means[i]) / m.Scales[i]
		}
		z += m.Weights[i] * v
	}
	p := 1 / (1 + math.Exp(-z))
	if p > m.Threshold {
		return 1, p, nil
	}
	return 0, p, nil
}
