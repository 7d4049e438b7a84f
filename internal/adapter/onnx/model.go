// Package onnx runs a flood classifier exported to ONNX (for example with
// skl2onnx and zipmap disabled) through ONNX Runtime.
package onnx

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/flood-risk-service/internal/classifier"
	ort "github.com/yalue/onnxruntime_go"
)

// Default tensor names produced by skl2onnx for binary classifiers.
const (
	DefaultInputName       = "float_input"
	DefaultLabelOutput     = "label"
	DefaultProbabilityName = "probabilities"
)

var initOnce sync.Once
var initErr error

// Options configures the runtime and tensor names.
type Options struct {
	// SharedLibraryPath points at libonnxruntime. Empty uses the platform default.
	SharedLibraryPath string
	InputName         string
	LabelOutput       string
	ProbabilityOutput string
}

// Model implements classifier.Model over an ONNX Runtime session.
// The session is only read after construction and Run is safe to call
// concurrently with per-call tensors.
type Model struct {
	session *ort.DynamicAdvancedSession
	name    string
}

// Opener returns a classifier.Opener bound to opts.
func Opener(opts Options) classifier.Opener {
	return func(path string) (classifier.Model, error) {
		return Open(path, opts)
	}
}

// Open initializes ONNX Runtime once per process and loads the model.
func Open(path string, opts Options) (*Model, error) {
	if opts.InputName == "" {
		opts.InputName = DefaultInputName
	}
	if opts.LabelOutput == "" {
		opts.LabelOutput = DefaultLabelOutput
	}
	if opts.ProbabilityOutput == "" {
		opts.ProbabilityOutput = DefaultProbabilityName
	}

	initOnce.Do(func() {
		if opts.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(opts.SharedLibraryPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", initErr)
	}

	session, err := ort.NewDynamicAdvancedSession(path,
		[]string{opts.InputName},
		[]string{opts.LabelOutput, opts.ProbabilityOutput},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &Model{session: session, name: filepath.Base(path)}, nil
}

func (m *Model) Name() string { return m.name }

// Predict runs one row through the session.
func (m *Model) Predict(x []float64) (int, float64, error) {
	if len(x) != classifier.FeatureCount {
		return 0, 0, fmt.Errorf("expected %d features, got %d", classifier.FeatureCount, len(x))
	}
	row := make([]float32, len(x))
	for i, v := range x {
		row[i] = float32(v)
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(len(row))), row)
	if err != nil {
		return 0, 0, fmt.Errorf("input tensor: %w", err)
	}
	defer input.Destroy()

	label, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return 0, 0, fmt.Errorf("label tensor: %w", err)
	}
	defer label.Destroy()

	probs, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		return 0, 0, fmt.Errorf("probability tensor: %w", err)
	}
	defer probs.Destroy()

	if err := m.session.Run([]ort.Value{input}, []ort.Value{label, probs}); err != nil {
		return 0, 0, fmt.Errorf("run onnx session: %w", err)
	}

	labels := label.GetData()
	p := probs.GetData()
	if len(labels) < 1 || len(p) < 2 {
		return 0, 0, errors.New("unexpected onnx output shape")
	}
	return int(labels[0]), float64(p[1]), nil
}

// Close releases the session.
func (m *Model) Close() error {
	if m == nil || m.session == nil {
		return nil
	}
	return m.session.Destroy()
}
