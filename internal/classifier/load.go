package classifier

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Opener builds a Model from an artifact path. Used for formats that need
// native runtimes, such as ONNX.
type Opener func(path string) (Model, error)

// Load reads the model artifact at path once and wraps it in an Adapter.
// JSON artifacts are read natively; other extensions are handed to the
// opener registered for them. Any failure is domain.ErrModelUnavailable.
func Load(path string, openers map[string]Opener) (*Adapter, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		m   Model
		err error
	)
	switch {
	case ext == ".json":
		m, err = LoadLogisticModel(path)
	case openers[ext] != nil:
		m, err = openers[ext](path)
	default:
		err = fmt.Errorf("unsupported model format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrModelUnavailable, path, err)
	}
	return NewAdapter(m), nil
}
