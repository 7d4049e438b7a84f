package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_BundledArtifactsPass(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, "../../models/flood_model.json", "../../configs/zones.yaml", 5)
	assert.Equal(t, 0, code, out.String())
	assert.NotContains(t, out.String(), "FAIL")
}

func TestRun_ShadowedZoneFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`zones:
  - name: North
    center: {lat: 28.6139, lon: 77.2090}
    covariates: {elevation: 3, drainage_capacity: 50}
  - name: North Annex
    center: {lat: 28.6139, lon: 77.2090}
    covariates: {elevation: 4, drainage_capacity: 60}
`), 0o600))

	var out bytes.Buffer
	code := run(&out, "../../models/flood_model.json", path, 5)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "North Annex: center resolves to North")
}

func TestRun_MissingModel(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, run(&out, "missing.json", "../../configs/zones.yaml", 5))
	assert.Contains(t, out.String(), "FATAL: load model")
}

func TestValidateModel_DetectsNonMonotonic(t *testing.T) {
	p := validateModel(invertedClassifier{}, nil)
	assert.False(t, p.passed())
}

// invertedClassifier lowers the HIGH probability as rain increases.
type invertedClassifier struct{}

func (invertedClassifier) Classify(f domain.SampleFeatureVector) (domain.ClassificationResult, error) {
	return domain.NewClassificationResult(domain.LabelLow, 1/(1+f.RainfallMM)), nil
}
