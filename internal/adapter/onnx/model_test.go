package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredict_RejectsWrongWidth(t *testing.T) {
	m := &Model{name: "flood.onnx"}
	_, _, err := m.Predict([]float64{1, 2})
	assert.Error(t, err)
	assert.Equal(t, "flood.onnx", m.Name())
}

func TestClose_NilSession(t *testing.T) {
	var m *Model
	assert.NoError(t, m.Close())
	assert.NoError(t, (&Model{}).Close())
}
