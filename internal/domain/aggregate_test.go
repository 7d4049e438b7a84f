package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotes_High(t *testing.T) {
	notes := Notes(LabelHigh, delhi)
	require.Len(t, notes, 4)
	assert.Contains(t, notes[0], "low-lying")
	assert.Contains(t, notes[0], "28.6139, 77.2090")
	assert.Contains(t, notes[1], "main roads")
	assert.Contains(t, notes[2], "shelter")
	assert.Contains(t, notes[3], "emergency kit")
}

func TestNotes_Low(t *testing.T) {
	assert.Equal(t, []string{"Minor water-logging possible", "Stay alert"}, Notes(LabelLow, delhi))
}

func TestAggregate_ZipsInOrder(t *testing.T) {
	coords, err := GenerateGrid(delhi, 0.01, PatternCross5)
	require.NoError(t, err)

	samples := make([]EnvironmentalSample, len(coords))
	features := make([]SampleFeatureVector, len(coords))
	results := make([]ClassificationResult, len(coords))
	for i := range coords {
		samples[i] = EnvironmentalSample{RainfallMM: float64(i)}
		features[i] = NewFeatureVector(samples[i], DefaultCovariates)
		label := LabelLow
		if i%2 == 1 {
			label = LabelHigh
		}
		results[i] = NewClassificationResult(label, float64(i)/10)
	}

	entries, err := Aggregate(coords, samples, features, results)
	require.NoError(t, err)
	require.Len(t, entries, len(coords))

	for i, e := range entries {
		assert.Equal(t, coords[i], e.Coordinate)
		assert.Equal(t, float64(i), e.Sample.RainfallMM)
		assert.Equal(t, results[i], e.Classification)
		assert.Equal(t, Notes(results[i].Label, coords[i]), e.Notes)
	}
}

func TestAggregate_UnscoredPointGetsConfidenceNote(t *testing.T) {
	entries, err := Aggregate(
		[]Coordinate{delhi},
		[]EnvironmentalSample{DegradedSample(FailureTimeout)},
		[]SampleFeatureVector{NewFeatureVector(DegradedSample(FailureTimeout), DefaultCovariates)},
		[]ClassificationResult{UnscoredResult()},
	)
	require.NoError(t, err)
	require.Len(t, entries[0].Notes, 3)
	assert.True(t, strings.Contains(entries[0].Notes[2], "reduced confidence"))
}

func TestAggregate_LengthMismatch(t *testing.T) {
	_, err := Aggregate([]Coordinate{delhi}, nil, nil, nil)
	assert.Error(t, err)
}

func TestReport_Data(t *testing.T) {
	entries := []RiskEntry{
		{
			Coordinate:     Coordinate{Lat: 28.623900000000003, Lon: 77.2090004},
			Sample:         EnvironmentalSample{RainfallMM: 12.5},
			Classification: ClassificationResult{Label: LabelHigh, Probability: 87.42, Confident: true},
			Notes:          Notes(LabelHigh, delhi),
		},
	}

	got := Assemble(entries).Data()
	want := []ReportEntry{{
		Lat:      28.6239,
		Lon:      77.209,
		RainMM:   12.5,
		Risk:     LabelHigh,
		RiskProb: 87.42,
		Notes:    Notes(LabelHigh, delhi),
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("report data mismatch (-want +got):\n%s", diff)
	}
}

func TestReport_DegradedCount(t *testing.T) {
	r := Assemble([]RiskEntry{
		{Sample: DegradedSample(FailureNetwork)},
		{Sample: EnvironmentalSample{RainfallMM: 3}},
		{Sample: DegradedSample(FailureTimeout)},
	})
	assert.Equal(t, 2, r.DegradedCount())
}

func TestReportEntry_JSONFixedProbabilityPrecision(t *testing.T) {
	body := ReportBody{Data: []ReportEntry{
		{Lat: 28.6139, Lon: 77.209, RainMM: 0, Risk: LabelLow, RiskProb: 13.1, Notes: Notes(LabelLow, delhi)},
		{Lat: 28.6239, Lon: 77.209, RainMM: 40, Risk: LabelHigh, RiskProb: 100, Notes: Notes(LabelHigh, delhi)},
	}}

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"risk_prob":13.10`)
	assert.Contains(t, string(raw), `"risk_prob":100.00`)
	assert.True(t, strings.HasPrefix(string(raw), `{"data":[{"lat":28.6139,"lon":77.209,"rain_mm":0,"risk":"LOW"`))

	var back ReportBody
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, body, back)
}
