package domain

import "fmt"

// RiskEntry is one sampled coordinate with its inputs, score and advice.
type RiskEntry struct {
	Coordinate     Coordinate           `json:"coordinate"`
	Sample         EnvironmentalSample  `json:"sample"`
	Features       SampleFeatureVector  `json:"features"`
	Classification ClassificationResult `json:"classification"`
	Notes          []string             `json:"notes"`
}

// Aggregate zips the per-point sequences into risk entries. All slices must
// have the same length and share grid emission order. Each point is reported
// on its own; nothing is smoothed or voted across points.
func Aggregate(coords []Coordinate, samples []EnvironmentalSample, features []SampleFeatureVector, results []ClassificationResult) ([]RiskEntry, error) {
	n := len(coords)
	if len(samples) != n || len(features) != n || len(results) != n {
		return nil, fmt.Errorf("aggregate: length mismatch: coords=%d samples=%d features=%d results=%d",
			n, len(samples), len(features), len(results))
	}

	entries := make([]RiskEntry, n)
	for i := range coords {
		entries[i] = RiskEntry{
			Coordinate:     coords[i],
			Sample:         samples[i],
			Features:       features[i],
			Classification: results[i],
			Notes:          notesFor(results[i], coords[i]),
		}
	}
	return entries, nil
}
