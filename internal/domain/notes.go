package domain

import "fmt"

const reducedConfidenceNote = "Risk could not be scored reliably for this point; treat as reduced confidence"

// Notes returns the advisory text for a label at a coordinate.
func Notes(label Label, c Coordinate) []string {
	if label == LabelHigh {
		near := fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lon)
		return []string{
			"Stay alert and avoid low-lying areas near " + near,
			"Use main roads only",
			"Move to the nearest shelter or community center near " + near,
			"Keep an emergency kit ready",
		}
	}
	return []string{
		"Minor water-logging possible",
		"Stay alert",
	}
}

func notesFor(result ClassificationResult, c Coordinate) []string {
	notes := Notes(result.Label, c)
	if !result.Confident {
		notes = append(notes, reducedConfidenceNote)
	}
	return notes
}
