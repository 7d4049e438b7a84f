package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// RiskReport is the full result of one assessment.
type RiskReport struct {
	Center      Coordinate  `json:"center"`
	Zone        string      `json:"zone,omitempty"`
	Pattern     Pattern     `json:"pattern"`
	GeneratedAt time.Time   `json:"generated_at"`
	Entries     []RiskEntry `json:"entries"`
}

// ReportEntry is the externally visible form of a RiskEntry.
type ReportEntry struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	RainMM   float64  `json:"rain_mm"`
	Risk     Label    `json:"risk"`
	RiskProb float64  `json:"risk_prob"`
	Notes    []string `json:"notes"`
}

// MarshalJSON writes risk_prob with exactly two decimal places.
func (e ReportEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Lat      float64     `json:"lat"`
		Lon      float64     `json:"lon"`
		RainMM   float64     `json:"rain_mm"`
		Risk     Label       `json:"risk"`
		RiskProb json.Number `json:"risk_prob"`
		Notes    []string    `json:"notes"`
	}{
		Lat:      e.Lat,
		Lon:      e.Lon,
		RainMM:   e.RainMM,
		Risk:     e.Risk,
		RiskProb: json.Number(strconv.FormatFloat(e.RiskProb, 'f', 2, 64)),
		Notes:    e.Notes,
	})
}

// ReportBody is the response envelope.
type ReportBody struct {
	Data []ReportEntry `json:"data"`
}

// Assemble wraps entries in a report. Entry order is preserved exactly.
func Assemble(entries []RiskEntry) RiskReport {
	return RiskReport{Entries: entries}
}

// Data shapes the entries into the external schema: coordinates rounded to
// 6 decimal places, rainfall and probability passed through.
func (r RiskReport) Data() []ReportEntry {
	out := make([]ReportEntry, len(r.Entries))
	for i, e := range r.Entries {
		c := e.Coordinate.Rounded()
		notes := make([]string, len(e.Notes))
		copy(notes, e.Notes)
		out[i] = ReportEntry{
			Lat:      c.Lat,
			Lon:      c.Lon,
			RainMM:   e.Sample.RainfallMM,
			Risk:     e.Classification.Label,
			RiskProb: e.Classification.Probability,
			Notes:    notes,
		}
	}
	return out
}

// Body returns the response envelope for the report.
func (r RiskReport) Body() ReportBody {
	return ReportBody{Data: r.Data()}
}

// DegradedCount returns how many entries used fallback rainfall.
func (r RiskReport) DegradedCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.Sample.Degraded {
			n++
		}
	}
	return n
}
