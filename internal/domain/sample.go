package domain

import (
	"context"
	"fmt"
)

// FailureKind names why an environmental lookup fell back.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureTimeout      FailureKind = "timeout"
	FailureNetwork      FailureKind = "network"
	FailureUpstream     FailureKind = "upstream_status"
	FailureMalformed    FailureKind = "malformed_response"
	FailureMissingField FailureKind = "missing_field"
	FailureCancelled    FailureKind = "cancelled"
	FailureDisabled     FailureKind = "disabled"
)

// FallbackRainfallMM is substituted when the live lookup fails.
const FallbackRainfallMM = 0.0

// EnvironmentalSample is the live data resolved for one coordinate.
type EnvironmentalSample struct {
	RainfallMM float64     `json:"rainfall_mm"`
	Degraded   bool        `json:"degraded"`
	Failure    FailureKind `json:"failure,omitempty"`
}

// DegradedSample returns the fallback sample for a failed lookup.
func DegradedSample(kind FailureKind) EnvironmentalSample {
	return EnvironmentalSample{RainfallMM: FallbackRainfallMM, Degraded: true, Failure: kind}
}

// WeatherProvider returns recent rainfall in millimetres for a coordinate.
type WeatherProvider interface {
	Rainfall(ctx context.Context, c Coordinate) (float64, error)
}

// FetchError is returned by providers when the failure kind is known at the
// source (bad status, undecodable body, absent field).
type FetchError struct {
	Kind FailureKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
