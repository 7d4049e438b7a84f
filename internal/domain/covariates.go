package domain

import (
	"context"
	"log/slog"
)

// Covariates are the non-rainfall classifier inputs for a coordinate.
type Covariates struct {
	Elevation        float64 `json:"elevation" yaml:"elevation"`
	DrainageCapacity float64 `json:"drainage_capacity" yaml:"drainage_capacity"`
}

// DefaultCovariates is applied when no covariate source is wired in, or when
// the configured source has nothing for a coordinate. The values match the
// low-lying, moderately drained "Zone A" profile the classifier was trained on.
var DefaultCovariates = Covariates{Elevation: 3, DrainageCapacity: 50}

// CovariateSource resolves elevation and drainage for a coordinate.
type CovariateSource interface {
	Covariates(ctx context.Context, c Coordinate) (Covariates, error)
}

// StaticCovariates returns the same covariates for every coordinate.
type StaticCovariates struct {
	Value Covariates
}

// NewStaticCovariates returns a source that always yields v.
func NewStaticCovariates(v Covariates) StaticCovariates {
	return StaticCovariates{Value: v}
}

func (s StaticCovariates) Covariates(_ context.Context, _ Coordinate) (Covariates, error) {
	return s.Value, nil
}

// ZoneCovariates looks up the nearest catalog zone within RadiusKm and uses
// its profile. Coordinates outside every zone get Fallback.
type ZoneCovariates struct {
	Catalog  ZoneCatalog
	RadiusKm float64
	Fallback Covariates
}

func (z ZoneCovariates) Covariates(ctx context.Context, c Coordinate) (Covariates, error) {
	zones, err := z.Catalog.Zones(ctx)
	if err != nil {
		return z.Fallback, err
	}
	zone, ok := NearestZone(zones, c, z.RadiusKm)
	if !ok {
		return z.Fallback, nil
	}
	return zone.Covariates, nil
}

// ResolveCovariates asks src for covariates and falls back to def on error.
// A nil source yields def.
func ResolveCovariates(ctx context.Context, src CovariateSource, c Coordinate, def Covariates, logger *slog.Logger) Covariates {
	if src == nil {
		return def
	}
	cov, err := src.Covariates(ctx, c)
	if err != nil {
		logger.Warn("covariate lookup failed, using default",
			"lat", c.Lat,
			"lon", c.Lon,
			"error", err,
		)
		return def
	}
	return cov
}

// SampleFeatureVector is the classifier input for one coordinate.
type SampleFeatureVector struct {
	RainfallMM       float64 `json:"rainfall_mm"`
	Elevation        float64 `json:"elevation"`
	DrainageCapacity float64 `json:"drainage_capacity"`
}

// NewFeatureVector combines a rainfall sample with covariates.
func NewFeatureVector(sample EnvironmentalSample, cov Covariates) SampleFeatureVector {
	return SampleFeatureVector{
		RainfallMM:       sample.RainfallMM,
		Elevation:        cov.Elevation,
		DrainageCapacity: cov.DrainageCapacity,
	}
}

// Values returns the vector in classifier column order.
func (v SampleFeatureVector) Values() []float64 {
	return []float64{v.RainfallMM, v.Elevation, v.DrainageCapacity}
}
