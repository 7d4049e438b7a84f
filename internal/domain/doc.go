// Package domain models flood risk sampling around a coordinate.
//
// # Sample Grid
//
// A request is answered by scoring a small grid of points rather than a
// single coordinate. Two patterns exist:
//
//	single  →  [center]
//	cross5  →  [center, +lat, +lon, -lat, -lon]
//
// Offsets are decimal degrees (0.01° ≈ 1.1 km of latitude). The cross5 order
// is fixed because reports preserve it and clients index into it.
//
// # Features
//
// The classifier consumes a 3-vector in this column order:
//
//	rainfall_mm        rain over the last hour, from the weather provider
//	elevation          metres above the local drainage base
//	drainage_capacity  relative drainage capacity, 0–100
//
// Elevation and drainage are covariates. When no zone catalog covers a point,
// [DefaultCovariates] is used. It is a named value so callers and tests can
// assert on it.
//
// # Degradation
//
// A failed rainfall lookup does not drop the point. It yields a sample with
// rainfall 0 and Degraded set, tagged with a [FailureKind]. A point that
// cannot be classified is reported as LOW at 0% with a reduced-confidence
// note. Reports always contain one entry per generated coordinate.
//
// # Output
//
// Probabilities are the HIGH-class probability as a percentage rounded to
// 2 decimal places. Coordinates in the external schema are rounded to
// 6 decimal places.
package domain
