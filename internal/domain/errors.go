package domain

import "errors"

var (
	// ErrInvalidParameter marks malformed caller input. Nothing is fetched or
	// classified once it is returned.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrModelUnavailable means the classifier could not be loaded at startup.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrClassification marks a single point that could not be scored.
	ErrClassification = errors.New("classification error")

	// ErrZoneNotFound is returned when a named zone cannot be resolved.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrGeocodeUnavailable means the geocoding provider failed while
	// resolving a zone name.
	ErrGeocodeUnavailable = errors.New("geocoding unavailable")
)
