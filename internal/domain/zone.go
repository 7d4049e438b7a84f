package domain

import (
	"context"
	"strings"
)

// Zone is a named area with a known elevation/drainage profile.
type Zone struct {
	Name       string     `json:"name" yaml:"name"`
	Center     Coordinate `json:"center" yaml:"center"`
	Covariates Covariates `json:"covariates" yaml:"covariates"`
}

// ZoneCatalog lists the known zones.
type ZoneCatalog interface {
	Zones(ctx context.Context) ([]Zone, error)
}

// FindZone returns the zone whose name matches case-insensitively.
func FindZone(zones []Zone, name string) (Zone, bool) {
	name = strings.TrimSpace(name)
	for _, z := range zones {
		if strings.EqualFold(z.Name, name) {
			return z, true
		}
	}
	return Zone{}, false
}

// NearestZone returns the zone closest to c within radiusKm. Ties keep the
// earlier zone so lookups are deterministic.
func NearestZone(zones []Zone, c Coordinate, radiusKm float64) (Zone, bool) {
	var (
		best     Zone
		bestDist float64
		found    bool
	)
	for _, z := range zones {
		d := DistanceKm(z.Center, c)
		if d > radiusKm {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = z, d, true
		}
	}
	return best, found
}
