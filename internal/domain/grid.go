package domain

import (
	"fmt"
	"math"
	"strings"
)

// Pattern selects the shape of the sample grid.
type Pattern string

const (
	// PatternSingle samples the center point only.
	PatternSingle Pattern = "single"
	// PatternCross5 samples the center plus one point per compass direction.
	PatternCross5 Pattern = "cross5"
)

// ParsePattern maps a case-insensitive name to a Pattern.
func ParsePattern(s string) (Pattern, error) {
	switch Pattern(strings.ToLower(strings.TrimSpace(s))) {
	case PatternSingle:
		return PatternSingle, nil
	case PatternCross5:
		return PatternCross5, nil
	default:
		return "", fmt.Errorf("%w: unknown grid pattern %q", ErrInvalidParameter, s)
	}
}

// GenerateGrid returns the sample coordinates around center.
//
// The emission order is part of the report contract: the center comes first,
// then +lat, +lon, -lat, -lon. Offsets are in decimal degrees. Points pushed
// past a pole are clamped to it; longitudes wrap across the antimeridian.
func GenerateGrid(center Coordinate, offset float64, pattern Pattern) ([]Coordinate, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}

	switch pattern {
	case PatternSingle:
		return []Coordinate{center}, nil
	case PatternCross5:
		if math.IsNaN(offset) || math.IsInf(offset, 0) || offset <= 0 {
			return nil, fmt.Errorf("%w: offset must be > 0, got %v", ErrInvalidParameter, offset)
		}
		return []Coordinate{
			center,
			shift(center, offset, 0),
			shift(center, 0, offset),
			shift(center, -offset, 0),
			shift(center, 0, -offset),
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown grid pattern %q", ErrInvalidParameter, pattern)
	}
}

func shift(c Coordinate, dLat, dLon float64) Coordinate {
	lat := math.Max(-90, math.Min(90, c.Lat+dLat))
	lon := c.Lon + dLon
	if lon > 180 {
		lon -= 360
	} else if lon < -180 {
		lon += 360
	}
	return Coordinate{Lat: lat, Lon: lon}
}
