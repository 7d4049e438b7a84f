// Package geoip maps client addresses to coordinates with a MaxMind City
// database.
package geoip

import (
	"fmt"
	"net"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/oschwald/geoip2-golang"
)

type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
}

// Locator implements pipeline.IPLocator.
type Locator struct {
	reader cityReader
	closer func() error
}

// Open loads a GeoLite2-City or GeoIP2-City .mmdb file.
func Open(path string) (*Locator, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &Locator{reader: r, closer: r.Close}, nil
}

// Locate returns the city-level coordinate for ip. Private, loopback and
// unknown addresses report ok=false.
func (l *Locator) Locate(ip net.IP) (domain.Coordinate, bool, error) {
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
		return domain.Coordinate{}, false, nil
	}

	record, err := l.reader.City(ip)
	if err != nil {
		return domain.Coordinate{}, false, fmt.Errorf("geoip lookup %s: %w", ip, err)
	}
	// MaxMind leaves Location zeroed for addresses it has no fix for.
	if record == nil || (record.Location.Latitude == 0 && record.Location.Longitude == 0) {
		return domain.Coordinate{}, false, nil
	}

	return domain.Coordinate{Lat: record.Location.Latitude, Lon: record.Location.Longitude}, true, nil
}

// Close releases the database.
func (l *Locator) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer()
}
