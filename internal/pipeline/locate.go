package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// IPLocator maps a client address to an approximate coordinate.
type IPLocator interface {
	Locate(ip net.IP) (domain.Coordinate, bool, error)
}

// Query identifies where to assess. Explicit coordinates win over a zone
// name, which wins over the client address. With none of them the fallback
// location is used.
type Query struct {
	Lat      *float64
	Lon      *float64
	Zone     string
	ClientIP net.IP
}

// Locator resolves a Query to a center coordinate.
type Locator struct {
	fallback domain.Coordinate
	catalog  domain.ZoneCatalog
	geocoder domain.Geocoder
	ips      IPLocator
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewLocator creates a Locator. catalog, geocoder and ips may be nil.
func NewLocator(fallback domain.Coordinate, catalog domain.ZoneCatalog, geocoder domain.Geocoder, ips IPLocator, logger *slog.Logger, metrics *observability.Metrics) *Locator {
	return &Locator{
		fallback: fallback,
		catalog:  catalog,
		geocoder: geocoder,
		ips:      ips,
		logger:   logger,
		metrics:  metrics,
	}
}

// Resolve returns the center coordinate and, when a zone was used, its name.
func (l *Locator) Resolve(ctx context.Context, q Query) (domain.Coordinate, string, error) {
	if q.Lat != nil || q.Lon != nil {
		c := l.fallback
		if q.Lat != nil {
			c.Lat = *q.Lat
		}
		if q.Lon != nil {
			c.Lon = *q.Lon
		}
		if err := c.Validate(); err != nil {
			return domain.Coordinate{}, "", err
		}
		return c, "", nil
	}

	if q.Zone != "" {
		return l.resolveZone(ctx, q.Zone)
	}

	if q.ClientIP != nil && l.ips != nil {
		c, ok, err := l.ips.Locate(q.ClientIP)
		switch {
		case err != nil:
			l.logger.Warn("ip location failed, using fallback", "error", err)
		case ok && c.Validate() == nil:
			return c, "", nil
		}
	}

	return l.fallback, "", nil
}

func (l *Locator) resolveZone(ctx context.Context, name string) (domain.Coordinate, string, error) {
	if l.catalog != nil {
		zones, err := l.catalog.Zones(ctx)
		if err != nil {
			l.logger.Warn("zone catalog unavailable", "zone", name, "error", err)
		} else if z, ok := domain.FindZone(zones, name); ok {
			return z.Center, z.Name, nil
		}
	}

	if l.geocoder == nil {
		return domain.Coordinate{}, "", fmt.Errorf("%w: %q", domain.ErrZoneNotFound, name)
	}

	result, err := l.geocoder.ForwardGeocode(ctx, name)
	if err != nil {
		l.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Coordinate{}, "", fmt.Errorf("%w: %q: %v", domain.ErrGeocodeUnavailable, name, err)
	}
	if !result.Found() {
		l.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.Coordinate{}, "", fmt.Errorf("%w: %q", domain.ErrZoneNotFound, name)
	}
	l.metrics.GeocodeRequests.WithLabelValues("success").Inc()

	c := domain.Coordinate{Lat: result.Lat, Lon: result.Lon}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, "", fmt.Errorf("%w: %q", domain.ErrZoneNotFound, name)
	}
	label := result.PlaceName
	if label == "" {
		label = name
	}
	return c, label, nil
}
