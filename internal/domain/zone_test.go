package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testZones = []Zone{
	{Name: "Zone A", Center: Coordinate{Lat: 28.6139, Lon: 77.2090}, Covariates: Covariates{Elevation: 3, DrainageCapacity: 50}},
	{Name: "Zone B", Center: Coordinate{Lat: 28.7041, Lon: 77.1025}, Covariates: Covariates{Elevation: 10, DrainageCapacity: 80}},
	{Name: "Zone C", Center: Coordinate{Lat: 28.5355, Lon: 77.3910}, Covariates: Covariates{Elevation: 1, DrainageCapacity: 20}},
}

type staticCatalog struct {
	zones []Zone
	err   error
}

func (s staticCatalog) Zones(_ context.Context) ([]Zone, error) { return s.zones, s.err }

type failingSource struct{}

func (failingSource) Covariates(_ context.Context, _ Coordinate) (Covariates, error) {
	return Covariates{}, errors.New("gis offline")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFindZone(t *testing.T) {
	z, ok := FindZone(testZones, " zone b ")
	require.True(t, ok)
	assert.Equal(t, "Zone B", z.Name)

	_, ok = FindZone(testZones, "Zone Z")
	assert.False(t, ok)
}

func TestNearestZone(t *testing.T) {
	z, ok := NearestZone(testZones, Coordinate{Lat: 28.54, Lon: 77.39}, 5)
	require.True(t, ok)
	assert.Equal(t, "Zone C", z.Name)

	_, ok = NearestZone(testZones, Coordinate{Lat: 19.0760, Lon: 72.8777}, 5)
	assert.False(t, ok, "Mumbai is outside every Delhi zone")
}

func TestZoneCovariates(t *testing.T) {
	src := ZoneCovariates{Catalog: staticCatalog{zones: testZones}, RadiusKm: 5, Fallback: DefaultCovariates}

	cov, err := src.Covariates(context.Background(), Coordinate{Lat: 28.705, Lon: 77.10})
	require.NoError(t, err)
	assert.Equal(t, Covariates{Elevation: 10, DrainageCapacity: 80}, cov)

	cov, err = src.Covariates(context.Background(), Coordinate{Lat: 0, Lon: 0})
	require.NoError(t, err)
	assert.Equal(t, DefaultCovariates, cov)
}

func TestResolveCovariates(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, DefaultCovariates, ResolveCovariates(ctx, nil, delhi, DefaultCovariates, discardLogger()))
	assert.Equal(t, DefaultCovariates, ResolveCovariates(ctx, failingSource{}, delhi, DefaultCovariates, discardLogger()))

	custom := Covariates{Elevation: 7, DrainageCapacity: 65}
	assert.Equal(t, custom, ResolveCovariates(ctx, NewStaticCovariates(custom), delhi, DefaultCovariates, discardLogger()))
}

func TestDefaultCovariates(t *testing.T) {
	assert.Equal(t, 3.0, DefaultCovariates.Elevation)
	assert.Equal(t, 50.0, DefaultCovariates.DrainageCapacity)
}
