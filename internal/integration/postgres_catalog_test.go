//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/adapter/postgres"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/zonefile"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresCatalog_SeedAndServe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := startPostgres(ctx, t)

	catalog, err := postgres.Connect(ctx, dsn, time.Hour, discardLogger())
	require.NoError(t, err)
	t.Cleanup(catalog.Close)

	zones, err := catalog.Zones(ctx)
	require.NoError(t, err)
	assert.Empty(t, zones, "fresh database has no zones")

	file, err := zonefile.Load("../../configs/zones.yaml")
	require.NoError(t, err)
	seed, _ := file.Zones(ctx)
	for _, z := range seed {
		require.NoError(t, catalog.Upsert(ctx, z))
	}

	zones, err = catalog.Zones(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed, zones, "zones are ordered by name")

	// Upsert replaces by name.
	require.NoError(t, catalog.Upsert(ctx, domain.Zone{
		Name:       "Zone B",
		Center:     domain.Coordinate{Lat: 28.7041, Lon: 77.1025},
		Covariates: domain.Covariates{Elevation: 12, DrainageCapacity: 90},
	}))
	zones, err = catalog.Zones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 3)
	assert.InDelta(t, 90, zones[1].Covariates.DrainageCapacity, 0)

	src := domain.ZoneCovariates{Catalog: catalog, RadiusKm: 5, Fallback: domain.DefaultCovariates}
	cov, err := src.Covariates(ctx, domain.Coordinate{Lat: 28.705, Lon: 77.10})
	require.NoError(t, err)
	assert.Equal(t, domain.Covariates{Elevation: 12, DrainageCapacity: 90}, cov)

	require.NoError(t, catalog.CheckReadiness(ctx))
}

func TestPostgresCatalog_RejectsInvalidZone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	catalog, err := postgres.Connect(ctx, startPostgres(ctx, t), time.Hour, discardLogger())
	require.NoError(t, err)
	t.Cleanup(catalog.Close)

	err = catalog.Upsert(ctx, domain.Zone{Name: "Bad", Center: domain.Coordinate{Lat: 120}})
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
}
