// Package postgres serves the zone catalog from a flood_zones table.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

//go:embed migrations/*.sql
var migrations embed.FS

const listZones = `SELECT name, lat, lon, elevation, drainage_capacity FROM flood_zones ORDER BY name`

// Catalog reads zones from Postgres and keeps them in memory for ttl, so a
// five-point assessment does not issue five queries. Concurrent reloads of an
// expired cache share one query.
type Catalog struct {
	pool   *pgxpool.Pool
	ttl    time.Duration
	clock  clockwork.Clock
	logger *slog.Logger
	load   func(ctx context.Context) ([]domain.Zone, error)
	flight singleflight.Group

	mu       sync.RWMutex
	zones    []domain.Zone
	loadedAt time.Time
}

// Connect opens a pool, applies the schema, and primes the cache.
func Connect(ctx context.Context, dsn string, ttl time.Duration, logger *slog.Logger) (*Catalog, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	c := newCatalog(pool, ttl, clockwork.NewRealClock(), logger)
	if err := c.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := c.refresh(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

func newCatalog(pool *pgxpool.Pool, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger) *Catalog {
	c := &Catalog{pool: pool, ttl: ttl, clock: clock, logger: logger}
	c.load = c.query
	return c
}

func (c *Catalog) migrate(ctx context.Context) error {
	sql, err := migrations.ReadFile("migrations/001_flood_zones.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := c.pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}

// Zones returns the cached zone list, reloading it once the ttl has passed.
// A failed reload serves the previous list if there is one.
func (c *Catalog) Zones(ctx context.Context) ([]domain.Zone, error) {
	zones, fresh := c.cached()
	if fresh {
		return zones, nil
	}

	reloaded, err := c.refresh(ctx)
	if err != nil {
		if zones != nil {
			c.logger.Warn("zone reload failed, serving cached zones", "error", err, "zones", len(zones))
			return zones, nil
		}
		return nil, err
	}
	return reloaded, nil
}

func (c *Catalog) cached() ([]domain.Zone, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zones, c.zones != nil && c.clock.Since(c.loadedAt) < c.ttl
}

// refresh reloads the cache. Callers that arrive while a reload is running
// wait for it instead of issuing their own query.
func (c *Catalog) refresh(ctx context.Context) ([]domain.Zone, error) {
	v, err, _ := c.flight.Do("zones", func() (any, error) {
		if zones, fresh := c.cached(); fresh {
			return zones, nil
		}
		zones, err := c.load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.zones = zones
		c.loadedAt = c.clock.Now()
		c.mu.Unlock()

		c.logger.Debug("zone catalog loaded", "zones", len(zones))
		return zones, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Zone), nil
}

func (c *Catalog) query(ctx context.Context) ([]domain.Zone, error) {
	rows, err := c.pool.Query(ctx, listZones)
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	zones, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Zone, error) {
		var z domain.Zone
		err := row.Scan(&z.Name, &z.Center.Lat, &z.Center.Lon, &z.Covariates.Elevation, &z.Covariates.DrainageCapacity)
		return z, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan zones: %w", err)
	}
	if zones == nil {
		zones = []domain.Zone{}
	}
	return zones, nil
}

// Upsert inserts or replaces a zone and invalidates the cache.
func (c *Catalog) Upsert(ctx context.Context, z domain.Zone) error {
	if err := z.Center.Validate(); err != nil {
		return err
	}
	_, err := c.pool.Exec(ctx, `
		INSERT INTO flood_zones (name, lat, lon, elevation, drainage_capacity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			elevation = EXCLUDED.elevation,
			drainage_capacity = EXCLUDED.drainage_capacity,
			updated_at = now()`,
		z.Name, z.Center.Lat, z.Center.Lon, z.Covariates.Elevation, z.Covariates.DrainageCapacity)
	if err != nil {
		return fmt.Errorf("upsert zone %q: %w", z.Name, err)
	}

	c.mu.Lock()
	c.zones = nil
	c.mu.Unlock()
	return nil
}

// CheckReadiness reports whether the database is reachable.
func (c *Catalog) CheckReadiness(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return fmt.Errorf("zone database: %w", err)
	}
	return nil
}

// Close releases the pool.
func (c *Catalog) Close() {
	c.pool.Close()
}
