package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/flood-risk-service/internal/adapter/geoip"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/flood-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/mapbox"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/onnx"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/openweather"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/postgres"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/zonefile"
	"github.com/couchcryptid/flood-risk-service/internal/classifier"
	"github.com/couchcryptid/flood-risk-service/internal/config"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The model is loaded once and shared by every request.
	model, err := classifier.Load(cfg.ModelPath, map[string]classifier.Opener{
		".onnx": onnx.Opener(onnx.Options{SharedLibraryPath: cfg.OnnxRuntimeLib}),
	})
	if err != nil {
		logger.Error("failed to load classifier", "error", err)
		os.Exit(1)
	}
	metrics.ModelLoaded.Set(1)
	logger.Info("classifier loaded", "model", model.ModelName(), "path", cfg.ModelPath)

	var provider domain.WeatherProvider
	if cfg.OpenWeatherAPIKey != "" {
		provider = openweather.NewClient(openweather.Options{
			APIKey:         cfg.OpenWeatherAPIKey,
			BaseURL:        cfg.OpenWeatherBaseURL,
			RequestsPerSec: cfg.WeatherRateLimit,
			MaxRetries:     uint64(cfg.WeatherMaxRetries),
		}, logger)
		logger.Info("openweather enabled", "timeout", cfg.WeatherTimeout, "rate_limit", cfg.WeatherRateLimit)
	} else {
		logger.Warn("OPENWEATHER_API_KEY not set, every point will use fallback rainfall")
	}

	catalog, closeCatalog, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open zone catalog", "error", err)
		os.Exit(1)
	}
	defer closeCatalog()

	defaults := domain.Covariates{Elevation: cfg.DefaultElevation, DrainageCapacity: cfg.DefaultDrainage}
	var covariates domain.CovariateSource
	if catalog != nil {
		covariates = domain.ZoneCovariates{Catalog: catalog, RadiusKm: cfg.ZoneRadiusKm, Fallback: defaults}
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var ips pipeline.IPLocator
	if cfg.GeoIPDBPath != "" {
		locator, err := geoip.Open(cfg.GeoIPDBPath)
		if err != nil {
			logger.Error("failed to open geoip database", "error", err)
			os.Exit(1)
		}
		defer locator.Close()
		ips = locator
		logger.Info("geoip location enabled", "path", cfg.GeoIPDBPath)
	}

	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("report publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic, "timeout", cfg.KafkaPublishTimeout)
	}

	fallback := domain.Coordinate{Lat: cfg.FallbackLat, Lon: cfg.FallbackLon}
	assessor := pipeline.New(pipeline.Deps{
		Locator:    pipeline.NewLocator(fallback, catalog, geocoder, ips, logger, metrics),
		Fetcher:    pipeline.NewFetcher(provider, cfg.WeatherTimeout, logger, metrics),
		Covariates: covariates,
		Classifier: model,
		Publisher:  publisher,
		Clock:      clockwork.NewRealClock(),
	}, pipeline.Options{
		Pattern:           domain.Pattern(cfg.GridPattern),
		Offset:            cfg.GridOffset,
		FanoutLimit:       cfg.FanoutLimit,
		DefaultCovariates: defaults,
		PublishTimeout:    cfg.KafkaPublishTimeout,
	}, logger, metrics)

	checks := []sharedobs.ReadinessChecker{assessor}
	if rc, ok := catalog.(sharedobs.ReadinessChecker); ok {
		checks = append(checks, rc)
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.NewHandler(assessor, catalog, logger), httpadapter.AllReady(checks...), logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := model.Close(); err != nil {
		logger.Error("classifier close error", "error", err)
	}
	metrics.ModelLoaded.Set(0)

	logger.Info("shutdown complete")
}

// openCatalog returns the configured zone catalog, or nil when none is set.
// With both a file and a database, the file seeds the database.
func openCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.ZoneCatalog, func(), error) {
	noop := func() {}

	var file *zonefile.Catalog
	if cfg.ZonesFile != "" {
		var err error
		if file, err = zonefile.Load(cfg.ZonesFile); err != nil {
			return nil, noop, err
		}
	}

	if cfg.ZonesDatabaseURL == "" {
		if file == nil {
			logger.Info("no zone catalog configured, using default covariates")
			return nil, noop, nil
		}
		logger.Info("zone catalog loaded from file", "path", cfg.ZonesFile)
		return file, noop, nil
	}

	db, err := postgres.Connect(ctx, cfg.ZonesDatabaseURL, cfg.ZonesCacheTTL, logger)
	if err != nil {
		return nil, noop, err
	}
	if file != nil {
		n, err := seedZones(ctx, file, db)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		logger.Info("zone catalog seeded", "zones", n, "path", cfg.ZonesFile)
	}
	logger.Info("zone catalog served from postgres", "cache_ttl", cfg.ZonesCacheTTL)
	return db, db.Close, nil
}

type zoneUpserter interface {
	Upsert(ctx context.Context, z domain.Zone) error
}

// seedZones copies every zone from src into dst and returns how many were written.
func seedZones(ctx context.Context, src domain.ZoneCatalog, dst zoneUpserter) (int, error) {
	zones, err := src.Zones(ctx)
	if err != nil {
		return 0, fmt.Errorf("read seed zones: %w", err)
	}
	for _, z := range zones {
		if err := dst.Upsert(ctx, z); err != nil {
			return 0, err
		}
	}
	return len(zones), nil
}
