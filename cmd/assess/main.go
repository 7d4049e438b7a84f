// Command assess runs one flood-risk assessment from the command line and
// prints the report as JSON. It reads the same environment as the service
// (including a .env file), with flags overriding the sampling inputs.
//
// Usage:
//
//	go run ./cmd/assess -lat 28.6139 -lon 77.2090 -pattern cross5 -offset 0.01
//	go run ./cmd/assess -zone "Zone C" -zones configs/zones.yaml
//	go run ./cmd/assess -offline   # every rainfall lookup falls back
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/couchcryptid/flood-risk-service/internal/adapter/onnx"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/openweather"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/zonefile"
	"github.com/couchcryptid/flood-risk-service/internal/classifier"
	"github.com/couchcryptid/flood-risk-service/internal/config"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}

	fs := flag.NewFlagSet("assess", flag.ContinueOnError)
	fs.SetOutput(stderr)
	lat := fs.String("lat", "", "center latitude (default FALLBACK_LAT)")
	lon := fs.String("lon", "", "center longitude (default FALLBACK_LON)")
	zone := fs.String("zone", "", "zone name to resolve from the zone file")
	pattern := fs.String("pattern", cfg.GridPattern, "grid pattern: single or cross5")
	offset := fs.Float64("offset", cfg.GridOffset, "cross5 offset in degrees")
	modelPath := fs.String("model", cfg.ModelPath, "classifier artifact (.json or .onnx)")
	zonesFile := fs.String("zones", cfg.ZonesFile, "zone catalog YAML")
	offline := fs.Bool("offline", false, "skip the weather provider; every point is degraded")
	full := fs.Bool("full", false, "print the full report including features and failure kinds")
	verbose := fs.Bool("v", false, "log pipeline warnings to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	metrics := observability.NewMetricsForTesting()

	req, err := buildRequest(*lat, *lon, *zone, *pattern, *offset)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	model, err := classifier.Load(*modelPath, map[string]classifier.Opener{
		".onnx": onnx.Opener(onnx.Options{SharedLibraryPath: cfg.OnnxRuntimeLib}),
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer model.Close()

	var provider domain.WeatherProvider
	if !*offline && cfg.OpenWeatherAPIKey != "" {
		provider = openweather.NewClient(openweather.Options{
			APIKey:         cfg.OpenWeatherAPIKey,
			BaseURL:        cfg.OpenWeatherBaseURL,
			RequestsPerSec: cfg.WeatherRateLimit,
			MaxRetries:     uint64(cfg.WeatherMaxRetries),
		}, logger)
	}

	defaults := domain.Covariates{Elevation: cfg.DefaultElevation, DrainageCapacity: cfg.DefaultDrainage}
	var catalog domain.ZoneCatalog
	var covariates domain.CovariateSource
	if *zonesFile != "" {
		zones, err := zonefile.Load(*zonesFile)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		catalog = zones
		covariates = domain.ZoneCovariates{Catalog: zones, RadiusKm: cfg.ZoneRadiusKm, Fallback: defaults}
	}

	fallback := domain.Coordinate{Lat: cfg.FallbackLat, Lon: cfg.FallbackLon}
	assessor := pipeline.New(pipeline.Deps{
		Locator:    pipeline.NewLocator(fallback, catalog, nil, nil, logger, metrics),
		Fetcher:    pipeline.NewFetcher(provider, cfg.WeatherTimeout, logger, metrics),
		Covariates: covariates,
		Classifier: model,
		Clock:      clockwork.NewRealClock(),
	}, pipeline.Options{
		Pattern:           domain.Pattern(cfg.GridPattern),
		Offset:            cfg.GridOffset,
		FanoutLimit:       cfg.FanoutLimit,
		DefaultCovariates: defaults,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := assessor.Assess(ctx, req)
	if err != nil {
		fmt.Fprintln(stderr, err)
		if errors.Is(err, domain.ErrInvalidParameter) || errors.Is(err, domain.ErrZoneNotFound) {
			return 2
		}
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	var out any = report.Body()
	if *full {
		out = report
	}
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func buildRequest(lat, lon, zone, pattern string, offset float64) (pipeline.Request, error) {
	p, err := domain.ParsePattern(pattern)
	if err != nil {
		return pipeline.Request{}, err
	}
	req := pipeline.Request{Pattern: p, Offset: &offset}
	req.Zone = zone

	for _, f := range []struct {
		name, raw string
		dst       **float64
	}{
		{"lat", lat, &req.Lat},
		{"lon", lon, &req.Lon},
	} {
		if f.raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return pipeline.Request{}, fmt.Errorf("%w: -%s must be a number, got %q", domain.ErrInvalidParameter, f.name, f.raw)
		}
		*f.dst = &v
	}
	return req, nil
}
