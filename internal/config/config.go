package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Classifier artifact.
	ModelPath      string
	OnnxRuntimeLib string

	// Weather provider.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	WeatherTimeout     time.Duration
	WeatherRateLimit   float64
	WeatherMaxRetries  int

	// Sampling.
	FanoutLimit int
	GridPattern string
	GridOffset  float64
	FallbackLat float64
	FallbackLon float64

	// Covariates and zones.
	DefaultElevation float64
	DefaultDrainage  float64
	ZonesFile        string
	ZonesDatabaseURL string
	ZoneRadiusKm     float64
	ZonesCacheTTL    time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	GeoIPDBPath string

	// Report publishing.
	KafkaEnabled        bool
	KafkaBrokers        []string
	KafkaReportTopic    string
	KafkaPublishTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	zonesCacheTTL, err := parsePositiveDuration("ZONES_CACHE_TTL", "1m")
	if err != nil {
		return nil, err
	}
	publishTimeout, err := parsePositiveDuration("KAFKA_PUBLISH_TIMEOUT", "2s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ModelPath:      sharedcfg.EnvOrDefault("MODEL_PATH", "models/flood_model.json"),
		OnnxRuntimeLib: os.Getenv("ONNXRUNTIME_LIB"),

		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
		WeatherTimeout:     weatherTimeout,

		GridPattern: sharedcfg.EnvOrDefault("GRID_PATTERN", "cross5"),

		ZonesFile:        os.Getenv("ZONES_FILE"),
		ZonesDatabaseURL: os.Getenv("ZONES_DATABASE_URL"),
		ZonesCacheTTL:    zonesCacheTTL,

		MapboxTimeout: mapboxTimeout,
		GeoIPDBPath:   os.Getenv("GEOIP_DB_PATH"),

		KafkaEnabled:        os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic:    sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "flood-risk-reports"),
		KafkaPublishTimeout: publishTimeout,
	}

	for _, f := range []struct {
		key, def string
		dst      *float64
	}{
		{"WEATHER_RATE_LIMIT", "10", &cfg.WeatherRateLimit},
		{"GRID_OFFSET", "0.01", &cfg.GridOffset},
		{"FALLBACK_LAT", "28.6139", &cfg.FallbackLat},
		{"FALLBACK_LON", "77.2090", &cfg.FallbackLon},
		{"DEFAULT_ELEVATION", "3", &cfg.DefaultElevation},
		{"DEFAULT_DRAINAGE", "50", &cfg.DefaultDrainage},
		{"ZONE_RADIUS_KM", "5", &cfg.ZoneRadiusKm},
	} {
		v, err := parseFloat(f.key, f.def)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if cfg.WeatherMaxRetries, err = parseInt("WEATHER_MAX_RETRIES", 2, 0); err != nil {
		return nil, err
	}
	if cfg.FanoutLimit, err = parseInt("FANOUT_LIMIT", 5, 1); err != nil {
		return nil, err
	}

	cfg.MapboxToken = os.Getenv("MAPBOX_TOKEN")
	cfg.MapboxEnabled = cfg.MapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		cfg.MapboxEnabled = v == "true"
	}
	cfg.MapboxCacheSize = parseMapboxCacheSize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ModelPath == "" {
		return errors.New("MODEL_PATH is required")
	}
	if c.GridPattern != "single" && c.GridPattern != "cross5" {
		return errors.New("GRID_PATTERN must be single or cross5")
	}
	if c.GridOffset <= 0 {
		return errors.New("GRID_OFFSET must be > 0")
	}
	if c.FallbackLat < -90 || c.FallbackLat > 90 {
		return errors.New("FALLBACK_LAT must be within [-90, 90]")
	}
	if c.FallbackLon < -180 || c.FallbackLon > 180 {
		return errors.New("FALLBACK_LON must be within [-180, 180]")
	}
	if c.WeatherRateLimit <= 0 {
		return errors.New("WEATHER_RATE_LIMIT must be > 0")
	}
	if c.ZoneRadiusKm <= 0 {
		return errors.New("ZONE_RADIUS_KM must be > 0")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaReportTopic == "" {
			return errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseInt(key string, def, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
