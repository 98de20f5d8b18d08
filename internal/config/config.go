package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // opening hours are evaluated in TIMEZONE even on minimal images

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const (
	defaultCKANBaseURL    = "https://opendata-ajuntament.barcelona.cat/data/api/3/action"
	defaultCKANResourceID = "0b57a185-8986-4d0f-922f-da8415056575"
	defaultOSRMBaseURL    = "https://router.project-osrm.org"
	maxCKANPageSize       = 1000
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL     string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	Location        *time.Location

	// Barcelona open-data portal (CKAN datastore).
	CKANBaseURL    string
	CKANResourceID string
	CKANQuery      string
	CKANPageSize   int
	CKANTimeout    time.Duration

	// Redis read-through cache. Disabled when RedisAddr is empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Catalog publishing. Disabled when KafkaBrokers is empty.
	KafkaBrokers       []string
	KafkaCatalogTopic  string
	BatchSize          int
	BatchFlushInterval time.Duration

	// OSRM driving directions.
	OSRMBaseURL    string
	OSRMTimeout    time.Duration
	RouteCacheSize int

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	PushgatewayURL string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	tz := sharedcfg.EnvOrDefault("TIMEZONE", "Europe/Madrid")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	ckanTimeout, err := parseDuration("CKAN_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	osrmTimeout, err := parseDuration("OSRM_TIMEOUT", "8s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	pageSize, err := parseInt("CKAN_PAGE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	if pageSize < 1 || pageSize > maxCKANPageSize {
		return nil, fmt.Errorf("invalid CKAN_PAGE_SIZE %d: must be between 1 and %d", pageSize, maxCKANPageSize)
	}

	redisDB, err := parseInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		Location:        loc,

		CKANBaseURL:    sharedcfg.EnvOrDefault("CKAN_BASE_URL", defaultCKANBaseURL),
		CKANResourceID: sharedcfg.EnvOrDefault("CKAN_RESOURCE_ID", defaultCKANResourceID),
		CKANQuery:      sharedcfg.EnvOrDefault("CKAN_QUERY", "veterinari"),
		CKANPageSize:   pageSize,
		CKANTimeout:    ckanTimeout,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		KafkaBrokers:       brokers,
		KafkaCatalogTopic:  sharedcfg.EnvOrDefault("KAFKA_CATALOG_TOPIC", "vet-clinics"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		OSRMBaseURL:    sharedcfg.EnvOrDefault("OSRM_BASE_URL", defaultOSRMBaseURL),
		OSRMTimeout:    osrmTimeout,
		RouteCacheSize: parseCacheSize("ROUTE_CACHE_SIZE", 500),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseCacheSize("MAPBOX_CACHE_SIZE", 1000),

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaCatalogTopic == "" {
		return nil, errors.New("KAFKA_CATALOG_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether imported clinics are published to Kafka.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// RedisEnabled reports whether store reads go through the Redis cache.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseCacheSize(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
