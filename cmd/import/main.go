// Command import rebuilds the clinic directory from the Barcelona open-data
// portal: it fetches every establishment row, derives the clinic set, replaces
// the stored clinics and reports a per-neighborhood summary.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/vetbcn/clinic-directory/internal/adapter/ckan"
	kafkaadapter "github.com/vetbcn/clinic-directory/internal/adapter/kafka"
	"github.com/vetbcn/clinic-directory/internal/adapter/mapbox"
	"github.com/vetbcn/clinic-directory/internal/adapter/postgres"
	redisadapter "github.com/vetbcn/clinic-directory/internal/adapter/redis"
	"github.com/vetbcn/clinic-directory/internal/config"
	"github.com/vetbcn/clinic-directory/internal/domain"
	"github.com/vetbcn/clinic-directory/internal/observability"
	"github.com/vetbcn/clinic-directory/internal/pipeline"
)

const pushJob = "vetbcn_import"

func main() {
	if err := run(); err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	domain.SetLocation(cfg.Location)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	pgStore := postgres.NewStore(db)
	if err := pgStore.CheckSchema(ctx); err != nil {
		return err
	}

	var store pipeline.Store = pgStore
	if cfg.RedisEnabled() {
		cache, err := redisadapter.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// The import still succeeds; API replicas serve stale entries until their TTL.
			logger.Warn("redis unavailable, cache will not be invalidated", "error", err)
		} else {
			defer cache.Close()
			store = redisadapter.NewCachedStore(pgStore, cache, logger, metrics)
		}
	}

	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var publisher pipeline.Publisher
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("catalog publishing enabled", "topic", cfg.KafkaCatalogTopic, "brokers", cfg.KafkaBrokers)
	}

	fetcher := ckan.NewClient(ckan.Options{
		BaseURL:    cfg.CKANBaseURL,
		ResourceID: cfg.CKANResourceID,
		Query:      cfg.CKANQuery,
		PageSize:   cfg.CKANPageSize,
		Timeout:    cfg.CKANTimeout,
	}, logger, metrics)

	importer := pipeline.New(fetcher, pipeline.NewEnricher(geocoder, logger), store, publisher, logger, metrics)
	summary, runErr := importer.Run(ctx)

	if cfg.PushgatewayURL != "" {
		if err := observability.Push(context.Background(), cfg.PushgatewayURL, pushJob); err != nil {
			logger.Warn("pushgateway push failed", "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	printSummary(os.Stdout, summary)
	return nil
}

func printSummary(w io.Writer, s pipeline.Summary) {
	fmt.Fprintf(w, "Imported %d clinics from %d establishments (%d rows; %d closed, %d not veterinary, %d geocoded).\n",
		s.Inserted, s.Establishments, s.Rows, s.Closed, s.NotVeterinary, s.Geocoded)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BARRIO\tCLINICS")
	for _, b := range s.Barrios {
		fmt.Fprintf(tw, "%s\t%d\n", b.Barrio, b.Count)
	}
	tw.Flush() //nolint:errcheck // stdout
}
