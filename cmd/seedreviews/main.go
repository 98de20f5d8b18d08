// Command seedreviews fills the reviews table with synthetic reviews for every
// stored clinic.
package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"

	"github.com/vetbcn/clinic-directory/internal/adapter/postgres"
	redisadapter "github.com/vetbcn/clinic-directory/internal/adapter/redis"
	"github.com/vetbcn/clinic-directory/internal/config"
	"github.com/vetbcn/clinic-directory/internal/observability"
	"github.com/vetbcn/clinic-directory/internal/reviews"
)

type options struct {
	reset bool
	seed  uint64
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		slog.Error("seeding reviews failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("seedreviews", pflag.ContinueOnError)
	fs.BoolVar(&opts.reset, "reset", false, "delete every existing review before seeding")
	fs.Uint64Var(&opts.seed, "seed", 0, "random seed for reproducible output (0 picks a random seed)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func run(opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	store := postgres.NewStore(db)
	if err := store.CheckSchema(ctx); err != nil {
		return err
	}

	var inserter reviews.Inserter = store
	if cfg.RedisEnabled() {
		cache, err := redisadapter.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, cache will not be invalidated", "error", err)
		} else {
			defer cache.Close()
			inserter = redisadapter.NewCachedStore(store, cache, logger, observability.NewMetrics())
		}
	}

	if opts.reset {
		n, err := store.DeleteReviews(ctx)
		if err != nil {
			return err
		}
		logger.Info("deleted existing reviews", "count", n)
	}

	clinics, err := store.AllClinics(ctx)
	if err != nil {
		return err
	}
	logger.Info("seeding reviews", "clinics", len(clinics))

	total, err := reviews.Seed(ctx, clinics, inserter, newGenerator(opts.seed), logger)
	if err != nil {
		return err
	}
	logger.Info("seeding complete", "reviews", total)
	return nil
}

func newGenerator(seed uint64) *reviews.Generator {
	if seed == 0 {
		return reviews.NewRandomGenerator()
	}
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:], seed)
	return reviews.NewGenerator(s, clockwork.NewRealClock())
}
