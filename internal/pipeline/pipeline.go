package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/vetbcn/clinic-directory/internal/domain"
	"github.com/vetbcn/clinic-directory/internal/observability"
)

// Fetcher reads the complete raw feed from the source.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]domain.SourceRecord, error)
}

// Store replaces the persisted clinic set.
type Store interface {
	ReplaceClinics(ctx context.Context, clinics []domain.Clinic) (int, error)
}

// Publisher announces the imported clinic set to downstream consumers.
type Publisher interface {
	PublishBatch(ctx context.Context, clinics []domain.Clinic) error
}

// BarrioCount is the number of imported clinics in one neighborhood.
type BarrioCount struct {
	Barrio string
	Count  int
}

// Summary reports the outcome of one import run.
type Summary struct {
	domain.DeriveStats
	Inserted  int
	Geocoded  int
	Published int
	Barrios   []BarrioCount
	Duration  time.Duration
}

// Importer runs the fetch, derive, persist and publish sequence.
type Importer struct {
	fetcher   Fetcher
	enricher  *CoordinateEnricher
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates an Importer. enricher and publisher may be nil.
func New(f Fetcher, enricher *CoordinateEnricher, s Store, p Publisher, logger *slog.Logger, metrics *observability.Metrics) *Importer {
	return &Importer{
		fetcher:   f,
		enricher:  enricher,
		store:     s,
		publisher: p,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run performs one full import. A fetch failure aborts before the store is
// touched, so the previous clinic set stays in place.
func (im *Importer) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	im.metrics.ImportRunning.Set(1)
	defer im.metrics.ImportRunning.Set(0)

	im.logger.Info("import started")

	records, err := im.fetcher.FetchAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch source records: %w", err)
	}

	clinics, stats := domain.DeriveClinics(records)
	im.metrics.ClinicsSkipped.WithLabelValues(string(domain.SkipClosed)).Add(float64(stats.Closed))
	im.metrics.ClinicsSkipped.WithLabelValues(string(domain.SkipNotVet)).Add(float64(stats.NotVeterinary))
	im.logger.Info("derived clinics",
		"rows", stats.Rows,
		"establishments", stats.Establishments,
		"closed", stats.Closed,
		"not_veterinary", stats.NotVeterinary,
		"clinics", stats.Clinics,
	)

	summary := Summary{DeriveStats: stats}
	summary.Geocoded = im.enricher.Enrich(ctx, clinics)

	inserted, err := im.store.ReplaceClinics(ctx, clinics)
	if err != nil {
		return summary, fmt.Errorf("replace clinics: %w", err)
	}
	summary.Inserted = inserted
	im.metrics.ClinicsImported.Add(float64(inserted))

	if im.publisher != nil && len(clinics) > 0 {
		if err := im.publisher.PublishBatch(ctx, clinics); err != nil {
			return summary, fmt.Errorf("publish clinics: %w", err)
		}
		summary.Published = len(clinics)
		im.metrics.ClinicsPublished.Add(float64(len(clinics)))
	}

	summary.Barrios = CountByBarrio(clinics)
	summary.Duration = time.Since(start)
	im.metrics.ImportDuration.Observe(summary.Duration.Seconds())
	im.metrics.ImportLastSuccessTS.SetToCurrentTime()

	im.logger.Info("import complete",
		"inserted", summary.Inserted,
		"geocoded", summary.Geocoded,
		"published", summary.Published,
		"barrios", len(summary.Barrios),
		"duration", summary.Duration,
	)
	return summary, nil
}

// CountByBarrio counts clinics per neighborhood, largest first, ties by name.
func CountByBarrio(clinics []domain.Clinic) []BarrioCount {
	counts := make(map[string]int)
	for _, c := range clinics {
		counts[c.Barrio]++
	}

	out := make([]BarrioCount, 0, len(counts))
	for b, n := range counts {
		out = append(out, BarrioCount{Barrio: b, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Barrio < out[j].Barrio
	})
	return out
}
