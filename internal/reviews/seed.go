package reviews

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vetbcn/clinic-directory/internal/domain"
)

// Inserter persists generated reviews.
type Inserter interface {
	InsertReviews(ctx context.Context, reviews []domain.Review) error
}

// Seed generates and inserts reviews for every clinic, one insert per clinic,
// and returns the number of reviews created.
func Seed(ctx context.Context, clinics []domain.Clinic, store Inserter, gen *Generator, logger *slog.Logger) (int, error) {
	total := 0
	for _, c := range clinics {
		batch, err := gen.ForClinic(c)
		if err != nil {
			return total, err
		}
		if err := store.InsertReviews(ctx, batch); err != nil {
			return total, fmt.Errorf("insert reviews for %s: %w", c.Slug, err)
		}
		total += len(batch)
		logger.Debug("seeded reviews", "clinic", c.Name, "count", len(batch))
	}
	return total, nil
}
