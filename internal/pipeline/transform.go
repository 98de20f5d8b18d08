package pipeline

import (
	"context"
	"log/slog"

	"github.com/vetbcn/clinic-directory/internal/domain"
)

// CoordinateEnricher fills in coordinates the open-data feed left empty.
type CoordinateEnricher struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewEnricher creates a CoordinateEnricher. Pass a nil geocoder to disable
// geocoding enrichment.
func NewEnricher(geocoder domain.Geocoder, logger *slog.Logger) *CoordinateEnricher {
	return &CoordinateEnricher{geocoder: geocoder, logger: logger}
}

// Enrich geocodes every clinic without coordinates in place and returns how
// many were filled. Lookups run sequentially to stay within provider rate limits.
func (e *CoordinateEnricher) Enrich(ctx context.Context, clinics []domain.Clinic) int {
	if e == nil || e.geocoder == nil {
		return 0
	}

	filled := 0
	for i := range clinics {
		if ctx.Err() != nil {
			break
		}
		var ok bool
		clinics[i], ok = domain.EnrichWithGeocoding(ctx, clinics[i], e.geocoder, e.logger)
		if ok {
			filled++
		}
	}
	if filled > 0 {
		e.logger.Info("geocoded clinics without coordinates", "count", filled)
	}
	return filled
}
