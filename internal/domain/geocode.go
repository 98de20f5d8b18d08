package domain

import (
	"context"
	"log/slog"
)

// maxGeocodeDistanceKm rejects geocoder matches outside the metropolitan area.
const maxGeocodeDistanceKm = 25

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Empty reports whether the provider found nothing.
func (r GeocodingResult) Empty() bool {
	return r.Lat == 0 && r.Lon == 0
}

// Geocoder resolves postal addresses to coordinates.
type Geocoder interface {
	// ForwardGeocode converts an address within locality to coordinates.
	ForwardGeocode(ctx context.Context, address, locality string) (GeocodingResult, error)
}

// EnrichWithGeocoding fills in missing coordinates by forward geocoding the
// clinic's address. Clinics that already have coordinates, a nil geocoder, a
// failed lookup or a match far from the city all leave the clinic unchanged
// and report false.
func EnrichWithGeocoding(ctx context.Context, c Clinic, geocoder Geocoder, logger *slog.Logger) (Clinic, bool) {
	if geocoder == nil || c.HasCoordinates() || c.Address == "" {
		return c, false
	}

	result, err := geocoder.ForwardGeocode(ctx, c.Address, c.Barrio)
	if err != nil {
		logger.Warn("forward geocoding failed", "clinic", c.Slug, "address", c.Address, "error", err)
		return c, false
	}
	if result.Empty() {
		return c, false
	}
	if d := HaversineKm(CenterLat, CenterLng, result.Lat, result.Lon); d > maxGeocodeDistanceKm {
		logger.Warn("discarding distant geocoding match",
			"clinic", c.Slug, "address", c.Address, "match", result.FormattedAddress, "distance_km", d)
		return c, false
	}

	lat, lng := result.Lat, result.Lon
	c.Lat, c.Lng = &lat, &lng
	return c, true
}
