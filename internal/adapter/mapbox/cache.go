package mapbox

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vetbcn/clinic-directory/internal/domain"
	"github.com/vetbcn/clinic-directory/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed on the
// address and locality.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder. maxEntries
// below one is treated as one.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	if maxEntries < 1 {
		maxEntries = 1
	}
	cache, _ := lru.New[string, domain.GeocodingResult](maxEntries) //nolint:errcheck // size is positive
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, address, locality string) (domain.GeocodingResult, error) {
	key := address + "|" + locality
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, address, locality)
	if err != nil {
		return result, err
	}
	// Only cache matches so "not found" can be retried on the next import.
	if !result.Empty() {
		c.cache.Add(key, result)
	}
	return result, nil
}

// Len returns the number of cached matches.
func (c *CachedGeocoder) Len() int {
	return c.cache.Len()
}
