package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetbcn/clinic-directory/internal/domain"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ForwardGeocode(_ context.Context, _, _ string) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

var verdi = domain.GeocodingResult{Lat: 41.4035, Lon: 2.1570, PlaceName: "Carrer de Verdi", FormattedAddress: "Carrer de Verdi 3, Barcelona"}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: verdi}
	metrics := testMetrics()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.ForwardGeocode(context.Background(), "Carrer de Verdi, 3", "Gràcia")
	require.NoError(t, err)
	r2, err := cached.ForwardGeocode(context.Background(), "Carrer de Verdi, 3", "Gràcia")
	require.NoError(t, err)

	assert.Equal(t, verdi, r1)
	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{result: verdi}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ForwardGeocode(context.Background(), "Carrer de Verdi, 3", "Gràcia")
	_, _ = cached.ForwardGeocode(context.Background(), "Carrer de Verdi, 3", "Sants")
	_, _ = cached.ForwardGeocode(context.Background(), "Carrer de Sants, 100", "Sants")

	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 3, cached.Len())
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ForwardGeocode(context.Background(), "Carrer Inexistent, 9", "")
	_, _ = cached.ForwardGeocode(context.Background(), "Carrer Inexistent, 9", "")

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.Len())
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("mapbox API error: status 429")}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ForwardGeocode(context.Background(), "Carrer de Verdi, 3", "Gràcia")
	require.Error(t, err)

	inner.err = nil
	inner.result = verdi
	got, err := cached.ForwardGeocode(context.Background(), "Carrer de Verdi, 3", "Gràcia")
	require.NoError(t, err)
	assert.Equal(t, verdi, got)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingGeocoder{result: verdi}
	cached := NewCachedGeocoder(inner, 2, testMetrics())
	ctx := context.Background()

	_, _ = cached.ForwardGeocode(ctx, "a", "")
	_, _ = cached.ForwardGeocode(ctx, "b", "")
	_, _ = cached.ForwardGeocode(ctx, "a", "") // promote a
	_, _ = cached.ForwardGeocode(ctx, "c", "") // evicts b
	assert.Equal(t, 3, inner.calls)

	_, _ = cached.ForwardGeocode(ctx, "a", "")
	assert.Equal(t, 3, inner.calls, "a was used recently and should still be cached")

	_, _ = cached.ForwardGeocode(ctx, "b", "")
	assert.Equal(t, 4, inner.calls, "b should have been evicted")
}

func TestNewCachedGeocoder_ClampsSize(t *testing.T) {
	cached := NewCachedGeocoder(&countingGeocoder{result: verdi}, 0, testMetrics())
	_, err := cached.ForwardGeocode(context.Background(), "a", "")
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Len())
}
