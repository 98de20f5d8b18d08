package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetbcn/clinic-directory/internal/domain"
	"github.com/vetbcn/clinic-directory/internal/observability"
)

// --- fakes ---

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(string(c.entries[key]), 10, 64)
	n++
	c.entries[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (c *fakeCache) keysWithPrefix(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []string
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

type fakeStore struct {
	clinics    []domain.Clinic
	reviews    []domain.Review
	listCalls  int
	slugCalls  int
	reviewCall int
}

func (s *fakeStore) ListClinics(context.Context, domain.ClinicFilter) ([]domain.Clinic, error) {
	s.listCalls++
	return s.clinics, nil
}

func (s *fakeStore) GetClinicBySlug(_ context.Context, slug string) (domain.Clinic, error) {
	s.slugCalls++
	for _, c := range s.clinics {
		if c.Slug == slug {
			return c, nil
		}
	}
	return domain.Clinic{}, domain.ErrNotFound
}

func (s *fakeStore) RelatedClinics(context.Context, string, string) ([]domain.Clinic, error) {
	return s.clinics, nil
}

func (s *fakeStore) ClinicReviews(context.Context, string) ([]domain.Review, error) {
	s.reviewCall++
	return s.reviews, nil
}

func (s *fakeStore) ReplaceClinics(_ context.Context, clinics []domain.Clinic) (int, error) {
	s.clinics = clinics
	return len(clinics), nil
}

func (s *fakeStore) InsertReviews(_ context.Context, reviews []domain.Review) error {
	s.reviews = append(s.reviews, reviews...)
	return nil
}

func testClinic(slug string, rating float64) domain.Clinic {
	monday := "9:00-20:00"
	return domain.Clinic{
		ID:          "id-" + slug,
		Slug:        slug,
		Name:        slug,
		Rating:      rating,
		Specialties: []string{domain.SpecialtyPreventive},
		AnimalTypes: []string{domain.AnimalDogs},
		Languages:   []string{"Catalán"},
		Hours:       domain.Schedule{"monday": &monday, "sunday": nil},
	}
}

func newTestCachedStore(store Store, cache Cache) *CachedStore {
	return NewCachedStore(store, cache, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

// --- tests ---

func TestCachedStore_ListClinics_ReadThrough(t *testing.T) {
	store := &fakeStore{clinics: []domain.Clinic{testClinic("a", 4.5), testClinic("b", 3.9)}}
	cache := newFakeCache()
	cs := newTestCachedStore(store, cache)
	ctx := context.Background()
	filter := domain.ClinicFilter{Barrio: "Gràcia"}

	first, err := cs.ListClinics(ctx, filter)
	require.NoError(t, err)
	second, err := cs.ListClinics(ctx, filter)
	require.NoError(t, err)

	assert.Equal(t, 1, store.listCalls)
	assert.Equal(t, first, second)
	assert.Equal(t, store.clinics, second)
	assert.InDelta(t, 1.0, testutil.ToFloat64(cs.metrics.StoreCache.WithLabelValues("list", "hit")), 0)

	keys := cache.keysWithPrefix("vetbcn:v0:clinics:list:")
	require.Len(t, keys, 1)
	assert.Equal(t, listTTL, cache.ttls[keys[0]])
}

func TestCachedStore_ListClinics_DistinctFiltersDistinctKeys(t *testing.T) {
	store := &fakeStore{clinics: []domain.Clinic{testClinic("a", 4.5)}}
	cs := newTestCachedStore(store, newFakeCache())
	ctx := context.Background()

	_, err := cs.ListClinics(ctx, domain.ClinicFilter{Barrio: "Gràcia"})
	require.NoError(t, err)
	_, err = cs.ListClinics(ctx, domain.ClinicFilter{Barrio: "Sants"})
	require.NoError(t, err)

	assert.Equal(t, 2, store.listCalls)
}

func TestCachedStore_GetClinicBySlug_NotFoundNotCached(t *testing.T) {
	store := &fakeStore{}
	cache := newFakeCache()
	cs := newTestCachedStore(store, cache)

	_, err := cs.GetClinicBySlug(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = cs.GetClinicBySlug(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 2, store.slugCalls)
	assert.Empty(t, cache.keysWithPrefix("vetbcn:v0:clinic:slug:"))
}

func TestCachedStore_GetClinicBySlug_TTL(t *testing.T) {
	store := &fakeStore{clinics: []domain.Clinic{testClinic("a", 4.5)}}
	cache := newFakeCache()
	cs := newTestCachedStore(store, cache)

	c, err := cs.GetClinicBySlug(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, store.clinics[0], c)
	assert.Equal(t, detailTTL, cache.ttls["vetbcn:v0:clinic:slug:a"])
}

func TestCachedStore_ReplaceClinicsInvalidates(t *testing.T) {
	store := &fakeStore{clinics: []domain.Clinic{testClinic("a", 4.5)}}
	cache := newFakeCache()
	cs := newTestCachedStore(store, cache)
	ctx := context.Background()

	_, err := cs.ListClinics(ctx, domain.ClinicFilter{})
	require.NoError(t, err)

	replacement := []domain.Clinic{testClinic("z", 4.9)}
	n, err := cs.ReplaceClinics(ctx, replacement)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := cs.ListClinics(ctx, domain.ClinicFilter{})
	require.NoError(t, err)
	assert.Equal(t, replacement, got)
	assert.Equal(t, 2, store.listCalls)
	assert.Equal(t, []byte("1"), cache.entries[generationKey])
}

func TestCachedStore_InsertReviewsInvalidates(t *testing.T) {
	store := &fakeStore{reviews: []domain.Review{}}
	cache := newFakeCache()
	cs := newTestCachedStore(store, cache)
	ctx := context.Background()

	got, err := cs.ClinicReviews(ctx, "id-a")
	require.NoError(t, err)
	assert.Empty(t, got)

	review := domain.Review{ID: "r-1", ClinicID: "id-a", Author: "Marta G.", Rating: 5,
		Comment: "Excelente.", Date: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), Helpful: 3}
	require.NoError(t, cs.InsertReviews(ctx, []domain.Review{review}))

	got, err = cs.ClinicReviews(ctx, "id-a")
	require.NoError(t, err)
	assert.Equal(t, []domain.Review{review}, got)
	assert.Equal(t, 2, store.reviewCall)
	assert.Equal(t, reviewsTTL, cache.ttls["vetbcn:v1:clinic:reviews:id-a"])
}

func TestCachedStore_CacheDownFallsThrough(t *testing.T) {
	store := &fakeStore{clinics: []domain.Clinic{testClinic("a", 4.5)}}
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	cs := newTestCachedStore(store, cache)

	got, err := cs.ListClinics(context.Background(), domain.ClinicFilter{})
	require.NoError(t, err)
	assert.Equal(t, store.clinics, got)

	_, err = cs.ListClinics(context.Background(), domain.ClinicFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)
}

func TestCachedStore_CorruptEntryReloads(t *testing.T) {
	store := &fakeStore{clinics: []domain.Clinic{testClinic("a", 4.5)}}
	cache := newFakeCache()
	cache.entries["vetbcn:v0:clinic:slug:a"] = []byte("{not json")
	cs := newTestCachedStore(store, cache)

	c, err := cs.GetClinicBySlug(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", c.Slug)
	assert.Equal(t, 1, store.slugCalls)
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewClient(ctx, "127.0.0.1:1", "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}
