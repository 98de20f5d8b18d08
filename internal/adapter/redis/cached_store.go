package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/vetbcn/clinic-directory/internal/domain"
	"github.com/vetbcn/clinic-directory/internal/observability"
)

// Cache TTLs.
const (
	listTTL    = 180 * time.Second
	detailTTL  = 300 * time.Second
	reviewsTTL = 120 * time.Second
)

const generationKey = "vetbcn:generation"

// Cache is the key/value surface CachedStore needs. *Client implements it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Store is the clinic store being decorated.
type Store interface {
	ListClinics(ctx context.Context, f domain.ClinicFilter) ([]domain.Clinic, error)
	GetClinicBySlug(ctx context.Context, slug string) (domain.Clinic, error)
	RelatedClinics(ctx context.Context, barrio, excludeID string) ([]domain.Clinic, error)
	ClinicReviews(ctx context.Context, clinicID string) ([]domain.Review, error)
	ReplaceClinics(ctx context.Context, clinics []domain.Clinic) (int, error)
	InsertReviews(ctx context.Context, reviews []domain.Review) error
}

// CachedStore is a read-through cache in front of a Store. Every key embeds
// the current generation, and writes bump the generation, so entries written
// before an import are never read again and simply expire.
type CachedStore struct {
	inner   Store
	cache   Cache
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCachedStore wraps inner with cache.
func NewCachedStore(inner Store, cache Cache, logger *slog.Logger, metrics *observability.Metrics) *CachedStore {
	return &CachedStore{inner: inner, cache: cache, logger: logger, metrics: metrics}
}

func (s *CachedStore) ListClinics(ctx context.Context, f domain.ClinicFilter) ([]domain.Clinic, error) {
	var out []domain.Clinic
	err := s.readThrough(ctx, "list", "clinics:list:"+filterHash(f), listTTL, &out, func() (any, error) {
		return s.inner.ListClinics(ctx, f)
	})
	return out, err
}

func (s *CachedStore) GetClinicBySlug(ctx context.Context, slug string) (domain.Clinic, error) {
	var out domain.Clinic
	err := s.readThrough(ctx, "detail", "clinic:slug:"+slug, detailTTL, &out, func() (any, error) {
		return s.inner.GetClinicBySlug(ctx, slug)
	})
	return out, err
}

func (s *CachedStore) RelatedClinics(ctx context.Context, barrio, excludeID string) ([]domain.Clinic, error) {
	var out []domain.Clinic
	key := "clinic:related:" + excludeID + ":" + barrio
	err := s.readThrough(ctx, "related", key, detailTTL, &out, func() (any, error) {
		return s.inner.RelatedClinics(ctx, barrio, excludeID)
	})
	return out, err
}

func (s *CachedStore) ClinicReviews(ctx context.Context, clinicID string) ([]domain.Review, error) {
	var out []domain.Review
	err := s.readThrough(ctx, "reviews", "clinic:reviews:"+clinicID, reviewsTTL, &out, func() (any, error) {
		return s.inner.ClinicReviews(ctx, clinicID)
	})
	return out, err
}

// ReplaceClinics writes through to the store and invalidates every cached read.
func (s *CachedStore) ReplaceClinics(ctx context.Context, clinics []domain.Clinic) (int, error) {
	n, err := s.inner.ReplaceClinics(ctx, clinics)
	if err != nil {
		return n, err
	}
	s.bumpGeneration(ctx)
	return n, nil
}

// InsertReviews writes through to the store and invalidates every cached read.
func (s *CachedStore) InsertReviews(ctx context.Context, reviews []domain.Review) error {
	if err := s.inner.InsertReviews(ctx, reviews); err != nil {
		return err
	}
	s.bumpGeneration(ctx)
	return nil
}

// readThrough serves key from the cache into out, or calls load, stores its
// result and copies it into out. Cache failures never fail the read.
func (s *CachedStore) readThrough(ctx context.Context, op, key string, ttl time.Duration, out any, load func() (any, error)) error {
	gen, genErr := s.generation(ctx)
	fullKey := fmt.Sprintf("vetbcn:v%d:%s", gen, key)

	if genErr == nil {
		data, err := s.cache.Get(ctx, fullKey)
		switch {
		case err == nil:
			if jsonErr := json.Unmarshal(data, out); jsonErr == nil {
				s.metrics.StoreCache.WithLabelValues(op, "hit").Inc()
				return nil
			}
			s.logger.Warn("discarding undecodable cache entry", "key", fullKey)
		case errors.Is(err, ErrMiss):
		default:
			s.metrics.StoreCache.WithLabelValues(op, "error").Inc()
			s.logger.Warn("cache read failed", "key", fullKey, "error", err)
		}
	}
	s.metrics.StoreCache.WithLabelValues(op, "miss").Inc()

	v, err := load()
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s result: %w", op, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s result: %w", op, err)
	}

	if genErr == nil {
		if err := s.cache.Set(ctx, fullKey, data, ttl); err != nil {
			s.logger.Warn("cache write failed", "key", fullKey, "error", err)
		}
	}
	return nil
}

func (s *CachedStore) generation(ctx context.Context) (int64, error) {
	data, err := s.cache.Get(ctx, generationKey)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		s.metrics.StoreCache.WithLabelValues("generation", "error").Inc()
		s.logger.Warn("cache generation read failed, bypassing cache", "error", err)
		return 0, err
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cache generation %q: %w", data, err)
	}
	return gen, nil
}

func (s *CachedStore) bumpGeneration(ctx context.Context) {
	gen, err := s.cache.Incr(ctx, generationKey)
	if err != nil {
		s.logger.Error("cache invalidation failed, stale entries may be served until they expire", "error", err)
		return
	}
	s.logger.Info("cache invalidated", "generation", gen)
}

func filterHash(f domain.ClinicFilter) string {
	b, _ := json.Marshal(f) //nolint:errchkjson // plain struct of strings, numbers and slices
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}
