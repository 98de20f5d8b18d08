// Package catalog answers clinic directory queries on top of the clinic
// store, the open/closed evaluator and the routing provider.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/vetbcn/clinic-directory/internal/domain"
)

// maxFavorites caps the ID list of a favorites lookup.
const maxFavorites = 100

// Store is the read side of the clinic store.
type Store interface {
	ListClinics(ctx context.Context, f domain.ClinicFilter) ([]domain.Clinic, error)
	GetClinicBySlug(ctx context.Context, slug string) (domain.Clinic, error)
	RelatedClinics(ctx context.Context, barrio, excludeID string) ([]domain.Clinic, error)
	ClinicReviews(ctx context.Context, clinicID string) ([]domain.Review, error)
}

// Query is a clinic listing request.
type Query struct {
	domain.ClinicFilter
	OpenNow bool
	// Origin is the user's position, required for distance ordering.
	Origin *domain.Point
}

// Detail is a clinic with its live status and neighborhood peers.
type Detail struct {
	Clinic  domain.Clinic     `json:"clinic"`
	Status  domain.OpenStatus `json:"status"`
	Related []domain.Clinic   `json:"related"`
}

// Service implements the clinic directory queries.
type Service struct {
	store  Store
	router domain.Router
	logger *slog.Logger
}

// NewService creates a Service. router may be nil, in which case
// Directions reports an upstream error.
func NewService(store Store, router domain.Router, logger *slog.Logger) *Service {
	return &Service{store: store, router: router, logger: logger}
}

// List returns the clinics matching q. Store-side filters run first; the
// open-now filter and distance ordering are applied in process.
func (s *Service) List(ctx context.Context, q Query) ([]domain.Clinic, error) {
	if q.Origin != nil {
		if err := q.Origin.Validate(); err != nil {
			return nil, err
		}
	}

	clinics, err := s.store.ListClinics(ctx, q.ClinicFilter)
	if err != nil {
		return nil, fmt.Errorf("list clinics: %w", err)
	}

	if q.OpenNow {
		now := domain.Now()
		clinics = slices.DeleteFunc(clinics, func(c domain.Clinic) bool {
			return !domain.IsOpenAt(c.Hours, now)
		})
	}

	if q.Sort == domain.SortDistance && q.Origin != nil {
		SortByDistance(clinics, *q.Origin)
	}
	if clinics == nil {
		clinics = []domain.Clinic{}
	}
	return clinics, nil
}

// SortByDistance orders clinics nearest first, keeping the incoming order
// among equidistant clinics.
func SortByDistance(clinics []domain.Clinic, origin domain.Point) {
	dist := make(map[string]float64, len(clinics))
	for _, c := range clinics {
		dist[c.ID] = c.DistanceFrom(origin.Lat, origin.Lng)
	}
	sort.SliceStable(clinics, func(i, j int) bool {
		return dist[clinics[i].ID] < dist[clinics[j].ID]
	})
}

// Detail looks up a clinic by slug.
func (s *Service) Detail(ctx context.Context, slug string) (Detail, error) {
	c, err := s.store.GetClinicBySlug(ctx, slug)
	if err != nil {
		return Detail{}, err
	}
	related, err := s.store.RelatedClinics(ctx, c.Barrio, c.ID)
	if err != nil {
		return Detail{}, fmt.Errorf("related clinics: %w", err)
	}
	if related == nil {
		related = []domain.Clinic{}
	}
	return Detail{Clinic: c, Status: domain.CurrentStatus(c.Hours), Related: related}, nil
}

// Reviews returns the most helpful reviews of the clinic with slug.
func (s *Service) Reviews(ctx context.Context, slug string) ([]domain.Review, error) {
	c, err := s.store.GetClinicBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	reviews, err := s.store.ClinicReviews(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("clinic reviews: %w", err)
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, nil
}

// Status evaluates whether the clinic with slug is open right now.
func (s *Service) Status(ctx context.Context, slug string) (domain.OpenStatus, error) {
	c, err := s.store.GetClinicBySlug(ctx, slug)
	if err != nil {
		return domain.OpenStatus{}, err
	}
	return domain.CurrentStatus(c.Hours), nil
}

// Favorites returns the clinics with the given IDs in rating order. Blank and
// repeated IDs are ignored.
func (s *Service) Favorites(ctx context.Context, ids []string) ([]domain.Clinic, error) {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(clean, id) {
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return []domain.Clinic{}, nil
	}
	if len(clean) > maxFavorites {
		return nil, fmt.Errorf("%w: at most %d favorites", domain.ErrValidation, maxFavorites)
	}

	clinics, err := s.store.ListClinics(ctx, domain.ClinicFilter{IDs: clean})
	if err != nil {
		return nil, fmt.Errorf("favorite clinics: %w", err)
	}
	if clinics == nil {
		clinics = []domain.Clinic{}
	}
	return clinics, nil
}

// Directions computes the driving route from the user's position to the
// clinic with slug.
func (s *Service) Directions(ctx context.Context, slug string, from domain.Point) (domain.Route, error) {
	if err := from.Validate(); err != nil {
		return domain.Route{}, err
	}
	c, err := s.store.GetClinicBySlug(ctx, slug)
	if err != nil {
		return domain.Route{}, err
	}
	if !c.HasCoordinates() {
		return domain.Route{}, fmt.Errorf("%w: clinic %s has no coordinates", domain.ErrValidation, slug)
	}
	if s.router == nil {
		return domain.Route{}, fmt.Errorf("%w: routing disabled", domain.ErrUpstream)
	}

	route, err := s.router.Route(ctx, from, domain.Point{Lat: *c.Lat, Lng: *c.Lng})
	switch {
	case err == nil:
		return route, nil
	case errors.Is(err, domain.ErrNoRoute), errors.Is(err, context.Canceled):
		return domain.Route{}, err
	default:
		s.logger.Warn("routing failed", "clinic", slug, "error", err)
		return domain.Route{}, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
}
