package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/vetbcn/clinic-directory/internal/catalog"
	"github.com/vetbcn/clinic-directory/internal/domain"
)

// Catalog is the query surface the API serves. *catalog.Service implements it.
type Catalog interface {
	List(ctx context.Context, q catalog.Query) ([]domain.Clinic, error)
	Detail(ctx context.Context, slug string) (catalog.Detail, error)
	Reviews(ctx context.Context, slug string) ([]domain.Review, error)
	Status(ctx context.Context, slug string) (domain.OpenStatus, error)
	Favorites(ctx context.Context, ids []string) ([]domain.Clinic, error)
	Directions(ctx context.Context, slug string, from domain.Point) (domain.Route, error)
}

func (s *Server) handleListClinics(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	clinics, err := s.catalog.List(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, clinics)
}

func (s *Server) handleClinicDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.catalog.Detail(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, d)
}

func (s *Server) handleClinicReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.catalog.Reviews(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, reviews)
}

func (s *Server) handleClinicStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.catalog.Status(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) handleDirections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parsePoint(q.Get("fromLat"), q.Get("fromLng"))
	if err == nil && from == nil {
		err = fmt.Errorf("%w: fromLat and fromLng are required", domain.ErrValidation)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	route, err := s.catalog.Directions(r.Context(), r.PathValue("slug"), *from)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, route)
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	clinics, err := s.catalog.Favorites(r.Context(), splitList(r.URL.Query()["ids"]))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, clinics)
}

// writeError maps domain errors to HTTP statuses. Unexpected errors are
// logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "Clinic not found"
	case errors.Is(err, domain.ErrNoRoute):
		status, msg = http.StatusNotFound, "No route found"
	case errors.Is(err, domain.ErrUpstream):
		status, msg = http.StatusBadGateway, "routing service unavailable"
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}

// parseListQuery reads the listing filters. Both the short and the long
// parameter names are accepted.
func parseListQuery(v url.Values) (catalog.Query, error) {
	q := catalog.Query{
		ClinicFilter: domain.ClinicFilter{
			Barrio:        v.Get("barrio"),
			AnimalType:    first(v, "animalType", "animal"),
			Specialty:     v.Get("specialty"),
			EmergencyOnly: first(v, "isEmergency", "emergency") == "true",
			Search:        strings.TrimSpace(v.Get("search")),
			Sort:          domain.ParseSortOrder(v.Get("sort")),
		},
		OpenNow: v.Get("openNow") == "true",
	}

	if raw := first(v, "minRating", "rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil || rating < 0 || rating > 5 {
			return q, fmt.Errorf("%w: minRating must be a number between 0 and 5", domain.ErrValidation)
		}
		q.MinRating = rating
	}

	for _, raw := range splitList(v["price"]) {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 || p > 3 {
			return q, fmt.Errorf("%w: price must be 1, 2 or 3", domain.ErrValidation)
		}
		q.Prices = append(q.Prices, p)
	}

	origin, err := parsePoint(v.Get("lat"), v.Get("lng"))
	if err != nil {
		return q, err
	}
	q.Origin = origin
	return q, nil
}

// parsePoint returns nil when both values are empty.
func parsePoint(latRaw, lngRaw string) (*domain.Point, error) {
	if latRaw == "" && lngRaw == "" {
		return nil, nil
	}
	lat, errLat := strconv.ParseFloat(latRaw, 64)
	lng, errLng := strconv.ParseFloat(lngRaw, 64)
	if errLat != nil || errLng != nil {
		return nil, fmt.Errorf("%w: latitude and longitude must both be numbers", domain.ErrValidation)
	}
	p := domain.Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// splitList flattens repeated and comma-separated values, dropping blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func first(v url.Values, keys ...string) string {
	for _, k := range keys {
		if s := v.Get(k); s != "" {
			return s
		}
	}
	return ""
}
