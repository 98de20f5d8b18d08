// Package osrm computes driving directions with an OSRM routing server.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vetbcn/clinic-directory/internal/domain"
	"github.com/vetbcn/clinic-directory/internal/observability"
)

// Client implements domain.Router against the OSRM HTTP API. Successful
// routes are cached by endpoints rounded to about 10 m.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *lru.Cache[string, domain.Route]
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an OSRM client. cacheSize below one is treated as one.
func NewClient(baseURL string, timeout time.Duration, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if cacheSize < 1 {
		cacheSize = 1
	}
	cache, _ := lru.New[string, domain.Route](cacheSize) //nolint:errcheck // size is positive
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		cache:      cache,
		logger:     logger,
		metrics:    metrics,
	}
}

// Route returns the driving route from one point to another. It returns
// domain.ErrNoRoute when OSRM answers without any route.
func (c *Client) Route(ctx context.Context, from, to domain.Point) (domain.Route, error) {
	key := cacheKey(from, to)
	if r, ok := c.cache.Get(key); ok {
		c.metrics.RouteCache.WithLabelValues("hit").Inc()
		return r, nil
	}
	c.metrics.RouteCache.WithLabelValues("miss").Inc()

	start := time.Now()
	r, err := c.fetch(ctx, from, to)
	c.metrics.RouteAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		c.metrics.RouteRequests.WithLabelValues("success").Inc()
		c.cache.Add(key, r)
	case errors.Is(err, domain.ErrNoRoute):
		c.metrics.RouteRequests.WithLabelValues("no_route").Inc()
	default:
		c.metrics.RouteRequests.WithLabelValues("error").Inc()
		c.logger.Warn("route request failed", "error", err)
	}
	return r, err
}

func (c *Client) fetch(ctx context.Context, from, to domain.Point) (domain.Route, error) {
	// OSRM takes lng,lat pairs.
	u := fmt.Sprintf("%s/route/v1/driving/%s,%s;%s,%s?overview=full&geometries=geojson",
		c.baseURL, coord(from.Lng), coord(from.Lat), coord(to.Lng), coord(to.Lat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Route{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Route{}, fmt.Errorf("route request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		return domain.Route{}, fmt.Errorf("osrm API error: status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Route{}, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Routes) == 0 {
		return domain.Route{}, domain.ErrNoRoute
	}

	rt := body.Routes[0]
	out := domain.Route{
		Coordinates: make([][2]float64, 0, len(rt.Geometry.Coordinates)),
		DistanceKm:  math.Round(rt.Distance/1000*10) / 10,
		DurationMin: int(math.Round(rt.Duration / 60)),
	}
	for _, p := range rt.Geometry.Coordinates {
		if len(p) < 2 {
			continue
		}
		out.Coordinates = append(out.Coordinates, [2]float64{p[1], p[0]})
	}
	return out, nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func cacheKey(from, to domain.Point) string {
	return fmt.Sprintf("%.4f,%.4f;%.4f,%.4f", from.Lat, from.Lng, to.Lat, to.Lng)
}

// OSRM route response types.

type response struct {
	Code   string  `json:"code"`
	Routes []route `json:"routes"`
}

type route struct {
	Distance float64  `json:"distance"` // metres
	Duration float64  `json:"duration"` // seconds
	Geometry geometry `json:"geometry"`
}

type geometry struct {
	Coordinates [][]float64 `json:"coordinates"` // [lng, lat]
}
