package domain

import (
	"context"
	"fmt"
	"math"
)

// Point is a WGS84 position.
type Point struct {
	Lat float64
	Lng float64
}

// Validate reports whether p is a usable coordinate pair.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}
	return nil
}

// Route is a driving route. Coordinates are [lat, lng] pairs.
type Route struct {
	Coordinates [][2]float64 `json:"routeCoords"`
	DistanceKm  float64      `json:"distanceKm"`
	DurationMin int          `json:"durationMin"`
}

// Router computes driving routes between two points.
type Router interface {
	Route(ctx context.Context, from, to Point) (Route, error)
}
