package domain

import "math"

const earthRadiusKm = 6371

// Barcelona city centre, used as the position of clinics without coordinates
// when sorting by distance.
const (
	CenterLat = 41.385
	CenterLng = 2.173
)

// HaversineKm returns the great-circle distance between two points in kilometres.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Pow(math.Sin(dLng/2), 2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DistanceFrom returns the distance from (lat, lng) to the clinic, treating a
// clinic without coordinates as located at the city centre.
func (c Clinic) DistanceFrom(lat, lng float64) float64 {
	clat, clng := CenterLat, CenterLng
	if c.HasCoordinates() {
		clat, clng = *c.Lat, *c.Lng
	}
	return HaversineKm(lat, lng, clat, clng)
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
