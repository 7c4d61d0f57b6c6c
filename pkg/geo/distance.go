package geo

import "math"

const earthRadiusKm = 6371

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceKm returns the haversine great-circle distance between two points
// in kilometers.
func DistanceKm(a, b Point) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinMeters reports whether the two points are within the given radius.
func WithinMeters(a, b Point, meters float64) bool {
	return DistanceKm(a, b)*1000 <= meters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
