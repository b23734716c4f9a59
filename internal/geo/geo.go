// Package geo contains pure geographic computation helpers.
package geo

import "math"

const earthRadiusMeters = 6371000.0

// CompletionRadiusMeters is the proximity a petsitter must be within, relative
// to the pickup point, before a walk may be marked complete.
const CompletionRadiusMeters = 100.0

// DistanceMeters returns the great-circle distance in meters between two
// points specified in decimal degrees (Haversine). NaN/Inf inputs propagate.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// IsWithinRange reports whether the two points are at most maxMeters apart.
func IsWithinRange(fromLat, fromLng, toLat, toLng, maxMeters float64) bool {
	return DistanceMeters(fromLat, fromLng, toLat, toLng) <= maxMeters
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
