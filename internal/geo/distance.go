package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the spherical-Earth radius used for all distance math.
const EarthRadiusMeters = 6371000.0

// DistanceMeters returns the great-circle distance between two coordinates
// using the Haversine formula. Inputs outside the valid latitude/longitude
// ranges produce a mathematically defined but physically meaningless result;
// callers validate ranges upstream if they need to.
func DistanceMeters(latA, lonA, latB, lonB float64) float64 {
	phiA := latA * math.Pi / 180
	phiB := latB * math.Pi / 180
	dPhi := (latB - latA) * math.Pi / 180
	dLambda := (lonB - lonA) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phiA)*math.Cos(phiB)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// WithinArea reports whether the current coordinate lies within radiusMeters
// of the center. A point exactly on the boundary counts as inside.
func WithinArea(currentLat, currentLon, centerLat, centerLon, radiusMeters float64) bool {
	return DistanceMeters(currentLat, currentLon, centerLat, centerLon) <= radiusMeters
}

// ValidateCoordinate checks that a latitude/longitude pair is a real point
// on the globe.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return fmt.Errorf("coordinate is not a number")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	return nil
}
