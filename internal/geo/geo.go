// Package geo provides the distance primitives used by the clustering and
// event-detection pipeline. All functions are pure; callers are responsible
// for validating that coordinates are present and within valid degrees.
package geo

import "math"

const (
	// EarthRadiusMeters is the mean Earth radius used for meter-scale distances.
	EarthRadiusMeters = 6371000.0

	// EarthRadiusKm is the kilometer variant used by degree-threshold clustering.
	EarthRadiusKm = 6371.0
)

// DistanceMeters returns the Haversine great-circle distance in meters
// between two WGS84 points given in decimal degrees.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2) * EarthRadiusMeters
}

// DistanceKm returns the Haversine great-circle distance in kilometers.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2) * EarthRadiusKm
}

// WithinRadius reports whether two points are within radiusMeters of each other.
func WithinRadius(lat1, lon1, lat2, lon2, radiusMeters float64) bool {
	return DistanceMeters(lat1, lon1, lat2, lon2) <= radiusMeters
}

// haversine returns the central angle between two points in radians.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
