package geo

import (
	"math"

	"github.com/DanielHu2018/PoolParty/internal/models"
)

const (
	// EarthRadiusMiles is the sphere radius used for great-circle math.
	EarthRadiusMiles = 3958.8
	// MetersPerMile converts the haversine result into routing-provider units.
	MetersPerMile = 1609.344
	// MPHToMPS converts an average-speed assumption into meters per second.
	MPHToMPS = 0.44704
	// DefaultAvgSpeedMPH is the assumed driving speed for straight-line estimates.
	DefaultAvgSpeedMPH = 35.0
)

// HaversineMiles returns the great-circle distance between two points in miles.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180.0 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMiles * c
}

// DistanceMiles is the nil-safe variant used with optional pool coordinates.
// ok is false when either endpoint is unknown.
func DistanceMiles(a, b *models.Coord) (float64, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return HaversineMiles(a.Lat, a.Lon, b.Lat, b.Lon), true
}

// EstimateDurationSeconds converts a road distance in meters into a duration
// at the given average speed. ok is false when the speed is not positive.
func EstimateDurationSeconds(distanceMeters, avgSpeedMPH float64) (int, bool) {
	avgMPS := avgSpeedMPH * MPHToMPS
	if avgMPS <= 0 {
		return 0, false
	}
	return int(math.Round(distanceMeters / avgMPS)), true
}

// EstimateLegSeconds is the straight-line fallback for a single leg: haversine
// distance converted to meters, then to a duration at avgSpeedMPH.
func EstimateLegSeconds(a, b *models.Coord, avgSpeedMPH float64) (int, bool) {
	miles, ok := DistanceMiles(a, b)
	if !ok {
		return 0, false
	}
	return EstimateDurationSeconds(miles*MetersPerMile, avgSpeedMPH)
}
