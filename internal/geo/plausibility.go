package geo

// PlausibilityLimits bounds what a routing answer may look like before we
// trust it. The thresholds are empirical; they exist to catch geocoding
// ambiguity turning a short real-world trip into a cross-continent route.
type PlausibilityLimits struct {
	MaxDurationSeconds float64
	MaxDistanceRatio   float64 // road distance vs straight line
	MaxDurationRatio   float64 // road duration vs straight-line estimate
}

// DefaultPlausibilityLimits caps routes at 24 hours, 10x the straight-line
// distance and 5x the straight-line duration estimate at 35 mph.
var DefaultPlausibilityLimits = PlausibilityLimits{
	MaxDurationSeconds: 86400,
	MaxDistanceRatio:   10.0,
	MaxDurationRatio:   5.0,
}

// RouteIsReasonable judges a routing result against the great-circle
// baseline between the two endpoints. A nil route is never reasonable; a
// route missing either metric cannot be judged and is assumed acceptable.
func RouteIsReasonable(route *RouteResult, lat1, lon1, lat2, lon2 float64, limits PlausibilityLimits) bool {
	if route == nil {
		return false
	}
	if route.DurationSeconds == nil || route.DistanceMeters == nil {
		return true
	}
	dur := *route.DurationSeconds
	dist := *route.DistanceMeters
	if dur > limits.MaxDurationSeconds {
		return false
	}
	straightMeters := HaversineMiles(lat1, lon1, lat2, lon2) * MetersPerMile
	if straightMeters <= 0 {
		return true
	}
	if dist/straightMeters > limits.MaxDistanceRatio {
		return false
	}
	if est, ok := EstimateDurationSeconds(straightMeters, DefaultAvgSpeedMPH); ok && est > 0 {
		if dur/float64(est) > limits.MaxDurationRatio {
			return false
		}
	}
	return true
}
