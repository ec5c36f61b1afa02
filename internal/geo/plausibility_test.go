package geo

import "testing"

func fp(v float64) *float64 { return &v }

func TestRouteIsReasonableNilRoute(t *testing.T) {
	if RouteIsReasonable(nil, 0, 0, 1, 1, DefaultPlausibilityLimits) {
		t.Fatal("nil route must not be reasonable")
	}
}

func TestRouteIsReasonableMissingFields(t *testing.T) {
	// a provider answering without one metric cannot be judged
	if !RouteIsReasonable(&RouteResult{DurationSeconds: fp(100)}, 0, 0, 1, 1, DefaultPlausibilityLimits) {
		t.Fatal("route without distance should pass")
	}
	if !RouteIsReasonable(&RouteResult{DistanceMeters: fp(100)}, 0, 0, 1, 1, DefaultPlausibilityLimits) {
		t.Fatal("route without duration should pass")
	}
}

func TestRouteIsReasonableDurationCap(t *testing.T) {
	route := &RouteResult{DistanceMeters: fp(1000), DurationSeconds: fp(100000)}
	if RouteIsReasonable(route, 40.7, -74.0, 40.8, -74.1, DefaultPlausibilityLimits) {
		t.Fatal("duration above 24h must be rejected")
	}
}

func TestRouteIsReasonableDistanceRatio(t *testing.T) {
	// endpoints ~6.9 miles apart (0.1 deg latitude), route claims 500 km
	route := &RouteResult{DistanceMeters: fp(500000), DurationSeconds: fp(3600)}
	if RouteIsReasonable(route, 40.0, -74.0, 40.1, -74.0, DefaultPlausibilityLimits) {
		t.Fatal("distance far beyond straight line must be rejected")
	}
}

func TestRouteIsReasonableDurationRatio(t *testing.T) {
	// ~6.9 mile trip should take ~12 minutes at 35 mph; 2 hours is >5x
	route := &RouteResult{DistanceMeters: fp(12000), DurationSeconds: fp(7200)}
	if RouteIsReasonable(route, 40.0, -74.0, 40.1, -74.0, DefaultPlausibilityLimits) {
		t.Fatal("duration far beyond straight-line estimate must be rejected")
	}
}

func TestRouteIsReasonableAccepts(t *testing.T) {
	route := &RouteResult{DistanceMeters: fp(13000), DurationSeconds: fp(900)}
	if !RouteIsReasonable(route, 40.0, -74.0, 40.1, -74.0, DefaultPlausibilityLimits) {
		t.Fatal("sane route rejected")
	}
}

func TestRouteIsReasonableIdenticalEndpoints(t *testing.T) {
	// zero straight-line distance: ratio is not computable, assume ok
	route := &RouteResult{DistanceMeters: fp(500), DurationSeconds: fp(60)}
	if !RouteIsReasonable(route, 40.0, -74.0, 40.0, -74.0, DefaultPlausibilityLimits) {
		t.Fatal("unjudgeable route should pass")
	}
}
