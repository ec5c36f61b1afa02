package eta

import (
	"context"
	"testing"
	"time"

	"github.com/DanielHu2018/PoolParty/internal/geo"
	"github.com/DanielHu2018/PoolParty/internal/models"
)

type routerFunc func(ctx context.Context, coords []models.Coord) *geo.RouteResult

func (f routerFunc) RouteAny(ctx context.Context, coords []models.Coord) *geo.RouteResult {
	return f(ctx, coords)
}

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func newTestService(router Router) *Service {
	return &Service{Router: router, Cache: NewCache(time.Minute), Config: DefaultConfig()}
}

// ~3 miles apart along a meridian
var near = models.Coord{Lat: 40.0, Lon: -74.0}
var nearDest = models.Coord{Lat: 40.0434, Lon: -74.0}

// ~30 miles apart
var farDest = models.Coord{Lat: 40.4343, Lon: -74.0}

func TestResolvePersistedSkipsNetwork(t *testing.T) {
	depart := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	p := &models.Pool{
		ID:          "p1",
		Origin:      "a",
		Destination: "b",
		OriginCoord: &near,
		DestCoord:   &nearDest,
		ETASeconds:  ip(1200),
		DepartTime:  &depart,
		Seats:       2,
	}
	s := newTestService(routerFunc(func(ctx context.Context, coords []models.Coord) *geo.RouteResult {
		t.Fatal("persisted ETA must not trigger a routing call")
		return nil
	}))

	res := s.Resolve(context.Background(), p)
	if res.Source != "persisted" {
		t.Fatalf("expected persisted source, got %s", res.Source)
	}
	if res.ETAHuman != "20m" {
		t.Fatalf("expected 20m, got %s", res.ETAHuman)
	}
	if res.Arrival == nil || !res.Arrival.Equal(depart.Add(1200*time.Second)) {
		t.Fatalf("unexpected arrival %v", res.Arrival)
	}
	if res.Flagged {
		t.Fatal("20 minute ETA must not be flagged")
	}
}

func TestResolveRoutedAccepted(t *testing.T) {
	p := &models.Pool{ID: "p1", OriginCoord: &near, DestCoord: &farDest, Seats: 1}
	s := newTestService(routerFunc(func(ctx context.Context, coords []models.Coord) *geo.RouteResult {
		return &geo.RouteResult{DistanceMeters: fp(50000), DurationSeconds: fp(3000)}
	}))

	res := s.Resolve(context.Background(), p)
	if res.Source != "routed" {
		t.Fatalf("expected routed, got %s", res.Source)
	}
	if res.ETASeconds == nil || *res.ETASeconds != 3000 {
		t.Fatalf("unexpected eta %v", res.ETASeconds)
	}
	if res.Flagged {
		t.Fatal("sane routed eta must not be flagged")
	}
}

func TestResolveImplausibleRouteFallsBack(t *testing.T) {
	// a 3 mile trip with a claimed ~14 hour route: the plausibility check
	// rejects it and the straight-line estimate takes over, flagged
	p := &models.Pool{ID: "p1", OriginCoord: &near, DestCoord: &nearDest, Seats: 1}
	s := newTestService(routerFunc(func(ctx context.Context, coords []models.Coord) *geo.RouteResult {
		return &geo.RouteResult{DistanceMeters: fp(5000), DurationSeconds: fp(50000)}
	}))

	res := s.Resolve(context.Background(), p)
	if res.Source != "estimated" {
		t.Fatalf("expected estimated, got %s", res.Source)
	}
	if res.ETASeconds == nil || *res.ETASeconds > 1000 {
		t.Fatalf("expected straight-line estimate, got %v", res.ETASeconds)
	}
	if !res.Flagged {
		t.Fatal("rejected route must flag the resolution")
	}
}

func TestResolveNoRouteUsesEstimate(t *testing.T) {
	p := &models.Pool{ID: "p1", OriginCoord: &near, DestCoord: &nearDest, Seats: 1}
	s := newTestService(routerFunc(func(ctx context.Context, coords []models.Coord) *geo.RouteResult {
		return nil
	}))

	res := s.Resolve(context.Background(), p)
	if res.Source != "estimated" {
		t.Fatalf("expected estimated, got %s", res.Source)
	}
	if res.Flagged {
		t.Fatal("plain estimate must not be flagged")
	}
}

func TestResolveUnresolvable(t *testing.T) {
	p := &models.Pool{ID: "p1", Origin: "somewhere", Destination: "elsewhere", Seats: 1}
	s := newTestService(routerFunc(func(ctx context.Context, coords []models.Coord) *geo.RouteResult {
		t.Fatal("no coordinates, no routing")
		return nil
	}))

	res := s.Resolve(context.Background(), p)
	if res.Source != "none" {
		t.Fatalf("expected none, got %s", res.Source)
	}
	if res.ETASeconds != nil || res.Flagged {
		t.Fatalf("unresolvable pool must have absent, unflagged eta: %+v", res)
	}
}

func TestResolveDisplayAdjustment(t *testing.T) {
	// 5 hour persisted ETA on a 3 mile trip: over the trigger, over 5x the
	// straight-line estimate, under 10 miles -> display-only adjustment
	p := &models.Pool{ID: "p1", OriginCoord: &near, DestCoord: &nearDest, ETASeconds: ip(18000), Seats: 1}
	s := newTestService(routerFunc(func(ctx context.Context, coords []models.Coord) *geo.RouteResult {
		t.Fatal("persisted ETA must not trigger a routing call")
		return nil
	}))

	res := s.Resolve(context.Background(), p)
	if !res.Flagged {
		t.Fatal("expected flagged resolution")
	}
	if res.DisplaySeconds == nil {
		t.Fatal("expected display adjustment")
	}
	if *res.DisplaySeconds < 60 || *res.DisplaySeconds >= 18000 {
		t.Fatalf("implausible display value %d", *res.DisplaySeconds)
	}
	// the underlying value is supplemented, never overwritten
	if *res.ETASeconds != 18000 {
		t.Fatalf("underlying eta changed: %d", *res.ETASeconds)
	}
	if *p.ETASeconds != 18000 {
		t.Fatalf("pool mutated: %d", *p.ETASeconds)
	}
}

func TestResolvePersistedOverThresholdFlagged(t *testing.T) {
	// 7 hours on a 30 mile trip: flagged by the 6h threshold alone, but no
	// display adjustment because the distance condition does not hold
	p := &models.Pool{ID: "p1", OriginCoord: &near, DestCoord: &farDest, ETASeconds: ip(25200), Seats: 1}
	s := newTestService(nil)

	res := s.Resolve(context.Background(), p)
	if !res.Flagged {
		t.Fatal("eta above 6h must be flagged")
	}
	if res.DisplaySeconds != nil {
		t.Fatal("long trip must not get a short-trip adjustment")
	}
}

func TestComputeETAWithoutCoords(t *testing.T) {
	s := newTestService(nil)
	if _, _, ok := s.ComputeETA(context.Background(), &models.Pool{}); ok {
		t.Fatal("expected absent without coordinates")
	}
}

func TestEstimateCost(t *testing.T) {
	s := newTestService(nil)
	// 50 miles at 25 mpg and $3.50/gal is $7.00, split two ways
	cost := s.EstimateCost(50*geo.MetersPerMile, 2)
	if cost != 3.5 {
		t.Fatalf("expected 3.5, got %v", cost)
	}
	// divisor floors at one seat
	if c := s.EstimateCost(50*geo.MetersPerMile, 0); c != 7.0 {
		t.Fatalf("expected 7.0, got %v", c)
	}
	// rounded to cents
	if c := s.EstimateCost(geo.MetersPerMile, 3); c != 0.05 {
		t.Fatalf("expected 0.05, got %v", c)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{
		0:     "0m",
		1200:  "20m",
		3600:  "1h 0m",
		7500:  "2h 5m",
		-5:    "0m",
		21600: "6h 0m",
	}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}

type fakeGeocoder struct {
	coords map[string]models.Coord
}

func (f *fakeGeocoder) GeocodeAny(ctx context.Context, address string) (models.Coord, string, bool) {
	c, ok := f.coords[address]
	return c, "fake", ok
}

func TestPrepareCoordinates(t *testing.T) {
	s := newTestService(nil)
	s.Geocoder = &fakeGeocoder{coords: map[string]models.Coord{"home": near, "office": farDest}}

	p := &models.Pool{Origin: "home", Destination: "office"}
	if !s.PrepareCoordinates(context.Background(), p) {
		t.Fatal("expected coordinates to be filled in")
	}
	if p.OriginCoord == nil || p.DestCoord == nil {
		t.Fatal("missing coordinates after prepare")
	}

	// unresolvable addresses leave fields absent without error
	p2 := &models.Pool{Origin: "nowhere", Destination: "office"}
	s.PrepareCoordinates(context.Background(), p2)
	if p2.OriginCoord != nil {
		t.Fatal("unresolvable origin must stay absent")
	}
	if p2.DestCoord == nil {
		t.Fatal("resolvable destination must be set")
	}
}
