package eta

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/DanielHu2018/PoolParty/internal/geo"
	"github.com/DanielHu2018/PoolParty/internal/models"
	"github.com/DanielHu2018/PoolParty/internal/observability"
)

// Router is the routing capability the resolver needs.
type Router interface {
	RouteAny(ctx context.Context, coords []models.Coord) *geo.RouteResult
}

// Geocoder is the address-resolution capability used at creation and
// backfill time.
type Geocoder interface {
	GeocodeAny(ctx context.Context, address string) (models.Coord, string, bool)
}

// Config carries the estimation knobs. The adjustment thresholds are
// empirical values inherited from operating the service; they are exposed
// here rather than buried as literals.
type Config struct {
	AvgSpeedMPH float64

	// FlagThresholdSeconds marks any ETA above it as suspicious (6 hours).
	FlagThresholdSeconds int

	// Display adjustment: an ETA above AdjustTriggerSeconds that exceeds
	// AdjustDurationRatio times the great-circle estimate, on a trip whose
	// straight-line length is under AdjustMaxMiles, is almost always a
	// geocoding mixup. The displayed value is then estimate * AdjustFactor,
	// floored at AdjustMinSeconds, and the resolution is flagged.
	AdjustTriggerSeconds int
	AdjustDurationRatio  float64
	AdjustMaxMiles       float64
	AdjustFactor         float64
	AdjustMinSeconds     int

	Limits geo.PlausibilityLimits
	Cost   CostConfig
}

// CostConfig drives the per-seat trip cost estimate.
type CostConfig struct {
	MPG            float64
	PricePerGallon float64
}

func DefaultConfig() Config {
	return Config{
		AvgSpeedMPH:          geo.DefaultAvgSpeedMPH,
		FlagThresholdSeconds: 6 * 3600,
		AdjustTriggerSeconds: 4 * 3600,
		AdjustDurationRatio:  5.0,
		AdjustMaxMiles:       10,
		AdjustFactor:         1.2,
		AdjustMinSeconds:     60,
		Limits:               geo.DefaultPlausibilityLimits,
		Cost:                 CostConfig{MPG: 25, PricePerGallon: 3.50},
	}
}

// Service reconciles persisted and computed ETAs for pools. Every failure
// along the provider chains degrades to an absent field; nothing here
// surfaces an error to the caller's larger workflow.
type Service struct {
	Geocoder Geocoder
	Router   Router
	Cache    *Cache
	Config   Config
}

func NewService(geocoder Geocoder, router Router, cfg Config) *Service {
	return &Service{Geocoder: geocoder, Router: router, Cache: NewCache(10 * time.Minute), Config: cfg}
}

// Resolution is the immutable read-time view of a pool's ETA. The Display
// fields are only set when the underlying value looked implausible; the
// underlying value itself is never rewritten.
type Resolution struct {
	ETASeconds     *int       `json:"eta_seconds,omitempty"`
	ETAHuman       string     `json:"eta_human,omitempty"`
	Arrival        *time.Time `json:"eta_arrival,omitempty"`
	Flagged        bool       `json:"flagged"`
	DisplaySeconds *int       `json:"display_seconds,omitempty"`
	DisplayHuman   string     `json:"display_human,omitempty"`
	DisplayArrival *time.Time `json:"display_arrival,omitempty"`
	Source         string     `json:"source"` // persisted, routed, estimated, none
}

// Resolve evaluates the per-pool state machine: a persisted ETA wins without
// any network traffic, otherwise both endpoints must carry coordinates for a
// routed (or estimated) answer, otherwise the ETA is absent.
func (s *Service) Resolve(ctx context.Context, p *models.Pool) Resolution {
	var (
		seconds int
		source  string
	)
	switch {
	case p.ETASeconds != nil:
		seconds = *p.ETASeconds
		source = "persisted"
	case p.OriginCoord != nil && p.DestCoord != nil:
		sec, src, ok := s.ComputeETA(ctx, p)
		if !ok {
			observability.ETAResolutions.WithLabelValues("none").Inc()
			return Resolution{Source: "none"}
		}
		seconds = sec
		source = src
	default:
		observability.ETAResolutions.WithLabelValues("none").Inc()
		return Resolution{Source: "none"}
	}

	res := Resolution{
		ETASeconds: &seconds,
		ETAHuman:   FormatDuration(seconds),
		Arrival:    arrivalAt(p.DepartTime, seconds),
		Flagged:    seconds > s.Config.FlagThresholdSeconds || source == "fallback",
		Source:     source,
	}
	if source == "fallback" {
		res.Source = "estimated"
		source = "estimated"
	}

	s.applyDisplayAdjustment(p, &res, seconds)

	observability.ETAResolutions.WithLabelValues(source).Inc()
	if res.Flagged {
		observability.ETAFlagged.Inc()
	}
	return res
}

// applyDisplayAdjustment supplements (never overwrites) a suspicious value
// with a display-only estimate derived from the great-circle baseline.
func (s *Service) applyDisplayAdjustment(p *models.Pool, res *Resolution, seconds int) {
	if seconds <= s.Config.AdjustTriggerSeconds {
		return
	}
	miles, ok := geo.DistanceMiles(p.OriginCoord, p.DestCoord)
	if !ok || miles >= s.Config.AdjustMaxMiles {
		return
	}
	est, ok := geo.EstimateDurationSeconds(miles*geo.MetersPerMile, s.Config.AvgSpeedMPH)
	if !ok || est <= 0 {
		return
	}
	if float64(seconds) <= s.Config.AdjustDurationRatio*float64(est) {
		return
	}
	adj := int(math.Round(float64(est) * s.Config.AdjustFactor))
	if adj < s.Config.AdjustMinSeconds {
		adj = s.Config.AdjustMinSeconds
	}
	res.DisplaySeconds = &adj
	res.DisplayHuman = FormatDuration(adj)
	res.DisplayArrival = arrivalAt(p.DepartTime, adj)
	res.Flagged = true
}

// ComputeETA produces a fresh estimate for a pool whose endpoints are both
// geocoded. A routed duration is only accepted after the plausibility check;
// an implausible or missing route falls back to the great-circle estimate.
// Source is "routed", "estimated", or "fallback" when a route was rejected.
func (s *Service) ComputeETA(ctx context.Context, p *models.Pool) (int, string, bool) {
	if p.OriginCoord == nil || p.DestCoord == nil {
		return 0, "", false
	}
	o, d := *p.OriginCoord, *p.DestCoord
	route := s.routePair(ctx, o, d)
	if route != nil && route.DurationSeconds != nil {
		if geo.RouteIsReasonable(route, o.Lat, o.Lon, d.Lat, d.Lon, s.Config.Limits) {
			return int(math.Round(*route.DurationSeconds)), "routed", true
		}
		if est, ok := geo.EstimateLegSeconds(&o, &d, s.Config.AvgSpeedMPH); ok {
			return est, "fallback", true
		}
		return 0, "", false
	}
	if est, ok := geo.EstimateLegSeconds(&o, &d, s.Config.AvgSpeedMPH); ok {
		return est, "estimated", true
	}
	return 0, "", false
}

// PrepareCoordinates geocodes any endpoint that is still missing one,
// best-effort. It mutates the pool in memory only; persisting the result is
// the caller's call. Returns true when anything was filled in.
func (s *Service) PrepareCoordinates(ctx context.Context, p *models.Pool) bool {
	if s.Geocoder == nil {
		return false
	}
	changed := false
	if p.OriginCoord == nil && p.Origin != "" {
		if c, _, ok := s.Geocoder.GeocodeAny(ctx, p.Origin); ok {
			p.OriginCoord = &c
			changed = true
		}
	}
	if p.DestCoord == nil && p.Destination != "" {
		if c, _, ok := s.Geocoder.GeocodeAny(ctx, p.Destination); ok {
			p.DestCoord = &c
			changed = true
		}
	}
	return changed
}

// TripDistanceMeters returns the routed road distance for the pool's trip
// when a provider can supply one.
func (s *Service) TripDistanceMeters(ctx context.Context, p *models.Pool) (float64, bool) {
	if p.OriginCoord == nil || p.DestCoord == nil {
		return 0, false
	}
	route := s.routePair(ctx, *p.OriginCoord, *p.DestCoord)
	if route == nil || route.DistanceMeters == nil {
		return 0, false
	}
	return *route.DistanceMeters, true
}

// EstimateCost splits the fuel cost of a trip across the listed seats,
// rounded to cents. The divisor is floored at one seat.
func (s *Service) EstimateCost(distanceMeters float64, seats int) float64 {
	if seats < 1 {
		seats = 1
	}
	miles := distanceMeters / geo.MetersPerMile
	cost := miles / s.Config.Cost.MPG * s.Config.Cost.PricePerGallon / float64(seats)
	return math.Round(cost*100) / 100
}

// routePair routes a two-point trip through the cache so repeated reads and
// the detour base leg reuse one provider answer.
func (s *Service) routePair(ctx context.Context, a, b models.Coord) *geo.RouteResult {
	if s.Cache != nil {
		if r, ok := s.Cache.Get(a, b); ok {
			return r
		}
	}
	if s.Router == nil {
		return nil
	}
	route := s.Router.RouteAny(ctx, []models.Coord{a, b})
	if route != nil && s.Cache != nil {
		s.Cache.Set(a, b, route)
	}
	return route
}

// FormatDuration renders seconds as "2h 5m" or "20m".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func arrivalAt(depart *time.Time, seconds int) *time.Time {
	if depart == nil {
		return nil
	}
	t := depart.Add(time.Duration(seconds) * time.Second)
	return &t
}
