package eta

import (
	"context"
	"math"

	"github.com/DanielHu2018/PoolParty/internal/geo"
	"github.com/DanielHu2018/PoolParty/internal/models"
)

// DetourResult reports how much longer the trip becomes when it routes
// through a pickup point.
type DetourResult struct {
	AddedSeconds int    `json:"added_seconds"`
	AddedHuman   string `json:"added_human"`
}

// DetourAdded compares the base trip against origin→pickup→destination.
// Both legs prefer routed durations and fall back to great-circle estimates;
// if either side stays unknown the detour is absent. A routed detour can come
// out marginally shorter than the base through rounding or provider variance,
// so the delta is clamped at zero.
func (s *Service) DetourAdded(ctx context.Context, p *models.Pool, pickup models.Coord) (DetourResult, bool) {
	if p.OriginCoord == nil || p.DestCoord == nil {
		return DetourResult{}, false
	}
	o, d := *p.OriginCoord, *p.DestCoord

	base, ok := s.tripSeconds(ctx, o, d)
	if !ok {
		return DetourResult{}, false
	}

	detour, ok := s.detourSeconds(ctx, o, pickup, d)
	if !ok {
		return DetourResult{}, false
	}

	added := detour - base
	if added < 0 {
		added = 0
	}
	return DetourResult{AddedSeconds: added, AddedHuman: FormatDuration(added)}, true
}

func (s *Service) tripSeconds(ctx context.Context, a, b models.Coord) (int, bool) {
	if route := s.routePair(ctx, a, b); route != nil && route.DurationSeconds != nil {
		return int(math.Round(*route.DurationSeconds)), true
	}
	return geo.EstimateLegSeconds(&a, &b, s.Config.AvgSpeedMPH)
}

func (s *Service) detourSeconds(ctx context.Context, o, pickup, d models.Coord) (int, bool) {
	if s.Router != nil {
		if route := s.Router.RouteAny(ctx, []models.Coord{o, pickup, d}); route != nil && route.DurationSeconds != nil {
			return int(math.Round(*route.DurationSeconds)), true
		}
	}
	// fallback: sum the two straight-line legs
	first, ok := geo.EstimateLegSeconds(&o, &pickup, s.Config.AvgSpeedMPH)
	if !ok {
		return 0, false
	}
	second, ok := geo.EstimateLegSeconds(&pickup, &d, s.Config.AvgSpeedMPH)
	if !ok {
		return 0, false
	}
	return first + second, true
}
