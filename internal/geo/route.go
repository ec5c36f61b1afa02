package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DanielHu2018/PoolParty/internal/models"
	"github.com/DanielHu2018/PoolParty/internal/observability"
)

const (
	DefaultMapboxDirectionsEndpoint = "https://api.mapbox.com/directions/v5/mapbox/driving"
	DefaultORSDirectionsEndpoint    = "https://api.openrouteservice.org/v2/directions/driving-car"
	DefaultOSRMEndpoint             = "https://router.project-osrm.org"

	routeTimeout = 10 * time.Second
)

// RouteResult is one routing provider's answer for a waypoint sequence.
// Either metric may be absent: a provider responding without a field is not
// an error, and the plausibility checker treats it as unjudgeable.
type RouteResult struct {
	DistanceMeters  *float64 `json:"distance_meters"`
	DurationSeconds *float64 `json:"duration_seconds"`
}

// RouteGateway resolves an ordered waypoint sequence into road distance and
// duration, trying Mapbox, then ORS, then the public OSRM server. The keyed
// providers go first so the shared OSRM capacity is only used as a last
// resort. Adapter failures are absent results, never errors.
type RouteGateway struct {
	MapboxToken string
	ORSKey      string

	MapboxEndpoint string
	ORSEndpoint    string
	OSRMEndpoint   string

	Client *http.Client
}

func NewRouteGateway(mapboxToken, orsKey string) *RouteGateway {
	return &RouteGateway{
		MapboxToken:    mapboxToken,
		ORSKey:         orsKey,
		MapboxEndpoint: DefaultMapboxDirectionsEndpoint,
		ORSEndpoint:    DefaultORSDirectionsEndpoint,
		OSRMEndpoint:   DefaultOSRMEndpoint,
		Client:         &http.Client{},
	}
}

// RouteMapbox queries the Mapbox Directions API. Without a token it returns
// absent immediately, no request is made.
func (r *RouteGateway) RouteMapbox(ctx context.Context, coords []models.Coord) (*RouteResult, bool) {
	if r.MapboxToken == "" || len(coords) < 2 {
		return nil, false
	}
	q := url.Values{}
	q.Set("access_token", r.MapboxToken)
	q.Set("overview", "simplified")
	q.Set("geometries", "geojson")
	q.Set("steps", "false")

	var out struct {
		Routes []struct {
			Distance *float64 `json:"distance"`
			Duration *float64 `json:"duration"`
		} `json:"routes"`
	}
	endpoint := r.MapboxEndpoint + "/" + coordPath(coords) + "?" + q.Encode()
	if !r.doJSON(ctx, "mapbox", http.MethodGet, endpoint, nil, &out) {
		return nil, false
	}
	if len(out.Routes) == 0 {
		observability.RouteRequests.WithLabelValues("mapbox", "miss").Inc()
		return nil, false
	}
	observability.RouteRequests.WithLabelValues("mapbox", "hit").Inc()
	return &RouteResult{DistanceMeters: out.Routes[0].Distance, DurationSeconds: out.Routes[0].Duration}, true
}

// RouteORS queries the ORS Directions API. The request body carries the
// waypoints as ordered [lon, lat] pairs and the answer sits in a nested
// feature summary.
func (r *RouteGateway) RouteORS(ctx context.Context, coords []models.Coord) (*RouteResult, bool) {
	if r.ORSKey == "" || len(coords) < 2 {
		return nil, false
	}
	pairs := make([][2]float64, 0, len(coords))
	for _, c := range coords {
		pairs = append(pairs, [2]float64{c.Lon, c.Lat})
	}
	body, err := json.Marshal(map[string]any{"coordinates": pairs})
	if err != nil {
		return nil, false
	}

	var out struct {
		Features []struct {
			Properties struct {
				Summary struct {
					Distance *float64 `json:"distance"`
					Duration *float64 `json:"duration"`
				} `json:"summary"`
			} `json:"properties"`
		} `json:"features"`
	}
	if !r.doJSON(ctx, "ors", http.MethodPost, r.ORSEndpoint, body, &out) {
		return nil, false
	}
	if len(out.Features) == 0 {
		observability.RouteRequests.WithLabelValues("ors", "miss").Inc()
		return nil, false
	}
	summ := out.Features[0].Properties.Summary
	observability.RouteRequests.WithLabelValues("ors", "hit").Inc()
	return &RouteResult{DistanceMeters: summ.Distance, DurationSeconds: summ.Duration}, true
}

// RouteOSRM queries the public OSRM demo server. No credential needed, so it
// sits last in the chain.
func (r *RouteGateway) RouteOSRM(ctx context.Context, coords []models.Coord) (*RouteResult, bool) {
	if len(coords) < 2 {
		return nil, false
	}
	q := url.Values{}
	q.Set("overview", "false")
	q.Set("geometries", "geojson")
	q.Set("steps", "false")

	var out struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance *float64 `json:"distance"`
			Duration *float64 `json:"duration"`
		} `json:"routes"`
	}
	endpoint := r.OSRMEndpoint + "/route/v1/driving/" + coordPath(coords) + "?" + q.Encode()
	if !r.doJSON(ctx, "osrm", http.MethodGet, endpoint, nil, &out) {
		return nil, false
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		observability.RouteRequests.WithLabelValues("osrm", "miss").Inc()
		return nil, false
	}
	observability.RouteRequests.WithLabelValues("osrm", "hit").Inc()
	return &RouteResult{DistanceMeters: out.Routes[0].Distance, DurationSeconds: out.Routes[0].Duration}, true
}

// RouteAny tries Mapbox, then ORS, then OSRM, returning the first provider's
// result unmodified, or nil when every provider fails.
func (r *RouteGateway) RouteAny(ctx context.Context, coords []models.Coord) *RouteResult {
	if len(coords) < 2 {
		return nil
	}
	providers := []Provider[[]models.Coord, *RouteResult]{
		{Name: "mapbox", Available: func() bool { return r.MapboxToken != "" }, Attempt: r.RouteMapbox},
		{Name: "ors", Available: func() bool { return r.ORSKey != "" }, Attempt: r.RouteORS},
		{Name: "osrm", Attempt: r.RouteOSRM},
	}
	route, _, ok := FirstOf(ctx, providers, coords)
	if !ok {
		return nil
	}
	return route
}

// coordPath renders waypoints as the lon,lat;lon,lat path segment both Mapbox
// and OSRM expect.
func coordPath(coords []models.Coord) string {
	parts := make([]string, 0, len(coords))
	for _, c := range coords {
		parts = append(parts, fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat))
	}
	return strings.Join(parts, ";")
}

func (r *RouteGateway) doJSON(ctx context.Context, provider, method, endpoint string, body []byte, out any) bool {
	ctx, cancel := context.WithTimeout(ctx, routeTimeout)
	defer cancel()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		observability.RouteRequests.WithLabelValues(provider, "error").Inc()
		return false
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if provider == "ors" {
		req.Header.Set("Authorization", r.ORSKey)
	}
	resp, err := r.client().Do(req)
	if err != nil {
		observability.RouteRequests.WithLabelValues(provider, "error").Inc()
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observability.RouteRequests.WithLabelValues(provider, "error").Inc()
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		observability.RouteRequests.WithLabelValues(provider, "error").Inc()
		return false
	}
	return true
}

func (r *RouteGateway) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}
