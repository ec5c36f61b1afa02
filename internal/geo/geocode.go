package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DanielHu2018/PoolParty/internal/models"
	"github.com/DanielHu2018/PoolParty/internal/observability"
)

const (
	DefaultMapboxGeocodeEndpoint = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	DefaultORSGeocodeEndpoint    = "https://api.openrouteservice.org/geocode/search"
	DefaultNominatimEndpoint     = "https://nominatim.openstreetmap.org/search"

	geocodeUserAgent = "PoolParty/1.0 (contact: none)"

	mapboxGeocodeTimeout    = 5 * time.Second
	orsGeocodeTimeout       = 6 * time.Second
	nominatimGeocodeTimeout = 5 * time.Second
)

// GeocodeGateway resolves free-text addresses against ORS, Mapbox and
// Nominatim in that preference order. Adapters never return errors: any
// transport failure, non-2xx status or empty result set is an absent result,
// and a missing credential skips the provider without a request.
type GeocodeGateway struct {
	MapboxToken string
	ORSKey      string

	MapboxEndpoint    string
	ORSEndpoint       string
	NominatimEndpoint string

	Client *http.Client
}

func NewGeocodeGateway(mapboxToken, orsKey string) *GeocodeGateway {
	return &GeocodeGateway{
		MapboxToken:       mapboxToken,
		ORSKey:            orsKey,
		MapboxEndpoint:    DefaultMapboxGeocodeEndpoint,
		ORSEndpoint:       DefaultORSGeocodeEndpoint,
		NominatimEndpoint: DefaultNominatimEndpoint,
		Client:            &http.Client{},
	}
}

// GeocodeORS resolves an address with the OpenRouteService geocode/search API.
func (g *GeocodeGateway) GeocodeORS(ctx context.Context, address string) (models.Coord, bool) {
	if address == "" || g.ORSKey == "" {
		return models.Coord{}, false
	}
	q := url.Values{}
	q.Set("api_key", g.ORSKey)
	q.Set("text", address)
	q.Set("size", "1")

	var out struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"` // [lon, lat]
			} `json:"geometry"`
		} `json:"features"`
	}
	if !g.getJSON(ctx, "ors", g.ORSEndpoint+"?"+q.Encode(), orsGeocodeTimeout, &out) {
		return models.Coord{}, false
	}
	if len(out.Features) == 0 || len(out.Features[0].Geometry.Coordinates) < 2 {
		observability.GeocodeRequests.WithLabelValues("ors", "miss").Inc()
		return models.Coord{}, false
	}
	c := out.Features[0].Geometry.Coordinates
	observability.GeocodeRequests.WithLabelValues("ors", "hit").Inc()
	return models.Coord{Lat: c[1], Lon: c[0]}, true
}

// GeocodeMapbox resolves an address with the Mapbox places API. When no token
// is configured it falls back to Nominatim rather than failing outright.
func (g *GeocodeGateway) GeocodeMapbox(ctx context.Context, address string) (models.Coord, bool) {
	if address == "" {
		return models.Coord{}, false
	}
	if g.MapboxToken == "" {
		return g.GeocodeNominatim(ctx, address)
	}
	q := url.Values{}
	q.Set("access_token", g.MapboxToken)
	q.Set("limit", "1")

	var out struct {
		Features []struct {
			Center []float64 `json:"center"` // [lon, lat]
		} `json:"features"`
	}
	endpoint := g.MapboxEndpoint + "/" + url.PathEscape(address) + ".json?" + q.Encode()
	if !g.getJSON(ctx, "mapbox", endpoint, mapboxGeocodeTimeout, &out) {
		return models.Coord{}, false
	}
	if len(out.Features) == 0 || len(out.Features[0].Center) < 2 {
		observability.GeocodeRequests.WithLabelValues("mapbox", "miss").Inc()
		return models.Coord{}, false
	}
	c := out.Features[0].Center
	observability.GeocodeRequests.WithLabelValues("mapbox", "hit").Inc()
	return models.Coord{Lat: c[1], Lon: c[0]}, true
}

// GeocodeNominatim resolves an address with the public Nominatim service.
// Nominatim usage policy asks for an identifying User-Agent on every request.
func (g *GeocodeGateway) GeocodeNominatim(ctx context.Context, address string) (models.Coord, bool) {
	if address == "" {
		return models.Coord{}, false
	}
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	var out []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if !g.getJSON(ctx, "nominatim", g.NominatimEndpoint+"?"+q.Encode(), nominatimGeocodeTimeout, &out) {
		return models.Coord{}, false
	}
	if len(out) == 0 {
		observability.GeocodeRequests.WithLabelValues("nominatim", "miss").Inc()
		return models.Coord{}, false
	}
	lat, errLat := strconv.ParseFloat(out[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(out[0].Lon, 64)
	if errLat != nil || errLon != nil {
		observability.GeocodeRequests.WithLabelValues("nominatim", "miss").Inc()
		return models.Coord{}, false
	}
	observability.GeocodeRequests.WithLabelValues("nominatim", "hit").Inc()
	return models.Coord{Lat: lat, Lon: lon}, true
}

// GeocodeAny tries ORS (when keyed), then Mapbox, then Nominatim explicitly,
// returning the first hit with the name of the provider that produced it.
func (g *GeocodeGateway) GeocodeAny(ctx context.Context, address string) (models.Coord, string, bool) {
	if address == "" {
		return models.Coord{}, "", false
	}
	// The Mapbox adapter answers via Nominatim when no token is configured,
	// so the reported provider name has to follow the token too.
	mapboxName := "mapbox"
	if g.MapboxToken == "" {
		mapboxName = "nominatim"
	}
	providers := []Provider[string, models.Coord]{
		{Name: "ors", Available: func() bool { return g.ORSKey != "" }, Attempt: g.GeocodeORS},
		{Name: mapboxName, Attempt: g.GeocodeMapbox},
		{Name: "nominatim", Attempt: g.GeocodeNominatim},
	}
	return FirstOf(ctx, providers, address)
}

// getJSON performs one bounded GET and decodes the body. false covers every
// failure mode: transport error, non-2xx status, undecodable body.
func (g *GeocodeGateway) getJSON(ctx context.Context, provider, endpoint string, timeout time.Duration, out any) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		observability.GeocodeRequests.WithLabelValues(provider, "error").Inc()
		return false
	}
	req.Header.Set("User-Agent", geocodeUserAgent)
	resp, err := g.client().Do(req)
	if err != nil {
		observability.GeocodeRequests.WithLabelValues(provider, "error").Inc()
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observability.GeocodeRequests.WithLabelValues(provider, "error").Inc()
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		observability.GeocodeRequests.WithLabelValues(provider, "error").Inc()
		return false
	}
	return true
}

func (g *GeocodeGateway) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return http.DefaultClient
}
