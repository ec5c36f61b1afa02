package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const orsFixture = `{"features":[{"geometry":{"coordinates":[-0.158611,51.523771]}}]}`
const mapboxFixture = `{"features":[{"center":[-73.9857,40.7484]}]}`
const nominatimFixture = `[{"lat":"51.523771","lon":"-0.158611"}]`

func fixtureServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
}

func TestGeocodeAnyPrefersORS(t *testing.T) {
	ors := fixtureServer(t, orsFixture)
	defer ors.Close()
	mapbox := failingServer(t)
	defer mapbox.Close()

	g := NewGeocodeGateway("token", "key")
	g.ORSEndpoint = ors.URL
	g.MapboxEndpoint = mapbox.URL
	g.NominatimEndpoint = mapbox.URL

	c, provider, ok := g.GeocodeAny(context.Background(), "221B Baker Street")
	if !ok {
		t.Fatal("expected geocode hit")
	}
	if provider != "ors" {
		t.Fatalf("expected ors, got %s", provider)
	}
	if c.Lat != 51.523771 || c.Lon != -0.158611 {
		t.Fatalf("unexpected coordinate %+v", c)
	}
}

func TestGeocodeAnyFallsBackToMapbox(t *testing.T) {
	ors := failingServer(t)
	defer ors.Close()
	mapbox := fixtureServer(t, mapboxFixture)
	defer mapbox.Close()

	g := NewGeocodeGateway("token", "key")
	g.ORSEndpoint = ors.URL
	g.MapboxEndpoint = mapbox.URL
	g.NominatimEndpoint = ors.URL

	c, provider, ok := g.GeocodeAny(context.Background(), "350 5th Ave")
	if !ok {
		t.Fatal("expected geocode hit")
	}
	if provider != "mapbox" {
		t.Fatalf("expected mapbox, got %s", provider)
	}
	if c.Lat != 40.7484 || c.Lon != -73.9857 {
		t.Fatalf("unexpected coordinate %+v", c)
	}
}

func TestGeocodeMapboxWithoutTokenUsesNominatim(t *testing.T) {
	nominatim := fixtureServer(t, nominatimFixture)
	defer nominatim.Close()

	g := NewGeocodeGateway("", "")
	g.NominatimEndpoint = nominatim.URL

	c, provider, ok := g.GeocodeAny(context.Background(), "221B Baker Street")
	if !ok {
		t.Fatal("expected geocode hit")
	}
	if provider != "nominatim" {
		t.Fatalf("expected nominatim, got %s", provider)
	}
	if c.Lat != 51.523771 {
		t.Fatalf("unexpected coordinate %+v", c)
	}
}

func TestGeocodeAnyAllProvidersFail(t *testing.T) {
	srv := failingServer(t)
	defer srv.Close()

	g := NewGeocodeGateway("token", "key")
	g.ORSEndpoint = srv.URL
	g.MapboxEndpoint = srv.URL
	g.NominatimEndpoint = srv.URL

	if _, provider, ok := g.GeocodeAny(context.Background(), "nowhere at all"); ok || provider != "" {
		t.Fatalf("expected total failure, got provider=%q ok=%v", provider, ok)
	}
}

func TestGeocodeAnyEmptyAddress(t *testing.T) {
	g := NewGeocodeGateway("token", "key")
	// no endpoints are reachable; an empty address must short-circuit
	if _, _, ok := g.GeocodeAny(context.Background(), ""); ok {
		t.Fatal("empty address must not geocode")
	}
}

func TestGeocodeORSWithoutKeyMakesNoRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	g := NewGeocodeGateway("", "")
	g.ORSEndpoint = srv.URL
	if _, ok := g.GeocodeORS(context.Background(), "somewhere"); ok {
		t.Fatal("expected absent without key")
	}
	if called {
		t.Fatal("keyless adapter must not issue a request")
	}
}
