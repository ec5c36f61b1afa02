package geo

import (
	"context"
	"strings"
	"testing"

	"github.com/DanielHu2018/PoolParty/internal/models"
)

func TestFirstOfStopsAtFirstHit(t *testing.T) {
	var attempts []string
	mk := func(name string, hit bool) Provider[string, int] {
		return Provider[string, int]{
			Name: name,
			Attempt: func(ctx context.Context, in string) (int, bool) {
				attempts = append(attempts, name)
				return 42, hit
			},
		}
	}

	out, name, ok := FirstOf(context.Background(), []Provider[string, int]{
		mk("a", false), mk("b", true), mk("c", true),
	}, "in")
	if !ok || out != 42 || name != "b" {
		t.Fatalf("unexpected result %d %s %v", out, name, ok)
	}
	if len(attempts) != 2 || attempts[1] != "b" {
		t.Fatalf("expected a then b, got %v", attempts)
	}
}

func TestFirstOfSkipsUnavailable(t *testing.T) {
	called := false
	providers := []Provider[string, int]{
		{
			Name:      "gated",
			Available: func() bool { return false },
			Attempt: func(ctx context.Context, in string) (int, bool) {
				called = true
				return 0, true
			},
		},
		{
			Name:    "open",
			Attempt: func(ctx context.Context, in string) (int, bool) { return 7, true },
		},
	}

	out, name, ok := FirstOf(context.Background(), providers, "in")
	if !ok || out != 7 || name != "open" {
		t.Fatalf("unexpected result %d %s %v", out, name, ok)
	}
	if called {
		t.Fatal("unavailable provider must not be attempted")
	}
}

func TestFirstOfAllMiss(t *testing.T) {
	providers := []Provider[string, int]{
		{Name: "a", Attempt: func(ctx context.Context, in string) (int, bool) { return 0, false }},
	}
	if _, _, ok := FirstOf(context.Background(), providers, "in"); ok {
		t.Fatal("expected miss")
	}
}

func TestDirectionsURLPrefersAddresses(t *testing.T) {
	u := DirectionsURL("12 Main St", "Town Hall", &models.Coord{Lat: 1, Lon: 2}, nil)
	if !strings.Contains(u, "origin=12+Main+St") {
		t.Fatalf("address not used: %s", u)
	}
	if !strings.Contains(u, "destination=Town+Hall") {
		t.Fatalf("destination missing: %s", u)
	}
	if !strings.Contains(u, "travelmode=driving") {
		t.Fatalf("travel mode missing: %s", u)
	}
}

func TestDirectionsURLCoordinateFallback(t *testing.T) {
	u := DirectionsURL("", "", &models.Coord{Lat: 40.7, Lon: -74.0}, nil)
	if !strings.Contains(u, "origin=40.7%2C-74") {
		t.Fatalf("coordinate fallback missing: %s", u)
	}
	if strings.Contains(u, "destination=") {
		t.Fatalf("empty destination must be omitted: %s", u)
	}
}
