package geo

import (
	"math"
	"testing"

	"github.com/DanielHu2018/PoolParty/internal/models"
)

func TestHaversineZero(t *testing.T) {
	if d := HaversineMiles(40.7, -74.0, 40.7, -74.0); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := HaversineMiles(40.7128, -74.0060, 34.0522, -118.2437)
	b := HaversineMiles(34.0522, -118.2437, 40.7128, -74.0060)
	if diff := math.Abs(a-b) / a; diff > 1e-9 {
		t.Fatalf("expected symmetric distance, got %f vs %f", a, b)
	}
	// NYC to LA is roughly 2450 miles
	if a < 2400 || a > 2500 {
		t.Fatalf("implausible NYC-LA distance %f", a)
	}
}

func TestDistanceMilesAbsent(t *testing.T) {
	if _, ok := DistanceMiles(nil, &models.Coord{Lat: 1, Lon: 1}); ok {
		t.Fatal("expected absent for nil origin")
	}
	if _, ok := DistanceMiles(&models.Coord{Lat: 1, Lon: 1}, nil); ok {
		t.Fatal("expected absent for nil dest")
	}
}

func TestEstimateDurationFasterIsShorter(t *testing.T) {
	slow, ok := EstimateDurationSeconds(10000, 35)
	if !ok {
		t.Fatal("expected estimate")
	}
	fast, ok := EstimateDurationSeconds(10000, 70)
	if !ok {
		t.Fatal("expected estimate")
	}
	if slow <= fast {
		t.Fatalf("expected slower speed to take longer: %d vs %d", slow, fast)
	}
}

func TestEstimateDurationInvalidSpeed(t *testing.T) {
	if _, ok := EstimateDurationSeconds(10000, 0); ok {
		t.Fatal("expected absent for zero speed")
	}
	if _, ok := EstimateDurationSeconds(10000, -5); ok {
		t.Fatal("expected absent for negative speed")
	}
}

func TestEstimateDurationKnownValue(t *testing.T) {
	// 1 mile at 35 mph is just under 103 seconds
	sec, ok := EstimateDurationSeconds(MetersPerMile, 35)
	if !ok {
		t.Fatal("expected estimate")
	}
	if sec < 102 || sec > 104 {
		t.Fatalf("unexpected duration %d", sec)
	}
}
