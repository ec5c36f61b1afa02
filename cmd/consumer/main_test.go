package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DanielHu2018/PoolParty/internal/models"
)

type fakeUpdater struct {
	failGeoAdd int // fail this many GeoAdd calls before succeeding
	geoAdds    []*redis.GeoLocation
	hsets      map[string]map[string]interface{}
	zrems      []string
}

func newFakeUpdater() *fakeUpdater {
	return &fakeUpdater{hsets: make(map[string]map[string]interface{})}
}

func (f *fakeUpdater) GeoAdd(ctx context.Context, key string, loc *redis.GeoLocation) error {
	if f.failGeoAdd > 0 {
		f.failGeoAdd--
		return errors.New("transient redis error")
	}
	f.geoAdds = append(f.geoAdds, loc)
	return nil
}

func (f *fakeUpdater) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	f.hsets[key] = values
	return nil
}

func (f *fakeUpdater) ZRem(ctx context.Context, key string, member string) error {
	f.zrems = append(f.zrems, member)
	return nil
}

func TestApplyEventUpsertsOrigin(t *testing.T) {
	f := newFakeUpdater()
	ev := &models.PoolEvent{
		Kind:   "created",
		PoolID: "pool-1",
		Origin: &models.Coord{Lat: 40.7, Lon: -74.0},
		Seats:  3,
	}

	if err := applyEvent(context.Background(), f, "pools_geo", ev); err != nil {
		t.Fatalf("applyEvent: %v", err)
	}
	if len(f.geoAdds) != 1 {
		t.Fatalf("expected one GeoAdd, got %d", len(f.geoAdds))
	}
	loc := f.geoAdds[0]
	if loc.Name != "pool-1" || loc.Latitude != 40.7 || loc.Longitude != -74.0 {
		t.Fatalf("unexpected location %+v", loc)
	}
	meta, ok := f.hsets["pool:meta:pool-1"]
	if !ok {
		t.Fatal("expected seats metadata write")
	}
	if meta["seats"] != 3 {
		t.Fatalf("unexpected seats %v", meta["seats"])
	}
}

func TestApplyEventCancelledRemoves(t *testing.T) {
	f := newFakeUpdater()
	ev := &models.PoolEvent{Kind: "cancelled", PoolID: "pool-2"}

	if err := applyEvent(context.Background(), f, "pools_geo", ev); err != nil {
		t.Fatalf("applyEvent: %v", err)
	}
	if len(f.zrems) != 1 || f.zrems[0] != "pool-2" {
		t.Fatalf("expected ZRem of pool-2, got %v", f.zrems)
	}
	if len(f.geoAdds) != 0 {
		t.Fatal("cancelled event must not upsert")
	}
}

func TestApplyEventCompletedRemoves(t *testing.T) {
	f := newFakeUpdater()
	ev := &models.PoolEvent{Kind: "completed", PoolID: "pool-6"}

	if err := applyEvent(context.Background(), f, "pools_geo", ev); err != nil {
		t.Fatalf("applyEvent: %v", err)
	}
	if len(f.zrems) != 1 || f.zrems[0] != "pool-6" {
		t.Fatalf("expected ZRem of pool-6, got %v", f.zrems)
	}
}

func TestApplyEventWithoutOriginIsNoop(t *testing.T) {
	f := newFakeUpdater()
	ev := &models.PoolEvent{Kind: "eta_updated", PoolID: "pool-3"}

	if err := applyEvent(context.Background(), f, "pools_geo", ev); err != nil {
		t.Fatalf("applyEvent: %v", err)
	}
	if len(f.geoAdds) != 0 || len(f.hsets) != 0 || len(f.zrems) != 0 {
		t.Fatal("event without origin must not touch redis")
	}
}

func TestApplyEventWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	f := newFakeUpdater()
	f.failGeoAdd = 2
	ev := &models.PoolEvent{
		Kind:   "coords_set",
		PoolID: "pool-4",
		Origin: &models.Coord{Lat: 1, Lon: 2},
		Seats:  1,
	}

	if err := applyEventWithRetry(context.Background(), f, "pools_geo", ev, 3, time.Millisecond); err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if len(f.geoAdds) != 1 {
		t.Fatalf("expected one successful GeoAdd, got %d", len(f.geoAdds))
	}
}

func TestApplyEventWithRetryExhausted(t *testing.T) {
	f := newFakeUpdater()
	f.failGeoAdd = 10
	ev := &models.PoolEvent{
		Kind:   "created",
		PoolID: "pool-5",
		Origin: &models.Coord{Lat: 1, Lon: 2},
	}

	if err := applyEventWithRetry(context.Background(), f, "pools_geo", ev, 3, time.Millisecond); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}
