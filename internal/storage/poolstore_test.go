package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/DanielHu2018/PoolParty/internal/models"
)

func tp(t time.Time) *time.Time { return &t }

func TestListPoolsOrdering(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	pools := []*models.Pool{
		{ID: "later", DepartTime: tp(base.Add(2 * time.Hour)), CreatedAt: base},
		{ID: "undated-old", CreatedAt: base.Add(-time.Hour)},
		{ID: "soon", DepartTime: tp(base.Add(30 * time.Minute)), CreatedAt: base},
		{ID: "undated-new", CreatedAt: base},
	}
	for _, p := range pools {
		if err := s.SavePool(p); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListPools()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"undated-old", "undated-new", "soon", "later"}
	if len(got) != len(want) {
		t.Fatalf("expected %d pools, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestGetPoolNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.GetPool("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePoolRequiresExisting(t *testing.T) {
	s := NewMemoryStore()
	if err := s.UpdatePool(&models.Pool{ID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListJoinRequestsFiltersAndOrders(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	reqs := []*models.JoinRequest{
		{ID: "r2", PoolID: "p1", CreatedAt: base.Add(time.Minute)},
		{ID: "r1", PoolID: "p1", CreatedAt: base},
		{ID: "other", PoolID: "p2", CreatedAt: base},
	}
	for _, j := range reqs {
		if err := s.SaveJoinRequest(j); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListJoinRequests("p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "r1" || got[1].ID != "r2" {
		t.Fatalf("unexpected requests: %+v", got)
	}
}
