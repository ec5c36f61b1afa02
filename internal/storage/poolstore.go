package storage

import (
	"errors"
	"sort"
	"sync"

	"github.com/DanielHu2018/PoolParty/internal/models"
)

var ErrNotFound = errors.New("not found")

// PoolStore defines persistence operations for pools and join requests.
type PoolStore interface {
	SavePool(p *models.Pool) error
	UpdatePool(p *models.Pool) error
	GetPool(id string) (*models.Pool, error)
	ListPools() ([]*models.Pool, error)

	SaveJoinRequest(j *models.JoinRequest) error
	UpdateJoinRequest(j *models.JoinRequest) error
	GetJoinRequest(id string) (*models.JoinRequest, error)
	ListJoinRequests(poolID string) ([]*models.JoinRequest, error)

	SaveRide(r *models.Ride) error
	UpdateRide(r *models.Ride) error
	ListRides(poolID string) ([]*models.Ride, error)
}

type MemoryStore struct {
	mu       sync.RWMutex
	pools    map[string]*models.Pool
	requests map[string]*models.JoinRequest
	rides    map[string]*models.Ride
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pools:    make(map[string]*models.Pool),
		requests: make(map[string]*models.JoinRequest),
		rides:    make(map[string]*models.Ride),
	}
}

func (m *MemoryStore) SavePool(p *models.Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[p.ID] = p
	return nil
}

func (m *MemoryStore) UpdatePool(p *models.Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pools[p.ID]; !ok {
		return ErrNotFound
	}
	m.pools[p.ID] = p
	return nil
}

func (m *MemoryStore) GetPool(id string) (*models.Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pools[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// ListPools orders by departure time ascending with undated pools first,
// matching how listings are presented.
func (m *MemoryStore) ListPools() ([]*models.Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Pool, 0, len(m.pools))
	for _, p := range m.pools {
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DepartTime, out[j].DepartTime
		switch {
		case a == nil && b == nil:
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	return out, nil
}

func (m *MemoryStore) SaveJoinRequest(j *models.JoinRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[j.ID] = j
	return nil
}

func (m *MemoryStore) UpdateJoinRequest(j *models.JoinRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[j.ID]; !ok {
		return ErrNotFound
	}
	m.requests[j.ID] = j
	return nil
}

func (m *MemoryStore) GetJoinRequest(id string) (*models.JoinRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j, nil
}

func (m *MemoryStore) ListJoinRequests(poolID string) ([]*models.JoinRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.JoinRequest, 0)
	for _, j := range m.requests {
		if j.PoolID == poolID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) SaveRide(r *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = r
	return nil
}

func (m *MemoryStore) UpdateRide(r *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[r.ID]; !ok {
		return ErrNotFound
	}
	m.rides[r.ID] = r
	return nil
}

func (m *MemoryStore) ListRides(poolID string) ([]*models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Ride, 0)
	for _, r := range m.rides {
		if r.PoolID == poolID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
