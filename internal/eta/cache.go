package eta

import (
	"fmt"
	"sync"
	"time"

	"github.com/DanielHu2018/PoolParty/internal/geo"
	"github.com/DanielHu2018/PoolParty/internal/models"
)

// Cache is a small in-memory route cache keyed by the coordinate pair. It
// only lives for the process run; persistent geocode/route caching is
// deliberately not done here.
type Cache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	route *geo.RouteResult
	ts    time.Time
}

// NewCache creates a cache with the provided TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{store: make(map[string]cacheEntry), ttl: ttl}
}

func keyFor(a, b models.Coord) string {
	return fmtCoord(a) + "->" + fmtCoord(b)
}

func fmtCoord(c models.Coord) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Get returns the cached route and true if present and not expired.
func (c *Cache) Get(a, b models.Coord) (*geo.RouteResult, bool) {
	k := keyFor(a, b)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, k)
		c.mu.Unlock()
		return nil, false
	}
	return e.route, true
}

// Set stores a route in the cache.
func (c *Cache) Set(a, b models.Coord, route *geo.RouteResult) {
	k := keyFor(a, b)
	c.mu.Lock()
	c.store[k] = cacheEntry{route: route, ts: time.Now()}
	c.mu.Unlock()
}
