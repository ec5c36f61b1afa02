package geo

import (
	"sync"

	"github.com/DanielHu2018/PoolParty/internal/models"
)

// PoolPin is the slice of a pool the origin index keeps: enough to rank
// nearby listings without a store round trip per candidate.
type PoolPin struct {
	PoolID string
	Origin models.Coord
	Seats  int
}

// Locator indexes pool origins for nearby-pool listings.
type Locator interface {
	Upsert(pin PoolPin)
	Remove(poolID string)
	Nearby(lat, lon float64, limit int) []PoolPin
}

// Index is the in-process Locator used when redis is not configured.
type Index struct {
	mu   sync.RWMutex
	pins map[string]PoolPin
}

func NewIndex() *Index {
	return &Index{pins: make(map[string]PoolPin)}
}

func (g *Index) Upsert(pin PoolPin) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pins[pin.PoolID] = pin
}

func (g *Index) Remove(poolID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pins, poolID)
}

// naive scan; fine for the pool counts a single community runs at
func (g *Index) Nearby(lat, lon float64, limit int) []PoolPin {
	g.mu.RLock()
	defer g.mu.RUnlock()
	type pair struct {
		pin  PoolPin
		dist float64
	}
	arr := make([]pair, 0, len(g.pins))
	for _, pin := range g.pins {
		dist := HaversineMiles(lat, lon, pin.Origin.Lat, pin.Origin.Lon)
		arr = append(arr, pair{pin, dist})
	}
	// partial selection sort for top-N
	n := limit
	if n > len(arr) {
		n = len(arr)
	}
	for i := 0; i < n; i++ {
		minIdx := i
		for j := i + 1; j < len(arr); j++ {
			if arr[j].dist < arr[minIdx].dist {
				minIdx = j
			}
		}
		arr[i], arr[minIdx] = arr[minIdx], arr[i]
	}
	out := make([]PoolPin, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, arr[i].pin)
	}
	return out
}
