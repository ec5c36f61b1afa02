package geo

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/DanielHu2018/PoolParty/internal/models"
)

// nearbyRadiusMeters bounds GEORADIUS lookups; carpool origins further out
// than this are not useful pickup candidates.
const nearbyRadiusMeters = 25000

// RedisLocator implements Locator on Redis GEO commands so the index survives
// restarts and can be fed by the kafka consumer.
type RedisLocator struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

func NewRedisLocator(addr, password, key string) *RedisLocator {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisLocator{client: c, key: key, ctx: context.Background()}
}

func (r *RedisLocator) Upsert(pin PoolPin) {
	_, _ = r.client.GeoAdd(r.ctx, r.key, &redis.GeoLocation{Longitude: pin.Origin.Lon, Latitude: pin.Origin.Lat, Name: pin.PoolID}).Result()
	_ = r.client.HSet(r.ctx, metaKey(pin.PoolID), map[string]interface{}{"seats": strconv.Itoa(pin.Seats)}).Err()
}

func (r *RedisLocator) Remove(poolID string) {
	_ = r.client.ZRem(r.ctx, r.key, poolID).Err()
	_ = r.client.Del(r.ctx, metaKey(poolID)).Err()
}

func (r *RedisLocator) Nearby(lat, lon float64, limit int) []PoolPin {
	res, err := r.client.GeoRadius(r.ctx, r.key, lon, lat, &redis.GeoRadiusQuery{Radius: nearbyRadiusMeters, Unit: "m", WithCoord: true, WithDist: true, Count: limit, Sort: "ASC"}).Result()
	if err != nil {
		return nil
	}
	out := make([]PoolPin, 0, len(res))
	for _, g := range res {
		pin := PoolPin{PoolID: g.Name, Origin: models.Coord{Lat: g.Latitude, Lon: g.Longitude}}
		if m, err := r.client.HGetAll(r.ctx, metaKey(g.Name)).Result(); err == nil {
			if v, ok := m["seats"]; ok {
				if n, err := strconv.Atoi(v); err == nil {
					pin.Seats = n
				}
			}
		}
		out = append(out, pin)
	}
	return out
}

func metaKey(id string) string { return "pool:meta:" + id }
