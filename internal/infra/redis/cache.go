package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/airwatch/internal/infra/openaq"
)

const defaultCacheTTL = 30 * time.Minute

// LocationsCache caches per-country location listings so dense
// schedules don't refetch a mostly static dataset every run.
type LocationsCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

// NewLocationsCache creates a Redis-backed locations cache.
func NewLocationsCache(client *Client, ttl time.Duration) *LocationsCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &LocationsCache{
		rdb: client.rdb,
		ttl: ttl,
		log: slog.Default().With("component", "redis.cache"),
	}
}

func locationsKey(countryISO string) string {
	return fmt.Sprintf("locations:%s", countryISO)
}

// GetLocations returns the cached listing for a country, if present.
// Cache errors degrade to a miss; the caller falls through to the API.
func (c *LocationsCache) GetLocations(ctx context.Context, countryISO string) ([]openaq.Location, bool) {
	data, err := c.rdb.Get(ctx, locationsKey(countryISO)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("cache read failed", "country", countryISO, "error", err)
		return nil, false
	}

	var locations []openaq.Location
	if err := json.Unmarshal(data, &locations); err != nil {
		c.log.Warn("cache entry corrupt, dropping", "country", countryISO, "error", err)
		c.rdb.Del(ctx, locationsKey(countryISO))
		return nil, false
	}
	return locations, true
}

// SetLocations stores a listing with the configured TTL. Failures are
// logged and ignored; caching is best-effort.
func (c *LocationsCache) SetLocations(ctx context.Context, countryISO string, locations []openaq.Location) {
	data, err := json.Marshal(locations)
	if err != nil {
		c.log.Warn("cache encode failed", "country", countryISO, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, locationsKey(countryISO), data, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", "country", countryISO, "error", err)
	}
}
