package geocode

import (
	"context"
	"log/slog"
	"provider-finder/internal/models"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is how long a successful resolution is reused.
const DefaultTTL = 24 * time.Hour

// Cache stores successful resolutions keyed by the exact address string.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(address string) (models.Coordinate, bool)
	Set(address string, c models.Coordinate)
}

// MemoryCache is an in-process cache whose entries expire after a TTL.
type MemoryCache struct {
	c *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{c: gocache.New(ttl, ttl)}
}

func (m *MemoryCache) Get(address string) (models.Coordinate, bool) {
	v, ok := m.c.Get(address)
	if !ok {
		return models.Coordinate{}, false
	}
	coord, ok := v.(models.Coordinate)
	return coord, ok
}

func (m *MemoryCache) Set(address string, c models.Coordinate) {
	m.c.Set(address, c, gocache.DefaultExpiration)
}

// Len is the number of stored entries, expired ones included until the
// next cleanup.
func (m *MemoryCache) Len() int {
	return m.c.ItemCount()
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(string) (models.Coordinate, bool) { return models.Coordinate{}, false }
func (NopCache) Set(string, models.Coordinate)        {}

// Cached puts a Cache in front of a Geocoder. Failures are never cached.
// Two concurrent misses for one address both reach the upstream.
type Cached struct {
	next  Geocoder
	cache Cache
	log   *slog.Logger
}

func NewCached(next Geocoder, cache Cache, log *slog.Logger) *Cached {
	if cache == nil {
		cache = NopCache{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cached{next: next, cache: cache, log: log}
}

func (c *Cached) Resolve(ctx context.Context, address string) (models.Coordinate, error) {
	if coord, ok := c.cache.Get(address); ok {
		c.log.Debug("geocode cache hit", "address", address)
		return coord, nil
	}
	coord, err := c.next.Resolve(ctx, address)
	if err != nil {
		return models.Coordinate{}, err
	}
	c.cache.Set(address, coord)
	return coord, nil
}
