package prober

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache stores probe results per URL. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(url string) (StreamMetrics, bool)
	Set(url string, m StreamMetrics)
}

// NopCache never remembers anything.
type NopCache struct{}

func (NopCache) Get(string) (StreamMetrics, bool) { return StreamMetrics{}, false }
func (NopCache) Set(string, StreamMetrics)        {}

// TTLCache expires entries after a fixed time to live.
type TTLCache struct {
	c *cache.Cache
}

func NewTTLCache(ttl time.Duration) *TTLCache {
	cleanup := ttl
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &TTLCache{c: cache.New(ttl, cleanup)}
}

func (t *TTLCache) Get(url string) (StreamMetrics, bool) {
	v, ok := t.c.Get(url)
	if !ok {
		return StreamMetrics{}, false
	}
	m, ok := v.(StreamMetrics)
	return m, ok
}

func (t *TTLCache) Set(url string, m StreamMetrics) {
	t.c.SetDefault(url, m)
}
