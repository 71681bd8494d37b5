package manager

import (
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"embedd/internal/config"
)

const (
	cacheKeySep   = "\x00"
	bytesPerFloat = 4
)

// embedCache is an LRU of normalized vectors keyed by model and text. A nil
// *embedCache is a disabled cache.
//
// Each model has a generation that purges advance. A vector computed under an
// older generation is dropped by add, so a call still running on a replaced
// instance cannot repopulate the cache after the purge.
type embedCache struct {
	lru  *lru.Cache[string, []float32]
	hits atomic.Uint64

	mu    sync.Mutex // orders add against purges
	gens  map[string]uint64
	epoch uint64
}

// newEmbedCache sizes the cache from global.cache_size_mb and the widest
// configured model. Returns nil when caching is disabled.
func newEmbedCache(cfg config.ModelsConfig) *embedCache {
	if !cfg.Global.CacheEnabled || cfg.Global.CacheSizeMB <= 0 {
		return nil
	}
	maxDim := 1
	for _, mc := range cfg.Models {
		maxDim = max(maxDim, mc.EmbeddingDim)
	}
	entries := max(cfg.Global.CacheSizeMB*(1<<20)/(bytesPerFloat*maxDim), 1)
	c, err := lru.New[string, []float32](entries)
	if err != nil {
		return nil
	}
	return &embedCache{lru: c, gens: make(map[string]uint64)}
}

func cacheKey(model, text string) string { return model + cacheKeySep + text }

// get returns a copy of the cached vector.
func (c *embedCache) get(model, text string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.lru.Get(cacheKey(model, text))
	if !ok {
		return nil, false
	}
	c.hits.Add(1)
	return append([]float32(nil), v...), true
}

// generation returns the token to pass to add for vectors computed from now on.
func (c *embedCache) generation(model string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch + c.gens[model]
}

// add stores v unless model was purged since gen was taken.
func (c *embedCache) add(model string, gen uint64, text string, v []float32) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch+c.gens[model] != gen {
		return
	}
	c.lru.Add(cacheKey(model, text), append([]float32(nil), v...))
}

// purgeModel drops every entry of one model.
func (c *embedCache) purgeModel(model string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[model]++
	prefix := model + cacheKeySep
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
}

func (c *embedCache) purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.lru.Purge()
}

func (c *embedCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func (c *embedCache) hitCount() uint64 {
	if c == nil {
		return 0
	}
	return c.hits.Load()
}
