package loader

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoises file contents by CacheKey. Concurrent misses for the same key
// share one fetch.
type Cache struct {
	mu    sync.RWMutex
	items map[string][]byte
	group singleflight.Group
}

func NewCache() *Cache {
	return &Cache{items: make(map[string][]byte)}
}

func (c *Cache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

// Do returns the cached value for file or calls fetch once and stores its
// result. Errors are not cached.
func (c *Cache) Do(file DataFile, fetch func() ([]byte, error)) ([]byte, error) {
	key := CacheKey(file)
	if cached, ok := c.get(key); ok {
		return cached, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if cached, ok := c.get(key); ok {
			return cached, nil
		}

		content, err := fetch()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.items[key] = content
		c.mu.Unlock()
		return content, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Invalidate drops entries whose path matches one of paths. With no paths
// the cache is cleared.
func (c *Cache) Invalidate(paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(paths) == 0 {
		clear(c.items)
		return
	}
	for key := range c.items {
		for _, p := range paths {
			if strings.HasSuffix(key, ":"+p) {
				delete(c.items, key)
				break
			}
		}
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
