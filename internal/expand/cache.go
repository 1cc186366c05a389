package expand

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
)

// Cache memoizes successful expansions by content hash, so the watcher does
// not redo work for saves that change nothing. Failures are never cached.
type Cache struct {
	mu    sync.RWMutex
	max   int
	items map[string]*Result
	hits  int
}

// NewCache creates a cache holding at most max results. Once full, new
// results are computed but not stored.
func NewCache(max int) *Cache {
	return &Cache{
		max:   max,
		items: make(map[string]*Result, max),
	}
}

// GetOrCompute returns the cached result for key, computing and storing it
// on a miss.
func (c *Cache) GetOrCompute(key string, fn func() (*Result, error)) (*Result, error) {
	c.mu.RLock()
	if v, ok := c.items[key]; ok {
		c.mu.RUnlock()
		c.hit()
		return v, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.items[key]; ok {
		c.hits++
		return v, nil
	}

	r, err := fn()
	if err != nil {
		return nil, err
	}
	if len(c.items) < c.max {
		c.items[key] = r
	}
	return r, nil
}

func (c *Cache) hit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

// Len is the number of cached results.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Hits is the number of lookups served from the cache.
func (c *Cache) Hits() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits
}

// Key hashes everything an expansion depends on.
func Key(filename string, src []byte, opts Options) string {
	h := sha256.New()
	h.Write([]byte(filename))
	h.Write([]byte{0})
	h.Write([]byte(opts.macro()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(opts.Header) + strconv.FormatBool(opts.Format)))
	h.Write([]byte{0})
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}
