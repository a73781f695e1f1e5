package persist

import (
	"context"
	"sync"
	"time"

	"test-manifest/core/manifest"

	"golang.org/x/sync/singleflight"
)

// LoadFunc builds the store for a cache miss.
type LoadFunc func(ctx context.Context) (*manifest.Store, error)

// cachedStore is a loaded store and the time it was loaded.
type cachedStore struct {
	store *manifest.Store
	built time.Time
}

// Cache keeps loaded stores keyed by backend location so repeated loads in
// one process reuse the same store. It does not re-check the backend while
// an entry is fresh, so it gives no freshness guarantee across processes.
type Cache struct {
	ttl time.Duration

	mu     sync.RWMutex
	stores map[string]cachedStore
	sf     singleflight.Group
	now    func() time.Time
}

// NewCache returns a cache whose entries live for ttl. A zero ttl disables
// reuse; concurrent loads of the same key are still collapsed.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:    ttl,
		stores: make(map[string]cachedStore),
		now:    time.Now,
	}
}

func (c *Cache) fresh(entry cachedStore) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(entry.built) <= c.ttl
}

// Get returns the cached store for key or calls load to build one.
func (c *Cache) Get(ctx context.Context, key string, load LoadFunc) (*manifest.Store, error) {
	c.mu.RLock()
	entry, ok := c.stores[key]
	c.mu.RUnlock()

	if ok && c.fresh(entry) {
		return entry.store, nil
	}

	result, err, _ := c.sf.Do(key, func() (any, error) {
		c.mu.RLock()
		entry, ok := c.stores[key]
		c.mu.RUnlock()
		if ok && c.fresh(entry) {
			return entry.store, nil
		}

		s, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if c.ttl > 0 {
			c.mu.Lock()
			c.stores[key] = cachedStore{store: s, built: c.now()}
			c.mu.Unlock()
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*manifest.Store), nil
}

// Put records s as the current store for key, e.g. after a rebuild.
func (c *Cache) Put(key string, s *manifest.Store) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.stores[key] = cachedStore{store: s, built: c.now()}
	c.mu.Unlock()
}

// Invalidate drops the entry for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.stores, key)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.stores = make(map[string]cachedStore)
	c.mu.Unlock()
}

// Len returns the number of cached entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stores)
}
