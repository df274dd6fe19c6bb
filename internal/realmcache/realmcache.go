// Package realmcache memoises LKDC realm-discovery results so repeated
// resolver runs against the same hostname don't re-hit the network. It is a
// thin, typed wrapper over patrickmn/go-cache, trading a bare *cache.Cache
// for a named type safe for this package's one use.
package realmcache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache memoises hostname -> realm lookups.
type Cache struct {
	c *gocache.Cache
}

// New returns a Cache whose entries expire after ttl, swept every cleanup
// interval.
func New(ttl, cleanup time.Duration) *Cache {
	return &Cache{c: gocache.New(ttl, cleanup)}
}

// Get returns the memoised realm for hostname, if present and unexpired.
func (c *Cache) Get(hostname string) (string, bool) {
	v, ok := c.c.Get(hostname)
	if !ok {
		return "", false
	}
	realm, ok := v.(string)
	return realm, ok
}

// Set memoises realm for hostname under the Cache's default TTL.
func (c *Cache) Set(hostname, realm string) {
	c.c.SetDefault(hostname, realm)
}

// Len reports the number of entries held, which may include expired entries
// not yet swept by the cleanup interval.
func (c *Cache) Len() int {
	return c.c.ItemCount()
}
