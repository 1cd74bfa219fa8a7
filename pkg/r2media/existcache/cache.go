// Package existcache memoizes remote file existence with a TTL, so hot
// paths do not re-probe the object store or CDN on every request.
package existcache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// keyPrefix namespaces entries away from unrelated users of a shared store
	keyPrefix = "r2media_file_exists_"

	// DefaultTTL applies when the configured TTL is not positive
	DefaultTTL = time.Hour

	// defaultSize bounds the number of tracked paths; eviction of a cold
	// entry only costs a re-probe
	defaultSize = 8192
)

// Cache is a TTL-bounded existence memo keyed by logical path. Entries
// expire after the TTL; an absent entry means "unknown", not "false".
type Cache struct {
	entries *expirable.LRU[string, bool]
}

// New creates a cache with the given TTL. A non-positive TTL falls back to
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{entries: expirable.NewLRU[string, bool](defaultSize, nil, ttl)}
}

// Get returns the cached value for a path; ok is false on a miss or an
// expired entry.
func (c *Cache) Get(path string) (exists bool, ok bool) {
	return c.entries.Get(cacheKey(path))
}

// Set records whether the path exists remotely
func (c *Cache) Set(path string, exists bool) {
	c.entries.Add(cacheKey(path), exists)
}

// Remove drops the entry for a path
func (c *Cache) Remove(path string) {
	c.entries.Remove(cacheKey(path))
}

// Clear drops every entry. The cache owns its backing store, so this never
// touches unrelated cache users.
func (c *Cache) Clear() {
	c.entries.Purge()
}

// Len reports the number of live entries
func (c *Cache) Len() int {
	return c.entries.Len()
}

// cacheKey hashes the path so arbitrary logical paths cannot collide with
// other keys sharing the store.
func cacheKey(path string) string {
	sum := sha256.Sum256([]byte(path))
	return keyPrefix + hex.EncodeToString(sum[:])
}
