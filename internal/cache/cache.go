// package cache provides the daemon's bounded in-memory caches.
//
// Every cache is a capacity-bounded LRU whose entries expire after a
// configuration-derived TTL. Expired entries are dropped lazily on lookup.
package cache

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCapacity is the capacity of every daemon cache.
const DefaultCapacity = 64

// Cache is a bounded LRU keyed by resource URI with a per-entry TTL.
type Cache[V any] struct {
	lru *expirable.LRU[string, V]
}

// New creates a cache holding at most size entries, each valid for ttl.
// A zero ttl means entries never expire.
func New[V any](size int, ttl time.Duration) *Cache[V] {
	return &Cache[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

// Get returns the value stored under key if present and not expired, marking
// the entry as recently used.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Peek returns the value stored under key without advancing its LRU position.
func (c *Cache[V]) Peek(key string) (V, bool) {
	return c.lru.Peek(key)
}

// Contains reports whether a live entry exists under key.
func (c *Cache[V]) Contains(key string) bool {
	_, ok := c.lru.Peek(key)
	return ok
}

// Add stores value under key, evicting the least-recently-used entry on
// overflow.
func (c *Cache[V]) Add(key string, value V) {
	c.lru.Add(key, value)
}

// Remove drops the entry stored under key.
func (c *Cache[V]) Remove(key string) {
	c.lru.Remove(key)
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

// CoverImagePath derives the on-disk cover image path for a track's album.
func CoverImagePath(imageDir, albumName, artistNames string) string {
	return filepath.Join(imageDir, fmt.Sprintf("%s-%s-cover.jpg", albumName, artistNames))
}
