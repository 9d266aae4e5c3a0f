// Package cache is a process-local key/value store with a single time-to-live.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultTTL = 6 * time.Hour
	FastTTL    = 15 * time.Minute
)

// Cache is safe for concurrent use. Entries are never evicted for size, only on expiry.
type Cache[V any] struct {
	lru *expirable.LRU[string, V]
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{lru: expirable.NewLRU[string, V](0, nil, ttl)}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

func (c *Cache[V]) Set(key string, v V) {
	c.lru.Add(key, v)
}

func (c *Cache[V]) Len() int { return c.lru.Len() }

// Flush drops every entry and reports how many were live.
func (c *Cache[V]) Flush() int {
	n := c.lru.Len()
	c.lru.Purge()
	return n
}
