package util

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// CacheConfig configures an LRUCache.
type CacheConfig struct {
	// Capacity is the maximum number of entries. Must be positive.
	Capacity int
	// TTL is the lifetime of an entry. Zero means entries never expire.
	TTL time.Duration
}

// entry carries the data stored in a list element.
type entry[K comparable, V any] struct {
	key        K
	value      V
	expiration time.Time
}

// LRUCache is a generic, thread-safe cache with LRU eviction and optional TTL.
type LRUCache[K comparable, V any] struct {
	config CacheConfig
	ll     *list.List
	cache  map[K]*list.Element
	lock   sync.Mutex
}

// NewLRU creates an LRUCache with the given configuration.
func NewLRU[K comparable, V any](config CacheConfig) (*LRUCache[K, V], error) {
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive")
	}
	return &LRUCache[K, V]{
		config: config,
		ll:     list.New(),
		cache:  make(map[K]*list.Element),
	}, nil
}

// Get returns the value for key and marks it as recently used. Expired
// entries are removed lazily on access.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.cache[key]
	if !ok {
		var zeroV V
		return zeroV, false
	}

	ent := element.Value.(*entry[K, V])
	if c.config.TTL > 0 && time.Now().After(ent.expiration) {
		c.removeElement(element)
		var zeroV V
		return zeroV, false
	}

	c.ll.MoveToFront(element)
	return ent.value, true
}

// Put adds or updates a key, evicting the least recently used entries once
// the capacity is exceeded.
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.cache[key]; ok {
		ent := element.Value.(*entry[K, V])
		ent.value = value
		if c.config.TTL > 0 {
			ent.expiration = time.Now().Add(c.config.TTL)
		}
		c.ll.MoveToFront(element)
		return
	}

	newEntry := &entry[K, V]{key: key, value: value}
	if c.config.TTL > 0 {
		newEntry.expiration = time.Now().Add(c.config.TTL)
	}
	c.cache[key] = c.ll.PushFront(newEntry)

	for c.ll.Len() > c.config.Capacity {
		if back := c.ll.Back(); back != nil {
			c.removeElement(back)
		}
	}
}

// Remove deletes a key if present.
func (c *LRUCache[K, V]) Remove(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if element, ok := c.cache[key]; ok {
		c.removeElement(element)
	}
}

// Len returns the number of entries currently cached.
func (c *LRUCache[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ll.Len()
}

// removeElement drops an element from both the list and the map.
// Caller holds the lock.
func (c *LRUCache[K, V]) removeElement(e *list.Element) {
	c.ll.Remove(e)
	ent := e.Value.(*entry[K, V])
	delete(c.cache, ent.key)
}
