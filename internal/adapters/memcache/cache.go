// Package memcache is an in-process LRU implementation of domain.Cache.
// Values are stored JSON-encoded so readers never share memory with writers.
package memcache

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"

	"homefinder/internal/adapters/observability"
)

type entry struct {
	key       string
	val       []byte
	expiresAt time.Time // zero = never
}

// Cache is a thread-safe LRU with optional per-entry TTL.
type Cache struct {
	mu       sync.Mutex
	capacity int // 0 = unbounded
	ll       *list.List
	items    map[string]*list.Element
	now      func() time.Time
}

// New returns a cache holding at most capacity entries. capacity <= 0 disables eviction.
func New(capacity int) *Cache {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	el, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	e := el.Value.(*entry)
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.removeElement(el)
		c.mu.Unlock()
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	c.ll.MoveToFront(el)
	b := e.val
	c.mu.Unlock()

	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(b, dst)
}

// Set stores v. ttlSec <= 0 keeps the entry until it is evicted.
func (c *Cache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var exp time.Time
	if ttlSec > 0 {
		exp = c.now().Add(time.Duration(ttlSec) * time.Second)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	observability.ObserveCache("memory", "set")

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.val, e.expiresAt = b, exp
		c.ll.MoveToFront(el)
		return nil
	}
	c.items[key] = c.ll.PushFront(&entry{key: key, val: b, expiresAt: exp})
	if c.capacity > 0 && c.ll.Len() > c.capacity {
		c.removeElement(c.ll.Back())
		observability.ObserveCache("memory", "evict")
	}
	return nil
}

func (c *Cache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
		observability.ObserveCache("memory", "del")
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
