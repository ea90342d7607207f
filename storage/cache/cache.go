// Package cache is a small concurrent in-memory map placed in front of
// slower node-local stores.
package cache

import (
	"sync"
)

type Item struct {
	Object interface{}
}

type cache struct {
	items map[string]Item
	mu    sync.RWMutex
}

type Cache struct {
	*cache
}

func (c *cache) Set(k string, x interface{}) {
	c.mu.Lock()
	c.items[k] = Item{
		Object: x,
	}
	c.mu.Unlock()
}

func (c *cache) Get(k string) (interface{}, bool) {
	c.mu.RLock()
	item, found := c.items[k]
	c.mu.RUnlock()
	if !found {
		return nil, false
	}
	return item.Object, true
}

func (c *cache) Delete(k string) {
	c.mu.Lock()
	delete(c.items, k)
	c.mu.Unlock()
}

// GetAll returns a copy of the cached items.
func (c *cache) GetAll() map[string]Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Item, len(c.items))
	for k, v := range c.items {
		out[k] = v
	}
	return out
}

func (c *cache) DeleteAll() {
	c.mu.Lock()
	for k := range c.items {
		delete(c.items, k)
	}
	c.mu.Unlock()
}

func newCache(m map[string]Item) *Cache {
	c := &cache{
		items: m,
	}
	C := &Cache{c}
	return C
}

func New() *Cache {
	items := make(map[string]Item)

	return newCache(items)
}
