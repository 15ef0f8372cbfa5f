package locations

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache keeps recently generated indexes keyed by the hash of the content
// they were built from, so identical uploads share one generation.
type Cache struct {
	lru *lru.Cache[string, *Index]
}

// NewCache creates a cache holding at most size indexes.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[string, *Index](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns the cached index for a content hash.
func (c *Cache) Get(hash string) (*Index, bool) {
	return c.lru.Get(hash)
}

// Add stores an index for a content hash.
func (c *Cache) Add(hash string, ix *Index) {
	c.lru.Add(hash, ix)
}

// Len returns the number of cached indexes.
func (c *Cache) Len() int {
	return c.lru.Len()
}
