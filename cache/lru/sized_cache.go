// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lru

import (
	"fmt"
	"sync"

	"github.com/ava-labs/ledgerdb/cache"
	"github.com/ava-labs/ledgerdb/utils"
	"github.com/ava-labs/ledgerdb/utils/linked"
)

var _ cache.Cacher[struct{}, any] = (*SizedCache[struct{}, any])(nil)

// SizedCache is a key value store with bounded entry count and bounded
// aggregate entry size. If either bound is attempted to be exceeded, then
// elements are removed from the cache until both bounds are honored, based on
// evicting the least recently used value.
type SizedCache[K comparable, V any] struct {
	lock        sync.Mutex
	elements    *linked.Hashmap[K, V]
	maxLen      int
	maxSize     int
	currentSize int
	size        func(K, V) int
}

// NewSizedCache creates a cache bounded only by aggregate size. [size] must
// return a positive number.
func NewSizedCache[K comparable, V any](maxSize int, size func(K, V) int) *SizedCache[K, V] {
	return NewSizedCacheWithMaxLen[K, V](maxSize, maxSize, size)
}

// NewSizedCacheWithMaxLen creates a cache bounded by entry count and
// aggregate size.
func NewSizedCacheWithMaxLen[K comparable, V any](maxLen, maxSize int, size func(K, V) int) *SizedCache[K, V] {
	return &SizedCache[K, V]{
		elements: linked.NewHashmap[K, V](),
		maxLen:   max(maxLen, 1),
		maxSize:  max(maxSize, 1),
		size:     size,
	}
}

func (c *SizedCache[K, V]) Put(key K, value V) {
	newEntrySize := c.size(key, value)
	if newEntrySize > c.maxSize {
		c.Evict(key)
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if oldValue, replaced := c.elements.Get(key); replaced {
		c.currentSize -= c.size(key, oldValue)
	}

	// Remove elements until the size of elements in the cache <= [c.maxSize]
	// and the number of elements <= [c.maxLen].
	for c.currentSize+newEntrySize > c.maxSize || c.elements.Len() >= c.maxLen {
		oldestKey, oldestValue, exists := c.elements.Oldest()
		if !exists {
			break
		}
		c.elements.Delete(oldestKey)
		c.currentSize -= c.size(oldestKey, oldestValue)
	}

	c.elements.Put(key, value)
	c.currentSize += newEntrySize
}

func (c *SizedCache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	val, ok := c.elements.Get(key)
	if !ok {
		return utils.Zero[V](), false
	}
	c.elements.Put(key, val) // Mark [key] as MRU.
	return val, true
}

func (c *SizedCache[K, _]) Evict(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if value, exists := c.elements.Get(key); exists {
		c.elements.Delete(key)
		c.currentSize -= c.size(key, value)
	}
}

func (c *SizedCache[_, _]) Flush() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.elements.Clear()
	c.currentSize = 0
}

func (c *SizedCache[_, _]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.elements.Len()
}

func (c *SizedCache[_, _]) Size() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.currentSize
}

func (c *SizedCache[_, _]) PortionFilled() float64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return float64(c.currentSize) / float64(c.maxSize)
}

func (c *SizedCache[_, _]) String() string {
	c.lock.Lock()
	defer c.lock.Unlock()

	return fmt.Sprintf("SizedCache(len=%d, maxLen=%d, size=%d, maxSize=%d)",
		c.elements.Len(), c.maxLen, c.currentSize, c.maxSize)
}
