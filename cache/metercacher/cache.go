// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metercacher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/ledgerdb/cache"
)

var _ cache.Cacher[struct{}, struct{}] = (*Cache[struct{}, struct{}])(nil)

// Cache wraps a Cacher to track hit/miss counts and call latency.
type Cache[K comparable, V any] struct {
	metrics
	cache.Cacher[K, V]
}

func New[K comparable, V any](
	namespace string,
	registerer prometheus.Registerer,
	cache cache.Cacher[K, V],
) (*Cache[K, V], error) {
	meterCache := &Cache[K, V]{Cacher: cache}
	return meterCache, meterCache.metrics.Initialize(namespace, registerer)
}

func (c *Cache[K, V]) Put(key K, value V) {
	start := time.Now()
	c.Cacher.Put(key, value)
	putDuration := time.Since(start)

	c.put.Observe(float64(putDuration))
	c.len.Set(float64(c.Cacher.Len()))
	c.portionFilled.Set(c.Cacher.PortionFilled())
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	start := time.Now()
	value, has := c.Cacher.Get(key)
	getDuration := time.Since(start)

	if has {
		c.get.With(hitLabels).Observe(float64(getDuration))
	} else {
		c.get.With(missLabels).Observe(float64(getDuration))
	}

	return value, has
}

func (c *Cache[K, _]) Evict(key K) {
	c.Cacher.Evict(key)

	c.len.Set(float64(c.Cacher.Len()))
	c.portionFilled.Set(c.Cacher.PortionFilled())
}

func (c *Cache[_, _]) Flush() {
	c.Cacher.Flush()

	c.len.Set(float64(c.Cacher.Len()))
	c.portionFilled.Set(c.Cacher.PortionFilled())
}
