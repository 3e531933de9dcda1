// Package infra provides shared infrastructure used across the site:
// a TTL cache for parsed datasets, a rate limiter for upstream fetches,
// and the HTTP GET helper used by remote data and feed sources.
package infra

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type item struct {
	val      any
	deadline time.Time // zero: kept until invalidated
}

func (it item) live(now time.Time) bool {
	return it.deadline.IsZero() || !now.After(it.deadline)
}

// Cache holds parsed datasets and rendered charts keyed by name, with
// a default lifetime. A zero lifetime keeps entries until they are
// invalidated, which is how the watcher-driven server runs.
type Cache struct {
	mu      sync.RWMutex
	items   map[string]item
	ttl     time.Duration
	loads   singleflight.Group
	pending map[string]uint64 // key → token of the load allowed to store it
	seq     uint64
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{items: map[string]item{}, ttl: ttl, pending: map[string]uint64{}}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || !it.live(time.Now()) {
		return nil, false
	}
	return it.val, true
}

func (c *Cache) Set(key string, value any) { c.SetWithTTL(key, value, c.ttl) }

func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	it := item{val: value}
	if ttl > 0 {
		it.deadline = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = it
	c.mu.Unlock()
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Concurrent misses for one key share a single load, which runs detached
// from any one caller's cancellation; each caller still stops waiting when
// its own ctx is done. Failed loads are not stored, and neither is a
// result whose key was invalidated while it loaded.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		token := c.begin(key)
		v, err := load(loadCtx)
		c.finish(key, token, v, err)
		return v, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

func (c *Cache) begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.pending[key] = c.seq
	return c.seq
}

func (c *Cache) finish(key string, token uint64, v any, err error) {
	it := item{val: v}
	if c.ttl > 0 {
		it.deadline = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[key] != token {
		return
	}
	delete(c.pending, key)
	if err == nil {
		c.items[key] = it
	}
}

func (c *Cache) Invalidate(key string) { c.drop(func(k string) bool { return k == key }) }

// InvalidatePrefix drops every key under prefix, e.g. "chart:" after a
// data file changes, and returns the count.
func (c *Cache) InvalidatePrefix(prefix string) int {
	return c.drop(func(k string) bool { return strings.HasPrefix(k, prefix) })
}

func (c *Cache) Flush() {
	c.mu.Lock()
	for k := range c.pending {
		c.loads.Forget(k)
	}
	c.items = map[string]item{}
	c.pending = map[string]uint64{}
	c.mu.Unlock()
}

// Len counts stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Cleanup drops expired entries.
func (c *Cache) Cleanup() {
	now := time.Now()
	c.mu.Lock()
	for k, it := range c.items {
		if !it.live(now) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}

// RunJanitor runs Cleanup every interval until ctx is done.
func (c *Cache) RunJanitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Cleanup()
		}
	}
}

func (c *Cache) drop(match func(string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.items {
		if match(k) {
			delete(c.items, k)
			n++
		}
	}
	// Loads already running for these keys must not store their result,
	// and later callers start a fresh load.
	for k := range c.pending {
		if match(k) {
			delete(c.pending, k)
			c.loads.Forget(k)
		}
	}
	return n
}
