// Package cache provides the in-process TTL cache and the time-bucketed
// memoizer used in front of Supabase reads.
package cache

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	DefaultMaxSize = 100
	DefaultTTL     = 5 * time.Minute
)

type entry[V any] struct {
	value    V
	inserted time.Time
	expires  time.Time
}

// Stats is a point-in-time view of a QueryCache.
type Stats struct {
	Size    int    `json:"size"`
	MaxSize int    `json:"maxSize"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// QueryCache is a bounded map with per-entry expiry. When an insert finds
// the cache full it first drops expired entries, then the oldest fifth.
type QueryCache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64

	now func() time.Time
}

func NewQueryCache[V any](maxSize int, ttl time.Duration) *QueryCache[V] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &QueryCache[V]{
		entries: make(map[string]entry[V], maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *QueryCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().After(e.expires) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

func (c *QueryCache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

func (c *QueryCache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.makeRoom(now)
	}
	c.entries[key] = entry[V]{value: value, inserted: now, expires: now.Add(ttl)}
}

func (c *QueryCache[V]) makeRoom(now time.Time) {
	c.purgeExpired(now)
	if len(c.entries) < c.maxSize {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].inserted.Before(c.entries[keys[j]].inserted)
	})

	n := max(c.maxSize/5, 1)
	for _, k := range keys[:n] {
		delete(c.entries, k)
	}
}

func (c *QueryCache[V]) purgeExpired(now time.Time) int {
	n := 0
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Purge drops expired entries and reports how many were removed.
func (c *QueryCache[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeExpired(c.now())
}

func (c *QueryCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidatePattern drops every key matching re.
func (c *QueryCache[V]) InvalidatePattern(re *regexp.Regexp) int {
	return c.invalidate(re.MatchString)
}

func (c *QueryCache[V]) InvalidatePrefix(prefix string) int {
	return c.invalidate(func(k string) bool { return strings.HasPrefix(k, prefix) })
}

func (c *QueryCache[V]) invalidate(match func(string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if match(k) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *QueryCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: len(c.entries), MaxSize: c.maxSize, Hits: c.hits, Misses: c.misses}
}

// RunJanitor purges expired entries every interval until ctx is done.
func (c *QueryCache[V]) RunJanitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Purge()
		}
	}
}
