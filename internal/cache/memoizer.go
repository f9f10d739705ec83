package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"orangecat/internal/metrics"
)

// Memoizer caches JSON results per time window. Keys are bucketed as
// key@<window start unix>, so every caller in the same window shares one
// upstream call. Lookups go local cache, then Redis, then fn.
type Memoizer struct {
	name   string
	window time.Duration
	local  *QueryCache[[]byte]
	rdb    *redis.Client
	group  singleflight.Group
	log    zerolog.Logger

	// gen counts invalidations. A computation started under an older
	// generation is returned to its callers but never stored.
	mu  sync.RWMutex
	gen uint64

	now func() time.Time
}

// NewMemoizer builds a memoizer. rdb may be nil for a local-only cache.
func NewMemoizer(name string, window time.Duration, rdb *redis.Client, log zerolog.Logger) *Memoizer {
	if window <= 0 {
		window = DefaultTTL
	}
	return &Memoizer{
		name:   name,
		window: window,
		local:  NewQueryCache[[]byte](DefaultMaxSize, window),
		rdb:    rdb,
		log:    log.With().Str("component", "memoizer").Str("cache", name).Logger(),
		now:    time.Now,
	}
}

func (m *Memoizer) bucketKey(key string) string {
	start := m.now().Truncate(m.window).Unix()
	return fmt.Sprintf("%s@%d", key, start)
}

func (m *Memoizer) redisKey(bucketed string) string {
	return "memo:" + m.name + ":" + bucketed
}

// Do decodes the cached value for key into dst, computing it with fn on a miss.
func (m *Memoizer) Do(ctx context.Context, key string, dst any, fn func(context.Context) (any, error)) error {
	bk := m.bucketKey(key)

	if raw, ok := m.local.Get(bk); ok {
		metrics.CacheLookupsTotal.WithLabelValues(m.name, "hit").Inc()
		return json.Unmarshal(raw, dst)
	}

	gen := m.generation()
	raw, err, _ := m.group.Do(bk+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		if m.rdb != nil {
			b, err := m.rdb.Get(ctx, m.redisKey(bk)).Bytes()
			switch {
			case err == nil:
				metrics.CacheLookupsTotal.WithLabelValues(m.name, "redis_hit").Inc()
				m.store(ctx, gen, bk, b, false)
				return b, nil
			case !errors.Is(err, redis.Nil):
				m.log.Warn().Err(err).Msg("redis get failed, using local tier")
			}
		}

		metrics.CacheLookupsTotal.WithLabelValues(m.name, "miss").Inc()
		v, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}

		m.store(ctx, gen, bk, b, true)
		return b, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dst)
}

func (m *Memoizer) generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}

// store caches b unless an invalidation happened since gen was read.
// Invalidate waits for in-flight stores, so nothing stale lands after it.
func (m *Memoizer) store(ctx context.Context, gen uint64, bk string, b []byte, toRedis bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.gen != gen {
		metrics.CacheLookupsTotal.WithLabelValues(m.name, "stale").Inc()
		return
	}

	ttl := m.remaining()
	m.local.SetWithTTL(bk, b, ttl)
	if toRedis && m.rdb != nil {
		if err := m.rdb.Set(ctx, m.redisKey(bk), b, ttl).Err(); err != nil {
			m.log.Warn().Err(err).Msg("redis set failed")
		}
	}
}

// remaining is the time left in the current window.
func (m *Memoizer) remaining() time.Duration {
	now := m.now()
	left := now.Truncate(m.window).Add(m.window).Sub(now)
	if left <= 0 {
		return m.window
	}
	return left
}

// Invalidate drops every window of every key starting with prefix.
func (m *Memoizer) Invalidate(ctx context.Context, prefix string) {
	m.mu.Lock()
	m.gen++
	m.local.InvalidatePattern(regexp.MustCompile("^" + regexp.QuoteMeta(prefix)))
	m.mu.Unlock()

	if m.rdb == nil {
		return
	}

	iter := m.rdb.Scan(ctx, 0, m.redisKey(prefix)+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		m.log.Warn().Err(err).Str("prefix", prefix).Msg("redis scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := m.rdb.Del(ctx, keys...).Err(); err != nil {
		m.log.Warn().Err(err).Str("prefix", prefix).Msg("redis delete failed")
	}
}

// Stats reports the local tier.
func (m *Memoizer) Stats() Stats {
	return m.local.Stats()
}

// RunJanitor purges expired local entries until ctx is done.
func (m *Memoizer) RunJanitor(ctx context.Context, interval time.Duration) {
	m.local.RunJanitor(ctx, interval)
}
