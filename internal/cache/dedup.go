package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Dedup remembers keys for a while so repeated deliveries can be skipped.
// With Redis the check is shared between instances through SET NX; without
// it, or when Redis fails, a local cache is used.
type Dedup struct {
	prefix string
	rdb    *redis.Client
	local  *QueryCache[struct{}]
	log    zerolog.Logger
}

func NewDedup(prefix string, rdb *redis.Client, log zerolog.Logger) *Dedup {
	return &Dedup{
		prefix: prefix,
		rdb:    rdb,
		local:  NewQueryCache[struct{}](10_000, time.Hour),
		log:    log.With().Str("component", "dedup").Str("prefix", prefix).Logger(),
	}
}

// FirstSeen records key and reports whether it was new.
func (d *Dedup) FirstSeen(ctx context.Context, key string, ttl time.Duration) bool {
	if d.rdb != nil {
		ok, err := d.rdb.SetNX(ctx, d.prefix+":"+key, 1, ttl).Result()
		if err == nil {
			return ok
		}
		d.log.Warn().Err(err).Msg("redis setnx failed, using local tier")
	}

	// Check and set are separate calls; concurrent duplicates are caught
	// again by the settlement row lock.
	if _, seen := d.local.Get(key); seen {
		return false
	}
	d.local.SetWithTTL(key, struct{}{}, ttl)
	return true
}

// Forget drops key so a later delivery is processed again.
func (d *Dedup) Forget(ctx context.Context, key string) {
	d.local.Delete(key)
	if d.rdb == nil {
		return
	}
	if err := d.rdb.Del(ctx, d.prefix+":"+key).Err(); err != nil {
		d.log.Warn().Err(err).Msg("redis del failed")
	}
}
