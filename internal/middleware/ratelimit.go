package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"orangecat/internal/cache"
	"orangecat/internal/metrics"
)

// KeyFunc picks the identity a limit is counted against.
type KeyFunc func(c *gin.Context) string

// ByIP counts per client IP.
func ByIP(c *gin.Context) string { return "ip:" + c.ClientIP() }

// ByUser counts per authenticated user, falling back to the client IP.
func ByUser(c *gin.Context) string {
	if id, ok := UserID(c); ok {
		return "user:" + id.String()
	}
	return ByIP(c)
}

// ByUserAndIP counts per user and IP pair.
func ByUserAndIP(c *gin.Context) string {
	return ByUser(c) + "|" + ByIP(c)
}

// Rule is one route's limit.
type Rule struct {
	Scope   string
	Limit   int
	Window  time.Duration
	Message string
	Key     KeyFunc
}

// Route limits.
var (
	ProfileUpdateLimit = Rule{"profile_update", 5, time.Minute, "Too many profile updates. Please wait a minute before trying again.", ByUserAndIP}
	ProfileListLimit   = Rule{"profile_list", 20, time.Minute, "Too many requests. Please wait a minute.", ByUser}
	SearchLimit        = Rule{"search", 30, time.Minute, "Too many search requests. Please wait a minute.", ByUser}
	FundingCreateLimit = Rule{"funding_create", 10, time.Minute, "Too many transaction attempts. Please wait a minute.", ByUser}
	SignInLimit        = Rule{"sign_in", 10, time.Minute, "Too many sign-in attempts. Please wait a minute.", ByIP}
	OrganizationLimit  = Rule{"organizations", 10, time.Minute, "Too many requests. Please wait a minute.", ByUser}
	MembershipLimit    = Rule{"memberships", 20, time.Minute, "Too many requests. Please wait a minute.", ByUser}
)

// RateLimiter is a fixed-window limiter. Counters live in Redis when a client
// is configured and in process memory otherwise.
type RateLimiter struct {
	rdb   *redis.Client
	mu    sync.Mutex
	local *cache.QueryCache[int]
	log   zerolog.Logger
	now   func() time.Time
}

func NewRateLimiter(rdb *redis.Client, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:   rdb,
		local: cache.NewQueryCache[int](10000, time.Minute),
		log:   log.With().Str("component", "ratelimit").Logger(),
		now:   time.Now,
	}
}

// Allow counts one request for key and reports the count and window reset.
func (rl *RateLimiter) Allow(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := rl.now()
	start := now.Truncate(window)
	reset := start.Add(window)
	k := fmt.Sprintf("ratelimit:%s:%d", key, start.Unix())

	if rl.rdb == nil {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		n, _ := rl.local.Get(k)
		n++
		rl.local.SetWithTTL(k, n, reset.Sub(now))
		return n, reset, nil
	}

	pipe := rl.rdb.Pipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, reset, err
	}
	return int(incr.Val()), reset, nil
}

// Limit enforces r on the route it is attached to.
func (rl *RateLimiter) Limit(r Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, reset, err := rl.Allow(c.Request.Context(), r.Scope+":"+r.Key(c), r.Window)
		if err != nil {
			rl.log.Warn().Err(err).Str("scope", r.Scope).Msg("rate limit check failed, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(r.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(r.Limit-count, 0)))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if count > r.Limit {
			metrics.RateLimitRejectionsTotal.WithLabelValues(r.Scope).Inc()
			retry := int(reset.Sub(rl.now()).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			abortJSON(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", r.Message)
			return
		}
		c.Next()
	}
}

// RunJanitor drops expired in-process windows until ctx is done.
func (rl *RateLimiter) RunJanitor(ctx context.Context, interval time.Duration) {
	rl.local.RunJanitor(ctx, interval)
}
