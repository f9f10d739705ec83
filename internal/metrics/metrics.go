// Package metrics defines the Prometheus collectors exported on /metrics.
// Collectors register with the default registry at init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "orangecat"

// ── HTTP ──────────────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts handled requests.
// Labels: method, route (gin full path, "unmatched" for 404s), status.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled.",
	},
	[]string{"method", "route", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// RateLimitRejectionsTotal counts 429 responses, labelled by limiter scope
// (e.g. "profile_update", "search").
var RateLimitRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_rejections_total",
		Help:      "Requests rejected by the rate limiter.",
	},
	[]string{"scope"},
)

// ── Caching ───────────────────────────────────────────────────────────────────

// CacheLookupsTotal counts cache lookups.
// Labels:
//   - cache: cache name ("analytics", "wallet", "profiles")
//   - result: "hit", "redis_hit", "miss" or "stale" (computed but dropped after an invalidation)
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by cache and result.",
	},
	[]string{"cache", "result"},
)

// ── Funding ───────────────────────────────────────────────────────────────────

var TransactionsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_created_total",
		Help:      "Pending transactions created, by currency and payment method.",
	},
	[]string{"currency", "method"},
)

// ── Organizations ─────────────────────────────────────────────────────────────

var OrganizationsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "organizations_created_total",
		Help:      "Organizations created, by type.",
	},
	[]string{"type"},
)

// WebhookEventsTotal counts payment webhook outcomes: "confirmed", "failed",
// "duplicate", "rejected".
var WebhookEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Payment webhook events by result.",
	},
	[]string{"result"},
)

// ── Realtime, media, wallet ───────────────────────────────────────────────────

var WSClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_clients",
		Help:      "Connected websocket clients.",
	},
)

var UploadsBytesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_bytes_total",
		Help:      "Bytes uploaded to blob storage, by bucket.",
	},
	[]string{"bucket"},
)

// WalletProviderRequestsTotal counts Esplora calls per provider host; result
// is "ok" or "error".
var WalletProviderRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wallet_provider_requests_total",
		Help:      "Requests to blockchain data providers.",
	},
	[]string{"provider", "result"},
)
