package models

import "time"

// Metric confidence levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Metric sources.
const (
	SourceDatabase = "database"
	SourceAPI      = "api"
	SourceFallback = "fallback"
)

// MetricValue is one dashboard number with how much it can be trusted.
type MetricValue struct {
	Value       any       `json:"value"`
	Confidence  string    `json:"confidence"`
	LastUpdated time.Time `json:"lastUpdated"`
	Source      string    `json:"source"`
	IsDemo      bool      `json:"isDemo"`
}

func NewMetric(value any, source, confidence string, at time.Time) MetricValue {
	return MetricValue{Value: value, Confidence: confidence, LastUpdated: at, Source: source}
}

// FeatureMetrics groups the metrics of one dashboard feature.
type FeatureMetrics struct {
	IsEnabled bool                   `json:"isEnabled"`
	IsDemo    bool                   `json:"isDemo"`
	Timeline  string                 `json:"timeline,omitempty"`
	Stats     map[string]MetricValue `json:"stats"`
}

// WalletTx is a recent on-chain transaction touching a watched address.
type WalletTx struct {
	TxID      string  `json:"txid"`
	Value     float64 `json:"value"`
	Status    string  `json:"status"`
	Timestamp int64   `json:"timestamp"`
	Type      string  `json:"type"`
}

// WalletData is the balance view of a Bitcoin address.
type WalletData struct {
	Address      string     `json:"address"`
	Balance      float64    `json:"balance"`
	BalanceSats  int64      `json:"balance_sats"`
	Display      string     `json:"display"`
	Transactions []WalletTx `json:"transactions"`
	LastUpdated  int64      `json:"lastUpdated"`
	Provider     string     `json:"provider"`
}

// Upload is the result of storing a user image.
type Upload struct {
	PublicURL string `json:"publicUrl"`
	Size      int64  `json:"size"`
	Path      string `json:"path"`
}

// Registration is the outcome of a sign-up.
type Registration struct {
	User              AuthUser `json:"user"`
	Session           *Session `json:"session,omitempty"`
	NeedsConfirmation bool     `json:"needsConfirmation"`
}

// MediaKind selects the bucket, size limit and profile column of an upload.
type MediaKind struct {
	Name    string
	Bucket  string
	MaxSize int64
}

var (
	Avatar = MediaKind{Name: "avatar", Bucket: "avatars", MaxSize: 5 << 20}
	Banner = MediaKind{Name: "banner", Bucket: "banners", MaxSize: 10 << 20}
)
