package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server reads from config.env or the environment.
type Config struct {
	Port      string `mapstructure:"PORT"`
	AppEnv    string `mapstructure:"APP_ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	SupabaseURL            string `mapstructure:"SUPABASE_URL"`
	SupabaseAnonKey        string `mapstructure:"SUPABASE_ANON_KEY"`
	SupabaseServiceRoleKey string `mapstructure:"SUPABASE_SERVICE_ROLE_KEY"`
	SupabaseJWTSecret      string `mapstructure:"SUPABASE_JWT_SECRET"`

	DSN string `mapstructure:"DSN"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`
	RedisDB   int    `mapstructure:"REDIS_DB"`

	StorageBackend    string `mapstructure:"STORAGE_BACKEND"`
	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3PublicURL       string `mapstructure:"S3_PUBLIC_URL"`

	CORSOrigins   string `mapstructure:"CORS_ORIGINS"`
	SiteURL       string `mapstructure:"SITE_URL"`
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`
	WebDir        string `mapstructure:"WEB_DIR"`

	AuthTimeout time.Duration `mapstructure:"AUTH_TIMEOUT"`
	CacheTTL    time.Duration `mapstructure:"CACHE_TTL"`

	BTCUSDRate      string `mapstructure:"BTC_USD_RATE"`
	USDCHFRate      string `mapstructure:"USD_CHF_RATE"`
	WalletProviders string `mapstructure:"WALLET_PROVIDERS"`
}

var defaults = map[string]any{
	"PORT":                      "8080",
	"APP_ENV":                   "development",
	"LOG_LEVEL":                 "info",
	"LOG_PRETTY":                true,
	"SUPABASE_URL":              "",
	"SUPABASE_ANON_KEY":         "",
	"SUPABASE_SERVICE_ROLE_KEY": "",
	"SUPABASE_JWT_SECRET":       "",
	"DSN":                       "",
	"REDIS_ADDR":                "",
	"REDIS_DB":                  0,
	"STORAGE_BACKEND":           "supabase",
	"S3_ENDPOINT":               "",
	"S3_REGION":                 "us-east-1",
	"S3_ACCESS_KEY_ID":          "",
	"S3_SECRET_ACCESS_KEY":      "",
	"S3_PUBLIC_URL":             "",
	"CORS_ORIGINS":              "http://localhost:3000",
	"SITE_URL":                  "http://localhost:3000",
	"WEBHOOK_SECRET":            "",
	"WEB_DIR":                   "",
	"AUTH_TIMEOUT":              "20s",
	"CACHE_TTL":                 "5m",
	"BTC_USD_RATE":              "105000",
	"USD_CHF_RATE":              "0.91",
	"WALLET_PROVIDERS":          "https://mempool.space/api,https://blockstream.info/api",
}

// Load reads config.env from the given directories (the working directory when
// none are given) and overlays environment variables. A missing file is fine.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Keys must be known to viper for Unmarshal to pick them up from the environment.
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	switch {
	case c.SupabaseURL == "":
		return errors.New("SUPABASE_URL is required")
	case c.SupabaseAnonKey == "":
		return errors.New("SUPABASE_ANON_KEY is required")
	case c.SupabaseJWTSecret == "":
		return errors.New("SUPABASE_JWT_SECRET is required")
	}
	if c.StorageBackend != "supabase" && c.StorageBackend != "s3" {
		return fmt.Errorf("STORAGE_BACKEND must be supabase or s3, got %q", c.StorageBackend)
	}
	if c.StorageBackend == "s3" && c.S3Endpoint == "" {
		return errors.New("S3_ENDPOINT is required when STORAGE_BACKEND=s3")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// ServiceKey returns the admin key, falling back to the anon key.
func (c Config) ServiceKey() string {
	if c.SupabaseServiceRoleKey != "" {
		return c.SupabaseServiceRoleKey
	}
	return c.SupabaseAnonKey
}

// AllowedOrigins splits CORS_ORIGINS.
func (c Config) AllowedOrigins() []string {
	return splitList(c.CORSOrigins)
}

// Providers splits WALLET_PROVIDERS.
func (c Config) Providers() []string {
	return splitList(c.WalletProviders)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
