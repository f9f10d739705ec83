package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"orangecat/internal/cache"
	"orangecat/internal/currency"
	"orangecat/internal/database"
	"orangecat/internal/handlers"
	"orangecat/internal/middleware"
	"orangecat/internal/repository"
	"orangecat/internal/services"
	"orangecat/internal/storage"
	sb "orangecat/internal/supabase"
	ws "orangecat/internal/websocket"
)

const (
	shutdownTimeout = 15 * time.Second
	janitorInterval = time.Minute
)

func runServe(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		return err
	}

	rates, err := currency.ParseRates(cfg.BTCUSDRate, cfg.USDCHFRate)
	if err != nil {
		return err
	}

	supa, err := sb.New(sb.Options{
		URL:         cfg.SupabaseURL,
		AnonKey:     cfg.SupabaseAnonKey,
		ServiceKey:  cfg.ServiceKey(),
		AuthTimeout: cfg.AuthTimeout,
	}, log)
	if err != nil {
		return err
	}

	// Postgres and Redis are optional; features degrade without them.
	var db *sqlx.DB
	if cfg.DSN != "" {
		db, err = database.Connect(ctx, database.Config{DSN: cfg.DSN})
		if err != nil {
			return err
		}
		defer db.Close()
		log.Info().Msg("connected to postgres")
	} else {
		log.Warn().Msg("DSN not set: settlement disabled, analytics read through PostgREST")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable at startup, continuing with in-process fallbacks")
		}
	}

	var blobs storage.BlobStore
	switch cfg.StorageBackend {
	case "s3":
		blobs, err = storage.NewS3Store(ctx, storage.S3Options{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
		}, log)
		if err != nil {
			return err
		}
	default:
		blobs = storage.NewSupabaseStore(supa.Storage(), log)
	}

	// Stores
	profileStore := repository.NewProfileStore(supa)
	fundingStore := repository.NewFundingStore(supa)
	orgStore := repository.NewOrganizationStore(supa)

	// Caches
	analyticsMemo := cache.NewMemoizer("analytics", cfg.CacheTTL, rdb, log)
	walletMemo := cache.NewMemoizer("wallet", cfg.CacheTTL, rdb, log)
	events := cache.NewDedup("webhook", rdb, log)

	limiter := middleware.NewRateLimiter(rdb, log)
	go analyticsMemo.RunJanitor(ctx, janitorInterval)
	go walletMemo.RunJanitor(ctx, janitorInterval)
	go limiter.RunJanitor(ctx, janitorInterval)

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	// Services
	authSvc := services.NewAuthService(supa, profileStore, log)
	profileSvc := services.NewProfileService(profileStore, cfg.CacheTTL, log)
	fundingSvc := services.NewFundingService(fundingStore, log)
	orgSvc := services.NewOrganizationService(orgStore, log)
	mediaSvc := services.NewMediaService(blobs, profileSvc, log)
	walletSvc := services.NewWalletService(cfg.Providers(), nil, walletMemo, log)

	var analyticsSvc *services.AnalyticsService
	webhook := handlers.NewWebhookHandler("", nil)
	if db != nil {
		analyticsSvc = services.NewAnalyticsService(database.NewAnalyticsStore(db), fundingStore, analyticsMemo, log)
		settlement := services.NewSettlementService(database.NewSettlementStore(db), events, analyticsMemo, hub, log)
		webhook = handlers.NewWebhookHandler(cfg.WebhookSecret, settlement)
	} else {
		analyticsSvc = services.NewAnalyticsService(nil, fundingStore, analyticsMemo, log)
	}

	checks := map[string]handlers.Check{"supabase": supa.Ping, "postgres": nil, "redis": nil}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	origins := cfg.AllowedOrigins()
	if cfg.SiteURL != "" && !slices.Contains(origins, cfg.SiteURL) {
		origins = append(origins, cfg.SiteURL)
	}
	if len(origins) == 0 {
		return errors.New("CORS_ORIGINS or SITE_URL is required")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Metrics())
	r.Use(middleware.CORS(origins, handlers.SignatureHeader))

	routes{
		health:    handlers.NewHealthHandler(serviceName, version, checks),
		auth:      handlers.NewAuthHandler(authSvc, profileSvc, cfg.IsProduction()),
		profiles:  handlers.NewProfileHandler(profileSvc),
		media:     handlers.NewMediaHandler(mediaSvc),
		funding:   handlers.NewFundingHandler(fundingSvc),
		orgs:      handlers.NewOrganizationHandler(orgSvc),
		analytics: handlers.NewAnalyticsHandler(analyticsSvc),
		wallet:    handlers.NewWalletHandler(walletSvc, currency.NewConverter(rates)),
		webhook:   webhook,
		ws:        handlers.NewWebSocketHandler(hub, cfg.SupabaseJWTSecret, origins),
		limiter:   limiter,
		secret:    cfg.SupabaseJWTSecret,
	}.register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.WebDir != "" {
		serveWeb(r, cfg.WebDir, cfg.SupabaseJWTSecret)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-hub.Done()
	log.Info().
		Int("analytics_cached", analyticsMemo.Stats().Size).
		Int("wallet_cached", walletMemo.Stats().Size).
		Msg("server stopped")
	return nil
}

type routes struct {
	health    *handlers.HealthHandler
	auth      *handlers.AuthHandler
	profiles  *handlers.ProfileHandler
	media     *handlers.MediaHandler
	funding   *handlers.FundingHandler
	orgs      *handlers.OrganizationHandler
	analytics *handlers.AnalyticsHandler
	wallet    *handlers.WalletHandler
	webhook   *handlers.WebhookHandler
	ws        *handlers.WebSocketHandler
	limiter   *middleware.RateLimiter
	secret    string
}

func (rt routes) register(r *gin.Engine) {
	authed := middleware.Auth(rt.secret)
	optional := middleware.OptionalAuth(rt.secret)
	limit := rt.limiter.Limit

	api := r.Group("/api")
	{
		api.GET("/health", rt.health.Liveness)
		api.GET("/health/ready", rt.health.Readiness)

		auth := api.Group("/auth")
		{
			auth.POST("/register", rt.auth.Register)
			auth.POST("/login", limit(middleware.SignInLimit), rt.auth.Login)
			auth.POST("/logout", authed, rt.auth.Logout)
			auth.POST("/refresh", rt.auth.Refresh)
			auth.POST("/reset-password", rt.auth.ResetPassword)
			auth.GET("/session", authed, rt.auth.Session)
		}

		api.GET("/me", authed, rt.profiles.Me)
		api.POST("/profile/update", authed, limit(middleware.ProfileUpdateLimit), rt.profiles.Update)
		api.GET("/profiles", authed, limit(middleware.ProfileListLimit), rt.profiles.List)
		api.GET("/profiles/search", authed, limit(middleware.SearchLimit), rt.profiles.Search)
		api.GET("/profiles/:username", optional, rt.profiles.ByUsername)

		api.POST("/avatar", authed, rt.media.Avatar)
		api.POST("/banner", authed, rt.media.Banner)

		api.GET("/funding", authed, rt.funding.ListPages)
		api.POST("/funding", authed, limit(middleware.FundingCreateLimit), rt.funding.CreateTransaction)
		api.POST("/funding/pages", authed, limit(middleware.FundingCreateLimit), rt.funding.CreatePage)
		api.GET("/funding/pages/:id/transactions", authed, rt.funding.Transactions)

		api.GET("/organizations", authed, limit(middleware.OrganizationLimit), rt.orgs.List)
		api.POST("/organizations", authed, limit(middleware.OrganizationLimit), rt.orgs.Create)
		api.GET("/memberships", authed, limit(middleware.MembershipLimit), rt.orgs.Memberships)
		api.POST("/memberships", authed, limit(middleware.MembershipLimit), rt.orgs.AddMember)

		api.GET("/analytics/fundraising", authed, rt.analytics.Fundraising)
		api.GET("/wallet/:address", optional, rt.wallet.Lookup)
		api.GET("/currency/convert", rt.wallet.Convert)

		api.POST("/webhook/payment", rt.webhook.Payment)
		api.GET("/ws", optional, rt.ws.Serve)
	}
}

// serveWeb serves a built frontend from dir behind the route guard. Unknown
// paths fall back to index.html for client-side routing.
func serveWeb(r *gin.Engine, dir, secret string) {
	guard := middleware.RouteGuard(secret)
	index := filepath.Join(dir, "index.html")
	r.NoRoute(guard, func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "type": handlers.TypeNotFound})
			return
		}
		path := filepath.Join(dir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			c.File(path)
			return
		}
		c.File(index)
	})
}
