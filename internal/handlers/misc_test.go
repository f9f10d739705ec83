package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"orangecat/internal/currency"
	"orangecat/internal/middleware"
	"orangecat/internal/mocks"
	"orangecat/internal/models"
	ws "orangecat/internal/websocket"
)

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("liveness", func(t *testing.T) {
		r := newRouter()
		r.GET("/api/health", NewHealthHandler("orangecat-api", "1.2.3", nil).Liveness)
		w := do(t, r, http.MethodGet, "/api/health", nil, uuid.Nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "1.2.3", body["version"])
	})

	t.Run("ready with optional deps disabled", func(t *testing.T) {
		r := newRouter()
		r.GET("/ready", NewHealthHandler("s", "v", map[string]Check{"supabase": ok, "postgres": nil, "redis": nil}).Readiness)
		w := do(t, r, http.MethodGet, "/ready", nil, uuid.Nil)
		require.Equal(t, http.StatusOK, w.Code)
		deps := decode(t, w)["dependencies"].(map[string]any)
		assert.Equal(t, "disabled", deps["redis"].(map[string]any)["status"])
	})

	t.Run("degraded", func(t *testing.T) {
		r := newRouter()
		r.GET("/ready", NewHealthHandler("s", "v", map[string]Check{"supabase": ok, "redis": down}).Readiness)
		w := do(t, r, http.MethodGet, "/ready", nil, uuid.Nil)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := decode(t, w)
		assert.Equal(t, "degraded", body["status"])
		redis := body["dependencies"].(map[string]any)["redis"].(map[string]any)
		assert.Equal(t, "unhealthy", redis["status"])
		assert.Equal(t, "unreachable", redis["reason"])
		assert.NotContains(t, w.Body.String(), "connection refused")
	})

	t.Run("slow dependency reports timeout", func(t *testing.T) {
		slow := func(ctx context.Context) error {
			return fmt.Errorf("dial 10.0.0.5:5432: %w", context.DeadlineExceeded)
		}
		r := newRouter()
		r.GET("/ready", NewHealthHandler("s", "v", map[string]Check{"postgres": slow}).Readiness)
		w := do(t, r, http.MethodGet, "/ready", nil, uuid.Nil)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		pg := decode(t, w)["dependencies"].(map[string]any)["postgres"].(map[string]any)
		assert.Equal(t, "timeout", pg["reason"])
		assert.NotContains(t, w.Body.String(), "10.0.0.5")
	})
}

func walletRouter(wallets *mocks.MockWalletService) http.Handler {
	rates, _ := currency.ParseRates("100000", "0.9")
	h := NewWalletHandler(wallets, currency.NewConverter(rates))
	r := newRouter()
	r.GET("/api/wallet/:address", h.Lookup)
	r.GET("/api/currency/convert", h.Convert)
	return r
}

func TestWalletLookup(t *testing.T) {
	wallets := &mocks.MockWalletService{}
	wallets.On("Lookup", mock.Anything, "bc1qgood").Return(models.WalletData{Address: "bc1qgood", Display: "1,000 sats"}, nil)
	wallets.On("Lookup", mock.Anything, "bad").Return(models.WalletData{}, models.Invalid("address", "Invalid Bitcoin address format"))

	w := do(t, walletRouter(wallets), http.MethodGet, "/api/wallet/bc1qgood", nil, uuid.Nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1,000 sats", decode(t, w)["display"])

	w = do(t, walletRouter(wallets), http.MethodGet, "/api/wallet/bad", nil, uuid.Nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCurrencyConvert(t *testing.T) {
	r := walletRouter(&mocks.MockWalletService{})

	w := do(t, r, http.MethodGet, "/api/currency/convert?amount=150000&unit=sats", nil, uuid.Nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "0.0015", body["bitcoin"])
	assert.Equal(t, "150", body["usd"])
	assert.Equal(t, "0.001500 BTC", body["display"])

	w = do(t, r, http.MethodGet, "/api/currency/convert?amount=0.5&unit=BTC", nil, uuid.Nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 50000000, decode(t, w)["satoshis"])

	w = do(t, r, http.MethodGet, "/api/currency/convert?amount=90&unit=chf", nil, uuid.Nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "0.001", body["bitcoin"])
	assert.EqualValues(t, 100000, body["satoshis"])
	assert.Equal(t, "100", body["usd"])
	assert.Equal(t, "$100.00", body["usdDisplay"])
	assert.Equal(t, "CHF 90.00", body["chfDisplay"])

	w = do(t, r, http.MethodGet, "/api/currency/convert?amount=2100000000000000&unit=sats", nil, uuid.Nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "21000000", decode(t, w)["bitcoin"])

	for _, q := range []string{
		"amount=abc",
		"amount=-1",
		"amount=1.5&unit=sats",
		"amount=1&unit=eur",
		"amount=22000000&unit=btc",
		"amount=2100000000000001&unit=sats",
		"amount=18446744073709551621&unit=sats",
		"amount=3000000000000&unit=usd",
	} {
		w = do(t, r, http.MethodGet, "/api/currency/convert?"+q, nil, uuid.Nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestAnalyticsFundraising(t *testing.T) {
	analytics := &mocks.MockAnalyticsService{}
	user := uuid.New()
	analytics.On("Fundraising", mock.Anything, mock.Anything, user).Return(models.FeatureMetrics{
		IsEnabled: true,
		Stats:     map[string]models.MetricValue{"totalCampaigns": {Value: 3, Confidence: models.ConfidenceHigh}},
	})

	r := newRouter()
	r.GET("/api/analytics/fundraising", requireAuth(), NewAnalyticsHandler(analytics).Fundraising)
	w := do(t, r, http.MethodGet, "/api/analytics/fundraising", nil, user)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["stats"].(map[string]any)
	assert.EqualValues(t, 3, stats["totalCampaigns"].(map[string]any)["value"])
}

func TestWebSocket(t *testing.T) {
	hub := ws.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	defer func() {
		cancel()
		<-hub.Done()
	}()

	r := newRouter()
	r.GET("/api/ws", middleware.OptionalAuth(jwtSecret), NewWebSocketHandler(hub, jwtSecret, []string{"http://localhost:3000"}).Serve)
	srv := httptest.NewServer(r)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"

	t.Run("unauthenticated", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("foreign origin", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token="+tokenFor(t, uuid.New()), http.Header{"Origin": {"https://evil.example"}})
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("receives alerts", func(t *testing.T) {
		user := uuid.New()
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+tokenFor(t, user), http.Header{"Origin": {"http://localhost:3000"}})
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
		hub.Publish(user, models.Donation{PageTitle: "Relay", Amount: 0.1})

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(msg), `"type":"donation"`)
	})
}
