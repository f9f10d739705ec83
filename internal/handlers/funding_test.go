package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"orangecat/internal/mocks"
	"orangecat/internal/models"
)

func fundingRouter(funding *mocks.MockFundingService) http.Handler {
	h := NewFundingHandler(funding)
	r := newRouter()
	r.GET("/api/funding", requireAuth(), h.ListPages)
	r.POST("/api/funding", requireAuth(), h.CreateTransaction)
	r.POST("/api/funding/pages", requireAuth(), h.CreatePage)
	r.GET("/api/funding/pages/:id/transactions", requireAuth(), h.Transactions)
	return r
}

func TestCreateTransaction(t *testing.T) {
	funding := &mocks.MockFundingService{}
	user, pageID, txID := uuid.New(), uuid.New(), uuid.New()
	amount := 0.01
	funding.On("CreateTransaction", mock.Anything, mock.Anything, user, models.CreateTransactionRequest{
		FundingPageID: pageID.String(), Amount: &amount, Currency: "BTC", PaymentMethod: "lightning",
	}).Return(models.Transaction{ID: txID, Amount: amount, Currency: "BTC", Status: models.TxPending, CreatedAt: "2026-03-01T10:00:00Z"}, nil)

	w := do(t, fundingRouter(funding), http.MethodPost, "/api/funding", map[string]any{
		"fundingPageId": pageID, "amount": 0.01, "currency": "BTC", "paymentMethod": "lightning",
	}, user)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Transaction created successfully", body["message"])
	tx := body["transaction"].(map[string]any)
	assert.Equal(t, txID.String(), tx["id"])
	assert.Equal(t, "pending", tx["status"])
	assert.Equal(t, "2026-03-01T10:00:00Z", tx["created_at"])
}

func TestCreateTransaction_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", models.Invalid("amount", "Invalid amount: must be positive number less than 1M"), http.StatusBadRequest},
		{"missing page", models.ErrNotFound, http.StatusNotFound},
		{"not owner", models.ErrForbidden, http.StatusForbidden},
		{"inactive", models.ErrInactivePage, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			funding := &mocks.MockFundingService{}
			funding.On("CreateTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(models.Transaction{}, tt.err)
			w := do(t, fundingRouter(funding), http.MethodPost, "/api/funding", `{}`, uuid.New())
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestListPages_ForwardsFilters(t *testing.T) {
	funding := &mocks.MockFundingService{}
	user, other := uuid.New(), uuid.New()
	funding.On("ListPages", mock.Anything, mock.Anything, user, other.String(), "active").Return(nil, models.ErrForbidden)

	w := do(t, fundingRouter(funding), http.MethodGet, "/api/funding?userId="+other.String()+"&status=active", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreatePage(t *testing.T) {
	funding := &mocks.MockFundingService{}
	user := uuid.New()
	funding.On("CreatePage", mock.Anything, mock.Anything, user, mock.MatchedBy(func(r models.CreatePageRequest) bool {
		return r.Title == "Relay fund" && r.GoalAmount == 0.5
	})).Return(models.FundingPage{ID: uuid.New(), Title: "Relay fund"}, nil)

	w := do(t, fundingRouter(funding), http.MethodPost, "/api/funding/pages",
		map[string]any{"title": "Relay fund", "goal_amount": 0.5, "currency": "BTC"}, user)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Relay fund", decode(t, w)["fundingPage"].(map[string]any)["title"])
}

func TestCreatePage_BindingRejectsBadAddress(t *testing.T) {
	funding := &mocks.MockFundingService{}
	w := do(t, fundingRouter(funding), http.MethodPost, "/api/funding/pages", map[string]any{
		"title": "Relay fund", "goal_amount": 0.5, "currency": "BTC", "bitcoin_address": "tb1qnotmainnet",
	}, uuid.New())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	funding.AssertNotCalled(t, "CreatePage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransactions_InvalidPageID(t *testing.T) {
	w := do(t, fundingRouter(&mocks.MockFundingService{}), http.MethodGet, "/api/funding/pages/not-a-uuid/transactions", nil, uuid.New())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
