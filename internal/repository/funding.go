package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"orangecat/internal/models"
)

const (
	pagesTable        = "funding_pages"
	transactionsTable = "transactions"

	pageColumns        = "id,user_id,title,description,goal_amount,raised_amount,currency,status,bitcoin_address,lightning_address,created_at,updated_at"
	transactionColumns = "id,funding_page_id,user_id,amount,currency,payment_method,status,tx_id,created_at"
)

type FundingStore struct {
	rest RestProvider
}

func NewFundingStore(rest RestProvider) *FundingStore {
	return &FundingStore{rest: rest}
}

func (s *FundingStore) GetPage(ctx context.Context, token string, id uuid.UUID) (models.FundingPage, error) {
	var pages []models.FundingPage
	_, err := s.rest.Rest(ctx, token).
		From(pagesTable).
		Select(pageColumns, "", false).
		Eq("id", id.String()).
		Limit(1, "").
		ExecuteTo(&pages)
	if err != nil {
		return models.FundingPage{}, restErr("get funding page", err)
	}
	if len(pages) == 0 {
		return models.FundingPage{}, fmt.Errorf("get funding page: %w", models.ErrNotFound)
	}
	return pages[0], nil
}

// ListPages returns the pages owned by userID, optionally narrowed to one status.
func (s *FundingStore) ListPages(ctx context.Context, token string, userID uuid.UUID, status string) ([]models.FundingPage, error) {
	q := s.rest.Rest(ctx, token).
		From(pagesTable).
		Select(pageColumns, "", false).
		Eq("user_id", userID.String())
	if status != "" {
		q = q.Eq("status", status)
	}

	pages := []models.FundingPage{}
	if _, err := q.Order("created_at", newestFirst).ExecuteTo(&pages); err != nil {
		return nil, restErr("list funding pages", err)
	}
	return pages, nil
}

// NewPage is the insert payload for a funding page.
type NewPage struct {
	UserID           uuid.UUID `json:"user_id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description,omitempty"`
	GoalAmount       float64   `json:"goal_amount"`
	Currency         string    `json:"currency"`
	Status           string    `json:"status"`
	BitcoinAddress   *string   `json:"bitcoin_address,omitempty"`
	LightningAddress *string   `json:"lightning_address,omitempty"`
	CreatedAt        string    `json:"created_at"`
	UpdatedAt        string    `json:"updated_at"`
}

func (s *FundingStore) CreatePage(ctx context.Context, token string, p NewPage) (models.FundingPage, error) {
	var pages []models.FundingPage
	_, err := s.rest.Rest(ctx, token).
		From(pagesTable).
		Insert(p, false, "", "representation", "").
		ExecuteTo(&pages)
	if err != nil {
		return models.FundingPage{}, restErr("create funding page", err)
	}
	if len(pages) == 0 {
		return models.FundingPage{}, fmt.Errorf("create funding page: %w", models.ErrUpstream)
	}
	return pages[0], nil
}

// NewTransaction is the insert payload for a pending transaction.
type NewTransaction struct {
	FundingPageID uuid.UUID `json:"funding_page_id"`
	UserID        uuid.UUID `json:"user_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	CreatedAt     string    `json:"created_at"`
}

func (s *FundingStore) CreateTransaction(ctx context.Context, token string, t NewTransaction) (models.Transaction, error) {
	var txs []models.Transaction
	_, err := s.rest.Rest(ctx, token).
		From(transactionsTable).
		Insert(t, false, "", "representation", "").
		ExecuteTo(&txs)
	if err != nil {
		return models.Transaction{}, restErr("create transaction", err)
	}
	if len(txs) == 0 {
		return models.Transaction{}, fmt.Errorf("create transaction: %w", models.ErrUpstream)
	}
	return txs[0], nil
}

func (s *FundingStore) ListTransactions(ctx context.Context, token string, pageID uuid.UUID) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	_, err := s.rest.Rest(ctx, token).
		From(transactionsTable).
		Select(transactionColumns, "", false).
		Eq("funding_page_id", pageID.String()).
		Order("created_at", newestFirst).
		ExecuteTo(&txs)
	if err != nil {
		return nil, restErr("list transactions", err)
	}
	return txs, nil
}
