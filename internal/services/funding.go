package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"orangecat/internal/metrics"
	"orangecat/internal/models"
	"orangecat/internal/repository"
	"orangecat/internal/validation"
)

const maxTransactionAmount = 1_000_000

var (
	transactionCurrencies = []string{"BTC", "SATS", "USD"}
	paymentMethods        = []string{"bitcoin", "lightning", "on-chain"}
	pageStatuses          = []string{models.PageDraft, models.PageActive, models.PagePaused, models.PageCompleted}
)

type FundingService struct {
	repo FundingRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewFundingService(repo FundingRepository, log zerolog.Logger) *FundingService {
	return &FundingService{
		repo: repo,
		log:  log.With().Str("component", "funding").Logger(),
		now:  time.Now,
	}
}

func validateTransaction(req models.CreateTransactionRequest) (uuid.UUID, *models.ValidationError) {
	if req.FundingPageID == "" || req.Amount == nil || req.Currency == "" || req.PaymentMethod == "" {
		return uuid.Nil, models.Invalid("request", "All fields are required")
	}
	if a := *req.Amount; a <= 0 || a > maxTransactionAmount {
		return uuid.Nil, models.Invalid("amount", "Invalid amount: must be positive number less than 1M")
	}
	if !slices.Contains(transactionCurrencies, req.Currency) {
		return uuid.Nil, models.Invalid("currency", "Invalid currency. Allowed: BTC, SATS, USD")
	}
	if !slices.Contains(paymentMethods, req.PaymentMethod) {
		return uuid.Nil, models.Invalid("paymentMethod", "Invalid payment method")
	}
	id, err := uuid.Parse(req.FundingPageID)
	if err != nil {
		return uuid.Nil, models.Invalid("fundingPageId", "Invalid funding page id")
	}
	return id, nil
}

// CreateTransaction records a pending transaction on one of the caller's own
// active pages.
func (s *FundingService) CreateTransaction(ctx context.Context, token string, userID uuid.UUID, req models.CreateTransactionRequest) (models.Transaction, error) {
	pageID, verr := validateTransaction(req)
	if verr != nil {
		return models.Transaction{}, verr
	}

	page, err := s.repo.GetPage(ctx, token, pageID)
	if err != nil {
		return models.Transaction{}, err
	}
	if page.UserID != userID {
		s.log.Warn().
			Str("user_id", userID.String()).
			Str("page_id", pageID.String()).
			Msg("transaction attempt on another user's page")
		return models.Transaction{}, fmt.Errorf("create transaction: %w", models.ErrForbidden)
	}
	if page.Status != models.PageActive {
		return models.Transaction{}, models.ErrInactivePage
	}

	tx, err := s.repo.CreateTransaction(ctx, token, repository.NewTransaction{
		FundingPageID: pageID,
		UserID:        userID,
		Amount:        *req.Amount,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		Status:        models.TxPending,
		CreatedAt:     s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return models.Transaction{}, err
	}

	metrics.TransactionsCreatedTotal.WithLabelValues(tx.Currency, tx.PaymentMethod).Inc()
	s.log.Info().
		Str("transaction_id", tx.ID.String()).
		Str("user_id", userID.String()).
		Float64("amount", tx.Amount).
		Str("currency", tx.Currency).
		Msg("transaction created")
	return tx, nil
}

// ListPages lists the caller's pages. requestedUserID may name the caller
// and nobody else.
func (s *FundingService) ListPages(ctx context.Context, token string, userID uuid.UUID, requestedUserID, status string) ([]models.FundingPage, error) {
	if requestedUserID != "" && requestedUserID != userID.String() {
		s.log.Warn().Str("user_id", userID.String()).Msg("funding page listing for another user")
		return nil, fmt.Errorf("list funding pages: %w", models.ErrForbidden)
	}
	if status != "" && !slices.Contains(pageStatuses, status) {
		return nil, models.Invalid("status", "Invalid status")
	}
	return s.repo.ListPages(ctx, token, userID, status)
}

func (s *FundingService) CreatePage(ctx context.Context, token string, userID uuid.UUID, req models.CreatePageRequest) (models.FundingPage, error) {
	title := strings.TrimSpace(req.Title)
	switch n := len([]rune(title)); {
	case n == 0:
		return models.FundingPage{}, models.Invalid("title", "Title is required")
	case n > 100:
		return models.FundingPage{}, models.Invalid("title", "Title must be 100 characters or less")
	}
	if req.GoalAmount <= 0 {
		return models.FundingPage{}, models.Invalid("goal_amount", "Goal amount must be greater than zero")
	}
	if !slices.Contains(transactionCurrencies, req.Currency) {
		return models.FundingPage{}, models.Invalid("currency", "Invalid currency. Allowed: BTC, SATS, USD")
	}

	p := repository.NewPage{
		UserID:     userID,
		Title:      title,
		GoalAmount: req.GoalAmount,
		Currency:   req.Currency,
		Status:     models.PageDraft,
	}
	if req.Status != "" {
		p.Status = req.Status
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		p.Description = &d
	}
	if a := strings.TrimSpace(req.BitcoinAddress); a != "" {
		clean, verr := validation.CleanBitcoinAddress(a)
		if verr != nil {
			return models.FundingPage{}, verr
		}
		p.BitcoinAddress = &clean
	}
	if a := strings.TrimSpace(req.LightningAddress); a != "" {
		if verr := validation.LightningAddress(a); verr != nil {
			return models.FundingPage{}, verr
		}
		p.LightningAddress = &a
	}
	ts := s.now().UTC().Format(time.RFC3339)
	p.CreatedAt, p.UpdatedAt = ts, ts

	page, err := s.repo.CreatePage(ctx, token, p)
	if err != nil {
		return models.FundingPage{}, err
	}
	s.log.Info().Str("page_id", page.ID.String()).Str("user_id", userID.String()).Msg("funding page created")
	return page, nil
}

// ListTransactions returns the transactions of a page the caller owns.
func (s *FundingService) ListTransactions(ctx context.Context, token string, userID, pageID uuid.UUID) ([]models.Transaction, error) {
	page, err := s.repo.GetPage(ctx, token, pageID)
	if err != nil {
		return nil, err
	}
	if page.UserID != userID {
		return nil, fmt.Errorf("list transactions: %w", models.ErrForbidden)
	}
	return s.repo.ListTransactions(ctx, token, pageID)
}
