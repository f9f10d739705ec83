package models

import "github.com/google/uuid"

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	Username    string `json:"username" binding:"omitempty,username"`
	DisplayName string `json:"display_name" binding:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CreateTransactionRequest is validated by FundingService so the API can
// report the same messages regardless of which field is wrong.
type CreateTransactionRequest struct {
	FundingPageID string   `json:"fundingPageId"`
	Amount        *float64 `json:"amount"`
	Currency      string   `json:"currency"`
	PaymentMethod string   `json:"paymentMethod"`
}

type CreatePageRequest struct {
	Title            string  `json:"title" binding:"required,min=1,max=100"`
	Description      string  `json:"description" binding:"max=2000"`
	GoalAmount       float64 `json:"goal_amount" binding:"required,gt=0"`
	Currency         string  `json:"currency" binding:"required,oneof=BTC SATS USD"`
	Status           string  `json:"status" binding:"omitempty,oneof=draft active"`
	BitcoinAddress   string  `json:"bitcoin_address" binding:"omitempty,btcaddr"`
	LightningAddress string  `json:"lightning_address" binding:"omitempty,lnaddr"`
}

// PaymentEvent is the body of a signed payment confirmation.
type PaymentEvent struct {
	EventID       string    `json:"event_id" binding:"required"`
	TransactionID uuid.UUID `json:"transaction_id" binding:"required"`
	Status        string    `json:"status" binding:"required,oneof=confirmed failed"`
	ChainTxID     string    `json:"chain_tx_id"`
}

// ListProfilesOptions controls profile listing.
type ListProfilesOptions struct {
	Limit  int
	Offset int
	Sort   string
}

// Pagination is echoed back with list responses.
type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}
