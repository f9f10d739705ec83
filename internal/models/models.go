package models

import (
	"github.com/google/uuid"
)

// json tags follow the Supabase column names; db tags are for sqlx.
// Timestamps stay strings (RFC 3339) the way PostgREST returns them.

// ProfileRow mirrors a row of the profiles table. The display name lives in
// the full_name column.
type ProfileRow struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Username         *string   `json:"username" db:"username"`
	FullName         *string   `json:"full_name" db:"full_name"`
	Bio              *string   `json:"bio" db:"bio"`
	AvatarURL        *string   `json:"avatar_url" db:"avatar_url"`
	BannerURL        *string   `json:"banner_url" db:"banner_url"`
	Website          *string   `json:"website" db:"website"`
	BitcoinAddress   *string   `json:"bitcoin_address" db:"bitcoin_address"`
	LightningAddress *string   `json:"lightning_address" db:"lightning_address"`
	CreatedAt        string    `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt        string    `json:"updated_at,omitempty" db:"updated_at"`
}

// Profile is the public shape of a profile.
type Profile struct {
	ID               uuid.UUID `json:"id"`
	Username         *string   `json:"username"`
	DisplayName      *string   `json:"display_name"`
	Bio              *string   `json:"bio"`
	AvatarURL        *string   `json:"avatar_url"`
	BannerURL        *string   `json:"banner_url"`
	Website          *string   `json:"website"`
	BitcoinAddress   *string   `json:"bitcoin_address"`
	LightningAddress *string   `json:"lightning_address"`
	CreatedAt        string    `json:"created_at,omitempty"`
	UpdatedAt        string    `json:"updated_at,omitempty"`
}

// HasIdentity reports whether the profile has a display name or username worth listing.
func (p Profile) HasIdentity() bool {
	return nonEmpty(p.DisplayName) || nonEmpty(p.Username)
}

// Funding page statuses.
const (
	PageDraft     = "draft"
	PageActive    = "active"
	PagePaused    = "paused"
	PageCompleted = "completed"
)

// FundingPage is a fundraising campaign owned by one user.
type FundingPage struct {
	ID               uuid.UUID `json:"id" db:"id"`
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	Title            string    `json:"title" db:"title"`
	Description      *string   `json:"description" db:"description"`
	GoalAmount       float64   `json:"goal_amount" db:"goal_amount"`
	RaisedAmount     float64   `json:"raised_amount" db:"raised_amount"`
	Currency         string    `json:"currency" db:"currency"`
	Status           string    `json:"status" db:"status"`
	BitcoinAddress   *string   `json:"bitcoin_address" db:"bitcoin_address"`
	LightningAddress *string   `json:"lightning_address" db:"lightning_address"`
	CreatedAt        string    `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt        string    `json:"updated_at,omitempty" db:"updated_at"`
}

// Transaction statuses.
const (
	TxPending   = "pending"
	TxConfirmed = "confirmed"
	TxFailed    = "failed"
)

// Transaction is a donation towards a funding page.
type Transaction struct {
	ID            uuid.UUID `json:"id" db:"id"`
	FundingPageID uuid.UUID `json:"funding_page_id" db:"funding_page_id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	Amount        float64   `json:"amount" db:"amount"`
	Currency      string    `json:"currency" db:"currency"`
	PaymentMethod string    `json:"payment_method" db:"payment_method"`
	Status        string    `json:"status" db:"status"`
	TxID          *string   `json:"tx_id" db:"tx_id"`
	CreatedAt     string    `json:"created_at,omitempty" db:"created_at"`
}

// Donation is what a page owner sees when a transaction is confirmed.
type Donation struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	FundingPageID uuid.UUID `json:"funding_page_id"`
	PageTitle     string    `json:"page_title"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method"`
	RaisedAmount  float64   `json:"raised_amount"`
	ConfirmedAt   string    `json:"confirmed_at"`
}

// AuthUser is the subset of the GoTrue user the API exposes.
type AuthUser struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    string         `json:"created_at,omitempty"`
}

// Session is a GoTrue session handed back to the client.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	User         AuthUser `json:"user"`
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
