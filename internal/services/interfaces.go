// Package services holds the API's business rules. Handlers depend on the
// I*Service interfaces; the services depend on the narrow store interfaces
// below so they can be tested without Supabase.
package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"orangecat/internal/database"
	"orangecat/internal/models"
	"orangecat/internal/repository"
)

// IAuthService signs users in and out through GoTrue.
type IAuthService interface {
	SignUp(ctx context.Context, req models.RegisterRequest) (models.Registration, error)
	SignIn(ctx context.Context, email, password string) (models.Session, error)
	SignOut(ctx context.Context, token string) error
	Refresh(ctx context.Context, refreshToken string) (models.Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	CurrentUser(ctx context.Context, token string) (models.AuthUser, error)
}

type IProfileService interface {
	Get(ctx context.Context, token string, id uuid.UUID) (models.Profile, error)
	GetByUsername(ctx context.Context, token, username string) (models.Profile, error)
	Update(ctx context.Context, token string, userID uuid.UUID, req models.ProfileUpdate) (models.Profile, error)
	List(ctx context.Context, token string, opts models.ListProfilesOptions) ([]models.Profile, models.Pagination, error)
	Search(ctx context.Context, token, q string, limit int) ([]models.Profile, error)
	SetAvatar(ctx context.Context, token string, userID uuid.UUID, url string) (models.Profile, error)
	SetBanner(ctx context.Context, token string, userID uuid.UUID, url string) (models.Profile, error)
}

type IFundingService interface {
	CreateTransaction(ctx context.Context, token string, userID uuid.UUID, req models.CreateTransactionRequest) (models.Transaction, error)
	ListPages(ctx context.Context, token string, userID uuid.UUID, requestedUserID, status string) ([]models.FundingPage, error)
	CreatePage(ctx context.Context, token string, userID uuid.UUID, req models.CreatePageRequest) (models.FundingPage, error)
	ListTransactions(ctx context.Context, token string, userID, pageID uuid.UUID) ([]models.Transaction, error)
}

type IOrganizationService interface {
	List(ctx context.Context, token string, opts models.ListOrganizationsOptions) ([]models.Organization, models.PagePagination, error)
	Create(ctx context.Context, token string, userID uuid.UUID, req models.CreateOrganizationRequest) (models.Organization, error)
	ListMemberships(ctx context.Context, token string, userID uuid.UUID, f models.MembershipFilter) ([]models.Membership, error)
	AddMember(ctx context.Context, token string, userID uuid.UUID, req models.CreateMembershipRequest) (models.Membership, error)
}

type ISettlementService interface {
	Apply(ctx context.Context, event models.PaymentEvent) (string, error)
}

type IAnalyticsService interface {
	Fundraising(ctx context.Context, token string, userID uuid.UUID) models.FeatureMetrics
}

type IMediaService interface {
	Upload(ctx context.Context, token string, userID uuid.UUID, kind models.MediaKind, r io.Reader) (models.Upload, error)
}

type IWalletService interface {
	Lookup(ctx context.Context, address string) (models.WalletData, error)
}

// AuthGateway is the GoTrue surface the auth service uses.
type AuthGateway interface {
	SignUp(ctx context.Context, email, password string, data map[string]any) (models.AuthUser, *models.Session, error)
	SignIn(ctx context.Context, email, password string) (models.Session, error)
	SignOut(ctx context.Context, token string) error
	Refresh(ctx context.Context, refreshToken string) (models.Session, error)
	Recover(ctx context.Context, email string) error
	User(ctx context.Context, token string) (models.AuthUser, error)
}

// ProfileRepository is implemented by repository.ProfileStore.
type ProfileRepository interface {
	GetByID(ctx context.Context, token string, id uuid.UUID) (models.ProfileRow, error)
	GetByUsername(ctx context.Context, token, username string) (models.ProfileRow, error)
	UsernameTaken(ctx context.Context, token, username string, exclude uuid.UUID) (bool, error)
	Update(ctx context.Context, token string, id uuid.UUID, row map[string]any) (models.ProfileRow, error)
	Upsert(ctx context.Context, row models.ProfileRow) error
	List(ctx context.Context, token string, opts models.ListProfilesOptions) ([]models.ProfileRow, int64, error)
	Search(ctx context.Context, token, q string, limit int) ([]models.ProfileRow, error)
}

// FundingRepository is implemented by repository.FundingStore.
type FundingRepository interface {
	GetPage(ctx context.Context, token string, id uuid.UUID) (models.FundingPage, error)
	ListPages(ctx context.Context, token string, userID uuid.UUID, status string) ([]models.FundingPage, error)
	CreatePage(ctx context.Context, token string, p repository.NewPage) (models.FundingPage, error)
	CreateTransaction(ctx context.Context, token string, t repository.NewTransaction) (models.Transaction, error)
	ListTransactions(ctx context.Context, token string, pageID uuid.UUID) ([]models.Transaction, error)
}

// OrganizationRepository is implemented by repository.OrganizationStore.
type OrganizationRepository interface {
	SlugTaken(ctx context.Context, token, slug string) (bool, error)
	List(ctx context.Context, token string, opts models.ListOrganizationsOptions) ([]models.Organization, int64, error)
	Create(ctx context.Context, token string, o repository.NewOrganization) (models.Organization, error)
	GetMembership(ctx context.Context, token string, orgID, profileID uuid.UUID) (models.Membership, error)
	ListMemberships(ctx context.Context, token string, f models.MembershipFilter) ([]models.Membership, error)
	CreateMembership(ctx context.Context, token string, m repository.NewMembership) (models.Membership, error)
}

// SettlementRepository is implemented by database.SettlementStore.
type SettlementRepository interface {
	Confirm(ctx context.Context, txID uuid.UUID, chainTxID string) (database.Settlement, error)
	Fail(ctx context.Context, txID uuid.UUID) (models.Transaction, error)
}

// AnalyticsRepository is implemented by database.AnalyticsStore.
type AnalyticsRepository interface {
	CampaignStats(ctx context.Context, userID uuid.UUID) (database.CampaignStats, error)
	SupporterStats(ctx context.Context, userID uuid.UUID) (database.SupporterStats, error)
	RecentDonations(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
}

// Memo is implemented by cache.Memoizer.
type Memo interface {
	Do(ctx context.Context, key string, dst any, fn func(context.Context) (any, error)) error
	Invalidate(ctx context.Context, prefix string)
}

// Deduplicator is implemented by cache.Dedup.
type Deduplicator interface {
	FirstSeen(ctx context.Context, key string, ttl time.Duration) bool
	Forget(ctx context.Context, key string)
}

// AlertPublisher delivers donation alerts to a connected page owner.
type AlertPublisher interface {
	Publish(userID uuid.UUID, d models.Donation)
}
