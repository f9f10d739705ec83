package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"orangecat/internal/models"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, req models.RegisterRequest) (models.Registration, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Registration), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *MockAuthService) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (models.Session, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, token string) (models.AuthUser, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.AuthUser), args.Error(1)
}

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, token string, id uuid.UUID) (models.Profile, error) {
	args := m.Called(ctx, token, id)
	return args.Get(0).(models.Profile), args.Error(1)
}

func (m *MockProfileService) GetByUsername(ctx context.Context, token, username string) (models.Profile, error) {
	args := m.Called(ctx, token, username)
	return args.Get(0).(models.Profile), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, token string, userID uuid.UUID, req models.ProfileUpdate) (models.Profile, error) {
	args := m.Called(ctx, token, userID, req)
	return args.Get(0).(models.Profile), args.Error(1)
}

func (m *MockProfileService) List(ctx context.Context, token string, opts models.ListProfilesOptions) ([]models.Profile, models.Pagination, error) {
	args := m.Called(ctx, token, opts)
	profiles, _ := args.Get(0).([]models.Profile)
	return profiles, args.Get(1).(models.Pagination), args.Error(2)
}

func (m *MockProfileService) Search(ctx context.Context, token, q string, limit int) ([]models.Profile, error) {
	args := m.Called(ctx, token, q, limit)
	profiles, _ := args.Get(0).([]models.Profile)
	return profiles, args.Error(1)
}

func (m *MockProfileService) SetAvatar(ctx context.Context, token string, userID uuid.UUID, url string) (models.Profile, error) {
	args := m.Called(ctx, token, userID, url)
	return args.Get(0).(models.Profile), args.Error(1)
}

func (m *MockProfileService) SetBanner(ctx context.Context, token string, userID uuid.UUID, url string) (models.Profile, error) {
	args := m.Called(ctx, token, userID, url)
	return args.Get(0).(models.Profile), args.Error(1)
}

type MockFundingService struct {
	mock.Mock
}

func (m *MockFundingService) CreateTransaction(ctx context.Context, token string, userID uuid.UUID, req models.CreateTransactionRequest) (models.Transaction, error) {
	args := m.Called(ctx, token, userID, req)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *MockFundingService) ListPages(ctx context.Context, token string, userID uuid.UUID, requestedUserID, status string) ([]models.FundingPage, error) {
	args := m.Called(ctx, token, userID, requestedUserID, status)
	pages, _ := args.Get(0).([]models.FundingPage)
	return pages, args.Error(1)
}

func (m *MockFundingService) CreatePage(ctx context.Context, token string, userID uuid.UUID, req models.CreatePageRequest) (models.FundingPage, error) {
	args := m.Called(ctx, token, userID, req)
	return args.Get(0).(models.FundingPage), args.Error(1)
}

func (m *MockFundingService) ListTransactions(ctx context.Context, token string, userID, pageID uuid.UUID) ([]models.Transaction, error) {
	args := m.Called(ctx, token, userID, pageID)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}

type MockOrganizationService struct {
	mock.Mock
}

func (m *MockOrganizationService) List(ctx context.Context, token string, opts models.ListOrganizationsOptions) ([]models.Organization, models.PagePagination, error) {
	args := m.Called(ctx, token, opts)
	orgs, _ := args.Get(0).([]models.Organization)
	return orgs, args.Get(1).(models.PagePagination), args.Error(2)
}

func (m *MockOrganizationService) Create(ctx context.Context, token string, userID uuid.UUID, req models.CreateOrganizationRequest) (models.Organization, error) {
	args := m.Called(ctx, token, userID, req)
	return args.Get(0).(models.Organization), args.Error(1)
}

func (m *MockOrganizationService) ListMemberships(ctx context.Context, token string, userID uuid.UUID, f models.MembershipFilter) ([]models.Membership, error) {
	args := m.Called(ctx, token, userID, f)
	ms, _ := args.Get(0).([]models.Membership)
	return ms, args.Error(1)
}

func (m *MockOrganizationService) AddMember(ctx context.Context, token string, userID uuid.UUID, req models.CreateMembershipRequest) (models.Membership, error) {
	args := m.Called(ctx, token, userID, req)
	return args.Get(0).(models.Membership), args.Error(1)
}

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) Apply(ctx context.Context, event models.PaymentEvent) (string, error) {
	args := m.Called(ctx, event)
	return args.String(0), args.Error(1)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Fundraising(ctx context.Context, token string, userID uuid.UUID) models.FeatureMetrics {
	return m.Called(ctx, token, userID).Get(0).(models.FeatureMetrics)
}

type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) Upload(ctx context.Context, token string, userID uuid.UUID, kind models.MediaKind, r io.Reader) (models.Upload, error) {
	args := m.Called(ctx, token, userID, kind, r)
	return args.Get(0).(models.Upload), args.Error(1)
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) Lookup(ctx context.Context, address string) (models.WalletData, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(models.WalletData), args.Error(1)
}
