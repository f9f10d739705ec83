// Package mocks provides testify mocks for the service and store interfaces.
package mocks

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"orangecat/internal/database"
	"orangecat/internal/models"
	"orangecat/internal/repository"
)

// MockAuthGateway mocks services.AuthGateway.
type MockAuthGateway struct {
	mock.Mock
}

func (m *MockAuthGateway) SignUp(ctx context.Context, email, password string, data map[string]any) (models.AuthUser, *models.Session, error) {
	args := m.Called(ctx, email, password, data)
	var sess *models.Session
	if s := args.Get(1); s != nil {
		sess = s.(*models.Session)
	}
	return args.Get(0).(models.AuthUser), sess, args.Error(2)
}

func (m *MockAuthGateway) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *MockAuthGateway) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthGateway) Refresh(ctx context.Context, refreshToken string) (models.Session, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *MockAuthGateway) Recover(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthGateway) User(ctx context.Context, token string) (models.AuthUser, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.AuthUser), args.Error(1)
}

// MockProfileRepository mocks services.ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByID(ctx context.Context, token string, id uuid.UUID) (models.ProfileRow, error) {
	args := m.Called(ctx, token, id)
	return args.Get(0).(models.ProfileRow), args.Error(1)
}

func (m *MockProfileRepository) GetByUsername(ctx context.Context, token, username string) (models.ProfileRow, error) {
	args := m.Called(ctx, token, username)
	return args.Get(0).(models.ProfileRow), args.Error(1)
}

func (m *MockProfileRepository) UsernameTaken(ctx context.Context, token, username string, exclude uuid.UUID) (bool, error) {
	args := m.Called(ctx, token, username, exclude)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileRepository) Update(ctx context.Context, token string, id uuid.UUID, row map[string]any) (models.ProfileRow, error) {
	args := m.Called(ctx, token, id, row)
	return args.Get(0).(models.ProfileRow), args.Error(1)
}

func (m *MockProfileRepository) Upsert(ctx context.Context, row models.ProfileRow) error {
	return m.Called(ctx, row).Error(0)
}

func (m *MockProfileRepository) List(ctx context.Context, token string, opts models.ListProfilesOptions) ([]models.ProfileRow, int64, error) {
	args := m.Called(ctx, token, opts)
	rows, _ := args.Get(0).([]models.ProfileRow)
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *MockProfileRepository) Search(ctx context.Context, token, q string, limit int) ([]models.ProfileRow, error) {
	args := m.Called(ctx, token, q, limit)
	rows, _ := args.Get(0).([]models.ProfileRow)
	return rows, args.Error(1)
}

// MockFundingRepository mocks services.FundingRepository.
type MockFundingRepository struct {
	mock.Mock
}

func (m *MockFundingRepository) GetPage(ctx context.Context, token string, id uuid.UUID) (models.FundingPage, error) {
	args := m.Called(ctx, token, id)
	return args.Get(0).(models.FundingPage), args.Error(1)
}

func (m *MockFundingRepository) ListPages(ctx context.Context, token string, userID uuid.UUID, status string) ([]models.FundingPage, error) {
	args := m.Called(ctx, token, userID, status)
	pages, _ := args.Get(0).([]models.FundingPage)
	return pages, args.Error(1)
}

func (m *MockFundingRepository) CreatePage(ctx context.Context, token string, p repository.NewPage) (models.FundingPage, error) {
	args := m.Called(ctx, token, p)
	return args.Get(0).(models.FundingPage), args.Error(1)
}

func (m *MockFundingRepository) CreateTransaction(ctx context.Context, token string, t repository.NewTransaction) (models.Transaction, error) {
	args := m.Called(ctx, token, t)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *MockFundingRepository) ListTransactions(ctx context.Context, token string, pageID uuid.UUID) ([]models.Transaction, error) {
	args := m.Called(ctx, token, pageID)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}

// MockSettlementRepository mocks services.SettlementRepository.
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) Confirm(ctx context.Context, txID uuid.UUID, chainTxID string) (database.Settlement, error) {
	args := m.Called(ctx, txID, chainTxID)
	return args.Get(0).(database.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) Fail(ctx context.Context, txID uuid.UUID) (models.Transaction, error) {
	args := m.Called(ctx, txID)
	return args.Get(0).(models.Transaction), args.Error(1)
}

// MockAnalyticsRepository mocks services.AnalyticsRepository.
type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) CampaignStats(ctx context.Context, userID uuid.UUID) (database.CampaignStats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(database.CampaignStats), args.Error(1)
}

func (m *MockAnalyticsRepository) SupporterStats(ctx context.Context, userID uuid.UUID) (database.SupporterStats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(database.SupporterStats), args.Error(1)
}

func (m *MockAnalyticsRepository) RecentDonations(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(int64), args.Error(1)
}

// MockAlertPublisher mocks services.AlertPublisher.
type MockAlertPublisher struct {
	mock.Mock
}

func (m *MockAlertPublisher) Publish(userID uuid.UUID, d models.Donation) {
	m.Called(userID, d)
}

// MockBlobStore mocks storage.BlobStore. Put drains the reader so the
// uploaded bytes can be asserted through PutBody.
type MockBlobStore struct {
	mock.Mock
	PutBody []byte
}

func (m *MockBlobStore) EnsureBucket(ctx context.Context, bucket string, public bool) error {
	return m.Called(ctx, bucket, public).Error(0)
}

func (m *MockBlobStore) Put(ctx context.Context, bucket, path string, r io.Reader, contentType string) (string, error) {
	m.PutBody, _ = io.ReadAll(r)
	args := m.Called(ctx, bucket, path, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Remove(ctx context.Context, bucket string, paths []string) error {
	return m.Called(ctx, bucket, paths).Error(0)
}

// MockOrganizationRepository mocks services.OrganizationRepository.
type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) SlugTaken(ctx context.Context, token, slug string) (bool, error) {
	args := m.Called(ctx, token, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrganizationRepository) List(ctx context.Context, token string, opts models.ListOrganizationsOptions) ([]models.Organization, int64, error) {
	args := m.Called(ctx, token, opts)
	orgs, _ := args.Get(0).([]models.Organization)
	return orgs, args.Get(1).(int64), args.Error(2)
}

func (m *MockOrganizationRepository) Create(ctx context.Context, token string, o repository.NewOrganization) (models.Organization, error) {
	args := m.Called(ctx, token, o)
	return args.Get(0).(models.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) GetMembership(ctx context.Context, token string, orgID, profileID uuid.UUID) (models.Membership, error) {
	args := m.Called(ctx, token, orgID, profileID)
	return args.Get(0).(models.Membership), args.Error(1)
}

func (m *MockOrganizationRepository) ListMemberships(ctx context.Context, token string, f models.MembershipFilter) ([]models.Membership, error) {
	args := m.Called(ctx, token, f)
	ms, _ := args.Get(0).([]models.Membership)
	return ms, args.Error(1)
}

func (m *MockOrganizationRepository) CreateMembership(ctx context.Context, token string, nm repository.NewMembership) (models.Membership, error) {
	args := m.Called(ctx, token, nm)
	return args.Get(0).(models.Membership), args.Error(1)
}
