package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"orangecat/internal/mocks"
	"orangecat/internal/models"
)

func newAuthService() (*AuthService, *mocks.MockAuthGateway, *mocks.MockProfileRepository) {
	gw := &mocks.MockAuthGateway{}
	repo := &mocks.MockProfileRepository{}
	s := NewAuthService(gw, repo, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return s, gw, repo
}

func TestAuthService_SignInForwardsCredentials(t *testing.T) {
	s, gw, _ := newAuthService()
	want := models.Session{AccessToken: "at", RefreshToken: "rt", User: models.AuthUser{ID: uuid.New()}}
	gw.On("SignIn", mock.Anything, "alice@example.com", "hunter22").Return(want, nil)

	got, err := s.SignIn(context.Background(), "  Alice@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	gw.AssertExpectations(t)
}

func TestAuthService_SignInErrorsKeepTheirKind(t *testing.T) {
	for _, sentinel := range []error{models.ErrInvalidCredentials, models.ErrAuthTimeout} {
		s, gw, _ := newAuthService()
		gw.On("SignIn", mock.Anything, "a@b.co", "x").Return(models.Session{}, sentinel)

		_, err := s.SignIn(context.Background(), "a@b.co", "x")
		assert.ErrorIs(t, err, sentinel)
	}
}

func TestAuthService_SignUpWithSessionCreatesProfile(t *testing.T) {
	s, gw, repo := newAuthService()
	id := uuid.New()
	user := models.AuthUser{ID: id, Email: "bob@example.com"}
	sess := &models.Session{AccessToken: "at", User: user}

	gw.On("SignUp", mock.Anything, "bob@example.com", "password1",
		map[string]any{"username": "bob", "full_name": "Bob"}).Return(user, sess, nil)
	repo.On("Upsert", mock.Anything, models.NewProfileRow(id, "bob", "Bob", s.now())).Return(nil)

	reg, err := s.SignUp(context.Background(), models.RegisterRequest{
		Email: "bob@example.com", Password: "password1", Username: "bob", DisplayName: "Bob",
	})
	require.NoError(t, err)
	assert.False(t, reg.NeedsConfirmation)
	assert.Equal(t, sess, reg.Session)
	repo.AssertExpectations(t)
}

func TestAuthService_SignUpStoresTrimmedNames(t *testing.T) {
	s, gw, repo := newAuthService()
	id := uuid.New()
	user := models.AuthUser{ID: id, Email: "erin@example.com"}
	sess := &models.Session{AccessToken: "at", User: user}

	gw.On("SignUp", mock.Anything, "erin@example.com", "password1",
		map[string]any{"username": "erin_b", "full_name": "Erin B"}).Return(user, sess, nil)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(row models.ProfileRow) bool {
		return row.Username != nil && *row.Username == "erin_b" &&
			row.FullName != nil && *row.FullName == "Erin B"
	})).Return(nil)

	_, err := s.SignUp(context.Background(), models.RegisterRequest{
		Email: "erin@example.com", Password: "password1", Username: "  erin_b ", DisplayName: " Erin B  ",
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAuthService_SignUpRejectsInvalidUsername(t *testing.T) {
	s, gw, _ := newAuthService()

	_, err := s.SignUp(context.Background(), models.RegisterRequest{
		Email: "f@example.com", Password: "password1", Username: " admin ",
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)
	gw.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_SignUpNeedingConfirmation(t *testing.T) {
	s, gw, repo := newAuthService()
	user := models.AuthUser{ID: uuid.New(), Email: "c@example.com"}
	gw.On("SignUp", mock.Anything, "c@example.com", "password1", map[string]any{}).Return(user, nil, nil)

	reg, err := s.SignUp(context.Background(), models.RegisterRequest{Email: "c@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.True(t, reg.NeedsConfirmation)
	assert.Nil(t, reg.Session)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestAuthService_SignUpProfileFailureIsNotFatal(t *testing.T) {
	s, gw, repo := newAuthService()
	user := models.AuthUser{ID: uuid.New()}
	gw.On("SignUp", mock.Anything, "d@example.com", "password1", mock.Anything).Return(user, &models.Session{AccessToken: "at"}, nil)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(models.ErrUpstream)

	_, err := s.SignUp(context.Background(), models.RegisterRequest{Email: "d@example.com", Password: "password1"})
	assert.NoError(t, err)
}

func TestAuthService_PasswordResetHidesUnknownAccounts(t *testing.T) {
	s, gw, _ := newAuthService()
	gw.On("Recover", mock.Anything, "ghost@example.com").Return(models.ErrInvalidCredentials)
	gw.On("Recover", mock.Anything, "busy@example.com").Return(models.ErrRateLimited)

	assert.NoError(t, s.RequestPasswordReset(context.Background(), "ghost@example.com"))
	assert.ErrorIs(t, s.RequestPasswordReset(context.Background(), "busy@example.com"), models.ErrRateLimited)
}

func TestAuthService_SignOutExpiredSession(t *testing.T) {
	s, gw, _ := newAuthService()
	gw.On("SignOut", mock.Anything, "old").Return(models.ErrInvalidCredentials)
	assert.NoError(t, s.SignOut(context.Background(), "old"))
}

func TestAuthService_RefreshAndCurrentUserRejected(t *testing.T) {
	s, gw, _ := newAuthService()
	gw.On("Refresh", mock.Anything, "rt").Return(models.Session{}, models.ErrInvalidCredentials)
	gw.On("User", mock.Anything, "at").Return(models.AuthUser{}, models.ErrInvalidCredentials)

	_, err := s.Refresh(context.Background(), "rt")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = s.CurrentUser(context.Background(), "at")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
