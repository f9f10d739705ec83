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

func strp(s string) *string { return &s }

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newProfileService() (*ProfileService, *mocks.MockProfileRepository) {
	repo := &mocks.MockProfileRepository{}
	s := NewProfileService(repo, time.Minute, zerolog.Nop())
	s.now = func() time.Time { return fixedNow }
	return s, repo
}

func TestProfileService_GetMapsFullName(t *testing.T) {
	s, repo := newProfileService()
	id := uuid.New()
	repo.On("GetByID", mock.Anything, "tok", id).
		Return(models.ProfileRow{ID: id, Username: strp("alice"), FullName: strp("Alice")}, nil).Once()

	p, err := s.Get(context.Background(), "tok", id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", *p.DisplayName)

	// second read is served from cache
	_, err = s.Get(context.Background(), "tok", id)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestProfileService_GetByUsernameStaleMapping(t *testing.T) {
	s, repo := newProfileService()
	id := uuid.New()
	repo.On("GetByUsername", mock.Anything, "", "alice").
		Return(models.ProfileRow{ID: id, Username: strp("alice")}, nil).Once()
	repo.On("Update", mock.Anything, "tok", id, mock.Anything).
		Return(models.ProfileRow{ID: id, Username: strp("alice2")}, nil)
	repo.On("UsernameTaken", mock.Anything, "tok", "alice2", id).Return(false, nil)

	_, err := s.GetByUsername(context.Background(), "", "alice")
	require.NoError(t, err)
	_, err = s.Update(context.Background(), "tok", id, models.ProfileUpdate{Username: strp("alice2")})
	require.NoError(t, err)

	repo.On("GetByUsername", mock.Anything, "", "alice").
		Return(models.ProfileRow{}, models.ErrNotFound).Once()
	_, err = s.GetByUsername(context.Background(), "", "alice")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestProfileService_UpdateWritesMappedRow(t *testing.T) {
	s, repo := newProfileService()
	id := uuid.New()
	want := map[string]any{
		"updated_at":      fixedNow.Format(time.RFC3339),
		"full_name":       "Satoshi Fan",
		"bitcoin_address": "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
	}
	repo.On("Update", mock.Anything, "tok", id, want).
		Return(models.ProfileRow{ID: id, FullName: strp("Satoshi Fan")}, nil)

	p, err := s.Update(context.Background(), "tok", id, models.ProfileUpdate{
		DisplayName:    strp(" Satoshi Fan "),
		BitcoinAddress: strp("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Satoshi Fan", *p.DisplayName)
	repo.AssertExpectations(t)
}

func TestProfileService_UpdateRejections(t *testing.T) {
	id := uuid.New()

	t.Run("empty", func(t *testing.T) {
		s, _ := newProfileService()
		_, err := s.Update(context.Background(), "tok", id, models.ProfileUpdate{})
		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("invalid bitcoin address", func(t *testing.T) {
		s, repo := newProfileService()
		_, err := s.Update(context.Background(), "tok", id, models.ProfileUpdate{BitcoinAddress: strp("not-an-address")})
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Invalid Bitcoin address format", verr.Message)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("username taken", func(t *testing.T) {
		s, repo := newProfileService()
		repo.On("UsernameTaken", mock.Anything, "tok", "bob", id).Return(true, nil)
		_, err := s.Update(context.Background(), "tok", id, models.ProfileUpdate{Username: strp("bob")})
		assert.ErrorIs(t, err, models.ErrUsernameTaken)
	})

	t.Run("rename race", func(t *testing.T) {
		s, repo := newProfileService()
		repo.On("UsernameTaken", mock.Anything, "tok", "carol", id).Return(false, nil)
		repo.On("Update", mock.Anything, "tok", id, mock.Anything).Return(models.ProfileRow{}, models.ErrConflict)
		_, err := s.Update(context.Background(), "tok", id, models.ProfileUpdate{Username: strp("carol")})
		assert.ErrorIs(t, err, models.ErrUsernameTaken)
	})
}

func TestProfileService_ListClampsAndFilters(t *testing.T) {
	s, repo := newProfileService()
	rows := []models.ProfileRow{
		{ID: uuid.New(), Username: strp("alice")},
		{ID: uuid.New()},
		{ID: uuid.New(), FullName: strp("Bob")},
	}
	repo.On("List", mock.Anything, "tok", models.ListProfilesOptions{Limit: 100, Offset: 0, Sort: "recent"}).
		Return(rows, int64(3), nil)

	out, page, err := s.List(context.Background(), "tok", models.ListProfilesOptions{Limit: 500, Offset: -3, Sort: "recent"})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, models.Pagination{Limit: 100, Offset: 0, Total: 3}, page)
}

func TestProfileService_Search(t *testing.T) {
	s, repo := newProfileService()

	_, err := s.Search(context.Background(), "tok", " a ", 10)
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	repo.On("Search", mock.Anything, "tok", "sat", 50).Return([]models.ProfileRow{{ID: uuid.New()}}, nil)
	out, err := s.Search(context.Background(), "tok", "sat", 200)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestProfileService_SetAvatar(t *testing.T) {
	s, repo := newProfileService()
	id := uuid.New()
	repo.On("Update", mock.Anything, "tok", id, map[string]any{
		"updated_at": fixedNow.Format(time.RFC3339),
		"avatar_url": "https://cdn/a.png",
	}).Return(models.ProfileRow{ID: id, AvatarURL: strp("https://cdn/a.png")}, nil)

	p, err := s.SetAvatar(context.Background(), "tok", id, "https://cdn/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.png", *p.AvatarURL)
}
