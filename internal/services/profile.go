package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"orangecat/internal/cache"
	"orangecat/internal/models"
	"orangecat/internal/validation"
)

const (
	defaultListLimit   = 20
	maxListLimit       = 100
	defaultSearchLimit = 20
	maxSearchLimit     = 50
	minSearchLength    = 2
)

// ProfileService maps between the public profile shape (display_name) and the
// profiles table (full_name). Profiles are world readable, so reads are
// cached by id across callers.
type ProfileService struct {
	repo  ProfileRepository
	cache *cache.QueryCache[models.Profile]
	// usernames maps a lower-cased username to a profile id.
	usernames *cache.QueryCache[uuid.UUID]
	log       zerolog.Logger
	now       func() time.Time
}

func NewProfileService(repo ProfileRepository, ttl time.Duration, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		repo:      repo,
		cache:     cache.NewQueryCache[models.Profile](cache.DefaultMaxSize, ttl),
		usernames: cache.NewQueryCache[uuid.UUID](cache.DefaultMaxSize, ttl),
		log:       log.With().Str("component", "profiles").Logger(),
		now:       time.Now,
	}
}

func profileKey(id uuid.UUID) string { return "profile:" + id.String() }

func (s *ProfileService) Get(ctx context.Context, token string, id uuid.UUID) (models.Profile, error) {
	if p, ok := s.cache.Get(profileKey(id)); ok {
		return p, nil
	}
	row, err := s.repo.GetByID(ctx, token, id)
	if err != nil {
		return models.Profile{}, err
	}
	return s.remember(models.ProfileFromRow(row)), nil
}

func (s *ProfileService) GetByUsername(ctx context.Context, token, username string) (models.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Profile{}, fmt.Errorf("get profile: %w", models.ErrNotFound)
	}
	key := strings.ToLower(username)

	if id, ok := s.usernames.Get(key); ok {
		p, err := s.Get(ctx, token, id)
		// The mapping is stale if the profile has been renamed since.
		if err == nil && p.Username != nil && strings.EqualFold(*p.Username, username) {
			return p, nil
		}
		s.usernames.Delete(key)
	}

	row, err := s.repo.GetByUsername(ctx, token, username)
	if err != nil {
		return models.Profile{}, err
	}
	return s.remember(models.ProfileFromRow(row)), nil
}

func (s *ProfileService) remember(p models.Profile) models.Profile {
	s.cache.Set(profileKey(p.ID), p)
	if p.Username != nil && *p.Username != "" {
		s.usernames.Set(strings.ToLower(*p.Username), p.ID)
	}
	return p
}

func (s *ProfileService) forget(id uuid.UUID) {
	s.cache.Delete(profileKey(id))
}

// Update validates every provided field, rejects a username held by someone
// else and writes the change.
func (s *ProfileService) Update(ctx context.Context, token string, userID uuid.UUID, req models.ProfileUpdate) (models.Profile, error) {
	if req.Empty() {
		return models.Profile{}, models.Invalid("profile", "No profile fields provided")
	}
	req = trimUpdate(req)
	if verr := validation.ProfileUpdate(req); verr != nil {
		return models.Profile{}, verr
	}

	if req.Username != nil {
		taken, err := s.repo.UsernameTaken(ctx, token, *req.Username, userID)
		if err != nil {
			return models.Profile{}, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return models.Profile{}, models.ErrUsernameTaken
		}
	}

	return s.write(ctx, token, userID, req)
}

func (s *ProfileService) write(ctx context.Context, token string, userID uuid.UUID, req models.ProfileUpdate) (models.Profile, error) {
	row, err := s.repo.Update(ctx, token, userID, req.ToRow(s.now()))
	if err != nil {
		// Lost a race with another rename between the check and the write.
		if errors.Is(err, models.ErrConflict) && req.Username != nil {
			return models.Profile{}, models.ErrUsernameTaken
		}
		return models.Profile{}, err
	}
	s.forget(userID)
	p := s.remember(models.ProfileFromRow(row))
	s.log.Info().Str("user_id", userID.String()).Msg("profile updated")
	return p, nil
}

func trimUpdate(u models.ProfileUpdate) models.ProfileUpdate {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	u.Username = trim(u.Username)
	u.DisplayName = trim(u.DisplayName)
	u.FullName = trim(u.FullName)
	u.Website = trim(u.Website)
	u.BitcoinAddress = trim(u.BitcoinAddress)
	u.LightningAddress = trim(u.LightningAddress)
	return u
}

// List pages through profiles. Rows with neither a display name nor a
// username are left out of the page but still counted in the total.
func (s *ProfileService) List(ctx context.Context, token string, opts models.ListProfilesOptions) ([]models.Profile, models.Pagination, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	opts.Limit = min(opts.Limit, maxListLimit)
	opts.Offset = max(opts.Offset, 0)

	rows, total, err := s.repo.List(ctx, token, opts)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	out := make([]models.Profile, 0, len(rows))
	for _, r := range rows {
		if p := models.ProfileFromRow(r); p.HasIdentity() {
			out = append(out, p)
		}
	}
	return out, models.Pagination{Limit: opts.Limit, Offset: opts.Offset, Total: total}, nil
}

func (s *ProfileService) Search(ctx context.Context, token, q string, limit int) ([]models.Profile, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < minSearchLength {
		return nil, models.Invalid("q", "Search query must be at least 2 characters")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	rows, err := s.repo.Search(ctx, token, q, limit)
	if err != nil {
		return nil, err
	}
	return models.ProfilesFromRows(rows), nil
}

func (s *ProfileService) SetAvatar(ctx context.Context, token string, userID uuid.UUID, url string) (models.Profile, error) {
	return s.write(ctx, token, userID, models.ProfileUpdate{AvatarURL: &url})
}

func (s *ProfileService) SetBanner(ctx context.Context, token string, userID uuid.UUID, url string) (models.Profile, error) {
	return s.write(ctx, token, userID, models.ProfileUpdate{BannerURL: &url})
}
