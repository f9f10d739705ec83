package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"orangecat/internal/models"
)

const (
	profilesTable  = "profiles"
	profileColumns = "id,username,full_name,bio,avatar_url,banner_url,website,bitcoin_address,lightning_address,created_at,updated_at"
)

// Sort orders accepted by ProfileStore.List.
const (
	SortRecent   = "recent"
	SortPopular  = "popular"
	SortVerified = "verified"
)

type ProfileStore struct {
	rest RestProvider
}

func NewProfileStore(rest RestProvider) *ProfileStore {
	return &ProfileStore{rest: rest}
}

func (s *ProfileStore) GetByID(ctx context.Context, token string, id uuid.UUID) (models.ProfileRow, error) {
	return s.first(ctx, token, "get profile", "id", id.String())
}

func (s *ProfileStore) GetByUsername(ctx context.Context, token, username string) (models.ProfileRow, error) {
	return s.first(ctx, token, "get profile by username", "username", username)
}

func (s *ProfileStore) first(ctx context.Context, token, op, col, val string) (models.ProfileRow, error) {
	var rows []models.ProfileRow
	_, err := s.rest.Rest(ctx, token).
		From(profilesTable).
		Select(profileColumns, "", false).
		Eq(col, val).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return models.ProfileRow{}, restErr(op, err)
	}
	if len(rows) == 0 {
		return models.ProfileRow{}, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return rows[0], nil
}

// UsernameTaken reports whether another profile already uses username.
func (s *ProfileStore) UsernameTaken(ctx context.Context, token, username string, exclude uuid.UUID) (bool, error) {
	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	_, err := s.rest.Rest(ctx, token).
		From(profilesTable).
		Select("id", "", false).
		Eq("username", username).
		Neq("id", exclude.String()).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return false, restErr("check username", err)
	}
	return len(rows) > 0, nil
}

// Update patches the caller's own row and returns it. A row hidden by RLS
// reads as ErrNotFound.
func (s *ProfileStore) Update(ctx context.Context, token string, id uuid.UUID, row map[string]any) (models.ProfileRow, error) {
	var rows []models.ProfileRow
	_, err := s.rest.Rest(ctx, token).
		From(profilesTable).
		Update(row, "representation", "").
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return models.ProfileRow{}, restErr("update profile", err)
	}
	if len(rows) == 0 {
		return models.ProfileRow{}, fmt.Errorf("update profile: %w", models.ErrNotFound)
	}
	return rows[0], nil
}

// Upsert writes a profile with the service role. It runs at sign-up, before
// the new user has a session.
func (s *ProfileStore) Upsert(ctx context.Context, row models.ProfileRow) error {
	_, _, err := s.rest.AdminRest(ctx).
		From(profilesTable).
		Upsert(row, "id", "minimal", "").
		Execute()
	return restErr("upsert profile", err)
}

// List returns one page of profiles and the exact total.
func (s *ProfileStore) List(ctx context.Context, token string, opts models.ListProfilesOptions) ([]models.ProfileRow, int64, error) {
	q := s.rest.Rest(ctx, token).
		From(profilesTable).
		Select(profileColumns, "exact", false)

	if opts.Sort == SortVerified {
		q = q.Not("bitcoin_address", "is", "null")
	}
	// popular has no ranking signal yet and shares the recency order.
	q = q.Order("created_at", newestFirst)

	var rows []models.ProfileRow
	total, err := q.Range(opts.Offset, opts.Offset+opts.Limit-1, "").ExecuteTo(&rows)
	if err != nil {
		return nil, 0, restErr("list profiles", err)
	}
	return rows, total, nil
}

// Search matches q case-insensitively against username, display name and bio.
func (s *ProfileStore) Search(ctx context.Context, token, q string, limit int) ([]models.ProfileRow, error) {
	term := SanitizeSearch(q)
	if term == "" {
		return []models.ProfileRow{}, nil
	}
	pattern := "*" + term + "*"
	filter := strings.Join([]string{
		"username.ilike." + pattern,
		"full_name.ilike." + pattern,
		"bio.ilike." + pattern,
	}, ",")

	var rows []models.ProfileRow
	_, err := s.rest.Rest(ctx, token).
		From(profilesTable).
		Select(profileColumns, "", false).
		Or(filter, "").
		Order("created_at", newestFirst).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, restErr("search profiles", err)
	}
	return rows, nil
}

var searchStripper = strings.NewReplacer("%", "", "*", "", ",", "", "(", "", ")", "", `"`, "", `\`, "", ".", " ")

// SanitizeSearch removes characters that carry meaning in a PostgREST
// logical filter.
func SanitizeSearch(q string) string {
	return strings.TrimSpace(searchStripper.Replace(q))
}
