package models

import (
	"time"

	"github.com/google/uuid"
)

// ProfileFromRow maps a profiles row to the public shape (full_name becomes display_name).
func ProfileFromRow(row ProfileRow) Profile {
	return Profile{
		ID:               row.ID,
		Username:         row.Username,
		DisplayName:      row.FullName,
		Bio:              row.Bio,
		AvatarURL:        row.AvatarURL,
		BannerURL:        row.BannerURL,
		Website:          row.Website,
		BitcoinAddress:   row.BitcoinAddress,
		LightningAddress: row.LightningAddress,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

// ProfilesFromRows maps a slice of rows.
func ProfilesFromRows(rows []ProfileRow) []Profile {
	out := make([]Profile, 0, len(rows))
	for _, r := range rows {
		out = append(out, ProfileFromRow(r))
	}
	return out
}

// ProfileUpdate is a partial profile write. Nil fields are left untouched;
// an empty string clears the column.
type ProfileUpdate struct {
	Username         *string `json:"username"`
	DisplayName      *string `json:"display_name"`
	FullName         *string `json:"full_name"`
	Bio              *string `json:"bio"`
	Website          *string `json:"website"`
	BitcoinAddress   *string `json:"bitcoin_address"`
	LightningAddress *string `json:"lightning_address"`
	AvatarURL        *string `json:"-"`
	BannerURL        *string `json:"-"`
}

// Empty reports whether the update carries no fields.
func (u ProfileUpdate) Empty() bool {
	return u.Username == nil && u.DisplayName == nil && u.FullName == nil && u.Bio == nil &&
		u.Website == nil && u.BitcoinAddress == nil && u.LightningAddress == nil &&
		u.AvatarURL == nil && u.BannerURL == nil
}

// ToRow builds the column map PostgREST should PATCH. full_name takes the
// explicit full_name first, then display_name.
func (u ProfileUpdate) ToRow(now time.Time) map[string]any {
	row := map[string]any{"updated_at": now.UTC().Format(time.RFC3339)}

	name := u.FullName
	if name == nil || *name == "" {
		if u.DisplayName != nil {
			name = u.DisplayName
		}
	}

	set := func(col string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			row[col] = nil
			return
		}
		row[col] = *v
	}
	set("username", u.Username)
	set("full_name", name)
	set("bio", u.Bio)
	set("website", u.Website)
	set("bitcoin_address", u.BitcoinAddress)
	set("lightning_address", u.LightningAddress)
	set("avatar_url", u.AvatarURL)
	set("banner_url", u.BannerURL)
	return row
}

// NewProfileRow builds the initial row written at sign-up.
func NewProfileRow(id uuid.UUID, username, displayName string, now time.Time) ProfileRow {
	ts := now.UTC().Format(time.RFC3339)
	row := ProfileRow{ID: id, CreatedAt: ts, UpdatedAt: ts}
	if username != "" {
		row.Username = &username
	}
	if displayName != "" {
		row.FullName = &displayName
	}
	return row
}
