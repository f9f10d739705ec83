package supabase

import (
	"time"

	"github.com/supabase-community/gotrue-go/types"

	"orangecat/internal/models"
)

func UserFromGoTrue(u types.User) models.AuthUser {
	out := models.AuthUser{
		ID:           u.ID,
		Email:        u.Email,
		Role:         u.Role,
		UserMetadata: u.UserMetadata,
	}
	if !u.CreatedAt.IsZero() {
		out.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func SessionFromGoTrue(s types.Session) models.Session {
	return models.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
		User:         UserFromGoTrue(s.User),
	}
}
