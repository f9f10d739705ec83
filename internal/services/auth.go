package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"orangecat/internal/models"
	"orangecat/internal/validation"
)

type AuthService struct {
	gateway  AuthGateway
	profiles ProfileRepository
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(gateway AuthGateway, profiles ProfileRepository, log zerolog.Logger) *AuthService {
	return &AuthService{
		gateway:  gateway,
		profiles: profiles,
		log:      log.With().Str("component", "auth").Logger(),
		now:      time.Now,
	}
}

// SignUp registers the user with GoTrue. When GoTrue returns a session
// (email confirmation off) the profile row is created right away; otherwise
// the database trigger creates it on confirmation.
func (s *AuthService) SignUp(ctx context.Context, req models.RegisterRequest) (models.Registration, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	displayName := strings.TrimSpace(req.DisplayName)

	data := map[string]any{}
	if username != "" {
		if verr := validation.Username(username); verr != nil {
			return models.Registration{}, verr
		}
		data["username"] = username
	}
	if displayName != "" {
		data["full_name"] = displayName
	}

	user, sess, err := s.gateway.SignUp(ctx, email, req.Password, data)
	if err != nil {
		s.log.Info().Err(err).Msg("sign up failed")
		return models.Registration{}, fmt.Errorf("sign up: %w", err)
	}

	reg := models.Registration{User: user, Session: sess, NeedsConfirmation: sess == nil}
	if sess != nil {
		row := models.NewProfileRow(user.ID, username, displayName, s.now())
		if err := s.profiles.Upsert(ctx, row); err != nil {
			// The account exists; the profile can be completed later.
			s.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("create profile after sign up")
		}
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Bool("needs_confirmation", reg.NeedsConfirmation).
		Msg("user signed up")
	return reg, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	sess, err := s.gateway.SignIn(ctx, strings.ToLower(strings.TrimSpace(email)), password)
	if err != nil {
		s.log.Info().Err(err).Msg("sign in failed")
		return models.Session{}, fmt.Errorf("sign in: %w", err)
	}
	s.log.Info().Str("user_id", sess.User.ID.String()).Msg("user signed in")
	return sess, nil
}

func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if err := s.gateway.SignOut(ctx, token); err != nil {
		// An expired session is already signed out.
		if errors.Is(err, models.ErrInvalidCredentials) {
			return nil
		}
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.Session, error) {
	sess, err := s.gateway.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			return models.Session{}, fmt.Errorf("refresh: %w", models.ErrUnauthorized)
		}
		return models.Session{}, fmt.Errorf("refresh: %w", err)
	}
	return sess, nil
}

// RequestPasswordReset asks GoTrue to send a recovery email. Unknown or
// rejected addresses are reported as success so the endpoint cannot be used
// to enumerate accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	err := s.gateway.Recover(ctx, strings.ToLower(strings.TrimSpace(email)))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrRateLimited), errors.Is(err, models.ErrAuthTimeout):
		return fmt.Errorf("password reset: %w", err)
	default:
		s.log.Warn().Err(err).Msg("password reset request rejected")
		return nil
	}
}

func (s *AuthService) CurrentUser(ctx context.Context, token string) (models.AuthUser, error) {
	u, err := s.gateway.User(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			return models.AuthUser{}, fmt.Errorf("current user: %w", models.ErrUnauthorized)
		}
		return models.AuthUser{}, fmt.Errorf("current user: %w", err)
	}
	return u, nil
}
