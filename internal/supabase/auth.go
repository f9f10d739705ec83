package supabase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"

	"orangecat/internal/models"
)

// The GoTrue SDK takes no context. Calls run on their own goroutine and the
// caller stops waiting when ctx ends; the HTTP client timeout bounds the call.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// SignUp registers a user. The session is nil when email confirmation is on.
func (c *Client) SignUp(ctx context.Context, email, password string, data map[string]any) (models.AuthUser, *models.Session, error) {
	resp, err := withContext(ctx, func() (*types.SignupResponse, error) {
		return c.auth.Signup(types.SignupRequest{Email: email, Password: password, Data: data})
	})
	if err != nil {
		return models.AuthUser{}, nil, ClassifyAuthError(err)
	}

	user := resp.User
	if user.ID == uuid.Nil {
		user = resp.Session.User
	}
	if resp.AccessToken == "" {
		return UserFromGoTrue(user), nil, nil
	}
	sess := SessionFromGoTrue(resp.Session)
	sess.User = UserFromGoTrue(user)
	return sess.User, &sess, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	resp, err := withContext(ctx, func() (*types.TokenResponse, error) {
		return c.auth.SignInWithEmailPassword(email, password)
	})
	if err != nil {
		return models.Session{}, ClassifyAuthError(err)
	}
	return SessionFromGoTrue(resp.Session), nil
}

// SignOut revokes the refresh tokens of the session that issued token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	_, err := withContext(ctx, func() (struct{}, error) {
		return struct{}{}, c.AuthFor(token).Logout()
	})
	return ClassifyAuthError(err)
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (models.Session, error) {
	resp, err := withContext(ctx, func() (*types.TokenResponse, error) {
		return c.auth.RefreshToken(refreshToken)
	})
	if err != nil {
		return models.Session{}, ClassifyAuthError(err)
	}
	return SessionFromGoTrue(resp.Session), nil
}

func (c *Client) Recover(ctx context.Context, email string) error {
	_, err := withContext(ctx, func() (struct{}, error) {
		return struct{}{}, c.auth.Recover(types.RecoverRequest{Email: email})
	})
	return ClassifyAuthError(err)
}

// User resolves token to its GoTrue user.
func (c *Client) User(ctx context.Context, token string) (models.AuthUser, error) {
	resp, err := withContext(ctx, func() (*types.UserResponse, error) {
		return c.AuthFor(token).GetUser()
	})
	if err != nil {
		err = ClassifyAuthError(err)
		return models.AuthUser{}, fmt.Errorf("get user: %w", err)
	}
	return UserFromGoTrue(resp.User), nil
}
