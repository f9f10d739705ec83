package supabase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"

	"github.com/supabase-community/gotrue-go/types"

	"orangecat/internal/models"
)

var (
	authStatus = regexp.MustCompile(`response status code (\d{3})`)
	restCode   = regexp.MustCompile(`^\(([0-9A-Z]*)\) `)
)

// ClassifyAuthError maps a GoTrue SDK error onto the model sentinels. The
// SDK reports HTTP failures only as "response status code N: body".
func ClassifyAuthError(err error) error {
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %v", models.ErrAuthTimeout, err)
	}
	if errors.Is(err, types.ErrInvalidTokenRequest) {
		return fmt.Errorf("%w: %v", models.ErrInvalidCredentials, err)
	}
	if m := authStatus.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		switch code {
		case 400, 401, 403, 422:
			return fmt.Errorf("%w: %v", models.ErrInvalidCredentials, err)
		case 429:
			return fmt.Errorf("%w: %v", models.ErrRateLimited, err)
		}
	}
	return fmt.Errorf("%w: %v", models.ErrUpstream, err)
}

// ClassifyRestError maps a PostgREST error, formatted by the SDK as
// "(code) message", onto the model sentinels.
func ClassifyRestError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || isTimeout(err) {
		return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	m := restCode.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	switch code := m[1]; {
	case code == "PGRST116":
		return fmt.Errorf("%w: %v", models.ErrNotFound, err)
	case code == "23505":
		return fmt.Errorf("%w: %v", models.ErrConflict, err)
	case code == "42501":
		return fmt.Errorf("%w: %v", models.ErrForbidden, err)
	case code == "PGRST301" || code == "PGRST302":
		return fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	case code == "22P02" || code == "23502" || code == "23514":
		return models.Invalid("request", "Invalid request data")
	}
	return fmt.Errorf("%w: %v", models.ErrUpstream, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
