package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookie carries the Supabase access token for browser clients.
const SessionCookie = "sb-access-token"

const (
	ctxUserID      = "userID"
	ctxUserEmail   = "userEmail"
	ctxAccessToken = "accessToken"
)

// Claims is the subset of a Supabase access token the API reads.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the verified caller.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Token  string
}

// Verify parses raw as an HS256 token signed with secret and returns the caller.
func Verify(secret, raw string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(5*time.Second))
	if err != nil {
		return Identity{}, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, errors.New("sub is not a user id")
	}
	return Identity{UserID: id, Email: claims.Email, Token: raw}, nil
}

// tokenFrom reads a bearer token, falling back to the session cookie.
func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// Auth rejects requests without a valid Supabase session.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFrom(c)
		if raw == "" {
			abortJSON(c, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "Authentication required")
			return
		}
		ident, err := Verify(secret, raw)
		if err != nil {
			logFor(c).Debug().Err(err).Msg("rejected access token")
			abortJSON(c, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "Authentication required")
			return
		}
		setIdentity(c, ident)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and never aborts.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := tokenFrom(c); raw != "" {
			if ident, err := Verify(secret, raw); err == nil {
				setIdentity(c, ident)
			}
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, ident Identity) {
	c.Set(ctxUserID, ident.UserID)
	c.Set(ctxUserEmail, ident.Email)
	c.Set(ctxAccessToken, ident.Token)
}

// UserID returns the authenticated caller, if any.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func UserEmail(c *gin.Context) string { return c.GetString(ctxUserEmail) }

// AccessToken is the caller's raw JWT, forwarded to PostgREST so RLS applies.
func AccessToken(c *gin.Context) string { return c.GetString(ctxAccessToken) }

func abortJSON(c *gin.Context, status int, kind, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":     msg,
		"type":      kind,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
