package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orangecat/internal/middleware"
	"orangecat/internal/models"
)

const jwtSecret = "handler-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

func tokenFor(t *testing.T, user uuid.UUID) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Email: "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return s
}

func newRouter() *gin.Engine {
	return gin.New()
}

func requireAuth() gin.HandlerFunc { return middleware.Auth(jwtSecret) }

// do sends a request, authenticated as user unless it is uuid.Nil.
func do(t *testing.T, r http.Handler, method, path string, body any, user uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, user))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandleError_Mapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{models.Invalid("bio", "Bio must be under 500 characters"), http.StatusBadRequest, TypeValidation},
		{models.ErrUnauthorized, http.StatusUnauthorized, TypeAuthentication},
		{models.ErrInvalidCredentials, http.StatusUnauthorized, TypeAuthentication},
		{models.ErrForbidden, http.StatusForbidden, TypeAuthorization},
		{models.ErrNotFound, http.StatusNotFound, TypeNotFound},
		{models.ErrUsernameTaken, http.StatusConflict, TypeConflict},
		{models.ErrInactivePage, http.StatusBadRequest, TypeBadRequest},
		{models.ErrRateLimited, http.StatusTooManyRequests, TypeRateLimit},
		{models.ErrAuthTimeout, http.StatusRequestTimeout, TypeTimeout},
		{context.DeadlineExceeded, http.StatusRequestTimeout, TypeTimeout},
		{models.ErrFileTooLarge, http.StatusRequestEntityTooLarge, TypeFileTooLarge},
		{models.ErrUnsupportedMedia, http.StatusUnsupportedMediaType, TypeUnsupported},
		{models.ErrUpstream, http.StatusBadGateway, TypeUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, TypeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			handleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Type)
			assert.NotEmpty(t, body.Error)
			_, err := time.Parse(time.RFC3339, body.Timestamp)
			assert.NoError(t, err)
		})
	}
}

func TestHandleError_InternalDetailsHidden(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	handleError(c, errors.New("pq: password authentication failed for user postgres"))
	assert.NotContains(t, w.Body.String(), "postgres")
}
