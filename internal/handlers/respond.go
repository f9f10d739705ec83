// Package handlers exposes the services over gin. Handlers bind and validate
// input, call one service and translate its errors into the JSON envelope.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"orangecat/internal/middleware"
	"orangecat/internal/models"
	"orangecat/internal/validation"
)

// Error types of the envelope.
const (
	TypeAuthentication = "AUTHENTICATION_REQUIRED"
	TypeAuthorization  = "AUTHORIZATION_FAILED"
	TypeValidation     = "VALIDATION_ERROR"
	TypeNotFound       = "NOT_FOUND"
	TypeRateLimit      = "RATE_LIMIT_EXCEEDED"
	TypeInternal       = "INTERNAL_SERVER_ERROR"
	TypeBadRequest     = "BAD_REQUEST"
	TypeConflict       = "CONFLICT"
	TypeFileTooLarge   = "FILE_TOO_LARGE"
	TypeUnsupported    = "UNSUPPORTED_MEDIA_TYPE"
	TypeTimeout        = "TIMEOUT"
	TypeUnavailable    = "SERVICE_UNAVAILABLE"
)

type errorResponse struct {
	Error     string `json:"error"`
	Type      string `json:"type"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

// RegisterValidators installs the custom binding tags on gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator is not go-playground/validator")
	}
	return validation.RegisterGinValidators(v)
}

func respondError(c *gin.Context, status int, kind, msg string, details any) {
	c.AbortWithStatusJSON(status, errorResponse{
		Error:     msg,
		Type:      kind,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleError maps service errors to status codes. Unknown errors are logged
// and reported without detail.
func handleError(c *gin.Context, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		respondError(c, http.StatusBadRequest, TypeValidation, verr.Message, gin.H{"field": verr.Field})
		return
	}

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, TypeAuthentication, "Authentication required", nil)
	case errors.Is(err, models.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, TypeAuthentication, "Invalid email or password", nil)
	case errors.Is(err, models.ErrBadSignature):
		respondError(c, http.StatusUnauthorized, TypeAuthentication, "Invalid signature", nil)
	case errors.Is(err, models.ErrForbidden):
		respondError(c, http.StatusForbidden, TypeAuthorization, "You do not have access to this resource", nil)
	case errors.Is(err, models.ErrNotFound):
		respondError(c, http.StatusNotFound, TypeNotFound, "Resource not found", nil)
	case errors.Is(err, models.ErrUsernameTaken):
		respondError(c, http.StatusConflict, TypeConflict, "Username is already taken", gin.H{"field": "username"})
	case errors.Is(err, models.ErrConflict):
		respondError(c, http.StatusConflict, TypeConflict, "Resource already exists", nil)
	case errors.Is(err, models.ErrInactivePage):
		respondError(c, http.StatusBadRequest, TypeBadRequest, "Funding page is not active", nil)
	case errors.Is(err, models.ErrRateLimited):
		respondError(c, http.StatusTooManyRequests, TypeRateLimit, "Too many requests. Please try again later.", nil)
	case errors.Is(err, models.ErrAuthTimeout), errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusRequestTimeout, TypeTimeout, "Request timed out. Please try again.", nil)
	case errors.Is(err, models.ErrFileTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, TypeFileTooLarge, "File too large", nil)
	case errors.Is(err, models.ErrUnsupportedMedia):
		respondError(c, http.StatusUnsupportedMediaType, TypeUnsupported, "Invalid file type. Allowed: JPEG, PNG, WebP, GIF", nil)
	case errors.Is(err, models.ErrUpstream):
		respondError(c, http.StatusBadGateway, TypeUnavailable, "Upstream service error", nil)
	case errors.Is(err, models.ErrUnavailable):
		respondError(c, http.StatusServiceUnavailable, TypeUnavailable, "Service unavailable", nil)
	default:
		_ = c.Error(err)
		middleware.Logger(c).Error().Err(err).Msg("unhandled error")
		respondError(c, http.StatusInternalServerError, TypeInternal, "Internal server error", nil)
	}
}

// bindError reports which fields failed binding without echoing their values.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		respondError(c, http.StatusBadRequest, TypeValidation, "Invalid request data", gin.H{"fields": fields})
		return
	}
	respondError(c, http.StatusBadRequest, TypeBadRequest, "Invalid request body", nil)
}

// currentUser returns the caller set by middleware.Auth.
func currentUser(c *gin.Context) (uuid.UUID, string, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, TypeAuthentication, "Authentication required", nil)
		return uuid.Nil, "", false
	}
	return id, middleware.AccessToken(c), true
}
