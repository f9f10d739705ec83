package models

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAuthTimeout        = errors.New("request timed out")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInactivePage       = errors.New("funding page is not active")
	ErrRateLimited        = errors.New("too many requests")
	ErrUpstream           = errors.New("upstream service error")
	ErrConflict           = errors.New("conflict")
	ErrUnavailable        = errors.New("service unavailable")
	ErrFileTooLarge       = errors.New("file too large")
	ErrUnsupportedMedia   = errors.New("unsupported file type")
	ErrBadSignature       = errors.New("invalid signature")
)

// ValidationError describes one rejected input field. Message is safe to show
// to the client and never contains the rejected value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
