// Package common defines shared constants, sentinel errors and small helpers
// used across the Hub server and its CLI. Callers should use errors.Is to
// match the sentinel values.
package common

import (
	"errors"
	"strconv"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorValidation    = errors.New("validation error")
	ErrorUpstream      = errors.New("upstream error")
	ErrorNotConfigured = errors.New("integration not configured")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// ValidationError carries a human-readable message for rejected input.
// It matches ErrorValidation under errors.Is.
type ValidationError struct {
	Message string
}

// NewValidationError returns a *ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}

// UpstreamError reports a non-success status from a third-party API.
// It matches ErrorUpstream under errors.Is.
type UpstreamError struct {
	Service    string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return e.Service + " responded with status " + strconv.Itoa(e.StatusCode)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrorUpstream
}
