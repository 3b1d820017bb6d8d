// Package common defines shared constants and sentinel errors used across
// TokenKeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Secret store errors. A provider that cannot reach the store wraps this
	// value; callers treat it as fatal for the current request, no retries.
	ErrSecretUnavailable = errors.New("secret unavailable")
)
