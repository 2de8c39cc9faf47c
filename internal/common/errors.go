// Package common defines shared constants and sentinel errors used across
// the authentication server. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Login outcomes.
	ErrMissingCredentials = errors.New("username or password not found")
	ErrInvalidCredentials = errors.New("username or password is incorrect")

	// Refresh outcome. Deliberately uninformative.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// Logout outcomes.
	ErrTokensNotFound = errors.New("tokens not found")
	ErrTokensInvalid  = errors.New("tokens invalid")

	// Token codec outcomes (signature mismatch/malformed vs. expired).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Request gate outcomes.
	ErrMissingToken = errors.New("missing token")
	ErrTokenRevoked = errors.New("token revoked")
)
