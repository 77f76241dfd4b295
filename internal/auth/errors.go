package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrOperatorNotConfigured means no password hash is configured, so
	// nobody can log in.
	ErrOperatorNotConfigured = errors.New("auth: operator password not configured")

	ErrTokenInvalid = errors.New("auth: invalid token")
)
