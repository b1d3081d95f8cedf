package domain

import "errors"

var (
	// ErrInvalidInput is wrapped with a short description of the offending field.
	ErrInvalidInput = errors.New("invalid input")

	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access forbidden")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session token already exists")

	ErrTooManyAttempts = errors.New("too many failed login attempts")

	// ErrStoreUnavailable wraps every persistence failure.
	ErrStoreUnavailable = errors.New("store unavailable")
)
