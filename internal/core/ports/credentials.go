package ports

import "context"

// PasswordHasher is a one-way, salted credential hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash. A malformed hash is a
	// mismatch, not an error.
	Verify(password, hash string) bool
}

// LoginThrottle tracks failed logins per username.
type LoginThrottle interface {
	// Allow reports whether another attempt for username may proceed.
	Allow(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}
