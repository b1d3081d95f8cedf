package domain

import "time"

// Session is a server-side login record. Only the SHA-256 of the token is
// persisted; Token is populated solely on the value returned at creation.
type Session struct {
	Token     string
	TokenHash string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// ActiveAt reports whether the session can still authenticate at t.
// A session stops being valid at the instant t reaches ExpiresAt.
func (s *Session) ActiveAt(t time.Time) bool {
	return !s.Revoked && t.Before(s.ExpiresAt)
}
