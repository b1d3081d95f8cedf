package domain

import "time"

// AuthEventType enumerates the audited authentication actions.
type AuthEventType string

const (
	EventUserRegistered AuthEventType = "user_registered"
	EventLoginSucceeded AuthEventType = "login_succeeded"
	EventLoginFailed    AuthEventType = "login_failed"
	EventLogout         AuthEventType = "logout"
)

// AuthEvent is an append-only audit record. UserID is empty when the actor
// could not be resolved (failed logins, logouts of unknown tokens).
type AuthEvent struct {
	ID         string
	Type       AuthEventType
	Username   string
	UserID     string
	OccurredAt time.Time
}
