package ports

import (
	"context"
	"time"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer to Register.
type RegisterInput struct {
	Username string
	Fullname string
	Email    string
	Password string
	IsAdmin  bool
}

// LoginResult carries the authenticated user (without password hash) and the
// freshly minted session token.
type LoginResult struct {
	User      *domain.User
	Token     domain.SessionToken
	ExpiresAt time.Time
}

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token domain.SessionToken) (*domain.User, error)
}

type AuthService interface {
	Authenticator
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, token domain.SessionToken) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
}
