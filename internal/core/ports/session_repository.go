package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// SessionRepository persists sessions keyed by token hash. Implementations
// report stored records as-is; validity is decided by the caller.
type SessionRepository interface {
	// Create stores s only if no session with the same TokenHash exists,
	// otherwise it returns domain.ErrSessionExists and leaves the store untouched.
	Create(ctx context.Context, s *domain.Session) error
	// FindByTokenHash returns domain.ErrSessionNotFound when absent.
	FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	// Revoke marks the session revoked. Unknown hashes are not an error.
	Revoke(ctx context.Context, tokenHash string) error
	// Clear removes all sessions. Environment reset only.
	Clear(ctx context.Context) error
}
