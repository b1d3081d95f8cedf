package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// UserRepository owns User records.
type UserRepository interface {
	// Create persists user and returns the stored copy with its ID assigned.
	// It returns domain.ErrUserExists when the username is already taken; the
	// check and the write are a single atomic step.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// List returns every user in a stable order.
	List(ctx context.Context) ([]*domain.User, error)
	// Clear removes all users. Environment reset only.
	Clear(ctx context.Context) error
}
