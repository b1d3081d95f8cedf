package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// AuditRepository persists authentication events to the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
	Clear(ctx context.Context) error
}

// AuditPublisher hands events off for asynchronous persistence. Publish must
// never block the request path.
type AuditPublisher interface {
	Publish(event domain.AuthEvent)
}
