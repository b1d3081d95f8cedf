package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/99minutos/identity-service/internal/core/domain"
)

func TestSessionRepository_Lifecycle(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	s := &domain.Session{Token: "raw", TokenHash: "h1", UserID: "u1", ExpiresAt: expires}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, s); !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}

	found, err := repo.FindByTokenHash(ctx, "h1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Token != "" {
		t.Fatalf("raw token must not be stored")
	}
	if found.UserID != "u1" || found.Revoked {
		t.Fatalf("unexpected session: %+v", found)
	}

	if err := repo.Revoke(ctx, "h1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := repo.Revoke(ctx, "unknown"); err != nil {
		t.Fatalf("revoking an unknown hash must succeed: %v", err)
	}
	found, _ = repo.FindByTokenHash(ctx, "h1")
	if !found.Revoked {
		t.Fatalf("expected session to be revoked")
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := repo.FindByTokenHash(ctx, "h1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after clear, got %v", err)
	}
}

func TestSessionRepository_PurgeExpired(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = repo.Create(ctx, &domain.Session{TokenHash: "old", ExpiresAt: now.Add(-time.Second)})
	_ = repo.Create(ctx, &domain.Session{TokenHash: "edge", ExpiresAt: now})
	_ = repo.Create(ctx, &domain.Session{TokenHash: "live", ExpiresAt: now.Add(time.Hour)})

	if n := repo.PurgeExpired(now); n != 2 {
		t.Fatalf("expected 2 purged, got %d", n)
	}
	if _, err := repo.FindByTokenHash(ctx, "live"); err != nil {
		t.Fatalf("live session purged: %v", err)
	}
	if _, err := repo.FindByTokenHash(ctx, "edge"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session expiring now to be purged, got %v", err)
	}
}
