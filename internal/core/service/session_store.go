package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// maxTokenAttempts bounds the retries on a token hash collision.
const maxTokenAttempts = 3

// SessionStore mints, resolves and revokes session tokens on top of a
// SessionRepository. Expired and revoked sessions are indistinguishable from
// missing ones to its callers.
type SessionStore struct {
	repo     ports.SessionRepository
	now      func() time.Time
	newToken func() (domain.SessionToken, error)
}

func NewSessionStore(repo ports.SessionRepository) *SessionStore {
	return &SessionStore{
		repo:     repo,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: domain.NewSessionToken,
	}
}

// Create starts a session for userID that expires after ttl.
func (s *SessionStore) Create(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: session ttl must be positive", domain.ErrInvalidInput)
	}

	for attempt := 1; ; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return nil, err
		}

		now := s.now()
		sess := &domain.Session{
			Token:     token.String(),
			TokenHash: token.Hash(),
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}

		err = s.repo.Create(ctx, sess)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, domain.ErrSessionExists) || attempt == maxTokenAttempts {
			return nil, fmt.Errorf("create session: %w", err)
		}
	}
}

// FindByToken returns the session behind token if it is still active.
func (s *SessionStore) FindByToken(ctx context.Context, token domain.SessionToken) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}

	sess, err := s.repo.FindByTokenHash(ctx, token.Hash())
	if err != nil {
		return nil, err
	}
	if !sess.ActiveAt(s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Revoke is idempotent.
func (s *SessionStore) Revoke(ctx context.Context, token domain.SessionToken) error {
	if token == "" {
		return nil
	}
	return s.repo.Revoke(ctx, token.Hash())
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
