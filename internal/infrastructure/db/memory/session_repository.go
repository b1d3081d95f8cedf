package memory

import (
	"context"
	"sync"
	"time"

	"github.com/99minutos/identity-service/internal/core/domain"
)

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]domain.Session)}
}

func (r *SessionRepository) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.TokenHash]; exists {
		return domain.ErrSessionExists
	}
	stored := *s
	stored.Token = ""
	r.sessions[s.TokenHash] = stored
	return nil
}

func (r *SessionRepository) FindByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[tokenHash]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (r *SessionRepository) Revoke(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[tokenHash]; ok {
		s.Revoked = true
		r.sessions[tokenHash] = s
	}
	return nil
}

func (r *SessionRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = make(map[string]domain.Session)
	return nil
}

// PurgeExpired drops sessions that expired before now and returns how many
// were removed. Revoked records are kept until they expire so their tokens
// are never handed out again.
func (r *SessionRepository) PurgeExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for hash, s := range r.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(r.sessions, hash)
			n++
		}
	}
	return n
}
