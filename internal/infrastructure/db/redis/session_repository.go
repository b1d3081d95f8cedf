package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/identity-service/internal/core/domain"
)

const (
	sessionKeyPrefix = "session:"
	clearBatchSize   = 500
)

// createSessionScript writes the session hash only when the key is absent and
// gives it a TTL in the same step.
var createSessionScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "user_id", ARGV[1], "created_at", ARGV[2], "expires_at", ARGV[3], "revoked", "0")
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return 1
`)

// revokeSessionScript flips the revoked flag without touching the TTL and
// without resurrecting a key that already expired.
var revokeSessionScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  redis.call("HSET", KEYS[1], "revoked", "1")
  return 1
end
return 0
`)

// SessionRepository implements ports.SessionRepository with one Redis hash
// per session, keyed by token hash and expiring with the session.
type SessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client, now: time.Now}
}

func (r *SessionRepository) key(tokenHash string) string {
	return sessionKeyPrefix + tokenHash
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("%w: session already expired", domain.ErrInvalidInput)
	}

	ctx, cancel := mutationContext(ctx)
	defer cancel()

	created, err := createSessionScript.Run(ctx, r.client,
		[]string{r.key(s.TokenHash)},
		s.UserID,
		s.CreatedAt.UnixNano(),
		s.ExpiresAt.UnixNano(),
		ttl.Milliseconds()+1,
	).Int()
	if err != nil {
		return fmt.Errorf("%w: create session: %v", domain.ErrStoreUnavailable, err)
	}
	if created == 0 {
		return domain.ErrSessionExists
	}
	return nil
}

func (r *SessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields, err := r.client.HGetAll(ctx, r.key(tokenHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: find session: %v", domain.ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	sess, err := decodeSession(tokenHash, fields)
	if err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", domain.ErrStoreUnavailable, err)
	}
	return sess, nil
}

func decodeSession(tokenHash string, fields map[string]string) (*domain.Session, error) {
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("expires_at: %w", err)
	}
	userID := fields["user_id"]
	if userID == "" {
		return nil, errors.New("missing user_id")
	}

	return &domain.Session{
		TokenHash: tokenHash,
		UserID:    userID,
		CreatedAt: time.Unix(0, createdAt).UTC(),
		ExpiresAt: time.Unix(0, expiresAt).UTC(),
		Revoked:   fields["revoked"] == "1",
	}, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, tokenHash string) error {
	ctx, cancel := mutationContext(ctx)
	defer cancel()

	if err := revokeSessionScript.Run(ctx, r.client, []string{r.key(tokenHash)}).Err(); err != nil {
		return fmt.Errorf("%w: revoke session: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Clear deletes every session key. It walks the keyspace with SCAN so it
// never blocks the server.
func (r *SessionRepository) Clear(ctx context.Context) error {
	ctx, cancel := mutationContext(ctx)
	defer cancel()

	iter := r.client.Scan(ctx, 0, sessionKeyPrefix+"*", clearBatchSize).Iterator()
	batch := make([]string, 0, clearBatchSize)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == clearBatchSize {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("%w: clear sessions: %v", domain.ErrStoreUnavailable, err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: scan sessions: %v", domain.ErrStoreUnavailable, err)
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("%w: clear sessions: %v", domain.ErrStoreUnavailable, err)
		}
	}
	return nil
}
