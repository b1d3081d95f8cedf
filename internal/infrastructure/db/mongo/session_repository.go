package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/identity-service/internal/core/domain"
)

const sessionsCollection = "user_sessions"

// SessionRepository implements ports.SessionRepository. Expired documents
// are reaped by a TTL index on expires_at; the service still checks expiry
// itself because the TTL monitor runs only once a minute.
type SessionRepository struct {
	coll *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{coll: db.Collection(sessionsCollection)}
}

type mongoSession struct {
	TokenHash string    `bson:"token_hash"`
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
	Revoked   bool      `bson:"revoked"`
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	ctx, cancel := mutationContext(ctx)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, mongoSession{
		TokenHash: s.TokenHash,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt.UTC(),
		ExpiresAt: s.ExpiresAt.UTC(),
		Revoked:   s.Revoked,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSessionExists
		}
		return fmt.Errorf("%w: insert session: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *SessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ms mongoSession
	if err := r.coll.FindOne(ctx, bson.M{"token_hash": tokenHash}).Decode(&ms); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: find session: %v", domain.ErrStoreUnavailable, err)
	}

	return &domain.Session{
		TokenHash: ms.TokenHash,
		UserID:    ms.UserID,
		CreatedAt: ms.CreatedAt.UTC(),
		ExpiresAt: ms.ExpiresAt.UTC(),
		Revoked:   ms.Revoked,
	}, nil
}

// Revoke is a single-document update, so concurrent readers see either the
// old or the new state.
func (r *SessionRepository) Revoke(ctx context.Context, tokenHash string) error {
	ctx, cancel := mutationContext(ctx)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"token_hash": tokenHash},
		bson.M{"$set": bson.M{"revoked": true}},
	)
	if err != nil {
		return fmt.Errorf("%w: revoke session: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	ctx, cancel := mutationContext(ctx)
	defer cancel()

	if _, err := r.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("%w: clear sessions: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// EnsureIndexes creates the unique token index and the expiry TTL index.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("token_hash_unique"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
