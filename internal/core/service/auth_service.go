package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

const (
	DefaultSessionTTL        = 24 * time.Hour
	DefaultMinPasswordLength = 8
)

// AuthPolicy holds the tunable rules of the auth flow.
type AuthPolicy struct {
	SessionTTL        time.Duration
	MinPasswordLength int
}

// AuthService implements registration, login, logout and token
// authentication.
type AuthService struct {
	users    ports.UserRepository
	sessions *SessionStore
	hasher   ports.PasswordHasher
	throttle ports.LoginThrottle
	audit    ports.AuditPublisher
	policy   AuthPolicy
	log      zerolog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AuthOption configures optional collaborators of AuthService.
type AuthOption func(*AuthService)

// WithLoginThrottle enables per-username failed login limiting.
func WithLoginThrottle(t ports.LoginThrottle) AuthOption {
	return func(s *AuthService) { s.throttle = t }
}

// WithAuditPublisher sends auth events to p.
func WithAuditPublisher(p ports.AuditPublisher) AuthOption {
	return func(s *AuthService) { s.audit = p }
}

func NewAuthService(
	users ports.UserRepository,
	sessions *SessionStore,
	hasher ports.PasswordHasher,
	policy AuthPolicy,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	if policy.SessionTTL <= 0 {
		policy.SessionTTL = DefaultSessionTTL
	}
	if policy.MinPasswordLength <= 0 {
		policy.MinPasswordLength = DefaultMinPasswordLength
	}

	s := &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		policy:   policy,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if err := s.validateRegistration(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		Fullname:     in.Fullname,
		Email:        in.Email,
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.publish(domain.EventUserRegistered, created.Username, created.ID)
	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")

	return created.Public(), nil
}

func (s *AuthService) validateRegistration(in ports.RegisterInput) error {
	switch {
	case strings.TrimSpace(in.Username) == "":
		return fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	case in.Password == "":
		return fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	case utf8.RuneCountInString(in.Password) < s.policy.MinPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, s.policy.MinPasswordLength)
	case len(in.Password) > MaxPasswordBytes:
		return fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, MaxPasswordBytes)
	}
	return nil
}

// Login verifies the credentials and opens a new session. Unknown users and
// wrong passwords produce the same error and take comparable time.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	if !s.allowAttempt(ctx, username) {
		s.log.Warn().Str("username", username).Msg("login throttled")
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummy())
			return nil, s.loginFailed(ctx, username, "")
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.loginFailed(ctx, username, user.ID)
	}

	sess, err := s.sessions.Create(ctx, user.ID, s.policy.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, username); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("failed to reset login throttle")
		}
	}
	s.publish(domain.EventLoginSucceeded, user.Username, user.ID)

	return &ports.LoginResult{
		User:      user.Public(),
		Token:     domain.SessionToken(sess.Token),
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// allowAttempt fails open: a throttle outage must not lock everybody out.
func (s *AuthService) allowAttempt(ctx context.Context, username string) bool {
	if s.throttle == nil {
		return true
	}
	ok, err := s.throttle.Allow(ctx, username)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("login throttle check failed, allowing attempt")
		return true
	}
	return ok
}

func (s *AuthService) loginFailed(ctx context.Context, username, userID string) error {
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, username); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("failed to record login failure")
		}
	}
	s.publish(domain.EventLoginFailed, username, userID)
	return domain.ErrInvalidCredentials
}

// dummy returns a valid hash that no password matches, used to keep the
// unknown-user path as slow as a real verification.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		secret, err := domain.NewSessionToken()
		if err == nil {
			s.dummyHash, err = s.hasher.Hash(secret.String()[:MaxPasswordBytes/2])
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to prepare dummy password hash")
		}
	})
	return s.dummyHash
}

// Logout revokes the session behind token. It succeeds when there is nothing
// to revoke.
func (s *AuthService) Logout(ctx context.Context, token domain.SessionToken) error {
	sess, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("logout: %w", err)
	}

	if err := s.sessions.Revoke(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	s.publish(domain.EventLogout, "", sess.UserID)
	return nil
}

func (s *AuthService) Authenticate(ctx context.Context, token domain.SessionToken) (*domain.User, error) {
	sess, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return user.Public(), nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]*domain.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

func (s *AuthService) publish(kind domain.AuthEventType, username, userID string) {
	if s.audit == nil {
		return
	}
	s.audit.Publish(domain.AuthEvent{
		ID:         uuid.NewString(),
		Type:       kind,
		Username:   username,
		UserID:     userID,
		OccurredAt: s.now(),
	})
}
