package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// SessionTokenBytes is the amount of entropy in a freshly minted token.
const SessionTokenBytes = 32

const bearerScheme = "bearer"

// SessionToken is an opaque bearer credential.
type SessionToken string

// NewSessionToken returns a random URL-safe token.
func NewSessionToken() (SessionToken, error) {
	b := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return SessionToken(base64.RawURLEncoding.EncodeToString(b)), nil
}

// Hash returns the hex SHA-256 digest under which the token is stored.
func (t SessionToken) Hash() string {
	sum := sha256.Sum256([]byte(t))
	return hex.EncodeToString(sum[:])
}

func (t SessionToken) String() string {
	return string(t)
}

// ParseBearerToken extracts the token from an Authorization header value of
// the form "Bearer <token>". The scheme is matched case-insensitively.
func ParseBearerToken(header string) (SessionToken, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", ErrUnauthorized)
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", fmt.Errorf("%w: invalid authorization header", ErrUnauthorized)
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", fmt.Errorf("%w: invalid bearer token", ErrUnauthorized)
	}

	return SessionToken(token), nil
}
