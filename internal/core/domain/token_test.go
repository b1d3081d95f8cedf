package domain

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestNewSessionToken(t *testing.T) {
	a, err := NewSessionToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _ := NewSessionToken()
	if a == b {
		t.Fatalf("expected distinct tokens")
	}

	raw, err := base64.RawURLEncoding.DecodeString(a.String())
	if err != nil {
		t.Fatalf("token is not url-safe base64: %v", err)
	}
	if len(raw) != SessionTokenBytes {
		t.Fatalf("expected %d bytes of entropy, got %d", SessionTokenBytes, len(raw))
	}
}

func TestSessionToken_Hash(t *testing.T) {
	tok := SessionToken("abc")
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := tok.Hash(); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if tok.Hash() == SessionToken("abd").Hash() {
		t.Fatalf("different tokens hashed alike")
	}
}

func TestParseBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   SessionToken
		ok     bool
	}{
		{header: "Bearer abc123", want: "abc123", ok: true},
		{header: "bearer abc123", want: "abc123", ok: true},
		{header: "BEARER abc123", want: "abc123", ok: true},
		{header: ""},
		{header: "Bearer"},
		{header: "Bearer "},
		{header: "Basic abc123"},
		{header: "abc123"},
		{header: "Bearer abc 123"},
		{header: "Bearer  abc123"},
	}

	for _, tc := range tests {
		got, err := ParseBearerToken(tc.header)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("header %q: expected %q, got %q (%v)", tc.header, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("header %q: expected ErrUnauthorized, got %q (%v)", tc.header, got, err)
		}
	}
}
