package service

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cretpass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "s3cretpass" {
		t.Fatalf("hash equals the plaintext")
	}
	if !h.Verify("s3cretpass", hash) {
		t.Fatalf("expected password to verify")
	}
	if h.Verify("wrongpass", hash) {
		t.Fatalf("wrong password verified")
	}
	if h.Verify("s3cretpass", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash must not verify")
	}

	again, _ := h.Hash("s3cretpass")
	if again == hash {
		t.Fatalf("expected salted hashes to differ")
	}
}

func TestNewBcryptHasher_CostOutOfRange(t *testing.T) {
	for _, cost := range []int{0, bcrypt.MaxCost + 1} {
		if got := NewBcryptHasher(cost).cost; got != bcrypt.DefaultCost {
			t.Fatalf("cost %d: expected default %d, got %d", cost, bcrypt.DefaultCost, got)
		}
	}
}
