package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if !CheckPassword(hash, "correct horse battery") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong password") {
		t.Fatalf("expected wrong password to fail")
	}
	if CheckPassword("not-a-hash", "correct horse battery") {
		t.Fatalf("expected garbage hash to fail")
	}
}

func TestHashPasswordLength(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword for short input, got %v", err)
	}
	if _, err := HashPassword(strings.Repeat("x", 73)); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword for long input, got %v", err)
	}
	if _, err := HashPassword(strings.Repeat("x", 72)); err != nil {
		t.Fatalf("expected 72 chars to be accepted, got %v", err)
	}
}
