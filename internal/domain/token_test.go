package domain

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/marqueehq/marquee/internal/validator"
)

func TestNewTokenShape(t *testing.T) {
	token, err := NewToken(42, AuthenticationTokenTTL, ScopeAuthentication)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(token.Plaintext) != 26 {
		t.Fatalf("expected 26 character plaintext, got %d: %q", len(token.Plaintext), token.Plaintext)
	}
	if strings.Contains(token.Plaintext, "=") {
		t.Fatalf("expected unpadded plaintext, got %q", token.Plaintext)
	}
	if token.UserID != 42 {
		t.Fatalf("unexpected user id: %d", token.UserID)
	}
	if token.Scope != ScopeAuthentication {
		t.Fatalf("unexpected scope: %s", token.Scope)
	}
	until := time.Until(token.Expiry)
	if until <= 23*time.Hour || until > 24*time.Hour {
		t.Fatalf("expected roughly 24h expiry, got %s", until)
	}
}

func TestNewTokenHashMatchesPlaintext(t *testing.T) {
	token, err := NewToken(1, time.Minute, ScopeActivation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(token.Hash, TokenHash(token.Plaintext)) {
		t.Fatalf("hash does not match plaintext digest")
	}
	if len(token.Hash) != 32 {
		t.Fatalf("expected 32 byte sha-256 digest, got %d", len(token.Hash))
	}
}

func TestNewTokenPlaintextsAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		token, err := NewToken(1, time.Minute, ScopeActivation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := seen[token.Plaintext]; ok {
			t.Fatalf("duplicate plaintext generated: %q", token.Plaintext)
		}
		seen[token.Plaintext] = struct{}{}
	}
}

func TestValidateTokenPlaintext(t *testing.T) {
	cases := []struct {
		name      string
		plaintext string
		wantError string
	}{
		{name: "valid", plaintext: strings.Repeat("A", 26)},
		{name: "empty", plaintext: "", wantError: "must be provided"},
		{name: "too short", plaintext: "ABC", wantError: "must be 26 bytes long"},
		{name: "too long", plaintext: strings.Repeat("A", 27), wantError: "must be 26 bytes long"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := validator.New()
			ValidateTokenPlaintext(v, tc.plaintext)
			if tc.wantError == "" {
				if !v.Valid() {
					t.Fatalf("expected valid, got %v", v.Errors())
				}
				return
			}
			if got := v.Errors()["token"]; got != tc.wantError {
				t.Fatalf("expected %q, got %q", tc.wantError, got)
			}
		})
	}
}
