package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"time"

	"github.com/marqueehq/marquee/internal/validator"
)

// Token scopes. A token is only valid when looked up under the scope it
// was minted for.
const (
	ScopeActivation     = "activation"
	ScopeAuthentication = "authentication"
	ScopePasswordReset  = "password-reset"
)

// Scope-specific lifetimes.
const (
	ActivationTokenTTL     = 72 * time.Hour
	AuthenticationTokenTTL = 24 * time.Hour
	PasswordResetTokenTTL  = 45 * time.Minute
)

// Token is an opaque credential. Plaintext lives only in memory and in
// the single response or email that delivers it; only Hash is persisted.
type Token struct {
	Plaintext string    `json:"token"`
	Hash      []byte    `json:"-"`
	UserID    int64     `json:"-"`
	Expiry    time.Time `json:"expiry"`
	Scope     string    `json:"-"`
}

// NewToken mints a token for the given user. It reads 16 bytes of
// cryptographically secure randomness and base32-encodes them without
// padding, yielding a 26 character plaintext. Persisting the token is
// the caller's responsibility.
func NewToken(userID int64, ttl time.Duration, scope string) (*Token, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	plaintext := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)

	return &Token{
		Plaintext: plaintext,
		Hash:      TokenHash(plaintext),
		UserID:    userID,
		Expiry:    time.Now().Add(ttl),
		Scope:     scope,
	}, nil
}

// TokenHash returns the SHA-256 digest of a token plaintext. The digest
// is deterministic so the store can index on it directly.
func TokenHash(plaintext string) []byte {
	hash := sha256.Sum256([]byte(plaintext))
	return hash[:]
}

// ValidateTokenPlaintext is a cheap shape check, not a cryptographic
// verification. It exists to reject garbage before a database round trip.
func ValidateTokenPlaintext(v *validator.Validator, plaintext string) {
	v.Check(plaintext != "", "token", "must be provided")
	v.Check(len(plaintext) == 26, "token", "must be 26 bytes long")
}
