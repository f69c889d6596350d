package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// fingerprintLen is the number of hex chars kept from the HMAC digest.
const fingerprintLen = 16

// New returns a fresh opaque session token (UUIDv4, 122 random bits from crypto/rand).
func New() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Valid reports whether s has the shape of a token produced by New.
// It is a cheap pre-filter before touching the session store.
func Valid(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 64 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// Fingerprint returns a short, stable identifier for a token suitable for logs.
// With an empty secret it falls back to plain SHA-256.
func Fingerprint(secret, tok string) string {
	if tok == "" {
		return ""
	}
	var sum string
	if secret == "" {
		sum = HashSHA256Hex(tok)
	} else {
		sum = HashHMACSHA256Hex(tok, []byte(secret))
	}
	return sum[:fingerprintLen]
}

// CheckSecret enforces a minimum byte length on a configured secret.
func CheckSecret(secret string, minBytes int) error {
	s := strings.TrimSpace(secret)
	if s == "" {
		return ErrSecretMissing
	}
	if minBytes > 0 && len(s) < minBytes {
		return ErrSecretTooShort
	}
	return nil
}
