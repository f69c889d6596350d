package app

import (
	"errors"
	"fmt"

	"libris/cmd/internal/auth/session"
	"libris/cmd/security/token"
)

// minProductionSecretBytes is the shortest SESSION_SECRET accepted in production.
const minProductionSecretBytes = 32

// ValidateSecurityConfig enforces the startup security policy.
//
// Development runs with the placeholder secret. Production refuses it and
// anything shorter than 32 bytes.
func ValidateSecurityConfig(cfg Config) error {
	minBytes := 0
	if cfg.Production() {
		if cfg.Session.Secret == session.PlaceholderSecret {
			return errors.New("security policy: APP_ENV=production but SESSION_SECRET is the placeholder value")
		}
		minBytes = minProductionSecretBytes
	}

	if err := token.CheckSecret(cfg.Session.Secret, minBytes); err != nil {
		switch {
		case errors.Is(err, token.ErrSecretMissing):
			return errors.New("security policy: SESSION_SECRET is missing")
		case errors.Is(err, token.ErrSecretTooShort):
			return fmt.Errorf("security policy: SESSION_SECRET is too short (min %d bytes)", minBytes)
		default:
			return err
		}
	}
	return nil
}
