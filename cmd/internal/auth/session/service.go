package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"libris/cmd/security/token"
)

// Identity is what a session proves: who the caller is.
type Identity struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

// Authenticator issues, resolves and revokes sessions.
//
// Safe for concurrent use; all state lives in the Store.
type Authenticator struct {
	cfg   Config
	store Store
	log   *slog.Logger
}

// NewAuthenticator constructs an Authenticator. A nil logger discards.
func NewAuthenticator(cfg Config, store Store, log *slog.Logger) (*Authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrConfig)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Authenticator{cfg: cfg, store: store, log: log}, nil
}

// TTL returns the configured session lifetime.
func (a *Authenticator) TTL() time.Duration { return a.cfg.TTL }

// Issue creates a new session for id and returns its token.
// Every call yields an independent session; earlier sessions stay valid.
func (a *Authenticator) Issue(ctx context.Context, id Identity) (string, error) {
	if id.UserID <= 0 {
		return "", ErrInvalidIdentity
	}

	tok, err := token.New()
	if err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}

	payload, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("session: encode identity: %w", err)
	}

	if err := a.store.Put(ctx, a.key(tok), payload, a.cfg.TTL); err != nil {
		return "", err
	}

	a.log.Debug("session.issue",
		slog.Int64("user_id", id.UserID),
		slog.String("token_fp", a.Fingerprint(tok)),
		slog.Duration("ttl", a.cfg.TTL),
	)
	return tok, nil
}

// Resolve returns the identity bound to tok.
//
// A missing, expired, revoked or malformed session is reported as absent
// (ok=false, err=nil). Store failures return an error wrapping ErrUnavailable.
func (a *Authenticator) Resolve(ctx context.Context, tok string) (Identity, bool, error) {
	tok = strings.TrimSpace(tok)
	if !token.Valid(tok) {
		return Identity{}, false, nil
	}

	raw, ok, err := a.store.Get(ctx, a.key(tok))
	if err != nil {
		a.log.Error("session.resolve.store_error",
			slog.String("token_fp", a.Fingerprint(tok)),
			slog.Any("err", err),
		)
		return Identity{}, false, err
	}
	if !ok {
		return Identity{}, false, nil
	}

	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil || id.UserID <= 0 {
		a.log.Warn("session.resolve.malformed",
			slog.String("token_fp", a.Fingerprint(tok)),
			slog.Int("payload_bytes", len(raw)),
		)
		return Identity{}, false, nil
	}
	return id, true, nil
}

// Revoke deletes the session for tok. Absent or expired sessions are a no-op.
func (a *Authenticator) Revoke(ctx context.Context, tok string) error {
	tok = strings.TrimSpace(tok)
	if !token.Valid(tok) {
		return nil
	}
	if err := a.store.Delete(ctx, a.key(tok)); err != nil {
		return err
	}
	a.log.Debug("session.revoke", slog.String("token_fp", a.Fingerprint(tok)))
	return nil
}

// Fingerprint returns the log-safe identifier for tok.
func (a *Authenticator) Fingerprint(tok string) string {
	return token.Fingerprint(a.cfg.Secret, tok)
}

func (a *Authenticator) key(tok string) string {
	return a.cfg.KeyPrefix + tok
}
