package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"libris/cmd/internal/auth/session"
	"libris/cmd/internal/httpx"
)

// MsgUnauthorized is the body message for every unauthenticated request.
const MsgUnauthorized = "Unauthorized: No active session or token invalid."

// Resolver turns a bearer token into an identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (session.Identity, bool, error)
}

// Gate is the request authorization capability. Handlers call it explicitly;
// nothing is stashed on the request.
type Gate struct {
	sessions Resolver
	log      *slog.Logger
}

// NewGate constructs a Gate over sessions.
func NewGate(sessions Resolver, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{sessions: sessions, log: log}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is case-insensitive; an absent or malformed header yields "".
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	scheme, rest, ok := strings.Cut(raw, " ")
	if !ok {
		return ""
	}
	if !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(rest)
}

// Identify resolves the caller's identity, if any.
func (g *Gate) Identify(r *http.Request) (session.Identity, bool, error) {
	tok := BearerToken(r)
	if tok == "" {
		return session.Identity{}, false, nil
	}
	return g.sessions.Resolve(r.Context(), tok)
}

// Require returns the caller's identity or a classified 401/503 error.
// It never touches Postgres.
func (g *Gate) Require(r *http.Request) (session.Identity, error) {
	id, ok, err := g.Identify(r)
	if err != nil {
		if errors.Is(err, session.ErrUnavailable) {
			return session.Identity{}, httpx.Unavailable("Session store unavailable", err)
		}
		return session.Identity{}, err
	}
	if !ok {
		return session.Identity{}, httpx.Unauthorized(MsgUnauthorized)
	}
	return id, nil
}
