package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"libris/cmd/identity"
	"libris/cmd/internal/auth/session"
	"libris/cmd/internal/httpx"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgLoggedOut          = "Logged out successfully"
	msgUserGone           = "User not found in database"
)

// Users is the slice of the user store the auth endpoints need.
type Users interface {
	GetUser(ctx context.Context, id int64) (identity.User, error)
	GetUserAuthByEmail(ctx context.Context, email string) (identity.UserAuth, error)
}

// Sessions issues, resolves and revokes bearer sessions.
type Sessions interface {
	Resolver
	Issue(ctx context.Context, id session.Identity) (string, error)
	Revoke(ctx context.Context, token string) error
	Fingerprint(token string) string
}

// Passwords hashes and verifies credentials.
type Passwords interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) (bool, error)
}

// Handler wires HTTP auth endpoints to the user store and sessions.
type Handler struct {
	log *slog.Logger
	cfg Config

	users     Users
	sessions  Sessions
	passwords Passwords
	gate      *Gate
	validate  *httpx.Validator

	dummyHash string
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, users Users, sessions Sessions, passwords Passwords, gate *Gate) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil || sessions == nil || passwords == nil || gate == nil {
		return nil, errors.New("authapi: missing dependency")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}

	h := &Handler{
		log:       log,
		cfg:       cfg,
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		gate:      gate,
		validate:  httpx.NewValidator(),
	}

	// Dummy hash for timing-resistant login checks.
	if hash, err := passwords.Hash("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}
	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /api/auth/login", httpx.Handle(h.log, h.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", httpx.Handle(h.log, h.handleLogout))
	mux.HandleFunc("GET /api/auth/me", httpx.Handle(h.log, h.handleMe))
}

// ---- handlers ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		return err
	}
	if err := h.validate.Validate(req); err != nil {
		return err
	}

	ctx := r.Context()
	email := identity.NormalizeEmail(req.Email)
	pw := *req.Password

	ua, err := h.users.GetUserAuthByEmail(ctx, email)
	if err != nil {
		if !identity.IsNotFound(err) {
			return err
		}
		// Timing resistance: perform a dummy verify when user is missing.
		if h.dummyHash != "" {
			_, _ = h.passwords.Verify(h.dummyHash, pw)
		}
		h.auditLoginFailed(r, 0, email, "not_found")
		return httpx.Unauthorized(msgInvalidCredentials)
	}

	ok, err := h.passwords.Verify(ua.PasswordHash, pw)
	if err != nil || !ok {
		reason := "bad_password"
		if err != nil {
			reason = "bad_hash"
			h.log.Warn("auth.login.verify.fail", slog.Int64("user_id", ua.User.ID), slog.Any("err", err))
		}
		h.auditLoginFailed(r, ua.User.ID, email, reason)
		return httpx.Unauthorized(msgInvalidCredentials)
	}

	tok, err := h.sessions.Issue(ctx, session.Identity{UserID: ua.User.ID, Email: ua.User.Email})
	if err != nil {
		if errors.Is(err, session.ErrUnavailable) {
			return httpx.Unavailable("Session store unavailable", err)
		}
		return err
	}

	h.auditLoginSuccess(r, ua.User.ID, h.sessions.Fingerprint(tok))

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Token: tok,
		User:  ToUserResponse(ua.User),
	})
	return nil
}

// handleLogout always answers 200 for an authenticated caller. A failed
// revoke is logged; the session then lapses with its TTL.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) error {
	id, err := h.gate.Require(r)
	if err != nil {
		return err
	}

	tok := BearerToken(r)
	if err := h.sessions.Revoke(r.Context(), tok); err != nil {
		h.log.Warn("auth.logout.revoke.fail",
			slog.Int64("user_id", id.UserID),
			slog.String("token_fp", h.sessions.Fingerprint(tok)),
			slog.Any("err", err),
		)
	}
	h.auditLogout(r, id.UserID, h.sessions.Fingerprint(tok))

	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: msgLoggedOut})
	return nil
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) error {
	id, err := h.gate.Require(r)
	if err != nil {
		return err
	}

	u, err := h.users.GetUser(r.Context(), id.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			return httpx.NotFound(msgUserGone)
		}
		return err
	}

	httpx.WriteJSON(w, http.StatusOK, ToUserResponse(u))
	return nil
}
