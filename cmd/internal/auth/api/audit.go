package authapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"libris/cmd/internal/httpx"
)

func (h *Handler) auditLoginFailed(r *http.Request, userID int64, email, reason string) {
	h.audit(r, "audit.auth.login.failed", userID,
		slog.String("email", email),
		slog.String("reason", reason),
	)
}

func (h *Handler) auditLoginSuccess(r *http.Request, userID int64, tokenFP string) {
	h.audit(r, "audit.auth.login.success", userID, slog.String("token_fp", tokenFP))
}

func (h *Handler) auditLogout(r *http.Request, userID int64, tokenFP string) {
	h.audit(r, "audit.auth.logout", userID, slog.String("token_fp", tokenFP))
}

// audit emits one structured record per security-relevant event.
func (h *Handler) audit(r *http.Request, action string, userID int64, attrs ...slog.Attr) {
	if h == nil || h.log == nil {
		return
	}
	base := []slog.Attr{
		slog.String("request_id", httpx.RequestID(r.Context())),
		slog.String("ip", clientIP(r)),
	}
	if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
		base = append(base, slog.String("user_agent", ua))
	}
	if userID > 0 {
		base = append(base, slog.Int64("user_id", userID))
	}
	h.log.LogAttrs(context.WithoutCancel(r.Context()), slog.LevelInfo, action, append(base, attrs...)...)
}
