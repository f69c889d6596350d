package app

import (
	"context"
	"log/slog"
	"net/http"

	authapi "libris/cmd/internal/auth/api"
	"libris/cmd/internal/httpx"
	"libris/cmd/internal/rest"
)

const bannerText = "Endpoints available under /api."

// readinessCheck reports whether one backing service can take traffic.
type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

type routes struct {
	log     *slog.Logger
	auth    *authapi.Handler
	rest    *rest.Handler
	metrics *Metrics
	ready   []readinessCheck
}

func registerHTTP(mux *http.ServeMux, rt routes) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteText(w, http.StatusOK, bannerText)
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteText(w, http.StatusOK, "ok")
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		for _, rc := range rt.ready {
			if err := rc.check(r.Context()); err != nil {
				rt.log.Info("readyz.not_ready", "dependency", rc.name, "err", err)
				httpx.WriteText(w, http.StatusServiceUnavailable, rc.name+" not ready")
				return
			}
		}
		httpx.WriteText(w, http.StatusOK, "ready")
	})

	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	if rt.auth != nil {
		rt.auth.Register(mux)
	}
	if rt.rest != nil {
		rt.rest.Register(mux)
	}
}

// buildHandler layers the middleware chain over mux. Outermost first:
// request id, request log, metrics, panic recovery, security headers, CORS.
func buildHandler(mux http.Handler, cfg Config, log *slog.Logger, metrics *Metrics) http.Handler {
	var h http.Handler = mux
	h = WithCORS(h, cfg, log)
	h = WithSecurityHeaders(h)
	h = WithRecover(h, log)
	if metrics != nil {
		h = metrics.Middleware(h)
	}
	h = WithRequestLogging(h, log)
	h = WithRequestID(h)
	return h
}
