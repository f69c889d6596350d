// Package app wires the Libris server runtime: config, logging, storage,
// sessions, HTTP routes and lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"libris/cmd/identity"
	authapi "libris/cmd/internal/auth/api"
	"libris/cmd/internal/auth/session"
	"libris/cmd/internal/catalog"
	"libris/cmd/internal/favorite"
	"libris/cmd/internal/migrations"
	"libris/cmd/internal/rest"
)

const shutdownTimeout = 10 * time.Second

// App is the Libris server runtime. It owns the Postgres pool and the Redis
// client and closes both when Run returns.
type App struct {
	cfg Config
	log Logger

	db    *pgxpool.Pool
	redis *redis.Client

	handler http.Handler
}

// New connects to Postgres and Redis, optionally migrates, and wires every
// store and handler.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg)
	}

	pool, err := NewDBPool(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
	}

	rdb, err := NewRedisClient(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("redis.connected", "addr", rdb.Options().Addr)

	a := &App{cfg: cfg, log: log, db: pool, redis: rdb}
	if a.handler, err = a.wire(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire() (http.Handler, error) {
	users, err := identity.NewPostgresStore(a.db)
	if err != nil {
		return nil, err
	}
	books, err := catalog.NewPostgresStore(a.db)
	if err != nil {
		return nil, err
	}
	favorites, err := favorite.NewPostgresStore(a.db)
	if err != nil {
		return nil, err
	}

	sessionStore, err := session.NewRedisStore(a.redis)
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewAuthenticator(a.cfg.Session, sessionStore, a.log)
	if err != nil {
		return nil, err
	}
	gate := authapi.NewGate(sessions, a.log)

	authHandler, err := authapi.NewHandler(a.log, authapi.Config{MaxBodyBytes: a.cfg.MaxBodyBytes},
		users, sessions, a.cfg.Password, gate)
	if err != nil {
		return nil, err
	}
	restHandler, err := rest.NewHandler(a.log, rest.Config{MaxBodyBytes: a.cfg.MaxBodyBytes}, rest.Deps{
		Gate:      gate,
		Users:     users,
		Books:     books,
		Favorites: favorites,
		Passwords: a.cfg.Password,
	})
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics()
	mux := http.NewServeMux()
	registerHTTP(mux, routes{
		log:     a.log,
		auth:    authHandler,
		rest:    restHandler,
		metrics: metrics,
		ready: []readinessCheck{
			{name: "postgres", check: func(ctx context.Context) error { return PingDB(ctx, a.db, 2*time.Second) }},
			{name: "redis", check: func(ctx context.Context) error { return PingRedis(ctx, a.redis, 2*time.Second) }},
		},
	})
	return buildHandler(mux, a.cfg, a.log, metrics), nil
}

// Run serves HTTP until ctx is canceled or the listener fails, then drains
// in-flight requests and releases the pool and Redis client.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("server.start", "addr", srv.Addr, "env", a.cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server.fail", "err", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("server.stop", "reason", context.Cause(gctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server.shutdown.fail", "err", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.log.Info("server.stopped")
	return nil
}

// Handler exposes the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("redis.close.fail", "err", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

func migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	runner, err := migrations.NewRunner(pool)
	if err != nil {
		return err
	}
	defer func() { _ = runner.Close() }()

	applied, err := runner.Up(ctx)
	if err != nil {
		return err
	}
	log.Info("db.migrated", "applied", applied)
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
