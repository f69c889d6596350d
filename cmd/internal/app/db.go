package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbApplicationName = "libris"
	dbConnectTimeout  = 3 * time.Second
)

// dbPoolConfig parses DATABASE_URL and applies the configured pool bounds.
// application_name is set so sessions show up as libris in pg_stat_activity
// unless the DSN already names one.
func dbPoolConfig(cfg Config) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	if cfg.DBMaxConns > 0 {
		pcfg.MaxConns = cfg.DBMaxConns
	}
	if cfg.DBMinConns >= 0 {
		pcfg.MinConns = cfg.DBMinConns
	}
	if pcfg.MinConns > pcfg.MaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS=%d exceeds pool max %d", pcfg.MinConns, pcfg.MaxConns)
	}

	rp := pcfg.ConnConfig.RuntimeParams
	if _, ok := rp["application_name"]; !ok {
		rp["application_name"] = dbApplicationName
	}
	return pcfg, nil
}

// NewDBPool opens the Postgres pool and waits for one connection.
// Migrations are separate; see MIGRATE_ON_START and cmd/migrate.
func NewDBPool(ctx context.Context, cfg Config, log *slog.Logger) (*pgxpool.Pool, error) {
	pcfg, err := dbPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err := PingDB(ctx, pool, dbConnectTimeout); err != nil {
		pool.Close()
		return nil, err
	}

	if log != nil {
		log.Info("db.connected",
			slog.String("host", pcfg.ConnConfig.Host),
			slog.String("database", pcfg.ConnConfig.Database),
			slog.Int("max_conns", int(pcfg.MaxConns)),
			slog.Int("min_conns", int(pcfg.MinConns)),
		)
	}
	return pool, nil
}

// PingDB checks that a connection can be acquired within timeout.
func PingDB(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return conn.Ping(ctx)
}
