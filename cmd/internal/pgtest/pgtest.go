// Package pgtest opens throwaway Postgres schemas for integration tests.
//
// Tests are opt-in: set LIBRIS_TEST_DATABASE_URL. Outside CI an unreachable
// server skips instead of failing.
package pgtest

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"libris/cmd/identity/ids"
	"libris/cmd/internal/migrations"
)

// EnvDatabaseURL names the variable that enables integration tests.
const EnvDatabaseURL = "LIBRIS_TEST_DATABASE_URL"

// DB is a migrated, isolated schema.
type DB struct {
	Pool   *pgxpool.Pool
	Schema string
}

// Open creates a fresh schema, migrates it and registers cleanup on t.
// The returned pool has search_path pointed at the schema.
func Open(t testing.TB) DB {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv(EnvDatabaseURL))
	if raw == "" {
		t.Skipf("integration test skipped: %s is not set", EnvDatabaseURL)
	}

	admin := mustConnect(t, raw, "")
	t.Cleanup(admin.Close)

	id, err := ids.NewULID(time.Now().UTC())
	if err != nil {
		t.Fatalf("ulid: %v", err)
	}
	schema := "libris_it_" + strings.ToLower(id)

	MustExec(t, admin, `CREATE SCHEMA `+pgx.Identifier{schema}.Sanitize())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
	})

	pool := mustConnect(t, raw, schema)
	t.Cleanup(pool.Close)

	runner, err := migrations.NewRunner(pool)
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	defer func() { _ = runner.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := runner.Up(ctx); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	return DB{Pool: pool, Schema: schema}
}

// MustExec runs sql and fails the test on error.
func MustExec(t testing.TB, pool *pgxpool.Pool, sql string, args ...any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := pool.Exec(ctx, sql, args...); err != nil {
		t.Fatalf("exec failed: %v", err)
	}
}

// Count returns SELECT count(*) FROM schema.table.
func (db DB) Count(t testing.TB, table string) int {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var n int
	q := `SELECT count(*) FROM ` + pgx.Identifier{db.Schema, table}.Sanitize()
	if err := db.Pool.QueryRow(ctx, q).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func mustConnect(t testing.TB, raw, searchPath string) *pgxpool.Pool {
	t.Helper()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse %s: %v", EnvDatabaseURL, err)
	}
	if searchPath != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = searchPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	c, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		if shouldSkip(err) {
			t.Skipf("integration test skipped: Postgres unreachable (%s set): %v", EnvDatabaseURL, err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	return pool
}

func shouldSkip(err error) bool {
	if err == nil || os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host")
}
