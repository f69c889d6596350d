// Package migrations embeds the Libris schema and applies it with goose.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedded embed.FS

// FS returns the migration files rooted at the SQL directory.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		// embed paths are fixed at compile time.
		panic(err)
	}
	return sub
}

// Runner applies schema migrations over a pgx pool.
type Runner struct {
	provider *goose.Provider
	closeDB  func() error
}

// NewRunner builds a goose provider on top of pool. The pool stays owned by the caller.
func NewRunner(pool *pgxpool.Pool) (*Runner, error) {
	if pool == nil {
		return nil, fmt.Errorf("migrations: nil pool")
	}
	db := stdlib.OpenDBFromPool(pool)

	p, err := goose.NewProvider(goose.DialectPostgres, db, FS())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: provider: %w", err)
	}
	return &Runner{provider: p, closeDB: db.Close}, nil
}

// Up applies all pending migrations and returns the versions applied.
func (r *Runner) Up(ctx context.Context) ([]int64, error) {
	res, err := r.provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrations: up: %w", err)
	}
	out := make([]int64, 0, len(res))
	for _, m := range res {
		out = append(out, m.Source.Version)
	}
	return out, nil
}

// Down rolls back the most recently applied migration.
func (r *Runner) Down(ctx context.Context) (int64, error) {
	res, err := r.provider.Down(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrations: down: %w", err)
	}
	return res.Source.Version, nil
}

// Status reports each known migration and whether it has been applied.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	st, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrations: status: %w", err)
	}
	out := make([]Status, 0, len(st))
	for _, s := range st {
		out = append(out, Status{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

// Close releases the database/sql wrapper. It does not close the pool.
func (r *Runner) Close() error {
	if r == nil || r.closeDB == nil {
		return nil
	}
	return r.closeDB()
}

// Status is a single migration's state.
type Status struct {
	Version int64
	Path    string
	Applied bool
}
