package favorite

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists favorites in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// StoreOption configures PostgresStore.
type StoreOption func(*PostgresStore) error

// WithSchema sets the DB schema used by the store (default: "public").
func WithSchema(schema string) StoreOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return ErrInvalidInput
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...StoreOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "public"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, ErrInvalidInput
	}
	return st, nil
}

// Add inserts the (user, book) pair. The primary key and foreign keys
// decide conflicts and missing books atomically.
func (s *PostgresStore) Add(ctx context.Context, userID, bookID int64) (Favorite, error) {
	if s == nil || s.pool == nil {
		return Favorite{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Favorite{}, err
	}

	favorites := pgIdent(s.schema, "favorites")

	out := Favorite{UserID: userID, BookID: bookID}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+favorites+` (user_id, book_id)
		 VALUES ($1, $2)
		 RETURNING created_at`,
		userID, bookID,
	).Scan(&out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation
				return Favorite{}, ErrConflict
			case "23503": // foreign_key_violation
				if strings.Contains(pgErr.ConstraintName, "user") {
					return Favorite{}, NotFoundError{Resource: "user"}
				}
				return Favorite{}, NotFoundError{Resource: "book"}
			}
		}
		return Favorite{}, err
	}
	return out, nil
}

// Remove deletes the pair, returning NotFoundError{"favorite"} when absent.
func (s *PostgresStore) Remove(ctx context.Context, userID, bookID int64) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}

	favorites := pgIdent(s.schema, "favorites")
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+favorites+` WHERE user_id = $1 AND book_id = $2`,
		userID, bookID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Resource: "favorite"}
	}
	return nil
}

// List returns the user's favorites joined with book details.
func (s *PostgresStore) List(ctx context.Context, userID int64) ([]Entry, error) {
	if s == nil || s.pool == nil {
		return nil, ErrInvalidInput
	}

	favorites := pgIdent(s.schema, "favorites")
	books := pgIdent(s.schema, "books")

	rows, err := s.pool.Query(ctx,
		`SELECT b.id, b.title, b.author, f.created_at
		   FROM `+favorites+` f
		   JOIN `+books+` b ON b.id = f.book_id
		  WHERE f.user_id = $1
		  ORDER BY f.created_at DESC, b.id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.BookID, &e.Title, &e.Author, &e.FavoritedAt)
		return e, err
	})
}

// Exists reports whether the pair is present.
func (s *PostgresStore) Exists(ctx context.Context, userID, bookID int64) (bool, error) {
	if s == nil || s.pool == nil {
		return false, ErrInvalidInput
	}

	favorites := pgIdent(s.schema, "favorites")
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+favorites+` WHERE user_id = $1 AND book_id = $2)`,
		userID, bookID,
	).Scan(&ok)
	return ok, err
}

func pgIdent(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}
