package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists books in PostgreSQL.
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

const bookColumns = `id, title, author, isbn, published_date, created_at, updated_at`

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Create inserts a book.
func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (Book, error) {
	if s == nil || s.pool == nil {
		return Book{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}
	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)
	if title == "" || author == "" {
		return Book{}, ErrInvalidInput
	}

	books := pgIdent(s.schema, "books")
	out, err := scanBook(s.pool.QueryRow(ctx,
		`INSERT INTO `+books+` (title, author, isbn, published_date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+bookColumns,
		title, author, trimPtr(in.ISBN), utcPtr(in.PublishedDate),
	))
	if err != nil {
		return Book{}, classify(err)
	}
	return out, nil
}

// Get loads a book by id.
func (s *PostgresStore) Get(ctx context.Context, id int64) (Book, error) {
	if s == nil || s.pool == nil {
		return Book{}, ErrInvalidInput
	}

	books := pgIdent(s.schema, "books")
	out, err := scanBook(s.pool.QueryRow(ctx,
		`SELECT `+bookColumns+` FROM `+books+` WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return out, nil
}

// List returns a page of books ordered by created_at descending.
func (s *PostgresStore) List(ctx context.Context, q ListQuery) ([]Book, error) {
	if s == nil || s.pool == nil {
		return nil, ErrInvalidInput
	}
	if q.Limit < 0 || q.Offset < 0 || q.Limit > MaxLimit {
		return nil, ErrInvalidInput
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}

	books := pgIdent(s.schema, "books")

	var (
		sql  strings.Builder
		args []any
	)
	sql.WriteString(`SELECT ` + bookColumns + ` FROM ` + books)
	if title := strings.TrimSpace(q.Title); title != "" {
		args = append(args, "%"+escapeLike(title)+"%")
		sql.WriteString(` WHERE title ILIKE $1 ESCAPE '\'`)
	}
	args = append(args, q.Limit, q.Offset)
	fmt.Fprintf(&sql, ` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, sql.String(), args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Book, error) {
		return scanBook(row)
	})
}

// Update applies a partial update in one statement and bumps updated_at.
func (s *PostgresStore) Update(ctx context.Context, id int64, in UpdateInput) (Book, error) {
	if s == nil || s.pool == nil {
		return Book{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}

	title, author := trimPtr(in.Title), trimPtr(in.Author)
	if (in.Title != nil && title == nil) || (in.Author != nil && author == nil) {
		return Book{}, ErrInvalidInput
	}

	books := pgIdent(s.schema, "books")
	out, err := scanBook(s.pool.QueryRow(ctx,
		`UPDATE `+books+`
		    SET title          = COALESCE($2, title),
		        author         = COALESCE($3, author),
		        isbn           = CASE WHEN $4::boolean THEN $5::varchar ELSE isbn END,
		        published_date = CASE WHEN $6::boolean THEN $7::timestamp ELSE published_date END,
		        updated_at     = now()
		  WHERE id = $1
		RETURNING `+bookColumns,
		id,
		title,
		author,
		in.ISBN.Set, trimPtr(in.ISBN.Value),
		in.PublishedDate.Set, utcPtr(in.PublishedDate.Value),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, classify(err)
	}
	return out, nil
}

// Delete removes a book; favorites referencing it cascade.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}

	books := pgIdent(s.schema, "books")
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+books+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.PublishedDate, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// trimPtr trims a string pointer, returning nil if the result is empty.
func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func pgIdent(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}
