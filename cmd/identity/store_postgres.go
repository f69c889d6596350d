package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store never closes it.
// Schema/table identifiers are quoted via pgx.Identifier.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "public").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentIsValid(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "public",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

const userColumns = `id, username, email, created_at, updated_at`

// CreateUser inserts a user row. Email is stored normalized.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	username := NormalizeUsername(in.Username)
	email := NormalizeEmail(in.Email)
	switch {
	case username == "":
		return User{}, pgInvalid(op, "username is required")
	case UsernameTooShort(username):
		return User{}, pgInvalid(op, "username is too short")
	case email == "":
		return User{}, pgInvalid(op, "email is required")
	case strings.TrimSpace(in.PasswordHash) == "":
		return User{}, pgInvalid(op, "password hash is required")
	}

	users := pgIdent(s.schema, "users")

	out, err := scanUser(s.pool.QueryRow(ctx,
		`INSERT INTO `+users+` (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		username, email, in.PasswordHash,
	))
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return out, nil
}

// GetUser loads a user by id.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (User, error) {
	const op = "identity.GetUser"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}

	users := pgIdent(s.schema, "users")
	out, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}
	return out, nil
}

// GetUserAuthByEmail loads the user and password hash for login.
func (s *PostgresStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	if s == nil || s.pool == nil {
		return UserAuth{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	email = NormalizeEmail(email)
	if email == "" {
		return UserAuth{}, pgInvalid(op, "email is required")
	}

	users := pgIdent(s.schema, "users")

	var out UserAuth
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+`, password_hash FROM `+users+` WHERE email = $1`, email,
	).Scan(
		&out.User.ID,
		&out.User.Username,
		&out.User.Email,
		&out.User.CreatedAt,
		&out.User.UpdatedAt,
		&out.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
		}
		return UserAuth{}, err
	}
	return out, nil
}

// ListUsers returns all users ordered by created_at descending.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	const op = "identity.ListUsers"

	if s == nil || s.pool == nil {
		return nil, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}

	users := pgIdent(s.schema, "users")
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM `+users+` ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateUser applies a partial update in a single statement.
func (s *PostgresStore) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (User, error) {
	const op = "identity.UpdateUser"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	var username, email, hash *string
	if in.Username != nil {
		v := NormalizeUsername(*in.Username)
		if v == "" {
			return User{}, pgInvalid(op, "username is empty")
		}
		if UsernameTooShort(v) {
			return User{}, pgInvalid(op, "username is too short")
		}
		username = &v
	}
	if in.Email != nil {
		v := NormalizeEmail(*in.Email)
		if v == "" {
			return User{}, pgInvalid(op, "email is empty")
		}
		email = &v
	}
	if in.PasswordHash != nil {
		if strings.TrimSpace(*in.PasswordHash) == "" {
			return User{}, pgInvalid(op, "password hash is empty")
		}
		hash = in.PasswordHash
	}

	users := pgIdent(s.schema, "users")
	out, err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE `+users+`
		    SET username      = COALESCE($2, username),
		        email         = COALESCE($3, email),
		        password_hash = COALESCE($4, password_hash),
		        updated_at    = now()
		  WHERE id = $1
		RETURNING `+userColumns,
		id, username, email, hash,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return out, nil
}

// DeleteUser removes a user row.
func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	const op = "identity.DeleteUser"

	if s == nil || s.pool == nil {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}

	users := pgIdent(s.schema, "users")
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+users+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// ---- helpers ----

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// pgInvalid standardizes invalid input errors.
func pgInvalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

// pgIdentIsValid checks if a string is a safe Postgres identifier.
func pgIdentIsValid(s string) bool {
	return pgIdentRe.MatchString(s)
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable constraint names; fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))

	switch c {
	case "users_username_unique":
		return "username", true
	case "users_email_unique":
		return "email", true
	default:
		switch {
		case strings.Contains(c, "username"):
			return "username", true
		case strings.Contains(c, "email"):
			return "email", true
		default:
			return "unique", true
		}
	}
}
