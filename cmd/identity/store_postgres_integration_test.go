package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"libris/cmd/internal/pgtest"
)

// Integration tests are opt-in and require LIBRIS_TEST_DATABASE_URL.

func TestPostgresStore_CreateUser_NormalizesEmail(t *testing.T) {
	t.Parallel()

	db := pgtest.Open(t)
	s := mustNewIdentityStore(t, db)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	u, err := s.CreateUser(ctx, CreateUserInput{
		Username:     "  alice ",
		Email:        " Alice@Example.COM ",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuu",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID <= 0 {
		t.Fatalf("expected positive id, got %d", u.ID)
	}
	if u.Username != "alice" {
		t.Fatalf("username: got %q", u.Username)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email: got %q", u.Email)
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not populated: %+v", u)
	}

	auth, err := s.GetUserAuthByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("get auth: %v", err)
	}
	if auth.User.ID != u.ID || auth.PasswordHash == "" {
		t.Fatalf("unexpected auth row: %+v", auth)
	}
}

func TestPostgresStore_CreateUser_Conflicts(t *testing.T) {
	t.Parallel()

	db := pgtest.Open(t)
	s := mustNewIdentityStore(t, db)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	mustCreateUser(t, s, "bob", "bob@example.com")

	cases := []struct {
		name  string
		in    CreateUserInput
		field string
	}{
		{"username", CreateUserInput{Username: "bob", Email: "other@example.com", PasswordHash: "h"}, "username"},
		{"email case-insensitive", CreateUserInput{Username: "bobby", Email: "BOB@example.com", PasswordHash: "h"}, "email"},
	}

	for _, tc := range cases {
		_, err := s.CreateUser(ctx, tc.in)
		if !IsConflict(err) {
			t.Fatalf("%s: expected conflict, got %v", tc.name, err)
		}
		var ce ConflictError
		if !errors.As(err, &ce) || ce.Field != tc.field {
			t.Fatalf("%s: expected field %q, got %+v", tc.name, tc.field, ce)
		}
	}

	if n := db.Count(t, "users"); n != 1 {
		t.Fatalf("expected 1 user after conflicts, got %d", n)
	}
}

func TestPostgresStore_GetUser_NotFound(t *testing.T) {
	t.Parallel()

	db := pgtest.Open(t)
	s := mustNewIdentityStore(t, db)

	_, err := s.GetUser(context.Background(), 424242)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = s.GetUserAuthByEmail(context.Background(), "nobody@example.com")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresStore_ListUsers_NewestFirst(t *testing.T) {
	t.Parallel()

	db := pgtest.Open(t)
	s := mustNewIdentityStore(t, db)

	first := mustCreateUser(t, s, "first", "first@example.com")
	second := mustCreateUser(t, s, "second", "second@example.com")
	pgtest.MustExec(t, db.Pool,
		`UPDATE users SET created_at = now() - interval '1 hour' WHERE id = $1`, first.ID)

	list, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 users, got %d", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("unexpected order: %d, %d", list[0].ID, list[1].ID)
	}
}

func TestPostgresStore_UpdateUser_Partial(t *testing.T) {
	t.Parallel()

	db := pgtest.Open(t)
	s := mustNewIdentityStore(t, db)
	ctx := context.Background()

	u := mustCreateUser(t, s, "carol", "carol@example.com")
	mustCreateUser(t, s, "dave", "dave@example.com")

	name := "caroline"
	out, err := s.UpdateUser(ctx, u.ID, UpdateUserInput{Username: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Username != "caroline" || out.Email != "carol@example.com" {
		t.Fatalf("unexpected update result: %+v", out)
	}
	if out.UpdatedAt.Before(u.UpdatedAt) {
		t.Fatalf("updated_at went backwards")
	}

	taken := "DAVE@example.com"
	_, err = s.UpdateUser(ctx, u.ID, UpdateUserInput{Email: &taken})
	if !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	_, err = s.UpdateUser(ctx, 999999, UpdateUserInput{Username: &name})
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresStore_DeleteUser_CascadesFavorites(t *testing.T) {
	t.Parallel()

	db := pgtest.Open(t)
	s := mustNewIdentityStore(t, db)
	ctx := context.Background()

	u := mustCreateUser(t, s, "erin", "erin@example.com")

	var bookID int64
	if err := db.Pool.QueryRow(ctx,
		`INSERT INTO books (title, author) VALUES ('Dune', 'Herbert') RETURNING id`,
	).Scan(&bookID); err != nil {
		t.Fatalf("insert book: %v", err)
	}
	pgtest.MustExec(t, db.Pool, `INSERT INTO favorites (user_id, book_id) VALUES ($1, $2)`, u.ID, bookID)

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := db.Count(t, "favorites"); n != 0 {
		t.Fatalf("expected favorites to cascade, got %d", n)
	}
	if n := db.Count(t, "books"); n != 1 {
		t.Fatalf("book must survive user deletion, got %d", n)
	}

	if err := s.DeleteUser(ctx, u.ID); !IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func mustNewIdentityStore(t *testing.T, db pgtest.DB) *PostgresStore {
	t.Helper()
	s, err := NewPostgresStore(db.Pool, WithSchema(db.Schema))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func mustCreateUser(t *testing.T, s *PostgresStore, username, email string) User {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	u, err := s.CreateUser(ctx, CreateUserInput{
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$placeholderplaceholderplaceholde",
	})
	if err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return u
}

func TestPostgresStore_RejectsShortUsernameAfterTrim(t *testing.T) {
	t.Parallel()

	db := pgtest.Open(t)
	s := mustNewIdentityStore(t, db)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := s.CreateUser(ctx, CreateUserInput{
		Username:     "  ab  ",
		Email:        "trim@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuu",
	})
	if !IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if n := db.Count(t, "users"); n != 0 {
		t.Fatalf("expected no rows, got %d", n)
	}

	u, err := s.CreateUser(ctx, CreateUserInput{
		Username:     "carol",
		Email:        "carol@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuu",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	short := " cj "
	if _, err := s.UpdateUser(ctx, u.ID, UpdateUserInput{Username: &short}); !IsInvalidInput(err) {
		t.Fatalf("expected invalid input on update, got %v", err)
	}
	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Username != "carol" {
		t.Fatalf("username changed to %q", got.Username)
	}
}
