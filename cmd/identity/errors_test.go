package identity

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	conflict := fmt.Errorf("wrap: %w", ConflictError{Op: "identity.CreateUser", Field: "email"})
	if !IsConflict(conflict) || !errors.Is(conflict, ErrConflict) {
		t.Fatalf("conflict not classified: %v", conflict)
	}
	if IsNotFound(conflict) {
		t.Fatalf("conflict must not be not-found")
	}

	nf := NotFoundError{Op: "identity.GetUser", Resource: "user"}
	if !IsNotFound(nf) {
		t.Fatalf("not found not classified")
	}
	if got := nf.Error(); got != "identity.GetUser: not_found: user" {
		t.Fatalf("unexpected message %q", got)
	}

	inv := pgInvalid("identity.CreateUser", "username is required")
	if !IsInvalidInput(inv) {
		t.Fatalf("invalid input not classified")
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	if got := NormalizeEmail("  Bob@Example.COM "); got != "bob@example.com" {
		t.Fatalf("email: %q", got)
	}
	if got := NormalizeUsername("  Bob "); got != "Bob" {
		t.Fatalf("username: %q", got)
	}
}

func TestUpdateUserInput_Empty(t *testing.T) {
	t.Parallel()

	if !(UpdateUserInput{}).Empty() {
		t.Fatalf("zero input must be empty")
	}
	v := "x"
	if (UpdateUserInput{Email: &v}).Empty() {
		t.Fatalf("input with email must not be empty")
	}
}

func TestWithSchema_RejectsBadIdentifier(t *testing.T) {
	t.Parallel()

	st := &PostgresStore{}
	if err := WithSchema(`bad"schema`)(st); err == nil {
		t.Fatalf("expected error for invalid identifier")
	}
	if err := WithSchema("libris")(st); err != nil || st.schema != "libris" {
		t.Fatalf("expected schema to be set, err=%v schema=%q", err, st.schema)
	}
}
