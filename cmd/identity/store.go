package identity

import (
	"context"
	"time"
)

// User is a registered account. It never carries the password hash.
type User struct {
	ID        int64
	Username  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserAuth is the credential view used only by login.
type UserAuth struct {
	User         User
	PasswordHash string
}

// CreateUserInput describes a registration. PasswordHash must already be hashed.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
}

// UpdateUserInput is a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether the update changes nothing.
func (in UpdateUserInput) Empty() bool {
	return in.Username == nil && in.Email == nil && in.PasswordHash == nil
}

// Store is the user persistence boundary.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error)

	// ListUsers returns every user, newest first.
	ListUsers(ctx context.Context) ([]User, error)

	// UpdateUser applies in to the row and bumps updated_at.
	// Returns NotFoundError when id is unknown and ConflictError on duplicate username/email.
	UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (User, error)

	// DeleteUser removes the user; favorites cascade.
	DeleteUser(ctx context.Context, id int64) error
}
