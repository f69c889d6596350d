package authapi

import "time"

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	// Password must be present; an empty string is a credential like any other.
	Password *string `json:"password" validate:"required"`
}

// UserResponse is the public JSON view of a user. It never carries the hash.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}
