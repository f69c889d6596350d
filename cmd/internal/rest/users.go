package rest

import (
	"net/http"
	"time"

	"libris/cmd/identity"
	authapi "libris/cmd/internal/auth/api"
	"libris/cmd/internal/httpx"
)

const (
	msgUserConflict = "Username or email already exists."
	msgUserNotFound = "User not found"
	msgUserDeleted  = "User deleted"
)

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitnil,min=3,max=255"`
	Email    *string `json:"email" validate:"omitnil,email,max=255"`
	Password *string `json:"password"`
}

// normalize applies the store's canonical form before validation so length
// rules see what will be saved.
func (r *createUserRequest) normalize() {
	r.Username = identity.NormalizeUsername(r.Username)
	r.Email = identity.NormalizeEmail(r.Email)
}

func (r *updateUserRequest) normalize() {
	if r.Username != nil {
		v := identity.NormalizeUsername(*r.Username)
		r.Username = &v
	}
	if r.Email != nil {
		v := identity.NormalizeEmail(*r.Email)
		r.Email = &v
	}
}

type createUserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type updateUserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) error {
	var req createUserRequest
	if err := httpx.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		return err
	}

	req.normalize()
	fe := h.validate.Check(req)
	if req.Password != "" {
		h.checkPassword(fe, req.Password)
	}
	if err := fe.Err(); err != nil {
		return err
	}

	hash, err := h.deps.Passwords.Hash(req.Password)
	if err != nil {
		return err
	}

	u, err := h.deps.Users.CreateUser(r.Context(), identity.CreateUserInput{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return userError(err)
	}

	h.log.Info("user.created", "user_id", u.ID, "request_id", httpx.RequestID(r.Context()))
	httpx.WriteJSON(w, http.StatusCreated, createUserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	})
	return nil
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) error {
	if _, err := h.deps.Gate.Require(r); err != nil {
		return err
	}

	users, err := h.deps.Users.ListUsers(r.Context())
	if err != nil {
		return err
	}

	out := make([]authapi.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, authapi.ToUserResponse(u))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) error {
	if _, err := h.deps.Gate.Require(r); err != nil {
		return err
	}
	id, err := httpx.PathID(r, "id", "user")
	if err != nil {
		return err
	}

	u, err := h.deps.Users.GetUser(r.Context(), id)
	if err != nil {
		return userError(err)
	}
	httpx.WriteJSON(w, http.StatusOK, authapi.ToUserResponse(u))
	return nil
}

// updateUser checks ownership before the body is decoded.
func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) error {
	caller, err := h.deps.Gate.Require(r)
	if err != nil {
		return err
	}
	id, err := httpx.PathID(r, "id", "user")
	if err != nil {
		return err
	}
	if caller.UserID != id {
		return httpx.Forbidden()
	}

	var req updateUserRequest
	if err := httpx.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		return err
	}

	req.normalize()
	fe := h.validate.Check(req)
	if req.Password != nil {
		h.checkPassword(fe, *req.Password)
	}
	if req.Username == nil && req.Email == nil && req.Password == nil {
		fe.AddForm("At least one field must be provided")
	}
	if err := fe.Err(); err != nil {
		return err
	}

	in := identity.UpdateUserInput{Username: req.Username, Email: req.Email}
	if req.Password != nil {
		hash, err := h.deps.Passwords.Hash(*req.Password)
		if err != nil {
			return err
		}
		in.PasswordHash = &hash
	}

	u, err := h.deps.Users.UpdateUser(r.Context(), id, in)
	if err != nil {
		return userError(err)
	}

	httpx.WriteJSON(w, http.StatusOK, updateUserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		UpdatedAt: u.UpdatedAt,
	})
	return nil
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) error {
	caller, err := h.deps.Gate.Require(r)
	if err != nil {
		return err
	}
	id, err := httpx.PathID(r, "id", "user")
	if err != nil {
		return err
	}
	if caller.UserID != id {
		return httpx.Forbidden()
	}

	if err := h.deps.Users.DeleteUser(r.Context(), id); err != nil {
		return userError(err)
	}

	h.log.Info("user.deleted", "user_id", id, "request_id", httpx.RequestID(r.Context()))
	httpx.WriteJSON(w, http.StatusOK, deleteResponse{Success: true, Message: msgUserDeleted, ID: id})
	return nil
}

func (h *Handler) checkPassword(fe *httpx.FieldErrors, pw string) {
	if err := h.deps.Passwords.Validate(pw); err != nil {
		if msg := h.deps.Passwords.PolicyMessage(err); msg != "" {
			fe.Add("password", msg)
		}
	}
}

func userError(err error) error {
	switch {
	case identity.IsConflict(err):
		return httpx.Conflict(msgUserConflict)
	case identity.IsNotFound(err):
		return httpx.NotFound(msgUserNotFound)
	case identity.IsInvalidInput(err):
		return httpx.BadRequest("Invalid input")
	default:
		return err
	}
}
