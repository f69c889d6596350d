// Package rest serves the user, book and favorite resources.
package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"libris/cmd/identity"
	authapi "libris/cmd/internal/auth/api"
	"libris/cmd/internal/catalog"
	"libris/cmd/internal/favorite"
	"libris/cmd/internal/httpx"
)

// Passwords hashes new credentials and explains policy failures.
type Passwords interface {
	Validate(password string) error
	Hash(password string) (string, error)
	PolicyMessage(err error) string
}

// Config controls request limits.
type Config struct {
	MaxBodyBytes int64
}

// Deps are the collaborators a Handler needs. All are required.
type Deps struct {
	Gate      *authapi.Gate
	Users     identity.Store
	Books     catalog.Store
	Favorites favorite.Store
	Passwords Passwords
}

// Handler wires the resource routes.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	deps     Deps
	validate *httpx.Validator
}

// NewHandler constructs a Handler.
func NewHandler(log *slog.Logger, cfg Config, deps Deps) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if deps.Gate == nil || deps.Users == nil || deps.Books == nil || deps.Favorites == nil || deps.Passwords == nil {
		return nil, errors.New("rest: missing dependency")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = httpx.DefaultMaxBodyBytes
	}
	return &Handler{log: log, cfg: cfg, deps: deps, validate: httpx.NewValidator()}, nil
}

// Register wires resource routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	handle := func(pattern string, fn httpx.HandlerFunc) {
		mux.HandleFunc(pattern, httpx.Handle(h.log, fn))
	}

	handle("POST /api/users", h.createUser)
	handle("GET /api/users", h.listUsers)
	handle("GET /api/users/{id}", h.getUser)
	handle("PUT /api/users/{id}", h.updateUser)
	handle("DELETE /api/users/{id}", h.deleteUser)

	handle("POST /api/books", h.createBook)
	handle("GET /api/books", h.listBooks)
	handle("GET /api/books/{id}", h.getBook)
	handle("PUT /api/books/{id}", h.updateBook)
	handle("DELETE /api/books/{id}", h.deleteBook)

	handle("POST /api/favorites", h.addFavorite)
	handle("GET /api/favorites", h.listFavorites)
	handle("DELETE /api/favorites/{bookId}", h.removeFavorite)
	handle("GET /api/favorites/is-favorite/{bookId}", h.isFavorite)
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id"`
}
