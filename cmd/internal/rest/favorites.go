package rest

import (
	"errors"
	"net/http"
	"time"

	"libris/cmd/internal/favorite"
	"libris/cmd/internal/httpx"
)

const (
	msgFavBookNotFound = "Book not found."
	msgFavConflict     = "Book already in favorites."
	msgFavNotFound     = "Favorite not found."
	msgFavRemoved      = "Favorite removed"
)

type addFavoriteRequest struct {
	BookID int64 `json:"bookId" validate:"required,gt=0"`
}

type favoriteResponse struct {
	UserID    int64     `json:"userId"`
	BookID    int64     `json:"bookId"`
	CreatedAt time.Time `json:"createdAt"`
}

type favoriteEntryResponse struct {
	BookID      int64     `json:"bookId"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	FavoritedAt time.Time `json:"favoritedAt"`
}

type removeFavoriteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	BookID  int64  `json:"bookId"`
}

type isFavoriteResponse struct {
	IsFavorite bool `json:"isFavorite"`
}

func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request) error {
	caller, err := h.deps.Gate.Require(r)
	if err != nil {
		return err
	}

	var req addFavoriteRequest
	if err := httpx.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		return err
	}
	if err := h.validate.Validate(req); err != nil {
		return err
	}

	fav, err := h.deps.Favorites.Add(r.Context(), caller.UserID, req.BookID)
	if err != nil {
		return favoriteError(err)
	}

	httpx.WriteJSON(w, http.StatusCreated, favoriteResponse{
		UserID:    fav.UserID,
		BookID:    fav.BookID,
		CreatedAt: fav.CreatedAt,
	})
	return nil
}

func (h *Handler) listFavorites(w http.ResponseWriter, r *http.Request) error {
	caller, err := h.deps.Gate.Require(r)
	if err != nil {
		return err
	}

	entries, err := h.deps.Favorites.List(r.Context(), caller.UserID)
	if err != nil {
		return err
	}

	out := make([]favoriteEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, favoriteEntryResponse{
			BookID:      e.BookID,
			Title:       e.Title,
			Author:      e.Author,
			FavoritedAt: e.FavoritedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) error {
	caller, err := h.deps.Gate.Require(r)
	if err != nil {
		return err
	}
	bookID, err := httpx.PathID(r, "bookId", "book")
	if err != nil {
		return err
	}

	if err := h.deps.Favorites.Remove(r.Context(), caller.UserID, bookID); err != nil {
		return favoriteError(err)
	}
	httpx.WriteJSON(w, http.StatusOK, removeFavoriteResponse{Success: true, Message: msgFavRemoved, BookID: bookID})
	return nil
}

func (h *Handler) isFavorite(w http.ResponseWriter, r *http.Request) error {
	caller, err := h.deps.Gate.Require(r)
	if err != nil {
		return err
	}
	bookID, err := httpx.PathID(r, "bookId", "book")
	if err != nil {
		return err
	}

	ok, err := h.deps.Favorites.Exists(r.Context(), caller.UserID, bookID)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, isFavoriteResponse{IsFavorite: ok})
	return nil
}

func favoriteError(err error) error {
	if res, ok := favorite.MissingResource(err); ok {
		switch res {
		case "book":
			return httpx.NotFound(msgFavBookNotFound)
		case "user":
			return httpx.NotFound("User not found in database")
		default:
			return httpx.NotFound(msgFavNotFound)
		}
	}
	switch {
	case errors.Is(err, favorite.ErrConflict):
		return httpx.Conflict(msgFavConflict)
	case errors.Is(err, favorite.ErrInvalidInput):
		return httpx.BadRequest("Invalid input")
	default:
		return err
	}
}
