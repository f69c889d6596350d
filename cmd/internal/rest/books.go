package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"libris/cmd/internal/catalog"
	"libris/cmd/internal/httpx"
)

const (
	msgBookConflict = "Book with this ISBN already exists."
	msgBookNotFound = "Book not found"
	msgBookDeleted  = "Book deleted"

	maxISBNLen = 20
)

// optional records whether a JSON field was present and whether it was null.
type optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

type createBookRequest struct {
	Title         string  `json:"title" validate:"required,notblank,max=255"`
	Author        string  `json:"author" validate:"required,notblank,max=255"`
	ISBN          *string `json:"isbn" validate:"omitempty,max=20"`
	PublishedDate *string `json:"publishedDate"`
}

type updateBookRequest struct {
	Title         *string          `json:"title" validate:"omitnil,notblank,max=255"`
	Author        *string          `json:"author" validate:"omitnil,notblank,max=255"`
	ISBN          optional[string] `json:"isbn"`
	PublishedDate optional[string] `json:"publishedDate"`
}

type bookResponse struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	ISBN          *string    `json:"isbn"`
	PublishedDate *time.Time `json:"publishedDate"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toBookResponse(b catalog.Book) bookResponse {
	return bookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		PublishedDate: b.PublishedDate,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) error {
	if _, err := h.deps.Gate.Require(r); err != nil {
		return err
	}

	var req createBookRequest
	if err := httpx.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		return err
	}

	fe := h.validate.Check(req)
	var published *time.Time
	if req.PublishedDate != nil {
		published = parseDate(fe, *req.PublishedDate)
	}
	if err := fe.Err(); err != nil {
		return err
	}

	b, err := h.deps.Books.Create(r.Context(), catalog.CreateInput{
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		PublishedDate: published,
	})
	if err != nil {
		return bookError(err)
	}

	httpx.WriteJSON(w, http.StatusCreated, toBookResponse(b))
	return nil
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) error {
	limit, err := httpx.QueryInt(r, "limit", catalog.DefaultLimit, 1, catalog.MaxLimit)
	if err != nil {
		return err
	}
	offset, err := httpx.QueryInt(r, "offset", 0, 0, 1<<31-1)
	if err != nil {
		return err
	}

	books, err := h.deps.Books.List(r.Context(), catalog.ListQuery{
		Limit:  limit,
		Offset: offset,
		Title:  r.URL.Query().Get("query"),
	})
	if err != nil {
		return bookError(err)
	}

	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) error {
	id, err := httpx.PathID(r, "id", "book")
	if err != nil {
		return err
	}

	b, err := h.deps.Books.Get(r.Context(), id)
	if err != nil {
		return bookError(err)
	}
	httpx.WriteJSON(w, http.StatusOK, toBookResponse(b))
	return nil
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) error {
	if _, err := h.deps.Gate.Require(r); err != nil {
		return err
	}
	id, err := httpx.PathID(r, "id", "book")
	if err != nil {
		return err
	}

	var req updateBookRequest
	if err := httpx.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		return err
	}

	fe := h.validate.Check(req)
	in := catalog.UpdateInput{Title: req.Title, Author: req.Author}

	if req.ISBN.Set {
		in.ISBN.Set = true
		if !req.ISBN.Null {
			if utf8.RuneCountInString(req.ISBN.Value) > maxISBNLen {
				fe.Add("isbn", "String must contain at most 20 character(s)")
			}
			v := req.ISBN.Value
			in.ISBN.Value = &v
		}
	}
	if req.PublishedDate.Set {
		in.PublishedDate.Set = true
		if !req.PublishedDate.Null {
			in.PublishedDate.Value = parseDate(fe, req.PublishedDate.Value)
		}
	}
	if in.Empty() {
		fe.AddForm("At least one field must be provided")
	}
	if err := fe.Err(); err != nil {
		return err
	}

	b, err := h.deps.Books.Update(r.Context(), id, in)
	if err != nil {
		return bookError(err)
	}
	httpx.WriteJSON(w, http.StatusOK, toBookResponse(b))
	return nil
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) error {
	if _, err := h.deps.Gate.Require(r); err != nil {
		return err
	}
	id, err := httpx.PathID(r, "id", "book")
	if err != nil {
		return err
	}

	if err := h.deps.Books.Delete(r.Context(), id); err != nil {
		return bookError(err)
	}
	httpx.WriteJSON(w, http.StatusOK, deleteResponse{Success: true, Message: msgBookDeleted, ID: id})
	return nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (as UTC midnight).
func parseDate(fe *httpx.FieldErrors, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	fe.Add("publishedDate", "Invalid datetime")
	return nil
}

func bookError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrConflict):
		return httpx.Conflict(msgBookConflict)
	case errors.Is(err, catalog.ErrNotFound):
		return httpx.NotFound(msgBookNotFound)
	case errors.Is(err, catalog.ErrInvalidInput):
		return httpx.BadRequest("Invalid input")
	default:
		return err
	}
}
