package rest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"libris/cmd/identity"
	"libris/cmd/internal/auth/session"
	"libris/cmd/internal/catalog"
	"libris/cmd/internal/favorite"
)

// tokens maps bearer tokens straight to identities.
type tokens map[string]session.Identity

func (t tokens) Resolve(_ context.Context, tok string) (session.Identity, bool, error) {
	id, ok := t[tok]
	return id, ok, nil
}

type memUsers struct {
	mu     sync.Mutex
	next   int64
	rows   map[int64]identity.UserAuth
	writes int
}

func newMemUsers() *memUsers { return &memUsers{rows: map[int64]identity.UserAuth{}} }

func (m *memUsers) conflict(skip int64, username, email string) string {
	for id, u := range m.rows {
		if id == skip {
			continue
		}
		if u.User.Username == username {
			return "username"
		}
		if u.User.Email == email {
			return "email"
		}
	}
	return ""
}

func (m *memUsers) CreateUser(_ context.Context, in identity.CreateUserInput) (identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	username, email := identity.NormalizeUsername(in.Username), identity.NormalizeEmail(in.Email)
	if f := m.conflict(0, username, email); f != "" {
		return identity.User{}, identity.ConflictError{Op: "mem.CreateUser", Field: f}
	}
	m.next++
	now := time.Now().UTC().Add(time.Duration(m.next) * time.Millisecond)
	u := identity.User{ID: m.next, Username: username, Email: email, CreatedAt: now, UpdatedAt: now}
	m.rows[u.ID] = identity.UserAuth{User: u, PasswordHash: in.PasswordHash}
	m.writes++
	return u, nil
}

func (m *memUsers) GetUser(_ context.Context, id int64) (identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return identity.User{}, identity.NotFoundError{Op: "mem.GetUser", Resource: "user"}
	}
	return u.User, nil
}

func (m *memUsers) GetUserAuthByEmail(_ context.Context, email string) (identity.UserAuth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.User.Email == identity.NormalizeEmail(email) {
			return u, nil
		}
	}
	return identity.UserAuth{}, identity.NotFoundError{Op: "mem.GetUserAuthByEmail", Resource: "user"}
}

func (m *memUsers) ListUsers(_ context.Context) ([]identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]identity.User, 0, len(m.rows))
	for _, u := range m.rows {
		out = append(out, u.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memUsers) UpdateUser(_ context.Context, id int64, in identity.UpdateUserInput) (identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return identity.User{}, identity.NotFoundError{Op: "mem.UpdateUser", Resource: "user"}
	}
	username, email := row.User.Username, row.User.Email
	if in.Username != nil {
		username = identity.NormalizeUsername(*in.Username)
	}
	if in.Email != nil {
		email = identity.NormalizeEmail(*in.Email)
	}
	if f := m.conflict(id, username, email); f != "" {
		return identity.User{}, identity.ConflictError{Op: "mem.UpdateUser", Field: f}
	}
	row.User.Username, row.User.Email = username, email
	if in.PasswordHash != nil {
		row.PasswordHash = *in.PasswordHash
	}
	row.User.UpdatedAt = time.Now().UTC()
	m.rows[id] = row
	m.writes++
	return row.User, nil
}

func (m *memUsers) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return identity.NotFoundError{Op: "mem.DeleteUser", Resource: "user"}
	}
	delete(m.rows, id)
	m.writes++
	return nil
}

func (m *memUsers) get(id int64) identity.UserAuth {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

type memBooks struct {
	mu   sync.Mutex
	next int64
	rows map[int64]catalog.Book

	lastQuery catalog.ListQuery
}

func newMemBooks() *memBooks { return &memBooks{rows: map[int64]catalog.Book{}} }

func (m *memBooks) isbnTaken(skip int64, isbn *string) bool {
	if isbn == nil {
		return false
	}
	for id, b := range m.rows {
		if id != skip && b.ISBN != nil && *b.ISBN == *isbn {
			return true
		}
	}
	return false
}

func (m *memBooks) Create(_ context.Context, in catalog.CreateInput) (catalog.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isbnTaken(0, in.ISBN) {
		return catalog.Book{}, catalog.ErrConflict
	}
	m.next++
	now := time.Now().UTC().Add(time.Duration(m.next) * time.Millisecond)
	b := catalog.Book{ID: m.next, Title: in.Title, Author: in.Author, ISBN: in.ISBN, PublishedDate: in.PublishedDate, CreatedAt: now, UpdatedAt: now}
	m.rows[b.ID] = b
	return b, nil
}

func (m *memBooks) Get(_ context.Context, id int64) (catalog.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return catalog.Book{}, catalog.ErrNotFound
	}
	return b, nil
}

func (m *memBooks) List(_ context.Context, q catalog.ListQuery) ([]catalog.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q

	var out []catalog.Book
	for _, b := range m.rows {
		if q.Title == "" || strings.Contains(strings.ToLower(b.Title), strings.ToLower(q.Title)) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Offset >= len(out) {
		return nil, nil
	}
	out = out[q.Offset:]
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memBooks) Update(_ context.Context, id int64, in catalog.UpdateInput) (catalog.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return catalog.Book{}, catalog.ErrNotFound
	}
	if in.ISBN.Set && m.isbnTaken(id, in.ISBN.Value) {
		return catalog.Book{}, catalog.ErrConflict
	}
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Author != nil {
		b.Author = *in.Author
	}
	if in.ISBN.Set {
		b.ISBN = in.ISBN.Value
	}
	if in.PublishedDate.Set {
		b.PublishedDate = in.PublishedDate.Value
	}
	b.UpdatedAt = time.Now().UTC()
	m.rows[id] = b
	return b, nil
}

func (m *memBooks) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type favKey struct{ user, book int64 }

type memFavorites struct {
	mu    sync.Mutex
	books *memBooks
	rows  map[favKey]time.Time
}

func newMemFavorites(books *memBooks) *memFavorites {
	return &memFavorites{books: books, rows: map[favKey]time.Time{}}
}

func (m *memFavorites) Add(ctx context.Context, userID, bookID int64) (favorite.Favorite, error) {
	if _, err := m.books.Get(ctx, bookID); err != nil {
		return favorite.Favorite{}, favorite.NotFoundError{Resource: "book"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := favKey{userID, bookID}
	if _, ok := m.rows[k]; ok {
		return favorite.Favorite{}, favorite.ErrConflict
	}
	now := time.Now().UTC().Add(time.Duration(len(m.rows)) * time.Millisecond)
	m.rows[k] = now
	return favorite.Favorite{UserID: userID, BookID: bookID, CreatedAt: now}, nil
}

func (m *memFavorites) Remove(_ context.Context, userID, bookID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := favKey{userID, bookID}
	if _, ok := m.rows[k]; !ok {
		return favorite.NotFoundError{Resource: "favorite"}
	}
	delete(m.rows, k)
	return nil
}

func (m *memFavorites) List(ctx context.Context, userID int64) ([]favorite.Entry, error) {
	m.mu.Lock()
	var keys []favKey
	for k := range m.rows {
		if k.user == userID {
			keys = append(keys, k)
		}
	}
	m.mu.Unlock()

	var out []favorite.Entry
	for _, k := range keys {
		b, err := m.books.Get(ctx, k.book)
		if err != nil {
			continue
		}
		m.mu.Lock()
		at := m.rows[k]
		m.mu.Unlock()
		out = append(out, favorite.Entry{BookID: b.ID, Title: b.Title, Author: b.Author, FavoritedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FavoritedAt.After(out[j].FavoritedAt) })
	return out, nil
}

func (m *memFavorites) Exists(_ context.Context, userID, bookID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[favKey{userID, bookID}]
	return ok, nil
}
