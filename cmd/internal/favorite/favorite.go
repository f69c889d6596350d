// Package favorite stores per-user favorite books.
package favorite

import (
	"context"
	"time"
)

// Favorite marks a book as a favorite of a user. The pair is unique.
type Favorite struct {
	UserID    int64
	BookID    int64
	CreatedAt time.Time
}

// Entry is a favorite joined with its book, as listed for the owner.
type Entry struct {
	BookID      int64
	Title       string
	Author      string
	FavoritedAt time.Time
}

// Store is the favorites persistence boundary.
type Store interface {
	// Add returns NotFoundError{"book"} for unknown books and ErrConflict for duplicates.
	Add(ctx context.Context, userID, bookID int64) (Favorite, error)
	Remove(ctx context.Context, userID, bookID int64) error
	// List returns the user's favorites, newest first.
	List(ctx context.Context, userID int64) ([]Entry, error)
	Exists(ctx context.Context, userID, bookID int64) (bool, error)
}
