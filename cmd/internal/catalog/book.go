// Package catalog stores the shared book catalog.
package catalog

import (
	"context"
	"time"
)

// Book is a catalog entry. ISBN and PublishedDate are optional.
type Book struct {
	ID            int64
	Title         string
	Author        string
	ISBN          *string
	PublishedDate *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateInput describes a new book.
type CreateInput struct {
	Title         string
	Author        string
	ISBN          *string
	PublishedDate *time.Time
}

// Nullable is a patch field for a nullable column.
// Set=false leaves the column alone; Set=true with a nil Value clears it.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UpdateInput is a partial update; nil/unset fields are left unchanged.
type UpdateInput struct {
	Title         *string
	Author        *string
	ISBN          Nullable[string]
	PublishedDate Nullable[time.Time]
}

// Empty reports whether the update changes nothing.
func (in UpdateInput) Empty() bool {
	return in.Title == nil && in.Author == nil && !in.ISBN.Set && !in.PublishedDate.Set
}

// ListQuery pages through the catalog, newest first.
type ListQuery struct {
	Limit  int
	Offset int
	// Title filters by case-insensitive substring when non-empty.
	Title string
}

// Store is the catalog persistence boundary.
type Store interface {
	Create(ctx context.Context, in CreateInput) (Book, error)
	Get(ctx context.Context, id int64) (Book, error)
	List(ctx context.Context, q ListQuery) ([]Book, error)
	Update(ctx context.Context, id int64, in UpdateInput) (Book, error)
	Delete(ctx context.Context, id int64) error
}
