package favorite

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already in favorites")
)

// NotFoundError names which side of the pair was missing: "book", "user" or "favorite".
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("favorite: %s %v", e.Resource, ErrNotFound)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// MissingResource returns the missing resource name when err is a NotFoundError.
func MissingResource(err error) (string, bool) {
	var nf NotFoundError
	if errors.As(err, &nf) {
		return nf.Resource, true
	}
	return "", false
}
