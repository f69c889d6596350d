package catalog

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("book not found")
	ErrConflict     = errors.New("book isbn already exists")
)
