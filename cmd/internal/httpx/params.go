package httpx

import (
	"net/http"
	"strconv"
	"strings"
)

// PathID parses a positive integer path value. entity names the resource
// in the error message ("Invalid book ID format").
func PathID(r *http.Request, name, entity string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, BadRequest("Invalid " + entity + " ID format")
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter within [lo, hi].
// An absent or empty value yields def.
func QueryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, BadRequest("Invalid " + name + " parameter")
	}
	return n, nil
}
