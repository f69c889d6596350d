package identity

import (
	"strings"
	"unicode/utf8"
)

// MinUsernameLen is the shortest username accepted, counted in characters
// after normalization.
const MinUsernameLen = 3

// NormalizeUsername trims surrounding whitespace. Usernames keep their case.
func NormalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UsernameTooShort reports whether a normalized username is below MinUsernameLen.
func UsernameTooShort(normalized string) bool {
	return utf8.RuneCountInString(normalized) < MinUsernameLen
}
