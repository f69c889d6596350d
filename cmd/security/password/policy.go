package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validate checks password policy. It does not mutate input.
func (c Config) Validate(password string) error {
	// Minimum counts characters, maximum counts bytes (bcrypt's limit).
	if utf8.RuneCountInString(password) < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if c.Policy.MaxBytes > 0 && len(password) > c.Policy.MaxBytes {
		return ErrPasswordTooLong
	}

	if c.Policy.RejectVeryWeak && looksVeryWeak(password) {
		return ErrWeakPassword
	}

	return nil
}

// PolicyMessage renders a Validate error as a client-facing message.
// Non-policy errors yield "".
func (c Config) PolicyMessage(err error) string {
	switch {
	case errors.Is(err, ErrPasswordTooShort):
		return fmt.Sprintf("String must contain at least %d character(s)", c.Policy.MinLength)
	case errors.Is(err, ErrPasswordTooLong):
		return fmt.Sprintf("String must contain at most %d byte(s)", c.Policy.MaxBytes)
	case errors.Is(err, ErrWeakPassword):
		return "Password is too weak"
	default:
		return ""
	}
}

// looksVeryWeak is intentionally minimal and conservative.
// It is not a full zxcvbn-style estimator.
func looksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}

	first, _ := utf8.DecodeRuneInString(s)
	if strings.Trim(s, string(first)) == "" {
		return true
	}

	onlyDigits := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
	if onlyDigits && utf8.RuneCountInString(s) < 12 {
		return true
	}

	switch strings.ToLower(s) {
	case "password", "password123", "123456", "123456789", "qwerty", "qwerty123", "11111111", "secret":
		return true
	}

	return false
}
