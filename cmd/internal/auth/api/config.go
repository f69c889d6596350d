package authapi

import "libris/cmd/internal/httpx"

// Config controls auth API behavior.
type Config struct {
	MaxBodyBytes int64
}

// DefaultConfig returns the defaults used when the app passes a zero Config.
func DefaultConfig() Config {
	return Config{MaxBodyBytes: httpx.DefaultMaxBodyBytes}
}
