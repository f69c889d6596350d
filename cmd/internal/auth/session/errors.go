package session

import "errors"

var (
	// ErrUnavailable wraps session store failures (network, timeout, closed client).
	// Callers must not treat it as "not authenticated".
	ErrUnavailable = errors.New("session store unavailable")

	// ErrInvalidIdentity is returned by Issue for identities that could never resolve.
	ErrInvalidIdentity = errors.New("invalid session identity")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid session config")
)
