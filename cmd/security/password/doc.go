// Package password provides password hashing and verification utilities for Libris.
//
// It implements salted bcrypt hashing and includes:
// - Configurable cost (via environment variables)
// - Password policy validation
// - Strict handling of malformed stored hashes
//
// bcrypt only considers the first 72 bytes of input, so the policy caps
// length in bytes rather than silently truncating.
package password
