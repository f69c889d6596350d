// Package token provides session token primitives for Libris.
//
// Tokens are opaque random strings; they carry no claims and no signature.
// A token is valid only while the session store holds a record for it.
//
// The package also derives log-safe fingerprints: raw tokens are bearer
// credentials and must never reach logs, so callers log
// Fingerprint(secret, token) instead. The secret is SESSION_SECRET.
package token
