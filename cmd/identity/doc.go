// Package identity owns Libris user accounts.
//
// It holds the User model, the Store boundary used by the HTTP layer and a
// pgx-backed implementation. Password hashing lives in cmd/security/password;
// the store only persists hashes it is given.
package identity
