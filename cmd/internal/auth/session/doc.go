// Package session implements bearer-token sessions held in Redis.
//
// A session is a single key, <prefix><token>, whose value is the JSON
// identity {"userId","email"} and whose lifetime is the key's TTL. The
// key's existence is the only proof of authentication: tokens are opaque
// UUIDv4 strings, not signed. Expiry is left to Redis; sessions are never
// renewed on use.
//
// The configured secret never touches the token. It keys the HMAC used to
// fingerprint tokens in logs so raw tokens are never written out.
package session
