// Package httpx holds the JSON plumbing shared by every Libris handler:
// body decoding, validation, classified status errors and the single
// top-level error path that turns anything unclassified into a logged 500.
package httpx
