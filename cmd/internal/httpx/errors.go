package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// MsgInternal is the only body an unclassified failure ever produces.
const MsgInternal = "Internal Server Error"

// Error is a failure the client is allowed to see.
// Status and Message go on the wire; Err stays in the logs.
type Error struct {
	Status  int
	Message string
	Fields  *FieldErrors
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error.
func NewError(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}

func BadRequest(msg string) *Error   { return NewError(http.StatusBadRequest, msg) }
func Unauthorized(msg string) *Error { return NewError(http.StatusUnauthorized, msg) }
func NotFound(msg string) *Error     { return NewError(http.StatusNotFound, msg) }
func Conflict(msg string) *Error     { return NewError(http.StatusConflict, msg) }

// Forbidden is the ownership-mismatch error.
func Forbidden() *Error { return NewError(http.StatusForbidden, "Forbidden") }

// Unavailable marks a dependency outage; cause is kept for logging.
func Unavailable(msg string, cause error) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Message: msg, Err: cause}
}

// Body is the JSON error envelope.
type Body struct {
	Message string       `json:"message"`
	Errors  *FieldErrors `json:"errors,omitempty"`
}

// HandlerFunc is an http.HandlerFunc that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts fn, routing any returned error through WriteError.
func Handle(log *slog.Logger, fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			WriteError(w, r, log, err)
		}
	}
}

// WriteError is the single top-level error path.
//
// Classified errors (*Error anywhere in the chain) are written as-is.
// Everything else is logged with the request id and answered with a bare 500.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if log == nil {
		log = slog.Default()
	}

	var he *Error
	if errors.As(err, &he) {
		if he.Status >= http.StatusInternalServerError {
			log.Warn("http.dependency.fail",
				slog.String("request_id", RequestID(r.Context())),
				slog.Int("status", he.Status),
				slog.Any("err", err),
			)
		}
		WriteJSON(w, he.Status, Body{Message: he.Message, Errors: he.Fields})
		return
	}

	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		log.Debug("http.request.canceled",
			slog.String("request_id", RequestID(r.Context())),
			slog.String("path", r.URL.Path),
		)
		return
	}

	log.Error("http.unhandled",
		slog.String("request_id", RequestID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("err", err),
	)
	WriteJSON(w, http.StatusInternalServerError, Body{Message: MsgInternal})
}
