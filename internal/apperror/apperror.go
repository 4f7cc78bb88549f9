// Package apperror defines the error kinds shared by every layer of devlog.
//
// Each kind is a sentinel. Constructors wrap the sentinel in an *AppError that
// carries the human-readable message, so callers branch with errors.Is and
// only the HTTP layer decides which status code a kind becomes.
package apperror

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStorage      = errors.New("storage error")
	ErrUnavailable  = errors.New("unavailable")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Detail  string // Optional: diagnostic detail surfaced as "details"
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing record as "Entry not found with id 7". Records
// owned by another user are reported the same way.
func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", capitalize(resource), id),
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// NoMatches reports an empty filter result.
func NoMatches(resource, field, value string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("No %s found with %s matching %q", resource, field, value),
		Field:   field,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized covers missing, malformed or expired tokens and bad credentials.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Storage wraps a backing-store failure. The cause is kept in the chain and
// its text is exposed as the detail.
func Storage(op string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %w", ErrStorage, op, err),
		Message: "Database error",
		Detail:  err.Error(),
	}
}

func Unavailable(message string, err error) *AppError {
	e := &AppError{
		Err:     ErrUnavailable,
		Message: message,
	}
	if err != nil {
		e.Err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		e.Detail = err.Error()
	}
	return e
}
