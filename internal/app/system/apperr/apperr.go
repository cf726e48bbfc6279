// Package apperr defines the error classes services return. The HTTP layer
// (features/errors) maps each class to a status code and body.
package apperr

import (
	"errors"

	"github.com/dalemusser/collabhub/internal/app/system/inputval"
)

var (
	// ErrForbidden means the actor is known but may not perform the action.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated means no valid access token was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials is returned by login for unknown users, wrong
	// passwords and inactive accounts alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers malformed, expired and revoked tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrRateLimited is returned when a client exceeds a request budget.
	ErrRateLimited = errors.New("rate limited")
)

// NotFoundError reports that the named resource does not exist.
type NotFoundError struct {
	What string // "Project", "Task", "User"
}

func (e *NotFoundError) Error() string {
	return e.What + " not found."
}

// NotFound returns a NotFoundError for what.
func NotFound(what string) error {
	return &NotFoundError{What: what}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// RequestError is a 400 that is not tied to a field. Msg is shown to the
// client as is.
type RequestError struct {
	Msg string
}

func (e *RequestError) Error() string {
	return e.Msg
}

// BadRequest returns a RequestError with msg.
func BadRequest(msg string) error {
	return &RequestError{Msg: msg}
}

// ValidationError carries field-level messages for a 400 response.
type ValidationError struct {
	Fields inputval.Errors
}

func (e *ValidationError) Error() string {
	for field, msgs := range e.Fields {
		if len(msgs) > 0 {
			return "validation failed: " + field + ": " + msgs[0]
		}
	}
	return "validation failed"
}

// Validation wraps a non-empty error map. It returns nil when fields holds
// no errors so callers can write `if err := apperr.Validation(errs); err != nil`.
func Validation(fields inputval.Errors) error {
	if !fields.Any() {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Invalid is shorthand for a single-field validation error.
func Invalid(field, msg string) error {
	return &ValidationError{Fields: inputval.Errors{field: {msg}}}
}

// AsValidation extracts a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
