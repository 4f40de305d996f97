// Package apperr defines the error value that resolvers and HTTP handlers
// return to the API boundary. It carries a human-readable message, an HTTP
// status code and an optional list of structured details.
//
// Callers construct it with New (return-to-caller) or Dispatch (hand it to a
// continuation, as middleware does) and recover it at the boundary with As or
// StatusOf.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an Error by the HTTP status it maps to.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Detail is one entry of the structured detail list.
type Detail struct {
	Message string `json:"message"`
}

// Error is the error signal propagated from resolvers to the boundary.
type Error struct {
	Message string
	Status  int
	Data    []Detail

	// cause is kept for logging only and is never sent to clients.
	cause error
}

// New builds an Error. A zero status becomes 500.
func New(message string, status int, data ...Detail) *Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	e := &Error{Message: message, Status: status}
	if len(data) > 0 {
		e.Data = data
	}
	return e
}

// Dispatch builds an Error and hands it to next instead of returning it.
// A nil next is a no-op.
func Dispatch(next func(error), message string, status int, data ...Detail) {
	if next == nil {
		return
	}
	next(New(message, status, data...))
}

// Wrap builds an Error that keeps err as its cause.
func Wrap(err error, message string, status int) *Error {
	e := New(message, status)
	e.cause = err
	return e
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Kind derives the classification from the status code.
func (e *Error) Kind() Kind {
	switch e.Status {
	case http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}

// Extensions exposes status and details to GraphQL engines that read error
// extensions.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"status": e.Status}
	if len(e.Data) > 0 {
		ext["data"] = e.Data
	}
	return ext
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusOf returns the status carried by err, or 500 when err carries none.
func StatusOf(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Validation builds a 422 error whose message is the first detail's.
func Validation(details []Detail) *Error {
	msg := "Invalid input."
	if len(details) > 0 {
		msg = details[0].Message
	}
	return New(msg, http.StatusUnprocessableEntity, details...)
}

// Unauthorized is a 401 with message.
func Unauthorized(message string) *Error {
	return New(message, http.StatusUnauthorized)
}

// Forbidden is a 403 with message.
func Forbidden(message string) *Error {
	return New(message, http.StatusForbidden)
}

// NotFound is a 404 with message.
func NotFound(message string) *Error {
	return New(message, http.StatusNotFound)
}

// Conflict is a 409 with message.
func Conflict(message string) *Error {
	return New(message, http.StatusConflict)
}

// Internal wraps an unexpected failure. The client only sees message.
func Internal(err error, message string) *Error {
	return Wrap(err, message, http.StatusInternalServerError)
}
