// Package common defines sentinel errors and constants shared by the
// repository, service and transport layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Unsupported storage backend in a DSN.
	ErrorUnsupportedBackend = errors.New("unsupported storage backend")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
