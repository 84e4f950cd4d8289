// Package service provides business logic for the application.
package service

import (
	"errors"

	"github.com/oklog/ulid/v2"
)

// Service errors.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRecordNotFound     = errors.New("record not found")
)

// newID returns a new lexically sortable identifier.
func newID() string {
	return ulid.Make().String()
}
