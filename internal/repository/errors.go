package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when a user insert violates the email uniqueness constraint.
	ErrEmailTaken = errors.New("email already registered")
)
