package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrInvalidToken covers unknown, expired and revoked tokens alike.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when a user id resolves to no account.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoteNotFound is returned when a note id does not exist.
	ErrNoteNotFound = errors.New("note not found")
	// ErrForbidden is returned when an authenticated user touches a resource owned by someone else.
	ErrForbidden = errors.New("forbidden")
	// ErrNothingToUpdate is returned for an update carrying no fields.
	ErrNothingToUpdate = errors.New("no data to update")
)

// ValidationError collects field level failures. Only the first message per field is kept.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already failed.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = msg
}

// Has reports whether field already failed.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// RequireOwner is the ownership check applied to every note access.
func RequireOwner(ownerID, userID int64) error {
	if ownerID != userID {
		return ErrForbidden
	}
	return nil
}
