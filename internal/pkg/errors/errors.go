package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is returned when a write collides with an existing row.
	ErrConflict = errors.New("conflict")
	// ErrNotConfigured marks an integration that has no endpoint or credentials set.
	ErrNotConfigured = errors.New("not configured")
)
