package domain

import "errors"

var (
	// ErrNotFound is returned when an inventory record does not exist.
	ErrNotFound = errors.New("inventory not found")
	// ErrInvalidArgument marks caller supplied values the service rejects.
	ErrInvalidArgument = errors.New("invalid argument")
)
