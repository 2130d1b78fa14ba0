package store

import "errors"

var (
	// ErrNotFound is returned when a requested object or class does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClassUnavailable is returned when a class is registered but its
	// storage tables are missing.
	ErrClassUnavailable = errors.New("class storage unavailable")

	// ErrDuplicateKey is returned when a sibling with the same key exists.
	ErrDuplicateKey = errors.New("duplicate key under parent")

	// ErrInvalidIdentifier is returned for class, field or table names that
	// cannot be used in SQL.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidClass is returned when a class definition fails validation.
	ErrInvalidClass = errors.New("invalid class definition")
)
