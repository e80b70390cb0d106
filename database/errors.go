package database

import "errors"

var (
	// ErrNotFound covers both a missing entity and an entity owned by a
	// different user; callers cannot tell the two apart.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness violation (duplicate email).
	ErrConflict = errors.New("already exists")
)
