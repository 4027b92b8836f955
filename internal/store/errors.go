package store

import "errors"

// Sentinel errors shared by every Sibling Store implementation.
var (
	// ErrNotFound is returned when no node has the given ID.
	ErrNotFound = errors.New("node not found")

	// ErrConflict is returned when inserting a node whose ID already exists.
	ErrConflict = errors.New("node already exists")
)
