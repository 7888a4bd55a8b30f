package repository

import "errors"

var (
	// ErrInvalidID is returned for ids that are not 24-char hex ObjectIDs.
	// A well-formed id that matches nothing is not an error.
	ErrInvalidID = errors.New("repository: invalid id")

	// ErrImmutableField is returned when an update touches _id, createdAt or
	// modifyHistory.
	ErrImmutableField = errors.New("repository: field is immutable")

	// ErrInvalidUpdate is returned when an update document contains a
	// top-level key that is not an update operator.
	ErrInvalidUpdate = errors.New("repository: update must use operators")
)
