package repository

import "errors"

var (
	// ErrNotFound indicates a lookup by id, credential or email found
	// nothing live.
	ErrNotFound = errors.New("repository: not found")

	// ErrEditConflict indicates an optimistic version mismatch: the row
	// changed between read and conditional write.
	ErrEditConflict = errors.New("repository: edit conflict")

	// ErrDuplicateEmail indicates the unique constraint on user email
	// fired.
	ErrDuplicateEmail = errors.New("repository: duplicate email")
)
