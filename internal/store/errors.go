package store

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBatch reports a batch that cannot be executed at all:
	// empty, or containing a nil or textless statement.
	ErrInvalidBatch = errors.New("invalid query batch")

	// ErrConnection reports failure to acquire a connection from the pool.
	ErrConnection = errors.New("database connection failure")

	// ErrTransaction reports a begin, statement, rollback, or commit failure
	// that is not a constraint conflict.
	ErrTransaction = errors.New("database transaction failure")

	// ErrClientRelease reports failure to return a connection to the pool.
	ErrClientRelease = errors.New("database client release failure")

	// ErrConflict is the target for errors.Is checks against ConflictError.
	ErrConflict = errors.New("conflict")
)

// ConflictError reports a unique-constraint violation, carrying the
// offending constraint so callers can tell a duplicate key from other
// failures. errors.Is(err, ErrConflict) matches it.
type ConflictError struct {
	Constraint string
	Detail     string
}

func (e *ConflictError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("constraint %s violated: %s", e.Constraint, e.Detail)
	}
	return fmt.Sprintf("constraint %s violated", e.Constraint)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
