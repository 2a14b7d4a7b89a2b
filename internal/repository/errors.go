package repository

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// Repository-level sentinel errors. The service layer translates them into
// domain errors so business logic never sees driver errors.

// ErrNotFound is returned when a query for a single entity finds no rows, or
// when the row exists but is owned by someone else.
var ErrNotFound = errors.New("repository: not found")

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("repository: duplicate")

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
