package query

import (
	"errors"
)

var (
	// ErrNotComparable is returned when a comparison targets a path that has no single column,
	// such as an embedded value
	ErrNotComparable = errors.New("path is not comparable")

	// ErrForeignRoot is returned when a predicate or ordering uses a path from another query root
	ErrForeignRoot = errors.New("path does not belong to this criteria")

	// ErrNoResult is returned by First when no row matches
	ErrNoResult = errors.New("no matching row")

	// ErrNoDatabase is returned when a criteria created without a database is executed
	ErrNoDatabase = errors.New("criteria has no database to execute against")
)

// IsNotComparable returns true if the error is ErrNotComparable
func IsNotComparable(err error) bool {
	return errors.Is(err, ErrNotComparable)
}

// IsForeignRoot returns true if the error is ErrForeignRoot
func IsForeignRoot(err error) bool {
	return errors.Is(err, ErrForeignRoot)
}

// IsNoDatabase returns true if the error is ErrNoDatabase
func IsNoDatabase(err error) bool {
	return errors.Is(err, ErrNoDatabase)
}
