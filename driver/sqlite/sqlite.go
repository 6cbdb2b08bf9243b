// Package sqlite adapts github.com/glebarez/go-sqlite (the teacher's own
// database driver) to the engine's driver.Driver interface. It also serves
// as the module's "_generic" reference driver for tests, since it requires
// no external network service.
package sqlite

import (
	"errors"
	"strconv"
	"strings"

	"github.com/glebarez/go-sqlite"
)

// Name is the identifier schema authors use for SQLite-specific directories.
const Name = "sqlite"

// Driver adapts SQLite to the engine.
type Driver struct{}

// New returns a SQLite driver.Driver adapter.
func New() Driver { return Driver{} }

// Name returns "sqlite".
func (Driver) Name() string { return Name }

// Placeholder returns "?", SQLite's only supported positional placeholder.
func (Driver) Placeholder(int) string { return "?" }

// IsMissingRelation reports whether err is SQLite's "no such table" error,
// the shape the bookkeeping store looks for during bootstrap (spec §4.7).
func (Driver) IsMissingRelation(err error) bool {
	if err == nil {
		return false
	}
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return strings.Contains(err.Error(), "no such table")
	}
	return strings.Contains(sqlErr.Error(), "no such table")
}

// NormalizeError maps SQLite's unique-constraint error onto nothing special;
// the engine doesn't special-case unique violations outside of bookkeeping,
// so this is mostly a passthrough, included to satisfy driver.Driver and to
// give engine logs a driver-qualified error code when one is available.
func (Driver) NormalizeError(err error) error {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		return &CodedError{Code: strconv.Itoa(sqlErr.Code()), Err: sqlErr}
	}
	return err
}

// SupportsTransactionalDDL reports true: SQLite's schema changes participate
// in the enclosing transaction.
func (Driver) SupportsTransactionalDDL() bool { return true }

// CodedError carries a driver-specific numeric error code alongside the
// original SQLite error, the way db/types.Err did in the teacher for
// DuplicateError.
type CodedError struct {
	Code string
	Err  error
}

func (e *CodedError) Error() string { return e.Err.Error() }
func (e *CodedError) Unwrap() error { return e.Err }
