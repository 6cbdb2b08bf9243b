// Package driver defines the narrow adapter interface the core engine
// consumes (spec §6.4): a driver name, a parameter placeholder style, and
// optional per-driver error normalization and transactional-DDL reporting.
// Everything else the engine needs is plain SQL; driver-specific dialects
// inside schema author scripts are opaque to the engine (spec §1).
package driver

import (
	"context"
	"database/sql"
)

// Driver is the thin per-database adapter the engine core is written
// against. Concrete drivers (driver/sqlite, driver/postgres) wrap a
// specific Go SQL driver and its error types.
type Driver interface {
	// Name returns the identifier used to select schema-author script
	// directories (spec §6.1), e.g. "Pg", "mysql", "sqlite".
	Name() string

	// Placeholder returns the positional parameter placeholder for the
	// given 1-based argument position ("?" for SQLite/MySQL, "$1", "$2",
	// ... for PostgreSQL).
	Placeholder(pos int) string

	// IsMissingRelation reports whether err indicates that a referenced
	// table does not exist, used by the bookkeeping store to distinguish
	// "table missing" (tolerated during bootstrap, spec §4.7) from other
	// read failures.
	IsMissingRelation(err error) bool

	// NormalizeError maps a raw driver error onto one of the engine's own
	// error kinds where it recognizes the failure (e.g. a unique
	// violation), otherwise it returns err unchanged.
	NormalizeError(err error) error

	// SupportsTransactionalDDL reports whether DDL statements participate
	// in the enclosing transaction's atomicity on this engine. The
	// executor drives every driver through the same BEGIN/COMMIT sequence
	// regardless (spec §4.6); this is informational, logged as a caveat
	// for drivers that answer false.
	SupportsTransactionalDDL() bool
}

// Execer is the minimal connection surface the engine needs to run
// statements, satisfied by *sql.DB, *sql.Tx and *sql.Conn alike (the same
// shape as the teacher's db/types.Querier and pthm-melange's migrator.Execer).
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
