// Package postgres adapts PostgreSQL to the engine's driver.Driver
// interface. Two constructors are provided, NewPGX and NewPQ, backed by
// github.com/jackc/pgx/v5/stdlib and github.com/lib/pq respectively: both
// produce an identical Driver, demonstrating that the adapter is shaped
// around database/sql, not around either driver library's own types (spec
// §6.1: "<driver> is the identifier reported by the database adapter").
package postgres

import (
	"database/sql"
	"strconv"
	"strings"

	// Registers the "pgx" database/sql driver used by OpenPGX.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

// Name is the identifier schema authors use for PostgreSQL-specific
// directories (spec §6.1's example "Pg").
const Name = "Pg"

// pgUndefinedTable is the SQLSTATE code PostgreSQL reports for a reference
// to a table that does not exist, the signal the bookkeeping store looks
// for during bootstrap (spec §4.7).
const pgUndefinedTable = "42P01"

// driverKind distinguishes which underlying library opened the connection,
// only so error messages can say which one rejected a statement; the
// Driver's behavior is otherwise identical across both.
type driverKind int

const (
	kindPGX driverKind = iota
	kindPQ
)

// Driver adapts PostgreSQL to the engine, regardless of which concrete
// driver library opened the *sql.DB.
type Driver struct {
	kind driverKind
}

// NewPGX returns a Driver for connections opened with
// github.com/jackc/pgx/v5/stdlib (sql.Open("pgx", dsn)).
func NewPGX() Driver { return Driver{kind: kindPGX} }

// NewPQ returns a Driver for connections opened with github.com/lib/pq
// (sql.Open("postgres", dsn)).
func NewPQ() Driver { return Driver{kind: kindPQ} }

// OpenPGX opens dsn through jackc/pgx/v5's database/sql adapter and returns
// a matching Driver, the pairing NewPGX names but does not itself open.
func OpenPGX(dsn string) (*sql.DB, Driver, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, Driver{}, err
	}
	return db, NewPGX(), nil
}

// OpenPQ opens dsn through lib/pq's database/sql adapter and returns a
// matching Driver.
func OpenPQ(dsn string) (*sql.DB, Driver, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, Driver{}, err
	}
	return db, NewPQ(), nil
}

// Name returns "Pg".
func (Driver) Name() string { return Name }

// Placeholder returns PostgreSQL's "$1", "$2", ... positional placeholder.
func (Driver) Placeholder(pos int) string { return "$" + strconv.Itoa(pos) }

// sqlState extracts a SQLSTATE code from err, detecting both pgx's
// SQLState() method and lib/pq's *pq.Error Code field via an interface
// check, the same dual-driver detection the rest of the retrieval pack uses
// to stay driver-library-agnostic.
func sqlState(err error) string {
	if err == nil {
		return ""
	}

	type sqlStater interface{ SQLState() string }
	if e, ok := err.(sqlStater); ok {
		return e.SQLState()
	}

	var pqErr *pq.Error
	if asPQError(err, &pqErr) {
		return string(pqErr.Code)
	}

	return ""
}

// asPQError is a tiny errors.As indirection kept local so this file's
// import of "github.com/lib/pq" stays confined to the pq-specific branch
// even when the active connection was opened through pgx.
func asPQError(err error, target **pq.Error) bool {
	for err != nil {
		if e, ok := err.(*pq.Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// IsMissingRelation reports whether err is PostgreSQL's undefined_table
// error (SQLSTATE 42P01), or, failing that, whether err's message contains
// "does not exist".
func (d Driver) IsMissingRelation(err error) bool {
	if err == nil {
		return false
	}
	if sqlState(err) == pgUndefinedTable {
		return true
	}
	return strings.Contains(err.Error(), "does not exist")
}

// NormalizeError wraps err with its SQLSTATE code, when one is available,
// so engine logs carry a driver-qualified error code the way
// driver/sqlite.CodedError does for SQLite.
func (d Driver) NormalizeError(err error) error {
	if code := sqlState(err); code != "" {
		return &CodedError{Code: code, Err: err}
	}
	return err
}

// SupportsTransactionalDDL reports true: PostgreSQL's DDL statements
// participate fully in the enclosing transaction.
func (Driver) SupportsTransactionalDDL() bool { return true }

// CodedError carries a SQLSTATE code alongside the original PostgreSQL
// error, mirroring driver/sqlite.CodedError.
type CodedError struct {
	Code string
	Err  error
}

func (e *CodedError) Error() string { return e.Err.Error() }
func (e *CodedError) Unwrap() error { return e.Err }
