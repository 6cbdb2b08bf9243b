// Package bookkeeping implements the bookkeeping store (spec §4.5, C6): the
// schema_version/schema_log tables that record, per schema name, the current
// installed version and an append-only transition history.
//
// The store never executes anything itself; it only reads (current_version)
// and generates statements (record_transition, drop_schema_record) for the
// executor to run inside its own transaction, exactly as spec §4.5 requires:
// "The store never executes statements directly; it only generates them."
package bookkeeping

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"go.hackfix.me/schemamigrate/driver"
	"go.hackfix.me/schemamigrate/migrateerrors"
	"go.hackfix.me/schemamigrate/version"
)

// SchemaVersionTable and SchemaLogTable are the two tables owned by the
// engine (spec §6.2). Their DDL is not created by this package: it is part
// of the internal schema's own install scripts (spec §4.7), bootstrapped
// like any other user schema.
const (
	SchemaVersionTable = "schema_version"
	SchemaLogTable     = "schema_log"
)

// Statement is one SQL statement plus its positional arguments, the shape
// the executor runs inside its transaction (mirrors driver.Execer's
// ExecContext signature so no further translation is needed).
type Statement struct {
	SQL  string
	Args []any
}

// Store reads and generates bookkeeping statements for one database, per
// spec §4.5. It is stateless aside from the driver it renders statements
// for and a correlation id used to tie a run's log lines together.
type Store struct {
	drv driver.Driver
	run uuid.UUID
}

// New returns a Store that renders statements for drv. Each Store carries
// its own run correlation id, generated once at construction and exposed
// through RunID, which the executor attaches to its run logger so one run's
// log lines can be grouped (spec §4.6's "state machine of one migration run").
func New(drv driver.Driver) *Store {
	return &Store{drv: drv, run: uuid.New()}
}

// RunID returns the store's per-run correlation id, for log correlation.
func (s *Store) RunID() uuid.UUID {
	return s.run
}

// CurrentVersion implements "current_version(schema) → Version | absent"
// (spec §4.5). Absent is reported as (version.Zero(), false, nil). A missing
// schema_version table (the bootstrap case of spec §4.7) is also treated as
// absent rather than an error, distinguishing "table missing" from "row
// missing" per the driver's IsMissingRelation.
func (s *Store) CurrentVersion(ctx context.Context, db driver.Execer, schema string) (version.Version, bool, error) {
	row := db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT version FROM %s WHERE schema = %s`, SchemaVersionTable, s.drv.Placeholder(1)),
		schema)

	var raw string
	err := row.Scan(&raw)
	switch {
	case err == nil:
		v, perr := version.Parse(raw)
		if perr != nil {
			return version.Version{}, false, perr
		}
		return v, true, nil
	case err == sql.ErrNoRows:
		return version.Zero(), false, nil
	case s.drv.IsMissingRelation(err):
		return version.Zero(), false, nil
	default:
		return version.Version{}, false, migrateerrors.Wrap(migrateerrors.KindExecutionFailure,
			"failed reading current schema version", s.drv.NormalizeError(err),
			"schema", schema)
	}
}

// TransitionStatements implements "record_transition(schema, from, to) →
// [SQL statements]" (spec §4.5): one INSERT or UPDATE or DELETE for
// schema_version, and one INSERT for schema_log. presentBefore distinguishes
// the first edge of a fresh-install plan (INSERT, NULL from_version in the
// log, spec §8 scenario 1) from every other edge (UPDATE, a real
// from_version).
func (s *Store) TransitionStatements(
	schema string, from, to version.Version, presentBefore bool, now time.Time,
) []Statement {
	p := s.drv.Placeholder

	var versionStmt Statement
	switch {
	case to.IsZero():
		versionStmt = Statement{
			SQL:  fmt.Sprintf(`DELETE FROM %s WHERE schema = %s`, SchemaVersionTable, p(1)),
			Args: []any{schema},
		}
	case presentBefore:
		versionStmt = Statement{
			SQL: fmt.Sprintf(`UPDATE %s SET version = %s WHERE schema = %s`,
				SchemaVersionTable, p(1), p(2)),
			Args: []any{to.String(), schema},
		}
	default:
		versionStmt = Statement{
			SQL: fmt.Sprintf(`INSERT INTO %s (schema, version) VALUES (%s, %s)`,
				SchemaVersionTable, p(1), p(2)),
			Args: []any{schema, to.String()},
		}
	}

	var fromArg any
	if presentBefore {
		fromArg = from.String()
	} else {
		fromArg = nil
	}

	logStmt := Statement{
		SQL: fmt.Sprintf(`INSERT INTO %s (schema, from_version, to_version, at) VALUES (%s, %s, %s, %s)`,
			SchemaLogTable, p(1), p(2), p(3), p(4)),
		Args: []any{schema, fromArg, to.String(), now},
	}

	return []Statement{versionStmt, logStmt}
}

// DropSchemaRecord implements "drop_schema_record(schema) → [SQL]" (spec
// §4.5): removes schema_version's row without touching schema_log, so the
// transition history survives a schema's full removal.
func (s *Store) DropSchemaRecord(schema string) []Statement {
	return []Statement{{
		SQL:  fmt.Sprintf(`DELETE FROM %s WHERE schema = %s`, SchemaVersionTable, s.drv.Placeholder(1)),
		Args: []any{schema},
	}}
}

// LogEntry is one schema_log row, returned by the engine's supplemented
// History operation (SPEC_FULL's read-only query over schema_log).
type LogEntry struct {
	Schema      string
	FromVersion *string
	ToVersion   string
	At          time.Time
}

// History returns every schema_log row for schema, oldest first, backing
// the engine's supplemented Engine.History operation.
func (s *Store) History(ctx context.Context, db driver.Execer, schema string) ([]LogEntry, error) {
	type rowsQuerier interface {
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	}
	q, ok := db.(rowsQuerier)
	if !ok {
		return nil, migrateerrors.New(migrateerrors.KindExecutionFailure,
			"connection handle does not support multi-row queries")
	}

	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`SELECT schema, from_version, to_version, at FROM %s WHERE schema = %s ORDER BY at ASC`,
			SchemaLogTable, s.drv.Placeholder(1)),
		schema)
	if err != nil {
		return nil, migrateerrors.Wrap(migrateerrors.KindExecutionFailure,
			"failed querying schema_log", s.drv.NormalizeError(err), "schema", schema)
	}
	defer func() { _ = rows.Close() }()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.Schema, &e.FromVersion, &e.ToVersion, &e.At); err != nil {
			return nil, migrateerrors.Wrap(migrateerrors.KindExecutionFailure,
				"failed scanning schema_log row", err, "schema", schema)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
