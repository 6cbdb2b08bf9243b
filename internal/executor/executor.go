// Package executor implements the migration executor (spec §4.6, C7): it
// drives a plan's edges through one transaction, resolving each edge's
// overlay script list, splitting and executing every statement, and
// interleaving the bookkeeping writes for that edge, per the ordering
// guarantee of spec §5 ("bookkeeping writes for edge i execute after all
// script statements of edge i and before any script statement of edge
// i+1").
package executor

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/schemamigrate/driver"
	"go.hackfix.me/schemamigrate/internal/bookkeeping"
	"go.hackfix.me/schemamigrate/internal/layout"
	"go.hackfix.me/schemamigrate/internal/planner"
	"go.hackfix.me/schemamigrate/internal/sqlsplit"
	"go.hackfix.me/schemamigrate/migrateerrors"
	"go.hackfix.me/schemamigrate/xtime"
)

// TimeSource abstracts time.Now, following the teacher's models.TimeSource,
// so tests can supply a fixed clock instead of the wall clock.
type TimeSource interface {
	Now() time.Time
}

// Tx is the subset of *sql.Tx the executor drives statements through. It is
// satisfied by *sql.Tx; exists so tests can assert against the interface
// rather than a concrete type.
type Tx interface {
	driver.Execer
	Commit() error
	Rollback() error
}

// Beginner opens the single transaction a run executes in, satisfied by
// *sql.DB and *sql.Conn.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Executor runs a plan to completion inside one transaction (spec §4.6).
type Executor struct {
	fsys   vfs.FileSystem
	drv    driver.Driver
	store  *bookkeeping.Store
	clock  TimeSource
	logger *slog.Logger
}

// New returns an Executor that reads scripts through fsys and renders
// bookkeeping statements for drv.
func New(fsys vfs.FileSystem, drv driver.Driver, store *bookkeeping.Store, clock TimeSource, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{fsys: fsys, drv: drv, store: store, clock: clock, logger: logger}
}

// Run executes plan against schema, per spec §4.6: begin, iterate edges
// (resolve overlay → split → execute → bookkeeping), commit; any statement
// failure rolls back and surfaces an ExecutionFailure carrying the offending
// edge, file, and driver error. An empty plan still commits an (empty)
// transaction, matching spec §4.4's "a no-op, committed without bookkeeping
// writes".
//
// schemaRoot and driverRoot locate the scripts on disk (spec §6.1);
// usedGenericAsDriver controls whether _common also contributes (spec
// §4.2). presentBeforeRun reports whether schema had a row in
// schema_version before this run began, which the first edge's bookkeeping
// statements need to decide INSERT vs UPDATE (spec §4.5).
func (e *Executor) Run(
	ctx context.Context, db Beginner, schema, schemaRoot, driverRoot string, usedGenericAsDriver bool,
	plan []planner.Edge, presentBeforeRun bool,
) error {
	start := e.clock.Now()
	logger := e.logger.With("schema", schema, "run", e.store.RunID())
	logger.Info("starting migration run", "edges", len(plan))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return migrateerrors.Wrap(migrateerrors.KindExecutionFailure,
			"failed beginning transaction", err, "schema", schema)
	}

	presentBefore := presentBeforeRun
	for _, edge := range plan {
		if err := e.runEdge(ctx, tx, schema, schemaRoot, driverRoot, usedGenericAsDriver, edge, presentBefore, logger); err != nil {
			_ = tx.Rollback()
			return err
		}
		presentBefore = !edge.To.IsZero()
	}

	if err := tx.Commit(); err != nil {
		return migrateerrors.Wrap(migrateerrors.KindExecutionFailure,
			"failed committing migration transaction", e.drv.NormalizeError(err), "schema", schema)
	}

	finish := e.clock.Now()
	logger.Info("migration run committed",
		"duration", humanize.RelTime(start, finish, "", ""),
		"elapsed", xtime.FormatDuration(finish.Sub(start), time.Millisecond))

	return nil
}

func (e *Executor) runEdge(
	ctx context.Context, tx Tx, schema, schemaRoot, driverRoot string, usedGenericAsDriver bool,
	edge planner.Edge, presentBefore bool, logger *slog.Logger,
) error {
	edgeLogger := logger.With("edge", edge.DirName, "from", edge.From.String(), "to", edge.To.String())
	edgeLogger.Debug("applying edge")

	scripts, err := layout.Resolve(e.fsys, schemaRoot, driverRoot, edge.DirName, usedGenericAsDriver)
	if err != nil {
		return err
	}

	for _, script := range scripts {
		statements := sqlsplit.Split(script.Body)
		edgeLogger.Debug("executing script", "file", script.Name, "size", humanize.Bytes(uint64(len(script.Body))), "statements", len(statements))

		for i, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return migrateerrors.Wrap(migrateerrors.KindExecutionFailure,
					"statement execution failed", e.drv.NormalizeError(err),
					"edge", edge.DirName, "file", script.Name, "statement_index", i)
			}
		}
	}

	for _, stmt := range e.store.TransitionStatements(schema, edge.From, edge.To, presentBefore, e.clock.Now()) {
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			return migrateerrors.Wrap(migrateerrors.KindExecutionFailure,
				"bookkeeping statement execution failed", e.drv.NormalizeError(err),
				"edge", edge.DirName)
		}
	}

	return nil
}

// RunDelete removes schema's bookkeeping record inside its own transaction.
// Engine.FullDeleteSchema uses it to drop the internal schema's record once
// no user schema remains; Engine.DeleteSchema does not use it, since a user
// schema is removed by a transition to version 0 driven through Run. It
// does not touch script files.
func (e *Executor) RunDelete(ctx context.Context, db Beginner, schema string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return migrateerrors.Wrap(migrateerrors.KindExecutionFailure,
			"failed beginning transaction", err, "schema", schema)
	}

	for _, stmt := range e.store.DropSchemaRecord(schema) {
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			_ = tx.Rollback()
			return migrateerrors.Wrap(migrateerrors.KindExecutionFailure,
				"failed dropping schema record", e.drv.NormalizeError(err), "schema", schema)
		}
	}

	if err := tx.Commit(); err != nil {
		return migrateerrors.Wrap(migrateerrors.KindExecutionFailure,
			"failed committing schema deletion", e.drv.NormalizeError(err), "schema", schema)
	}
	return nil
}

// DryRun renders the concatenated, ordered SQL for plan (scripts and
// bookkeeping statements, spec §4.6's statement order) without executing
// it, backing the engine's supplemented DryRun mode.
func (e *Executor) DryRun(schema, schemaRoot, driverRoot string, usedGenericAsDriver bool, plan []planner.Edge, presentBeforeRun bool, now time.Time) ([]string, error) {
	var out []string
	presentBefore := presentBeforeRun
	for _, edge := range plan {
		scripts, err := layout.Resolve(e.fsys, schemaRoot, driverRoot, edge.DirName, usedGenericAsDriver)
		if err != nil {
			return nil, err
		}
		for _, script := range scripts {
			out = append(out, sqlsplit.Split(script.Body)...)
		}
		for _, stmt := range e.store.TransitionStatements(schema, edge.From, edge.To, presentBefore, now) {
			out = append(out, stmt.SQL)
		}
		presentBefore = !edge.To.IsZero()
	}
	return out, nil
}
