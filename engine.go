package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/schemamigrate/driver"
	"go.hackfix.me/schemamigrate/internal/bookkeeping"
	"go.hackfix.me/schemamigrate/internal/bootstrap"
	"go.hackfix.me/schemamigrate/internal/executor"
	"go.hackfix.me/schemamigrate/internal/layout"
	"go.hackfix.me/schemamigrate/internal/planner"
	"go.hackfix.me/schemamigrate/migrateerrors"
	"go.hackfix.me/schemamigrate/version"
)

// TimeSource abstracts time.Now, following the teacher's models.TimeSource
// (see cmd/sesame/main.go's osTime), so a migration run's bookkeeping
// timestamps and log lines can be driven by a fixed clock in tests.
type TimeSource interface {
	Now() time.Time
}

// Engine is the public facade over the migration engine (spec §4.7, C8):
// it composes the directory scanner, overlay resolver, transition planner,
// bookkeeping store, and executor into the recognized option set and
// operations of spec §6.3.
type Engine struct {
	db     *sql.DB
	driver driver.Driver

	schemaName           string
	desiredVersion       *string
	desiredVersionSource string
	driverName           string
	basePath             string
	schemaPath           *string

	logger *slog.Logger
	clock  TimeSource
	fs     vfs.FileSystem

	store *bookkeeping.Store
	exec  *executor.Executor
}

// New constructs an Engine against db, applying opts over the recognized
// defaults (spec §6.3). db is the only required argument; schema-name,
// driver-name and the filesystem default as described on each With* Option.
func New(db *sql.DB, opts ...Option) (*Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("migrate: a database handle is required")
	}

	e := &Engine{db: db}

	for _, opt := range append(defaultOptions(), opts...) {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.driver == nil {
		drv, err := detectDriver(db)
		if err != nil {
			return nil, err
		}
		e.driver = drv
	}
	if e.driverName == "" {
		e.driverName = e.driver.Name()
	}
	if e.fs == nil {
		e.fs = osfs.New()
	}

	if err := e.applyDefaultsAndValidate(); err != nil {
		return nil, err
	}

	e.store = bookkeeping.New(e.driver)
	e.exec = executor.New(e.fs, e.driver, e.store, e.clock, e.logger)

	return e, nil
}

func (e *Engine) schemaRoot() string {
	if e.schemaPath != nil {
		return filepath.Dir(*e.schemaPath)
	}
	return filepath.Join(e.basePath, e.schemaName)
}

func (e *Engine) driverRoot() (layout.DriverRoot, error) {
	if e.schemaPath != nil {
		return layout.DriverRoot{Path: *e.schemaPath}, nil
	}
	return layout.ResolveDriverRoot(e.fs, e.schemaRoot(), e.driverName)
}

// CurrentVersion returns the schema's currently installed version, or
// (Zero, false, nil) if the schema is absent (spec §4.5's current_version).
func (e *Engine) CurrentVersion(ctx context.Context) (Version, bool, error) {
	return e.store.CurrentVersion(ctx, e.db, e.schemaName)
}

// resolveDesired implements the "desired-version defaults... to the highest
// reachable version from the currently installed version" rule of spec
// §6.3/§4.4, using graph g built from the schema's own directory scan.
func (e *Engine) resolveDesired(g *planner.Graph, current Version) (Version, error) {
	if e.desiredVersion != nil {
		return version.Parse(*e.desiredVersion)
	}
	return planner.HighestReachable(g, current)
}

// buildGraph scans root's directory entries and constructs the transition
// graph (spec §4.1, §4.4) for root.
func (e *Engine) buildGraph(root layout.DriverRoot) (*planner.Graph, error) {
	if root.None {
		return planner.BuildGraph(nil), nil
	}
	entries, err := layout.Scan(e.fs, root.Path, e.logger)
	if err != nil {
		return nil, err
	}
	return planner.BuildGraph(entries), nil
}

// Plan computes the shortest edge sequence from `from` to `to` over the
// engine's configured schema (spec §4.4), without executing anything. It
// is the read-only "explain" operation supplementing spec §6.3.
func (e *Engine) Plan(from, to Version) ([]Edge, error) {
	root, err := e.driverRoot()
	if err != nil {
		return nil, err
	}
	g, err := e.buildGraph(root)
	if err != nil {
		return nil, err
	}
	edges, err := planner.Plan(g, from, to)
	if err != nil {
		return nil, err
	}
	return fromInternalEdges(edges), nil
}

// Migrate brings the engine's configured schema to its configured desired
// version (explicit via WithDesiredVersion, or the auto-target rule of
// spec §4.4 otherwise).
func (e *Engine) Migrate(ctx context.Context) error {
	root, err := e.driverRoot()
	if err != nil {
		return err
	}
	g, err := e.buildGraph(root)
	if err != nil {
		return err
	}

	current, present, err := e.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	desired, err := e.resolveDesired(g, current)
	if err != nil {
		return err
	}

	return e.runPlan(ctx, g, root, current, present, desired)
}

// MigrateTo brings the engine's configured schema to an explicit target
// version, overriding any configured desired-version or auto-target.
func (e *Engine) MigrateTo(ctx context.Context, to Version) error {
	root, err := e.driverRoot()
	if err != nil {
		return err
	}
	g, err := e.buildGraph(root)
	if err != nil {
		return err
	}
	current, present, err := e.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	return e.runPlan(ctx, g, root, current, present, to)
}

// DeleteSchema migrates the engine's configured schema down to version 0
// (spec §4.4's "remove" plan), dropping its schema_version row on commit.
func (e *Engine) DeleteSchema(ctx context.Context) error {
	return e.MigrateTo(ctx, version.Zero())
}

func (e *Engine) runPlan(
	ctx context.Context, g *planner.Graph, root layout.DriverRoot, current Version, present bool, desired Version,
) error {
	edges, err := planner.Plan(g, current, desired)
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		return nil
	}
	if root.None {
		return migrateerrors.New(migrateerrors.KindScriptReadFailure,
			"schema has no script directory for this driver", "schema", e.schemaName, "driver", e.driverName)
	}

	return e.exec.Run(ctx, e.db, e.schemaName, e.schemaRoot(), root.Path, root.UsedGeneric, edges, present)
}

// DryRun renders the concatenated, ordered SQL (scripts and bookkeeping
// statements) a Migrate call to `to` would execute, without running it,
// supplementing spec §6.3 the way pthm-melange's MigrateOptions.DryRun does.
func (e *Engine) DryRun(w io.Writer, to Version) error {
	root, err := e.driverRoot()
	if err != nil {
		return err
	}
	g, err := e.buildGraph(root)
	if err != nil {
		return err
	}
	current, present, err := e.CurrentVersion(context.Background())
	if err != nil {
		return err
	}
	edges, err := planner.Plan(g, current, to)
	if err != nil {
		return err
	}

	stmts, err := e.exec.DryRun(e.schemaName, e.schemaRoot(), root.Path, root.UsedGeneric, edges, present, e.clock.Now())
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := fmt.Fprintf(w, "%s;\n", stmt); err != nil {
			return err
		}
	}
	return nil
}

// History returns the engine's configured schema's schema_log rows, oldest
// first, supplementing spec §6.3 with a read-only view over the table spec
// §3 defines but the distilled spec never lets callers read back.
func (e *Engine) History(ctx context.Context) ([]LogEntry, error) {
	rows, err := e.store.History(ctx, e.db, e.schemaName)
	if err != nil {
		return nil, err
	}
	out := make([]LogEntry, len(rows))
	for i, r := range rows {
		out[i] = LogEntry{Schema: r.Schema, FromVersion: r.FromVersion, ToVersion: r.ToVersion, At: r.At}
	}
	return out, nil
}

// FullMigrate implements full_migrate(user_schema) (spec §4.7): first
// brings the internal bootstrap schema to its own required version, then
// migrates the engine's configured user schema, each step its own
// transaction.
func (e *Engine) FullMigrate(ctx context.Context) error {
	if err := e.migrateInternalSchema(ctx); err != nil {
		return migrateerrors.Wrap(migrateerrors.KindBootstrapFailure,
			"failed bootstrapping internal schema", err)
	}
	return e.Migrate(ctx)
}

// FullDeleteSchema implements full_delete(user_schema) (spec §4.7):
// deletes the engine's configured user schema, then, if no other user
// schemas remain recorded, deletes the internal bootstrap schema's
// schema_version row. The schema_version and schema_log tables themselves
// are not dropped.
func (e *Engine) FullDeleteSchema(ctx context.Context) error {
	if err := e.DeleteSchema(ctx); err != nil {
		return err
	}

	remaining, err := e.otherUserSchemasRemain(ctx)
	if err != nil {
		return err
	}
	if remaining {
		return nil
	}

	return e.exec.RunDelete(ctx, e.db, bootstrap.SchemaName)
}

// otherUserSchemasRemain reports whether any schema other than the
// internal bootstrap schema still has a schema_version row.
func (e *Engine) otherUserSchemasRemain(ctx context.Context) (bool, error) {
	var count int
	err := e.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT count(*) FROM %s WHERE schema != %s`,
			bookkeeping.SchemaVersionTable, e.driver.Placeholder(1)),
		bootstrap.SchemaName,
	).Scan(&count)
	if err != nil {
		if e.driver.IsMissingRelation(err) {
			return false, nil
		}
		return false, migrateerrors.Wrap(migrateerrors.KindExecutionFailure,
			"failed counting remaining user schemas", e.driver.NormalizeError(err))
	}
	return count > 0, nil
}

// migrateInternalSchema brings the bootstrap schema (spec §6.2's
// "migration-directories") to its own latest version, using the engine's
// embedded install scripts (internal/bootstrap) rather than the caller's
// base path.
func (e *Engine) migrateInternalSchema(ctx context.Context) error {
	fsys, err := bootstrap.Mount()
	if err != nil {
		return err
	}

	internalRoot := "/" + bootstrap.SchemaName
	root, err := layout.ResolveDriverRoot(fsys, internalRoot, e.driverName)
	if err != nil {
		return err
	}

	current, present, err := e.store.CurrentVersion(ctx, e.db, bootstrap.SchemaName)
	if err != nil {
		return err
	}

	g, err := func() (*planner.Graph, error) {
		if root.None {
			return planner.BuildGraph(nil), nil
		}
		entries, err := layout.Scan(fsys, root.Path, e.logger)
		if err != nil {
			return nil, err
		}
		return planner.BuildGraph(entries), nil
	}()
	if err != nil {
		return err
	}

	desired, err := planner.HighestReachable(g, current)
	if err != nil {
		return err
	}

	edges, err := planner.Plan(g, current, desired)
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		return nil
	}

	internalExec := executor.New(fsys, e.driver, e.store, e.clock, e.logger)
	return internalExec.Run(ctx, e.db, bootstrap.SchemaName, internalRoot, root.Path, root.UsedGeneric, edges, present)
}
