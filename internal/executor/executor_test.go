package executor_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/schemamigrate/driver/sqlite"
	"go.hackfix.me/schemamigrate/internal/bookkeeping"
	"go.hackfix.me/schemamigrate/internal/executor"
	"go.hackfix.me/schemamigrate/internal/planner"
	"go.hackfix.me/schemamigrate/version"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func writeFile(t *testing.T, fsys vfs.FileSystem, path, body string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, vfs.WriteFile(fsys, path, []byte(body), 0o644))
}

func TestExecutor_Run_FreshInstall(t *testing.T) {
	t.Parallel()

	fsys := memoryfs.New()
	writeFile(t, fsys, "/schemas/widgets/sqlite/0.01/100_a.sql", "CREATE TABLE t(id INT);\n")

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE schema_version (schema TEXT PRIMARY KEY, version TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE schema_log (schema TEXT NOT NULL, from_version TEXT, to_version TEXT NOT NULL, at TIMESTAMP NOT NULL)`)
	require.NoError(t, err)

	drv := sqlite.New()
	store := bookkeeping.New(drv)
	clock := fixedClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	ex := executor.New(fsys, drv, store, clock, nil)

	plan := []planner.Edge{{From: version.Zero(), To: version.MustParse("0.01"), DirName: "0.01"}}
	err = ex.Run(context.Background(), db, "widgets", "/schemas/widgets", "/schemas/widgets/sqlite", false, plan, false)
	require.NoError(t, err)

	var tableCount int
	row := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 't'`)
	require.NoError(t, row.Scan(&tableCount))
	assert.Equal(t, 1, tableCount)

	v, present, err := store.CurrentVersion(context.Background(), db, "widgets")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "0.01", v.String())

	entries, err := store.History(context.Background(), db, "widgets")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].FromVersion)
}

func TestExecutor_Run_RollsBackOnFailure(t *testing.T) {
	t.Parallel()

	fsys := memoryfs.New()
	writeFile(t, fsys, "/schemas/widgets/sqlite/0.01/100_a.sql", "CREATE TABLE t(id INT);\nTHIS IS NOT SQL;\n")

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE schema_version (schema TEXT PRIMARY KEY, version TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE schema_log (schema TEXT NOT NULL, from_version TEXT, to_version TEXT NOT NULL, at TIMESTAMP NOT NULL)`)
	require.NoError(t, err)

	drv := sqlite.New()
	store := bookkeeping.New(drv)
	clock := fixedClock{t: time.Now()}
	ex := executor.New(fsys, drv, store, clock, nil)

	plan := []planner.Edge{{From: version.Zero(), To: version.MustParse("0.01"), DirName: "0.01"}}
	err = ex.Run(context.Background(), db, "widgets", "/schemas/widgets", "/schemas/widgets/sqlite", false, plan, false)
	require.Error(t, err)

	var tableCount int
	row := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 't'`)
	require.NoError(t, row.Scan(&tableCount))
	assert.Equal(t, 0, tableCount, "the failed edge's DDL must not survive a rollback")

	_, present, err := store.CurrentVersion(context.Background(), db, "widgets")
	require.NoError(t, err)
	assert.False(t, present)
}

func TestExecutor_DryRun(t *testing.T) {
	t.Parallel()

	fsys := memoryfs.New()
	writeFile(t, fsys, "/schemas/widgets/sqlite/0.01/100_a.sql", "CREATE TABLE t(id INT);\n")

	drv := sqlite.New()
	store := bookkeeping.New(drv)
	ex := executor.New(fsys, drv, store, fixedClock{t: time.Now()}, nil)

	plan := []planner.Edge{{From: version.Zero(), To: version.MustParse("0.01"), DirName: "0.01"}}
	stmts, err := ex.DryRun("widgets", "/schemas/widgets", "/schemas/widgets/sqlite", false, plan, false, time.Now())
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE t(id INT)", stmts[0])
	assert.Contains(t, stmts[1], "INSERT INTO schema_version")
	assert.Contains(t, stmts[2], "INSERT INTO schema_log")
}
