package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/glebarez/go-sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/schemamigrate/driver/sqlite"
)

func TestDriver_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "sqlite", sqlite.New().Name())
}

func TestDriver_Placeholder(t *testing.T) {
	t.Parallel()
	drv := sqlite.New()
	assert.Equal(t, "?", drv.Placeholder(1))
	assert.Equal(t, "?", drv.Placeholder(2))
}

func TestDriver_IsMissingRelation(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	drv := sqlite.New()

	t.Run("ok/nil", func(t *testing.T) {
		t.Parallel()
		assert.False(t, drv.IsMissingRelation(nil))
	})

	t.Run("ok/no_such_table", func(t *testing.T) {
		t.Parallel()
		_, err := db.ExecContext(context.Background(), `SELECT * FROM nonexistent_table`)
		require.Error(t, err)
		assert.True(t, drv.IsMissingRelation(err))
	})

	t.Run("ok/unrelated_error", func(t *testing.T) {
		t.Parallel()
		_, err := db.ExecContext(context.Background(), `THIS IS NOT SQL`)
		require.Error(t, err)
		assert.False(t, drv.IsMissingRelation(err))
	})
}

func TestDriver_NormalizeError(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	drv := sqlite.New()

	_, err = db.ExecContext(context.Background(), `SELECT * FROM nonexistent_table`)
	require.Error(t, err)

	normalized := drv.NormalizeError(err)
	var coded *sqlite.CodedError
	require.ErrorAs(t, normalized, &coded)
	assert.NotEmpty(t, coded.Code)
}

func TestDriver_SupportsTransactionalDDL(t *testing.T) {
	t.Parallel()
	assert.True(t, sqlite.New().SupportsTransactionalDDL())
}
