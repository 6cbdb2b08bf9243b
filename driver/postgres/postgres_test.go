package postgres_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"go.hackfix.me/schemamigrate/driver/postgres"
)

func TestDriver_Placeholder(t *testing.T) {
	t.Parallel()

	d := postgres.NewPGX()
	assert.Equal(t, "$1", d.Placeholder(1))
	assert.Equal(t, "$3", d.Placeholder(3))
}

func TestDriver_IsMissingRelation(t *testing.T) {
	t.Parallel()

	d := postgres.NewPQ()

	t.Run("ok/pq_undefined_table", func(t *testing.T) {
		t.Parallel()
		err := &pq.Error{Code: "42P01", Message: `relation "schema_version" does not exist`}
		assert.True(t, d.IsMissingRelation(err))
	})

	t.Run("ok/wrapped_pq_error", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("querying: %w", &pq.Error{Code: "42P01"})
		assert.True(t, d.IsMissingRelation(err))
	})

	t.Run("ok/unrelated_error", func(t *testing.T) {
		t.Parallel()
		assert.False(t, d.IsMissingRelation(errors.New("connection refused")))
	})

	t.Run("ok/nil", func(t *testing.T) {
		t.Parallel()
		assert.False(t, d.IsMissingRelation(nil))
	})
}

func TestDriver_NormalizeError(t *testing.T) {
	t.Parallel()

	d := postgres.NewPGX()
	err := &pq.Error{Code: "23505", Message: "duplicate key"}
	normalized := d.NormalizeError(err)

	var coded *postgres.CodedError
	a := assert.New(t)
	a.ErrorAs(normalized, &coded)
	a.Equal("23505", coded.Code)
}

func TestDriver_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Pg", postgres.NewPGX().Name())
	assert.Equal(t, "Pg", postgres.NewPQ().Name())
}
