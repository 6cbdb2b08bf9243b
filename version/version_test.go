package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/schemamigrate/migrateerrors"
	"go.hackfix.me/schemamigrate/version"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		expErr string
	}{
		{name: "ok/integer", text: "1"},
		{name: "ok/decimal", text: "0.01"},
		{name: "ok/zero", text: "0"},
		{name: "ok/zero_decimal", text: "0.00"},
		{name: "ok/two_digit_minor", text: "2.10"},
		{name: "err/negative", text: "-1", expErr: "BadVersionSyntax"},
		{name: "err/non_numeric", text: "v1", expErr: "BadVersionSyntax"},
		{name: "err/empty", text: "", expErr: "BadVersionSyntax"},
		{name: "err/trailing_dot", text: "1.", expErr: "BadVersionSyntax"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := version.Parse(tt.text)
			if tt.expErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, migrateerrors.ErrBadVersionSyntax)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.text, v.String())
		})
	}
}

func TestCompare_NumericOrdering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "ok/equal_integers", a: "1", b: "1", want: 0},
		{name: "ok/zero_forms_equal", a: "0", b: "0.00", want: 0},
		{name: "ok/decimal_less", a: "0.01", b: "0.02", want: -1},
		{name: "ok/decimal_greater", a: "0.02", b: "0.01", want: 1},
		{name: "ok/integer_vs_decimal", a: "1", b: "0.99", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := version.MustParse(tt.a)
			b := version.MustParse(tt.b)
			assert.Equal(t, tt.want, a.Compare(b))
		})
	}
}

func TestVersion_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"0.01", "1", "2.10", "0.00", "10"} {
		v := version.MustParse(text)
		assert.Equal(t, text, v.String(), "textual form must round-trip")
	}
}

func TestVersion_KeyNormalizesZeroForms(t *testing.T) {
	t.Parallel()

	a := version.MustParse("0")
	b := version.MustParse("0.00")
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, version.Zero().Key(), a.Key())
}

func TestVersion_IsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, version.Zero().IsZero())
	assert.True(t, version.MustParse("0.00").IsZero())
	assert.False(t, version.MustParse("0.01").IsZero())
}
