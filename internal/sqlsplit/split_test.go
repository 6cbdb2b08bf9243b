package sqlsplit_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.hackfix.me/schemamigrate/internal/sqlsplit"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "ok/single_statement",
			body: "CREATE TABLE t(id INT);\n",
			want: []string{"CREATE TABLE t(id INT)"},
		},
		{
			name: "ok/multiple_statements",
			body: "CREATE TABLE a(id INT);\nCREATE TABLE b(id INT);\n",
			want: []string{"CREATE TABLE a(id INT)", "CREATE TABLE b(id INT)"},
		},
		{
			name: "ok/no_trailing_newline",
			body: "CREATE TABLE a(id INT);",
			want: []string{"CREATE TABLE a(id INT)"},
		},
		{
			name: "ok/crlf_line_endings",
			body: "CREATE TABLE a(id INT);\r\nCREATE TABLE b(id INT);\r\n",
			want: []string{"CREATE TABLE a(id INT)", "CREATE TABLE b(id INT)"},
		},
		{
			name: "ok/trigger_body_with_inline_semicolon",
			body: "CREATE FUNCTION f() RETURNS trigger AS $$\n" +
				"BEGIN RAISE EXCEPTION ''x''; --\n" +
				"END;';\n",
			want: []string{
				"CREATE FUNCTION f() RETURNS trigger AS $$\nBEGIN RAISE EXCEPTION ''x''; --\nEND;'",
			},
		},
		{
			name: "ok/blank_lines_ignored",
			body: "CREATE TABLE a(id INT);\n\n\nCREATE TABLE b(id INT);\n",
			want: []string{"CREATE TABLE a(id INT)", "CREATE TABLE b(id INT)"},
		},
		{
			name: "ok/empty_body",
			body: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sqlsplit.Split(tt.body))
		})
	}
}

func TestSplit_Idempotence(t *testing.T) {
	t.Parallel()

	xs := []string{
		"CREATE TABLE a(id INT)",
		"CREATE TABLE b(id INT)",
		"ALTER TABLE a ADD COLUMN c INT",
	}

	var sb strings.Builder
	for _, stmt := range xs {
		sb.WriteString(stmt)
		sb.WriteString(";\n")
	}

	assert.Equal(t, xs, sqlsplit.Split(sb.String()))
}
