// Package bootstrap provides the engine's own install scripts: the
// bootstrap assumption of spec §4.7 is that the internal schema's first
// install script creates schema_version and schema_log. Those scripts are
// intrinsic to the engine, not supplied by the caller's base path, so they
// are embedded the way the teacher's db package embeds its own migrations
// (`db/db.go`'s `//go:embed migrations/*.sql`).
package bootstrap

import (
	"embed"
	"io/fs"
	"path"
	"strings"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
)

//go:embed all:schema
var schemaFS embed.FS

// SchemaName is the reserved internal schema name under which the engine
// records its own bootstrap state (spec §6.2: "the engine's own presence is
// recorded under the reserved schema name migration-directories").
const SchemaName = "migration-directories"

// Mount returns an in-memory filesystem rooted at "/" containing the
// engine's embedded bootstrap scripts under /<SchemaName>/..., ready to
// pass as a schema root to internal/layout.
func Mount() (vfs.FileSystem, error) {
	fsys := memoryfs.New()

	err := fs.WalkDir(schemaFS, "schema", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(p, "schema/")
		dest := path.Join("/", SchemaName, rel)

		body, err := schemaFS.ReadFile(p)
		if err != nil {
			return err
		}

		if err := fsys.MkdirAll(path.Dir(dest), 0o755); err != nil {
			return err
		}
		return vfs.WriteFile(fsys, dest, body, 0o644)
	})
	if err != nil {
		return nil, err
	}

	return fsys, nil
}
