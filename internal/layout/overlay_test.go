package layout_test

import (
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/schemamigrate/internal/layout"
)

func TestResolve_OverlayOrderAndPreference(t *testing.T) {
	t.Parallel()

	fsys := memoryfs.New()
	writeFile(t, fsys, "/schema/Pg/0.01/100_a.sql", "driver body a")
	writeFile(t, fsys, "/schema/Pg/0.01/110_b.sql", "driver body b")
	writeFile(t, fsys, "/schema/_common/0.01/105_c.sql", "common body c")
	writeFile(t, fsys, "/schema/_common/0.01/110_b.sql", "common body b (overridden)")

	scripts, err := layout.Resolve(fsys, "/schema", "/schema/Pg", "0.01", false)
	require.NoError(t, err)
	require.Len(t, scripts, 3)

	assert.Equal(t, "100_a.sql", scripts[0].Name)
	assert.Equal(t, "driver body a", scripts[0].Body)
	assert.Equal(t, "105_c.sql", scripts[1].Name)
	assert.Equal(t, "common body c", scripts[1].Body)
	assert.Equal(t, "110_b.sql", scripts[2].Name)
	assert.Equal(t, "driver body b", scripts[2].Body, "driver file must win over _common for the same name")
}

func TestResolve_GenericDriverDoesNotMixWithCommon(t *testing.T) {
	t.Parallel()

	fsys := memoryfs.New()
	writeFile(t, fsys, "/schema/_generic/0.01/100_a.sql", "generic body")
	writeFile(t, fsys, "/schema/_common/0.01/105_c.sql", "common body")

	scripts, err := layout.Resolve(fsys, "/schema", "/schema/_generic", "0.01", true)
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, "100_a.sql", scripts[0].Name)
}

func TestResolve_MissingDirectoryIsNotAnError(t *testing.T) {
	t.Parallel()

	fsys := memoryfs.New()
	writeFile(t, fsys, "/schema/_common/0.01/105_c.sql", "common body only")

	scripts, err := layout.Resolve(fsys, "/schema", "/schema/Pg", "0.01", false)
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, "105_c.sql", scripts[0].Name)
}

func TestResolve_HiddenFilesExcluded(t *testing.T) {
	t.Parallel()

	fsys := memoryfs.New()
	writeFile(t, fsys, "/schema/Pg/0.01/100_a.sql", "visible")
	writeFile(t, fsys, "/schema/Pg/0.01/.hidden.sql", "invisible")

	scripts, err := layout.Resolve(fsys, "/schema", "/schema/Pg", "0.01", false)
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, "100_a.sql", scripts[0].Name)
}
