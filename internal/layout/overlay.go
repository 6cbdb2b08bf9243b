package layout

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/schemamigrate/migrateerrors"
)

// Script is one ordering-key/body pair resolved for a version-or-transition
// directory (spec §3 "Script file").
type Script struct {
	Name string // base file name, the ordering key
	Path string // resolved source path, for error messages
	Body string
}

// Resolve computes the overlaid, ordered script list for the directory named
// dirName, implementing spec §4.2: the union of base names under
// <driverRoot>/dirName and <schemaRoot>/_common/dirName, preferring the
// driver-specific body when a name exists in both, sorted by base name.
//
// _common only participates when usedGenericAsDriver is false: _generic
// substitutes for the whole driver directory, it is never mixed with
// _common (spec §4.2).
func Resolve(fsys vfs.FileSystem, schemaRoot, driverRoot, dirName string, usedGenericAsDriver bool) ([]Script, error) {
	driverFiles, err := listScriptFiles(fsys, filepath.Join(driverRoot, dirName))
	if err != nil {
		return nil, err
	}

	var commonFiles map[string]string
	if !usedGenericAsDriver {
		commonDir := filepath.Join(schemaRoot, CommonDirName, dirName)
		commonFiles, err = listScriptFiles(fsys, commonDir)
		if err != nil {
			return nil, err
		}
	}

	names := make(map[string]struct{}, len(driverFiles)+len(commonFiles))
	for n := range driverFiles {
		names[n] = struct{}{}
	}
	for n := range commonFiles {
		names[n] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	scripts := make([]Script, 0, len(sorted))
	for _, name := range sorted {
		path, fromDriver := driverFiles[name]
		if !fromDriver {
			path = commonFiles[name]
		}

		body, err := vfs.ReadFile(fsys, path)
		if err != nil {
			return nil, migrateerrors.Wrap(migrateerrors.KindScriptReadFailure,
				"failed reading script file", err, "path", path)
		}

		scripts = append(scripts, Script{Name: name, Path: path, Body: string(body)})
	}

	return scripts, nil
}

// listScriptFiles returns the non-hidden, non-directory files directly under
// dir, keyed by base name. A missing directory is not an error: it simply
// contributes no files (a version may exist only under _common, or only
// under the driver).
func listScriptFiles(fsys vfs.FileSystem, dir string) (map[string]string, error) {
	infos, err := vfs.ReadDir(fsys, dir)
	if err != nil {
		if vfs.IsErrNotExist(err) {
			return nil, nil
		}
		return nil, migrateerrors.Wrap(migrateerrors.KindScriptReadFailure,
			"failed reading script directory", err, "path", dir)
	}

	files := make(map[string]string, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		if strings.HasPrefix(info.Name(), ".") {
			continue
		}
		files[info.Name()] = filepath.Join(dir, info.Name())
	}

	return files, nil
}
