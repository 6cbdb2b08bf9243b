// Package layout implements the directory scanner (spec §4.1) and file-set
// overlay (spec §4.2): discovering install and transition directories below
// a schema's per-driver root, and merging driver-specific, "_common", and
// "_generic" script sets into one ordered list per directory.
//
// Filesystem access goes through vfs.FileSystem throughout, the same
// abstraction the teacher repo uses for its config and data directories, so
// tests can scan an in-memory tree (memoryfs) instead of touching disk.
package layout

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/schemamigrate/migrateerrors"
	"go.hackfix.me/schemamigrate/version"
)

// CommonDirName and GenericDirName are the two reserved shared directory
// names under a schema root (spec §4.1, §6.1).
const (
	CommonDirName  = "_common"
	GenericDirName = "_generic"
)

// EntryKind classifies one directory entry found below a driver root.
type EntryKind int

const (
	// EntryIgnored means the directory name did not look like a version or
	// a version pair at all (e.g. "README", a dotfile); Scan skips it and
	// logs a warning.
	EntryIgnored EntryKind = iota
	// EntryInstall means the directory is an install dir for To.
	EntryInstall
	// EntryTransition means the directory is a transition dir From -> To.
	EntryTransition
)

// Entry is one classified directory found below a driver (or _generic, when
// substituting for a missing driver) root.
type Entry struct {
	Name string // raw directory base name, e.g. "0.01-0.02"
	Kind EntryKind
	From version.Version // zero value for EntryInstall
	To   version.Version
}

// looksNumeric matches names built only from digits, dots and a dash, the
// shape a version or version-pair directory name must have. Anything that
// doesn't even look like this is ignored rather than treated as a syntax
// error, matching spec §4.1's "anything else is ignored with a warning".
var looksNumeric = regexp.MustCompile(`^[0-9.]+(-[0-9.]+)?$`)

var installShape = regexp.MustCompile(`^([0-9.]+)$`)
var transitionShape = regexp.MustCompile(`^([0-9.]+)-([0-9.]+)$`)

// ClassifyDirName applies the classification rule of spec §4.1 to a single
// directory base name. It returns EntryIgnored with a nil error for names
// that don't resemble a version directory at all. It returns a
// *migrateerrors.Error of KindBadVersionSyntax for names that look like a
// version or version-pair but fail to parse.
func ClassifyDirName(name string) (Entry, error) {
	if strings.HasPrefix(name, ".") {
		return Entry{Name: name, Kind: EntryIgnored}, nil
	}
	if !looksNumeric.MatchString(name) {
		return Entry{Name: name, Kind: EntryIgnored}, nil
	}

	if m := transitionShape.FindStringSubmatch(name); m != nil {
		from, err := version.Parse(m[1])
		if err != nil {
			return Entry{}, badVersion(name, err)
		}
		to, err := version.Parse(m[2])
		if err != nil {
			return Entry{}, badVersion(name, err)
		}
		return Entry{Name: name, Kind: EntryTransition, From: from, To: to}, nil
	}

	if m := installShape.FindStringSubmatch(name); m != nil {
		to, err := version.Parse(m[1])
		if err != nil {
			return Entry{}, badVersion(name, err)
		}
		return Entry{Name: name, Kind: EntryInstall, To: to}, nil
	}

	return Entry{Name: name, Kind: EntryIgnored}, nil
}

func badVersion(name string, cause error) error {
	return migrateerrors.Wrap(migrateerrors.KindBadVersionSyntax,
		fmt.Sprintf("directory name %q looks like a version but does not parse as one", name),
		cause, "name", name)
}

// DriverRoot resolves which physical directory supplies a driver's scripts,
// implementing the driver selection rule of spec §4.1: prefer a directory
// named exactly as the driver, fall back to _generic, otherwise report that
// the schema has no scripts for this driver.
type DriverRoot struct {
	Path        string
	UsedGeneric bool
	None        bool
}

// ResolveDriverRoot picks the effective driver directory under schemaRoot.
func ResolveDriverRoot(fsys vfs.FileSystem, schemaRoot, driverName string) (DriverRoot, error) {
	driverPath := filepath.Join(schemaRoot, driverName)
	if isDir(fsys, driverPath) {
		return DriverRoot{Path: driverPath}, nil
	}

	genericPath := filepath.Join(schemaRoot, GenericDirName)
	if isDir(fsys, genericPath) {
		return DriverRoot{Path: genericPath, UsedGeneric: true}, nil
	}

	return DriverRoot{None: true}, nil
}

func isDir(fsys vfs.FileSystem, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && info.IsDir()
}

// Scan enumerates the directories directly under driverRoot and classifies
// each one, logging a warning for every ignored entry and returning an
// error on the first directory that looks like a version but doesn't parse.
func Scan(fsys vfs.FileSystem, driverRoot string, logger *slog.Logger) ([]Entry, error) {
	infos, err := vfs.ReadDir(fsys, driverRoot)
	if err != nil {
		return nil, migrateerrors.Wrap(migrateerrors.KindScriptReadFailure,
			"failed reading driver root", err, "path", driverRoot)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}

		entry, err := ClassifyDirName(info.Name())
		if err != nil {
			return nil, err
		}
		if entry.Kind == EntryIgnored {
			if logger != nil {
				logger.Warn("ignoring non-version directory", "path", filepath.Join(driverRoot, info.Name()))
			}
			continue
		}

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}
