// Package migrateerrors defines the typed error values the migration engine
// surfaces to callers, and a small structured-metadata carrier modeled on the
// teacher's app/errors package so a failure can be logged with machine
// readable fields instead of just a flat message.
package migrateerrors

import (
	"errors"
	"fmt"
	"maps"
	"sort"
)

// Kind identifies one of the error categories named by the engine's error
// handling design. Two *Error values of the same Kind match each other
// under errors.Is (see Error.Is).
type Kind int

const (
	// KindNoMigrationPath means the planner could not connect the current
	// version to the desired version over the transition graph.
	KindNoMigrationPath Kind = iota
	// KindUnknownCurrentVersion means the bookkeeping store recorded a
	// version that does not appear anywhere in the transition graph.
	KindUnknownCurrentVersion
	// KindBadVersionSyntax means a directory name claiming to be a version
	// failed numeric parsing.
	KindBadVersionSyntax
	// KindScriptReadFailure means a script file or directory could not be
	// read from the filesystem.
	KindScriptReadFailure
	// KindExecutionFailure means the database rejected a statement, or the
	// transaction could not commit.
	KindExecutionFailure
	// KindBootstrapFailure means the engine's own bookkeeping schema could
	// not be brought to its required version.
	KindBootstrapFailure
)

// String renders the Kind using the names from the spec's error handling
// design, for log lines and test assertions.
func (k Kind) String() string {
	switch k {
	case KindNoMigrationPath:
		return "NoMigrationPath"
	case KindUnknownCurrentVersion:
		return "UnknownCurrentVersion"
	case KindBadVersionSyntax:
		return "BadVersionSyntax"
	case KindScriptReadFailure:
		return "ScriptReadFailure"
	case KindExecutionFailure:
		return "ExecutionFailure"
	case KindBootstrapFailure:
		return "BootstrapFailure"
	default:
		return "Unknown"
	}
}

// Error is a typed, structured engine error. It carries a Kind for
// programmatic dispatch (errors.As/errors.Is), an optional cause, and
// free-form metadata (edge, file, driver message, ...) for logging.
type Error struct {
	Kind     Kind
	msg      string
	cause    error
	metadata map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.cause)
	}
	return e.msg
}

// Unwrap allows errors.Is and errors.As to reach the cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error of the same Kind, so callers can
// write errors.Is(err, migrateerrors.ErrNoMigrationPath).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// Metadata returns a copy of the error's structured fields.
func (e *Error) Metadata() map[string]any {
	if e.metadata == nil {
		return nil
	}
	result := make(map[string]any, len(e.metadata))
	maps.Copy(result, e.metadata)
	return result
}

// LogArgs flattens the error's metadata into a sorted slog.Logger.With-style
// argument list, with "cause" first if present.
func (e *Error) LogArgs() []any {
	args := make([]any, 0, len(e.metadata)*2+2)
	if e.cause != nil {
		args = append(args, "cause", e.cause)
	}

	keys := make([]string, 0, len(e.metadata))
	for k := range e.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, k, e.metadata[k])
	}
	return args
}

// New creates an *Error of the given Kind with optional key/value metadata
// pairs, following the teacher's errors.With field-pair convention.
func New(kind Kind, msg string, fields ...any) *Error {
	return newErr(kind, msg, nil, fields)
}

// Wrap creates an *Error of the given Kind wrapping a cause, with optional
// key/value metadata pairs.
func Wrap(kind Kind, msg string, cause error, fields ...any) *Error {
	return newErr(kind, msg, cause, fields)
}

func newErr(kind Kind, msg string, cause error, fields []any) *Error {
	if len(fields)%2 != 0 {
		panic("migrateerrors: an even number of fields is required")
	}

	metadata := make(map[string]any, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			panic("migrateerrors: metadata keys must be strings")
		}
		metadata[key] = fields[i+1]
	}

	return &Error{Kind: kind, msg: msg, cause: cause, metadata: metadata}
}

// Sentinel values usable with errors.Is without constructing a full *Error.
var (
	ErrNoMigrationPath       = &Error{Kind: KindNoMigrationPath, msg: "no migration path"}
	ErrUnknownCurrentVersion = &Error{Kind: KindUnknownCurrentVersion, msg: "unknown current version"}
	ErrBadVersionSyntax      = &Error{Kind: KindBadVersionSyntax, msg: "bad version syntax"}
	ErrScriptReadFailure     = &Error{Kind: KindScriptReadFailure, msg: "script read failure"}
	ErrExecutionFailure      = &Error{Kind: KindExecutionFailure, msg: "execution failure"}
	ErrBootstrapFailure      = &Error{Kind: KindBootstrapFailure, msg: "bootstrap failure"}
)
