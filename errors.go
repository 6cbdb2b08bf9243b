package migrate

import "go.hackfix.me/schemamigrate/migrateerrors"

// Sentinel errors callers can match with errors.Is, re-exported from
// migrateerrors so the public facade never requires importing the internal
// error package directly (spec §7: every one of these kinds must be
// distinguishable by the caller).
var (
	ErrNoMigrationPath       = migrateerrors.ErrNoMigrationPath
	ErrUnknownCurrentVersion = migrateerrors.ErrUnknownCurrentVersion
	ErrBadVersionSyntax      = migrateerrors.ErrBadVersionSyntax
	ErrScriptReadFailure     = migrateerrors.ErrScriptReadFailure
	ErrExecutionFailure      = migrateerrors.ErrExecutionFailure
	ErrBootstrapFailure      = migrateerrors.ErrBootstrapFailure
)
