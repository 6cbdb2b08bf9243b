package migrate

import (
	"time"

	"go.hackfix.me/schemamigrate/internal/planner"
	"go.hackfix.me/schemamigrate/version"
)

// Version re-exports the engine's version value (spec §3 C1) at the public
// facade so callers never need to import the internal version package
// directly.
type Version = version.Version

// ZeroVersion is the sentinel version denoting an absent schema.
func ZeroVersion() Version { return version.Zero() }

// ParseVersion parses a canonical textual version such as "0.01".
func ParseVersion(s string) (Version, error) { return version.Parse(s) }

// Edge is one step of a migration plan: a directed transition from From to
// To, sourced from the on-disk directory named DirName (spec §4.4).
//
// TieBreak records why this edge won the deterministic tie-break policy
// against the other edges reachable at the same point in the search
// ("fewer intermediate versions", "lower target on upward walk", or
// "lexicographic"), so the policy is introspectable in tests and logs
// rather than only internally consistent.
type Edge struct {
	From     Version
	To       Version
	DirName  string
	TieBreak string
}

func fromInternalEdges(edges []planner.Edge) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = Edge{From: e.From, To: e.To, DirName: e.DirName, TieBreak: e.TieBreak}
	}
	return out
}

// LogEntry is one schema_log row (spec §3), returned by Engine.History.
type LogEntry struct {
	Schema      string
	FromVersion *string
	ToVersion   string
	At          time.Time
}
