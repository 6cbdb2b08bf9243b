// Package planner implements the transition graph and shortest-path planner
// of spec §4.4 (C5): a directed graph of (from -> to) version edges, and a
// deterministic shortest-path search between two versions.
package planner

import (
	"sort"

	"go.hackfix.me/schemamigrate/internal/layout"
	"go.hackfix.me/schemamigrate/migrateerrors"
	"go.hackfix.me/schemamigrate/version"
)

// Edge is one directed transition, labeled by the on-disk directory name
// that supplies its scripts (an install dir name for edges out of zero, or
// a "V1-V2" transition dir name otherwise).
//
// TieBreak names the rule that made this edge win against the other edges
// reachable at the same BFS frontier: "lexicographic" when another
// candidate targeted the same version and directory-name order decided it,
// "lower target on upward walk" or "fewer intermediate versions" when no
// same-target contender existed and the edge was merely ordered ahead of
// edges toward other versions (see lessCandidate). It is left empty when
// Plan returns a zero-edge (no-op) result.
type Edge struct {
	From     version.Version
	To       version.Version
	DirName  string
	TieBreak string
}

// Graph is the migration graph of spec §4.4: vertices are the sentinel zero
// plus every version named by an install or transition directory; edges are
// the directories themselves.
type Graph struct {
	vertices map[string]version.Version
	edges    map[string][]Edge // keyed by From.Key()
}

// BuildGraph constructs a Graph from the classified directory entries
// returned by layout.Scan.
func BuildGraph(entries []layout.Entry) *Graph {
	g := &Graph{
		vertices: map[string]version.Version{version.Zero().Key(): version.Zero()},
		edges:    map[string][]Edge{},
	}

	for _, e := range entries {
		switch e.Kind {
		case layout.EntryInstall:
			g.addEdge(Edge{From: version.Zero(), To: e.To, DirName: e.Name})
		case layout.EntryTransition:
			g.addEdge(Edge{From: e.From, To: e.To, DirName: e.Name})
		case layout.EntryIgnored:
			// not a graph contributor
		}
	}

	return g
}

func (g *Graph) addEdge(e Edge) {
	g.vertices[e.From.Key()] = e.From
	g.vertices[e.To.Key()] = e.To
	g.edges[e.From.Key()] = append(g.edges[e.From.Key()], e)
}

// HasVertex reports whether v appears anywhere in the graph (as an edge
// endpoint, or as the always-present zero sentinel).
func (g *Graph) HasVertex(v version.Version) bool {
	_, ok := g.vertices[v.Key()]
	return ok
}

// EdgesFrom returns the edges originating at v, in no particular order.
func (g *Graph) EdgesFrom(v version.Version) []Edge {
	return g.edges[v.Key()]
}

// Plan computes the shortest sequence of edges from `from` to `to`, per
// spec §4.4. If from equals to, it returns a nil, non-error plan (a no-op).
// If no path exists, it returns a *migrateerrors.Error of
// KindNoMigrationPath.
//
// Tie-breaking (spec §9, Open Question resolved): when multiple edges are
// reachable at the same BFS depth, the search greedily prefers, at each
// step, the edge whose target sorts lower (walking upward, i.e. to > from)
// or higher (walking downward) among the currently reachable candidates;
// remaining ties are broken by lexicographic comparison of directory names.
// Because BFS visits vertices in non-decreasing distance order, the first
// edge to claim a given target under this ordering is part of a shortest
// path, so the result is always minimal in edge count even though the
// candidate ordering is evaluated greedily rather than across all complete
// paths at once.
func Plan(g *Graph, from, to version.Version) ([]Edge, error) {
	if from.Equal(to) {
		return nil, nil
	}

	upward := to.Compare(from) > 0

	visited := map[string]bool{from.Key(): true}
	cameFrom := map[string]Edge{}

	frontier := []version.Version{from}
	reached := false

	for len(frontier) > 0 && !reached {
		var candidates []Edge
		for _, v := range frontier {
			candidates = append(candidates, g.EdgesFrom(v)...)
		}

		sort.Slice(candidates, func(i, j int) bool {
			return lessCandidate(candidates[i], candidates[j], upward)
		})

		var next []version.Version
		for i, e := range candidates {
			if visited[e.To.Key()] {
				continue
			}
			visited[e.To.Key()] = true
			e.TieBreak = tieBreakReason(candidates, i, upward)
			cameFrom[e.To.Key()] = e
			next = append(next, e.To)
			if e.To.Equal(to) {
				reached = true
			}
		}
		frontier = next
	}

	if !reached {
		return nil, migrateerrors.Wrap(migrateerrors.KindNoMigrationPath,
			"no migration path found", migrateerrors.ErrNoMigrationPath,
			"from", from.String(), "to", to.String())
	}

	return reconstruct(cameFrom, from, to), nil
}

func reconstruct(cameFrom map[string]Edge, from, to version.Version) []Edge {
	var path []Edge
	cur := to
	for !cur.Equal(from) {
		e := cameFrom[cur.Key()]
		path = append(path, e)
		cur = e.From
	}

	// path was built end-to-start; reverse it.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}

func lessCandidate(a, b Edge, upward bool) bool {
	if !a.To.Equal(b.To) {
		if upward {
			return a.To.Less(b.To)
		}
		return b.To.Less(a.To)
	}
	return a.DirName < b.DirName
}

// tieBreakReason names the branch of lessCandidate that decided candidate
// i's claim to its target: if another candidate in the same frontier round
// targets the same version, dirname order (lessCandidate's equal-To branch)
// is what separated them, so the reason is "lexicographic"; otherwise the
// edge was merely ordered ahead of edges toward other versions by the
// upward/downward version comparison, so the reason names that walk.
func tieBreakReason(candidates []Edge, i int, upward bool) string {
	for j, o := range candidates {
		if j != i && o.To.Equal(candidates[i].To) {
			return "lexicographic"
		}
	}
	if upward {
		return "lower target on upward walk"
	}
	return "fewer intermediate versions"
}

// HighestReachable implements the auto-target rule of spec §4.4: the
// highest version V such that a path from `from` exists. If `from` does not
// appear in the graph at all, it returns a *migrateerrors.Error of
// KindUnknownCurrentVersion. If no forward path exists, it returns `from`
// itself (a no-op target), matching "If none, return C".
func HighestReachable(g *Graph, from version.Version) (version.Version, error) {
	if !g.HasVertex(from) {
		return version.Version{}, migrateerrors.Wrap(migrateerrors.KindUnknownCurrentVersion,
			"current version is not recognized in the migration graph",
			migrateerrors.ErrUnknownCurrentVersion, "version", from.String())
	}

	visited := map[string]bool{from.Key(): true}
	highest := from
	queue := []version.Version{from}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		for _, e := range g.EdgesFrom(v) {
			if visited[e.To.Key()] {
				continue
			}
			visited[e.To.Key()] = true
			if e.To.Compare(highest) > 0 {
				highest = e.To
			}
			queue = append(queue, e.To)
		}
	}

	return highest, nil
}
