package store

import (
	"sort"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
)

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize items.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// DedupeStrings drops empty values and repeats while keeping first-seen order.
func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// EdgeTypeStrings converts edge types for use as query arguments.
func EdgeTypeStrings(types []common.EdgeType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// SortEdges orders edges by the given endpoint, type, position and id. Both
// backends sort in SQL as well; this keeps results merged from chunked
// queries in the same order.
func SortEdges(edges []Edge, byTarget bool) {
	sort.SliceStable(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		ka, kb := a.SourceID, b.SourceID
		if byTarget {
			ka, kb = a.TargetID, b.TargetID
		}
		if ka != kb {
			return ka < kb
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
}

// GroupBySource indexes edges by source id, keeping their order.
func GroupBySource(edges []Edge) map[string][]Edge {
	out := make(map[string][]Edge)
	for _, e := range edges {
		out[e.SourceID] = append(out[e.SourceID], e)
	}
	return out
}

// GroupByTarget indexes edges by target id, keeping their order.
func GroupByTarget(edges []Edge) map[string][]Edge {
	out := make(map[string][]Edge)
	for _, e := range edges {
		out[e.TargetID] = append(out[e.TargetID], e)
	}
	return out
}

// TargetIDs returns the distinct target ids of edges in order.
func TargetIDs(edges []Edge) []string {
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.TargetID)
	}
	return DedupeStrings(ids)
}

// SourceIDs returns the distinct source ids of edges in order.
func SourceIDs(edges []Edge) []string {
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.SourceID)
	}
	return DedupeStrings(ids)
}
