// Package hierarchy expands slash-delimited entity paths into the transitive
// parent/child map stored in map_entity_hierarchy.
package hierarchy

import (
	"strings"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/delta"
)

// Edge relates an ancestor to a descendant by name. Depth 0 is the self edge.
type Edge struct {
	Parent            string
	Child             string
	Depth             int
	HighestParentFlag bool
	LowestChildFlag   bool
}

// Edges returns every ancestor/descendant pair of every path, deduplicated on
// (parent, child) in first-seen order. The first seen depth is kept and the
// highest-parent flag is set when any path starts at the parent. An edge is
// flagged lowest-child when its child is a leaf: a name that is parent only of
// its own self edge.
func Edges(paths []string) []Edge {
	var edges []Edge
	index := make(map[[2]string]int)
	for _, path := range paths {
		segments := splitPath(path)
		for i := range segments {
			for j := i; j < len(segments); j++ {
				k := [2]string{segments[i], segments[j]}
				if at, ok := index[k]; ok {
					edges[at].HighestParentFlag = edges[at].HighestParentFlag || i == 0
					continue
				}
				index[k] = len(edges)
				edges = append(edges, Edge{Parent: k[0], Child: k[1], Depth: j - i, HighestParentFlag: i == 0})
			}
		}
	}

	parentCount := make(map[string]int)
	for _, e := range edges {
		parentCount[e.Parent]++
	}
	for i := range edges {
		edges[i].LowestChildFlag = parentCount[edges[i].Child] == 1
	}
	return edges
}

func splitPath(path string) []string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	var segments []string
	for _, seg := range strings.Split(trimmed, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// Resolve maps edge names to entity keys. Edges with an unknown endpoint are
// returned as dropped.
func Resolve(edges []Edge, entities []db.Entity) (rows []db.EntityHierarchy, dropped []Edge) {
	keys := make(map[string]int64, len(entities))
	for _, e := range entities {
		if _, ok := keys[e.EntityName]; !ok {
			keys[e.EntityName] = e.EntityPK
		}
	}
	for _, e := range edges {
		parent, pok := keys[e.Parent]
		child, cok := keys[e.Child]
		if !pok || !cok {
			dropped = append(dropped, e)
			continue
		}
		rows = append(rows, db.EntityHierarchy{
			ParentEntityPK:    parent,
			ChildEntityPK:     child,
			DepthFromParent:   e.Depth,
			HighestParentFlag: e.HighestParentFlag,
			LowestChildFlag:   e.LowestChildFlag,
		})
	}
	return rows, dropped
}

// ClearStoredParents unsets the lowest-child flag of rows whose child is
// already the parent of another entity in existing.
func ClearStoredParents(rows, existing []db.EntityHierarchy) []db.EntityHierarchy {
	parents := make(map[int64]struct{}, len(existing))
	for _, e := range existing {
		if e.ParentEntityPK != e.ChildEntityPK {
			parents[e.ParentEntityPK] = struct{}{}
		}
	}
	out := make([]db.EntityHierarchy, len(rows))
	for i, r := range rows {
		if _, ok := parents[r.ChildEntityPK]; ok {
			r.LowestChildFlag = false
		}
		out[i] = r
	}
	return out
}

// NewRows returns the rows not already present in the map, matched on the
// parent/child pair.
func NewRows(rows, existing []db.EntityHierarchy) []db.EntityHierarchy {
	return delta.Diff(rows, existing, func(r db.EntityHierarchy) [2]int64 {
		return [2]int64{r.ParentEntityPK, r.ChildEntityPK}
	})
}
