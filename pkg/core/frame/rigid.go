package frame

import (
	"slices"

	"github.com/golang/geo/r2"

	"github.com/matzehuels/pivotframe/pkg/core/indexset"
)

// BuildGroups derives the maximal rigid clusters of a network.
//
// Every rigid pivot starts a list holding itself and, for each shape it is an
// endpoint of, the pivot at the other end. Lists are then merged pairwise
// until a fixed point: two lists merge only when their intersection contains
// a pivot that is itself rigid. A shared non-rigid pivot acts as a hinge
// between two bodies and appears in both groups.
//
// Each resulting group snapshots the current position of its members as its
// reference configuration. Groups are returned ordered by lowest member.
func BuildGroups(pivots []Pivot, shapes []Shape) []RigidGroup {
	lists := adjacency(pivots, shapes)

	for merged := true; merged; {
		merged = false
	scan:
		for a := 0; a < len(lists); a++ {
			for b := a + 1; b < len(lists); b++ {
				if !sharesRigid(pivots, indexset.Intersect(lists[a], lists[b])) {
					continue
				}
				lists[a] = indexset.Union(lists[a], lists[b])
				lists = slices.Delete(lists, b, b+1)
				merged = true
				break scan
			}
		}
	}

	slices.SortFunc(lists, func(a, b []int) int { return a[0] - b[0] })

	groups := make([]RigidGroup, len(lists))
	for i, members := range lists {
		ref := make([]r2.Point, len(members))
		for j, m := range members {
			ref[j] = pivots[m].Pos
		}
		groups[i] = RigidGroup{Members: members, Reference: ref}
	}
	return groups
}

// adjacency returns one sorted list per rigid pivot, in pivot order.
func adjacency(pivots []Pivot, shapes []Shape) [][]int {
	index := make(map[int]int) // rigid pivot -> position in lists
	var lists [][]int
	for i, p := range pivots {
		if p.Rigid {
			index[i] = len(lists)
			lists = append(lists, []int{i})
		}
	}
	for _, s := range shapes {
		if k, ok := index[s.P1]; ok {
			lists[k] = indexset.InsertSorted(lists[k], s.P2)
		}
		if k, ok := index[s.P2]; ok {
			lists[k] = indexset.InsertSorted(lists[k], s.P1)
		}
	}
	return lists
}

func sharesRigid(pivots []Pivot, shared []int) bool {
	for _, id := range shared {
		if pivots[id].Rigid {
			return true
		}
	}
	return false
}
