// Package frame provides the pivot–shape network edited and solved by
// pivotframe.
//
// # Overview
//
// A [Frame] owns an ordered list of pivots (2D points) and an ordered list of
// shapes (distance constraints between two pivots). Pivots are addressed by
// dense zero-based indices. Indices are stable until [Frame.DeletePivot]
// removes a pivot, at which point every index above the deleted one shifts
// down by one and every shape endpoint is renumbered to match.
//
// # Shapes
//
// A [Shape] is either a circle ([KindCircle]) or a line ([KindLine]) drawn
// between two pivots. Both carry a rest length captured when the shape is
// created; only lines carry a thickness. Colors are cosmetic and never read
// by the solver.
//
//	f := frame.New()
//	a := f.MustAddPivot(0, 0)
//	b := f.MustAddPivot(100, 0)
//	f.AddLine(a, b, "#000000", 1.5)
//
// # Rigid Groups
//
// Pivots flagged rigid are clustered into [RigidGroup]s by [BuildGroups]. A
// rigid pivot's group holds itself and every pivot it shares a shape with;
// groups whose overlap contains another rigid pivot are merged until nothing
// changes. Groups are a derived view: they are rebuilt in full whenever a
// rigid flag changes, a pivot is deleted, rest lengths are recomputed, or
// [Frame.Rebuild] is called. Each rebuild snapshots the member positions as
// the group's reference configuration.
//
// # Concurrency
//
// A Frame is owned by a single editing session and is not safe for
// concurrent use.
package frame
