// Package indexset implements set algebra over ascending integer sequences.
//
// A sequence is a plain slice sorted in ascending order with no duplicates.
// [Union], [Intersect] and [Difference] are single merge scans that walk both
// inputs in lock step, treating an exhausted input as if it were positioned
// on the largest value of the element type. [BinarySearch] and [InsertSorted]
// keep a sequence ordered while it is built up one value at a time.
//
// The rigid group builder in package frame is the main consumer:
//
//	members := []int{3}
//	members = indexset.InsertSorted(members, 7)
//	members = indexset.InsertSorted(members, 1) // [1 3 7]
//	shared := indexset.Intersect(members, []int{3, 9})
//	if len(shared) > 0 {
//	    members = indexset.Union(members, []int{3, 9})
//	}
package indexset
