package indexset

import (
	"slices"

	"golang.org/x/exp/constraints"
)

// Union merges two ascending sequences into one ascending sequence.
// Values present in both inputs appear once.
func Union[T constraints.Integer](a, b []T) []T {
	end := exhausted[T]()
	out := make([]T, 0, len(a)+len(b))
	for i, j := 0, 0; i < len(a) || j < len(b); {
		pa, pb := at(a, i, end), at(b, j, end)
		m := min(pa, pb)
		if pa == m {
			i++
		}
		if pb == m {
			j++
		}
		out = append(out, m)
	}
	return out
}

// Intersect returns the values present in both a and b, ascending.
func Intersect[T constraints.Integer](a, b []T) []T {
	end := exhausted[T]()
	var out []T
	for i, j := 0, 0; i < len(a) && j < len(b); {
		pa, pb := at(a, i, end), at(b, j, end)
		m := min(pa, pb)
		if pa == m {
			i++
		}
		if pb == m {
			j++
		}
		if pa == pb {
			out = append(out, m)
		}
	}
	return out
}

// Difference returns the values of a that are not in b, ascending.
func Difference[T constraints.Integer](a, b []T) []T {
	end := exhausted[T]()
	var out []T
	for i, j := 0, 0; i < len(a); {
		pa, pb := at(a, i, end), at(b, j, end)
		m := min(pa, pb)
		if pa == m {
			i++
		}
		if pb == m {
			j++
		}
		if pb != m {
			out = append(out, m)
		}
	}
	return out
}

// BinarySearch returns the index of x in the ascending sequence seq.
// When x is absent it returns -(insertionPoint + 1), so a negative result
// both reports the miss and says where x would go.
func BinarySearch[T constraints.Integer](seq []T, x T) int {
	low, high := 0, len(seq)
	for low < high {
		i := (low + high - 1) / 2
		switch {
		case seq[i] < x:
			low = i + 1
		case seq[i] > x:
			high = i
		default:
			return i
		}
	}
	return -high - 1
}

// InsertSorted returns seq with x inserted at its sorted position.
// If x is already present seq is returned unchanged.
func InsertSorted[T constraints.Integer](seq []T, x T) []T {
	i := BinarySearch(seq, x)
	if i >= 0 {
		return seq
	}
	return slices.Insert(seq, -(i + 1), x)
}

// Contains reports whether x is in the ascending sequence seq.
func Contains[T constraints.Integer](seq []T, x T) bool {
	return BinarySearch(seq, x) >= 0
}

func at[T constraints.Integer](seq []T, i int, end T) T {
	if i < len(seq) {
		return seq[i]
	}
	return end
}

// exhausted returns the largest value of T. It stands in for the current
// element of a sequence that has been fully consumed, so inputs must not
// contain it.
func exhausted[T constraints.Integer]() T {
	var zero T
	ones := ^zero
	if ones > zero {
		return ones
	}
	bits := 0
	for v := T(1); v != 0; v <<= 1 {
		bits++
	}
	return T(^uint64(0) >> (65 - bits))
}
