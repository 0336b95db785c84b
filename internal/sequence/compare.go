package sequence

import "slices"

// IndexOf returns the index of the first element strictly equal (==) to v,
// or -1.
func IndexOf[T comparable](s *Sequence[T], v T) int {
	return s.IndexFunc(v, equal[T])
}

// LastIndexOf returns the index of the last element equal to v, or -1.
func LastIndexOf[T comparable](s *Sequence[T], v T) int {
	return s.LastIndexFunc(v, equal[T])
}

// Includes reports whether some element is strictly equal to v.
func Includes[T comparable](s *Sequence[T], v T) bool {
	return IndexOf(s, v) >= 0
}

// Equal reports whether a and b have the same length and pairwise equal
// elements. Two nil handles are equal.
func Equal[T comparable](a, b *Sequence[T]) bool {
	return EqualFunc(a, b, equal[T])
}

// EqualFunc is Equal with a caller-supplied element comparison.
func EqualFunc[T any](a, b *Sequence[T], eq func(x, y T) bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.elems) != len(b.elems) {
		return false
	}
	for i := range a.elems {
		if !eq(a.elems[i], b.elems[i]) {
			return false
		}
	}
	return true
}

// SortFunc sorts the sequence in place. cmp returns a negative number when
// a orders before b. The sort is stable.
func (s *Sequence[T]) SortFunc(cmp func(a, b T) int) {
	slices.SortStableFunc(s.elems, cmp)
}

func equal[T comparable](a, b T) bool {
	return a == b
}
