package sequence

import (
	"errors"
	"math"
	"strings"
)

// ErrEmptyReduction is returned when a sequence without elements is reduced
// without a seed value. It is the only failure the package reports; every other
// lookup degrades to a (zero, false) or -1 result.
var ErrEmptyReduction = errors.New("reduce of empty sequence with no initial value")

/*
Sequence is an ordered, 0-indexed, mutable collection.

A *Sequence is the handle to the collection: every holder of the same pointer
observes the same mutations. Use Clone to get an independent copy.

Read-only operations (Slice, Map, Filter, Concat, Flatten, ...) always return a
new Sequence. Mutating operations (Set, Append, Prepend, RemoveLast,
RemoveFirst, Splice, SetLen, Fill, Reverse, SortFunc) change the receiver.

A Sequence is not safe for concurrent use.
*/
type Sequence[T any] struct {
	elems []T
}

// New returns a sequence holding the given elements in order.
func New[T any](elems ...T) *Sequence[T] {
	return Of(elems)
}

// Of copies elems into a new sequence.
func Of[T any](elems []T) *Sequence[T] {
	s := &Sequence[T]{elems: make([]T, len(elems))}
	copy(s.elems, elems)
	return s
}

// Filled returns a sequence of n copies of v.
func Filled[T any](n int, v T) *Sequence[T] {
	if n < 0 {
		n = 0
	}
	s := &Sequence[T]{elems: make([]T, n)}
	for i := range s.elems {
		s.elems[i] = v
	}
	return s
}

// Len is one plus the highest index.
func (s *Sequence[T]) Len() int {
	return len(s.elems)
}

// Values returns a copy of the elements as a plain slice.
func (s *Sequence[T]) Values() []T {
	out := make([]T, len(s.elems))
	copy(out, s.elems)
	return out
}

// Clone returns an independent copy; the two handles no longer share mutations.
func (s *Sequence[T]) Clone() *Sequence[T] {
	return Of(s.elems)
}

// Get returns the element at i. A negative i counts from the end, so Get(-1)
// is the last element.
func (s *Sequence[T]) Get(i int) (T, bool) {
	if i < 0 {
		i += len(s.elems)
	}
	if i < 0 || i >= len(s.elems) {
		var zero T
		return zero, false
	}
	return s.elems[i], true
}

// Set stores v at i. Setting past the end grows the sequence, padding the gap
// with zero values. A negative i counts from the end; an index that still falls
// before the start, or whose length would not fit in an int, is ignored and Set
// reports false.
func (s *Sequence[T]) Set(i int, v T) bool {
	if i < 0 {
		i += len(s.elems)
		if i < 0 {
			return false
		}
	}
	if i == math.MaxInt {
		return false
	}
	if i >= len(s.elems) {
		s.SetLen(i + 1)
	}
	s.elems[i] = v
	return true
}

// SetLen truncates or zero-pads the sequence to n elements. SetLen(0) clears
// it. Negative lengths are ignored.
func (s *Sequence[T]) SetLen(n int) {
	switch {
	case n < 0:
		return
	case n <= len(s.elems):
		clear(s.elems[n:])
		s.elems = s.elems[:n]
	default:
		s.elems = append(s.elems, make([]T, n-len(s.elems))...)
	}
}

// Fill overwrites the half-open range [start, end) with v. Bounds follow Slice.
func (s *Sequence[T]) Fill(v T, start, end int) {
	from, to := s.bounds(start, end)
	for i := from; i < to; i++ {
		s.elems[i] = v
	}
}

// Append adds values to the end, in argument order, and returns the new length.
func (s *Sequence[T]) Append(values ...T) int {
	s.elems = append(s.elems, values...)
	return len(s.elems)
}

// Prepend adds values to the start, keeping their argument order, and returns
// the new length. Existing elements are shifted.
func (s *Sequence[T]) Prepend(values ...T) int {
	s.insert(0, values)
	return len(s.elems)
}

// RemoveLast removes and returns the last element.
func (s *Sequence[T]) RemoveLast() (T, bool) {
	var zero T
	if len(s.elems) == 0 {
		return zero, false
	}
	last := len(s.elems) - 1
	v := s.elems[last]
	s.elems[last] = zero
	s.elems = s.elems[:last]
	return v, true
}

// RemoveFirst removes the first element and shifts the rest down by one.
func (s *Sequence[T]) RemoveFirst() (T, bool) {
	var zero T
	if len(s.elems) == 0 {
		return zero, false
	}
	v := s.elems[0]
	copy(s.elems, s.elems[1:])
	s.elems[len(s.elems)-1] = zero
	s.elems = s.elems[:len(s.elems)-1]
	return v, true
}

// Slice returns a new sequence with the elements in [start, end). Negative
// bounds count from the end and out-of-range bounds are clamped.
func (s *Sequence[T]) Slice(start, end int) *Sequence[T] {
	from, to := s.bounds(start, end)
	return Of(s.elems[from:to])
}

// SliceFrom is Slice with the end omitted.
func (s *Sequence[T]) SliceFrom(start int) *Sequence[T] {
	return s.Slice(start, len(s.elems))
}

// Splice removes up to count elements starting at start, inserts items in
// their place and returns the removed elements. A count of zero or less
// removes nothing, which turns Splice into a pure insertion.
func (s *Sequence[T]) Splice(start, count int, items ...T) *Sequence[T] {
	from := clampIndex(start, len(s.elems))
	if count < 0 {
		count = 0
	}
	to := from + count
	if to > len(s.elems) || to < from {
		to = len(s.elems)
	}

	removed := Of(s.elems[from:to])

	tail := make([]T, len(s.elems)-to)
	copy(tail, s.elems[to:])
	clear(s.elems[from:])
	s.elems = append(append(s.elems[:from], items...), tail...)
	return removed
}

// SpliceFrom removes every element from start to the end and returns them.
func (s *Sequence[T]) SpliceFrom(start int) *Sequence[T] {
	from := clampIndex(start, len(s.elems))
	return s.Splice(from, len(s.elems)-from)
}

// IndexFunc returns the index of the first element equal to v according to eq,
// or -1.
func (s *Sequence[T]) IndexFunc(v T, eq func(a, b T) bool) int {
	for i, e := range s.elems {
		if eq(e, v) {
			return i
		}
	}
	return -1
}

// LastIndexFunc is IndexFunc scanning from the end.
func (s *Sequence[T]) LastIndexFunc(v T, eq func(a, b T) bool) int {
	for i := len(s.elems) - 1; i >= 0; i-- {
		if eq(s.elems[i], v) {
			return i
		}
	}
	return -1
}

// Find returns the first element satisfying pred.
func (s *Sequence[T]) Find(pred func(v T, i int) bool) (T, bool) {
	if i := s.FindIndex(pred); i >= 0 {
		return s.elems[i], true
	}
	var zero T
	return zero, false
}

// FindIndex returns the index of the first element satisfying pred, or -1.
func (s *Sequence[T]) FindIndex(pred func(v T, i int) bool) int {
	for i, e := range s.elems {
		if pred(e, i) {
			return i
		}
	}
	return -1
}

// FindLast returns the last element satisfying pred.
func (s *Sequence[T]) FindLast(pred func(v T, i int) bool) (T, bool) {
	if i := s.FindLastIndex(pred); i >= 0 {
		return s.elems[i], true
	}
	var zero T
	return zero, false
}

// FindLastIndex returns the index of the last element satisfying pred, or -1.
func (s *Sequence[T]) FindLastIndex(pred func(v T, i int) bool) int {
	for i := len(s.elems) - 1; i >= 0; i-- {
		if pred(s.elems[i], i) {
			return i
		}
	}
	return -1
}

// Some reports whether at least one element satisfies pred.
func (s *Sequence[T]) Some(pred func(v T, i int) bool) bool {
	return s.FindIndex(pred) >= 0
}

// Every reports whether all elements satisfy pred. It is true for an empty
// sequence.
func (s *Sequence[T]) Every(pred func(v T, i int) bool) bool {
	return s.FindIndex(func(v T, i int) bool { return !pred(v, i) }) < 0
}

// Each calls fn for every element in order until fn returns false.
func (s *Sequence[T]) Each(fn func(i int, v T) bool) {
	for i, e := range s.elems {
		if !fn(i, e) {
			return
		}
	}
}

// Filter returns the elements satisfying pred, in order.
func (s *Sequence[T]) Filter(pred func(v T, i int) bool) *Sequence[T] {
	out := &Sequence[T]{elems: make([]T, 0)}
	for i, e := range s.elems {
		if pred(e, i) {
			out.elems = append(out.elems, e)
		}
	}
	return out
}

// Map returns a sequence of the same length holding fn applied to each element.
func (s *Sequence[T]) Map(fn func(v T, i int) T) *Sequence[T] {
	return MapTo(s, fn)
}

// MapTo is Map for a transform that changes the element type.
func MapTo[T, U any](s *Sequence[T], fn func(v T, i int) U) *Sequence[U] {
	out := &Sequence[U]{elems: make([]U, len(s.elems))}
	for i, e := range s.elems {
		out.elems[i] = fn(e, i)
	}
	return out
}

// Reduce folds the sequence from the left using the first element as the seed.
func (s *Sequence[T]) Reduce(fn func(acc, v T, i int) T) (T, error) {
	if len(s.elems) == 0 {
		var zero T
		return zero, ErrEmptyReduction
	}
	acc := s.elems[0]
	for i := 1; i < len(s.elems); i++ {
		acc = fn(acc, s.elems[i], i)
	}
	return acc, nil
}

// ReduceRight folds from the right using the last element as the seed.
func (s *Sequence[T]) ReduceRight(fn func(acc, v T, i int) T) (T, error) {
	if len(s.elems) == 0 {
		var zero T
		return zero, ErrEmptyReduction
	}
	last := len(s.elems) - 1
	acc := s.elems[last]
	for i := last - 1; i >= 0; i-- {
		acc = fn(acc, s.elems[i], i)
	}
	return acc, nil
}

// Fold reduces s from the left starting at seed. It never fails.
func Fold[T, A any](s *Sequence[T], fn func(acc A, v T, i int) A, seed A) A {
	acc := seed
	for i, e := range s.elems {
		acc = fn(acc, e, i)
	}
	return acc
}

func FoldRight[T, A any](s *Sequence[T], fn func(acc A, v T, i int) A, seed A) A {
	acc := seed
	for i := len(s.elems) - 1; i >= 0; i-- {
		acc = fn(acc, s.elems[i], i)
	}
	return acc
}

// Flatten inlines nested sequences up to depth levels. nested reports whether
// an element is itself a sequence and returns it. A depth of zero or less
// returns a shallow copy.
func (s *Sequence[T]) Flatten(depth int, nested func(T) (*Sequence[T], bool)) *Sequence[T] {
	out := &Sequence[T]{elems: make([]T, 0, len(s.elems))}
	out.elems = flattenInto(out.elems, s.elems, depth, nested)
	return out
}

func flattenInto[T any](dst, src []T, depth int, nested func(T) (*Sequence[T], bool)) []T {
	for _, e := range src {
		if depth > 0 {
			if inner, ok := nested(e); ok && inner != nil {
				dst = flattenInto(dst, inner.elems, depth-1, nested)
				continue
			}
		}
		dst = append(dst, e)
	}
	return dst
}

// Concat returns a new sequence with the receiver's elements followed by those
// of each other sequence. No operand is modified.
func (s *Sequence[T]) Concat(others ...*Sequence[T]) *Sequence[T] {
	n := len(s.elems)
	for _, o := range others {
		if o != nil {
			n += len(o.elems)
		}
	}
	out := &Sequence[T]{elems: make([]T, 0, n)}
	out.elems = append(out.elems, s.elems...)
	for _, o := range others {
		if o != nil {
			out.elems = append(out.elems, o.elems...)
		}
	}
	return out
}

// Join renders every element with format and joins them with sep.
func (s *Sequence[T]) Join(sep string, format func(T) string) string {
	parts := make([]string, len(s.elems))
	for i, e := range s.elems {
		parts[i] = format(e)
	}
	return strings.Join(parts, sep)
}

// Split is the inverse of Join for string sequences.
func Split(str, sep string) *Sequence[string] {
	return &Sequence[string]{elems: strings.Split(str, sep)}
}

// Reverse reverses the sequence in place.
func (s *Sequence[T]) Reverse() {
	for i, j := 0, len(s.elems)-1; i < j; i, j = i+1, j-1 {
		s.elems[i], s.elems[j] = s.elems[j], s.elems[i]
	}
}

func (s *Sequence[T]) insert(at int, values []T) {
	if len(values) == 0 {
		return
	}
	s.elems = append(s.elems, values...)
	copy(s.elems[at+len(values):], s.elems[at:])
	copy(s.elems[at:], values)
}

// bounds resolves a half-open [start, end) pair against the current length.
func (s *Sequence[T]) bounds(start, end int) (int, int) {
	from := clampIndex(start, len(s.elems))
	to := clampIndex(end, len(s.elems))
	if to < from {
		to = from
	}
	return from, to
}

// clampIndex maps a possibly negative index into [0, n].
func clampIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
		return i
	}
	if i > n {
		return n
	}
	return i
}
