package sequence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positions() *Sequence[string] {
	return New("first", "second", "third")
}

func TestGetSet(t *testing.T) {
	t.Parallel()

	t.Run("negative index counts from the end", func(t *testing.T) {
		s := positions()
		last, ok := s.Get(-1)
		require.True(t, ok)
		byLen, _ := s.Get(s.Len() - 1)
		assert.Equal(t, byLen, last)

		_, ok = s.Get(-4)
		assert.False(t, ok)
		_, ok = s.Get(3)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		s := positions()
		require.True(t, s.Set(0, "left"))
		v, ok := s.Get(0)
		require.True(t, ok)
		assert.Equal(t, "left", v)
		assert.Equal(t, []string{"left", "second", "third"}, s.Values())
	})

	t.Run("set past the end grows without holes", func(t *testing.T) {
		s := New(1, 2)
		require.True(t, s.Set(4, 5))
		assert.Equal(t, 5, s.Len())
		assert.Equal(t, []int{1, 2, 0, 0, 5}, s.Values())
	})

	t.Run("set before the start is ignored", func(t *testing.T) {
		s := New(1, 2)
		assert.False(t, s.Set(-3, 9))
		assert.True(t, s.Set(-1, 9))
		assert.Equal(t, []int{1, 9}, s.Values())
	})
}

func TestSetRejectsUnrepresentableLength(t *testing.T) {
	t.Parallel()
	s := positions()

	assert.NotPanics(t, func() {
		assert.False(t, s.Set(math.MaxInt, "overflow"))
	})
	assert.Equal(t, []string{"first", "second", "third"}, s.Values())
}

func TestLengthReset(t *testing.T) {
	t.Parallel()

	s := positions()
	s.SetLen(0)
	assert.Equal(t, 0, s.Len())

	s.SetLen(2)
	assert.Equal(t, []string{"", ""}, s.Values())

	s.SetLen(-1)
	assert.Equal(t, 2, s.Len())

	filled := Filled(10, 2)
	assert.Equal(t, 10, filled.Len())
	assert.True(t, filled.Every(func(v int, _ int) bool { return v == 2 }))

	filled.Fill(0, -3, 100)
	assert.Equal(t, []int{2, 2, 2, 2, 2, 2, 2, 0, 0, 0}, filled.Values())
}

func TestAddRemove(t *testing.T) {
	t.Parallel()

	s := positions()
	assert.Equal(t, 5, s.Append("fourth", "fifth"))
	assert.Equal(t, []string{"first", "second", "third", "fourth", "fifth"}, s.Values())

	v, ok := s.RemoveLast()
	require.True(t, ok)
	assert.Equal(t, "fifth", v)
	assert.Equal(t, 4, s.Len())

	assert.Equal(t, 6, s.Prepend("minus", "zeroth"))
	assert.Equal(t, []string{"minus", "zeroth", "first", "second", "third", "fourth"}, s.Values())

	v, ok = s.RemoveFirst()
	require.True(t, ok)
	assert.Equal(t, "minus", v)
	assert.Equal(t, []string{"zeroth", "first", "second", "third", "fourth"}, s.Values())

	empty := New[string]()
	_, ok = empty.RemoveLast()
	assert.False(t, ok)
	_, ok = empty.RemoveFirst()
	assert.False(t, ok)
}

func TestRemoveLastUndoesAppend(t *testing.T) {
	t.Parallel()

	s := New(1, 2, 3)
	before := s.Len()
	s.Append(42)
	last, _ := s.Get(s.Len() - 1)
	assert.Equal(t, 42, last)

	v, ok := s.RemoveLast()
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, before, s.Len())
}

func TestSlice(t *testing.T) {
	t.Parallel()

	s := positions()
	assert.Equal(t, []string{"second"}, s.Slice(1, 2).Values())
	assert.Equal(t, []string{"second", "third"}, s.SliceFrom(-2).Values())
	assert.Equal(t, []string{"first", "second", "third"}, s.Slice(-10, 10).Values())
	assert.Equal(t, 0, s.Slice(2, 1).Len())

	assert.Equal(t, []string{"first", "second", "third"}, s.Values(), "slice must not mutate")
}

func TestSplice(t *testing.T) {
	t.Parallel()

	t.Run("count omitted removes to the end", func(t *testing.T) {
		s := positions()
		assert.Equal(t, []string{"third"}, s.SpliceFrom(2).Values())
		assert.Equal(t, []string{"first", "second"}, s.Values())

		s = positions()
		s.SpliceFrom(1)
		assert.Equal(t, []string{"first"}, s.Values())
	})

	t.Run("replace", func(t *testing.T) {
		s := positions()
		removed := s.Splice(1, 1, "newSecond")
		assert.Equal(t, []string{"second"}, removed.Values())
		assert.Equal(t, []string{"first", "newSecond", "third"}, s.Values())
	})

	t.Run("zero count inserts", func(t *testing.T) {
		s := positions()
		removed := s.Splice(1, 0, "insertedBetween")
		assert.Equal(t, 0, removed.Len())
		assert.Equal(t, []string{"first", "insertedBetween", "second", "third"}, s.Values())

		s = positions()
		s.Splice(1, -5, "x")
		assert.Equal(t, []string{"first", "x", "second", "third"}, s.Values())
	})

	t.Run("negative start", func(t *testing.T) {
		s := positions()
		assert.Equal(t, []string{"third"}, s.Splice(-1, 1).Values())
		assert.Equal(t, []string{"first", "second"}, s.Values())
	})

	t.Run("start past the end appends", func(t *testing.T) {
		s := positions()
		s.Splice(10, 3, "fourth")
		assert.Equal(t, []string{"first", "second", "third", "fourth"}, s.Values())
	})

	t.Run("count larger than the tail", func(t *testing.T) {
		s := New(1, 2, 3, 4)
		assert.Equal(t, []int{3, 4}, s.Splice(2, 99, 7, 8, 9).Values())
		assert.Equal(t, []int{1, 2, 7, 8, 9}, s.Values())
	})
}

func TestSearch(t *testing.T) {
	t.Parallel()

	s := New("a", "b", "c", "41", "b", "")

	assert.True(t, Includes(s, "b"))
	assert.False(t, Includes(s, "N"))
	assert.Equal(t, 1, IndexOf(s, "b"))
	assert.Equal(t, -1, IndexOf(s, "N"))
	assert.Equal(t, 4, LastIndexOf(s, "b"))

	calls := 0
	idx := s.FindIndex(func(v string, _ int) bool {
		calls++
		return v == "c"
	})
	assert.Equal(t, 2, idx)
	assert.Equal(t, 3, calls, "find must stop at the first match")

	v, ok := s.Find(func(v string, _ int) bool { return len(v) == 2 })
	require.True(t, ok)
	assert.Equal(t, "41", v)

	_, ok = s.Find(func(v string, _ int) bool { return v == "zzz" })
	assert.False(t, ok)
	assert.Equal(t, -1, s.FindIndex(func(v string, _ int) bool { return v == "zzz" }))

	assert.Equal(t, 4, s.FindLastIndex(func(v string, _ int) bool { return v == "b" }))
	last, ok := s.FindLast(func(v string, _ int) bool { return len(v) == 1 })
	require.True(t, ok)
	assert.Equal(t, "b", last)

	assert.True(t, s.Some(func(v string, _ int) bool { return v == "" }))
	assert.False(t, s.Every(func(v string, _ int) bool { return v != "" }))
	assert.True(t, New[string]().Every(func(string, int) bool { return false }))
}

func TestFilterMap(t *testing.T) {
	t.Parallel()

	s := New(5, 1, 4, 2, 3)
	evens := s.Filter(func(v int, _ int) bool { return v%2 == 0 })
	assert.Equal(t, []int{4, 2}, evens.Values())

	id := s.Map(func(v int, _ int) int { return v })
	assert.True(t, Equal(s, id))
	assert.NotSame(t, s, id)

	labels := MapTo(positions(), func(v string, i int) int { return len(v) + i })
	assert.Equal(t, []int{5, 7, 7}, labels.Values())
}

func TestReduce(t *testing.T) {
	t.Parallel()

	s := New(1, 2, 3, 4, 5)
	add := func(acc, v int, _ int) int { return acc + v }

	sum, err := s.Reduce(add)
	require.NoError(t, err)
	assert.Equal(t, 15, sum)

	assert.Equal(t, 15, Fold(s, add, 0))
	assert.Equal(t, "54321", FoldRight(s, func(acc string, v int, _ int) string {
		return acc + string(rune('0'+v))
	}, ""))

	diff, err := s.ReduceRight(func(acc, v int, _ int) int { return acc - v })
	require.NoError(t, err)
	assert.Equal(t, 5-4-3-2-1, diff)

	_, err = New[int]().Reduce(add)
	assert.ErrorIs(t, err, ErrEmptyReduction)
	_, err = New[int]().ReduceRight(add)
	assert.ErrorIs(t, err, ErrEmptyReduction)
	assert.Equal(t, 7, Fold(New[int](), add, 7))
}

type node struct {
	leaf  int
	inner *Sequence[node]
}

func leaves(vs ...int) []node {
	out := make([]node, len(vs))
	for i, v := range vs {
		out[i] = node{leaf: v}
	}
	return out
}

func list(items ...node) node {
	return node{inner: New(items...)}
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	nested := func(n node) (*Sequence[node], bool) { return n.inner, n.inner != nil }
	collect := func(s *Sequence[node]) []any {
		out := make([]any, 0, s.Len())
		s.Each(func(_ int, n node) bool {
			if n.inner != nil {
				out = append(out, n.inner.Len())
			} else {
				out = append(out, n.leaf)
			}
			return true
		})
		return out
	}

	s := New(
		list(leaves(1, 2)...),
		list(leaves(3, 4)...),
		list(append(leaves(5, 6), list(leaves(7, 8)...))...),
	)

	one := s.Flatten(1, nested)
	assert.Equal(t, 7, one.Len())
	// the last element stays a nested list of length 2
	assert.Equal(t, []any{1, 2, 3, 4, 5, 6, 2}, collect(one))

	two := s.Flatten(2, nested)
	assert.Equal(t, []any{1, 2, 3, 4, 5, 6, 7, 8}, collect(two))

	assert.Equal(t, 3, s.Flatten(0, nested).Len())
}

func TestConcat(t *testing.T) {
	t.Parallel()

	a, b, c := New(1, 2, 3), New(4, 5, 6), New(6, 7, 8)
	all := a.Concat(b, nil, c)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 6, 7, 8}, all.Values())
	assert.Equal(t, []int{1, 2, 3}, a.Values())
	assert.Equal(t, []int{4, 5, 6}, b.Values())

	all.Set(0, 100)
	assert.Equal(t, []int{1, 2, 3}, a.Values())
}

func TestJoinSplit(t *testing.T) {
	t.Parallel()

	s := positions()
	joined := s.Join("-", func(v string) string { return v })
	assert.Equal(t, "first-second-third", joined)
	assert.True(t, Equal(s, Split(joined, "-")))
}

func TestAliasing(t *testing.T) {
	t.Parallel()

	s := positions()
	alias := s
	alias.Append("fourth")
	assert.Equal(t, 4, s.Len())

	copied := s.Clone()
	copied.RemoveFirst()
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 3, copied.Len())
}

func TestReverseSort(t *testing.T) {
	t.Parallel()

	s := New(3, 1, 2)
	s.Reverse()
	assert.Equal(t, []int{2, 1, 3}, s.Values())
	s.SortFunc(func(a, b int) int { return a - b })
	assert.Equal(t, []int{1, 2, 3}, s.Values())
}

func TestEach(t *testing.T) {
	t.Parallel()

	var seen []int
	New(10, 20, 30).Each(func(i int, v int) bool {
		seen = append(seen, i, v)
		return i < 1
	})
	assert.Equal(t, []int{0, 10, 1, 20}, seen)
}
