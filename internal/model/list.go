package model

import (
	"cmp"

	"simpleseq/internal/sequence"
)

// MaxListLength bounds how far a hosted or interactive list may grow.
const MaxListLength = 1 << 20

// Flat inlines nested lists of l up to depth levels.
func Flat(l *List, depth int) *List {
	return l.Flatten(depth, func(v Value) (*List, bool) {
		return v.AsList()
	})
}

// ConcatValues returns a new list with l's elements followed by args. List
// arguments are spread one level, every other value is appended as is.
func ConcatValues(l *List, args ...Value) *List {
	out := l.Clone()
	for _, arg := range args {
		if inner, ok := arg.AsList(); ok {
			out.Append(inner.Values()...)
			continue
		}
		out.Append(arg)
	}
	return out
}

func Join(l *List, sep string) string {
	return l.Join(sep, Value.JoinString)
}

// Split breaks s on sep into a list of strings.
func Split(s, sep string) *List {
	return sequence.MapTo(sequence.Split(s, sep), func(part string, _ int) Value {
		return String(part)
	})
}

// Compare is the default sort order: elements compare by their joined string
// form, and nulls sort after everything else.
func Compare(a, b Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return 1
	case b.IsNull():
		return -1
	}
	return cmp.Compare(a.JoinString(), b.JoinString())
}

// Sort sorts l in place using Compare.
func Sort(l *List) {
	l.SortFunc(Compare)
}

func Sum(l *List) float64 {
	return sequence.Fold(l, func(acc float64, v Value, _ int) float64 {
		n, _ := v.AsNumber()
		return acc + n
	}, 0)
}
