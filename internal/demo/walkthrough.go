package demo

import (
	"fmt"
	"io"
	"strings"

	"simpleseq/internal/model"
	"simpleseq/internal/sequence"
)

// printer writes numbered demonstration sections.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) section(title string) {
	p.printf("\n# %s\n", title)
}

func (p *printer) show(label string, v any) {
	p.printf("%-28s %v\n", label, v)
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func strs(vs ...string) *model.List {
	return sequence.MapTo(sequence.New(vs...), func(s string, _ int) model.Value {
		return model.String(s)
	})
}

func ints(vs ...int) *model.List {
	return sequence.MapTo(sequence.New(vs...), func(n int, _ int) model.Value {
		return model.Int(n)
	})
}

func render(l *model.List) string {
	return model.ListOf(l).String()
}

func isString(v model.Value, _ int) bool { return v.Kind() == model.STRING }

// Walkthrough prints every sequence operation in the order a reader meets
// them: creation, indexing, length, iteration, transformation, adding and
// removing, search, reduction, join, flattening and concatenation.
func Walkthrough(w io.Writer) error {
	p := &printer{w: w}

	p.section("creation")
	empty := sequence.New[model.Value]()
	p.show("empty", render(empty))
	position := strs("first", "second", "third")
	first, _ := position.Get(0)
	second, _ := position.Get(1)
	p.show("position[0]", first)
	p.show("position[1]", second)
	position.Set(0, model.String("left"))
	p.show("after position[0] = left", render(position))

	p.section("length")
	arr := strs("first", "second", "third")
	p.show("length", arr.Len())
	last, _ := arr.Get(-1)
	p.show("at(-1)", last)
	byLen, _ := arr.Get(arr.Len() - 1)
	p.show("[length - 1]", byLen)
	arr.SetLen(0)
	p.show("after length = 0", render(arr))
	p.show("filled(10, 2)", render(sequence.Filled(10, model.Int(2))))

	p.section("iteration")
	array := strs("first", "second", "third")
	array.Each(func(i int, v model.Value) bool {
		p.show(fmt.Sprintf("  %d", i), v)
		return true
	})

	p.section("map")
	upper := array.Map(func(v model.Value, _ int) model.Value {
		s, _ := v.AsString()
		return model.String(strings.ToUpper(s))
	})
	p.show("original", render(array))
	p.show("mapped", render(upper))
	p.show("same handle", upper == array)

	p.section("push / pop / unshift / shift")
	{
		a := strs("first", "second", "third")
		p.show("push(fourth, fifth)", a.Append(model.String("fourth"), model.String("fifth")))
		p.show("", render(a))
	}
	{
		a := strs("first", "second", "third")
		v, _ := a.RemoveLast()
		p.show("pop()", v)
		p.show("", render(a))
	}
	{
		a := strs("first", "second", "third")
		p.show("unshift(zeroth)", a.Prepend(model.String("zeroth")))
		p.show("", render(a))
	}
	{
		a := strs("first", "second", "third")
		v, _ := a.RemoveFirst()
		p.show("shift()", v)
		p.show("", render(a))
	}

	p.section("slice / splice")
	{
		a := strs("first", "second", "third")
		p.show("slice(1, 2)", render(a.Slice(1, 2)))
		p.show("unchanged", render(a))
		p.show("splice(2)", render(a.SpliceFrom(2)))
		p.show("mutated", render(a))
	}
	{
		a := strs("first", "second", "third")
		a.Splice(1, 1, model.String("newSecond"))
		p.show("splice(1, 1, newSecond)", render(a))
	}
	{
		a := strs("first", "second", "third")
		a.Splice(1, 0, model.String("insertedBetween"))
		p.show("splice(1, 0, inserted...)", render(a))
	}
	{
		a := strs("first", "second", "third")
		p.show("slice(-2)", render(a.SliceFrom(-2)))
		p.show("splice(-1, 1)", render(a.Splice(-1, 1)))
	}

	p.section("search")
	mixed := sequence.New(model.String("a"), model.String("b"), model.String("c"), model.Int(41), model.String("b"), model.Bool(false))
	p.show("includes(b)", sequence.Includes(mixed, model.String("b")))
	p.show("indexOf(b)", sequence.IndexOf(mixed, model.String("b")))
	p.show("indexOf(N)", sequence.IndexOf(mixed, model.String("N")))
	p.show("lastIndexOf(b)", sequence.LastIndexOf(mixed, model.String("b")))
	notString := func(v model.Value, i int) bool { return !isString(v, i) }
	p.show("findIndex(not string)", mixed.FindIndex(notString))
	found, _ := mixed.Find(notString)
	p.show("find(not string)", found)
	p.show("some(not string)", mixed.Some(notString))
	p.show("every(string)", mixed.Every(isString))
	p.show("filter(string)", render(mixed.Filter(isString)))

	p.section("reduce")
	nums := ints(1, 2, 3, 4, 5)
	add := func(acc, v model.Value, _ int) model.Value {
		a, _ := acc.AsNumber()
		b, _ := v.AsNumber()
		return model.Number(a + b)
	}
	p.show("reduce(add, 0)", sequence.Fold(nums, add, model.Int(0)))
	sum, err := nums.Reduce(add)
	if err != nil {
		return err
	}
	p.show("reduce(add)", sum)
	if _, err := sequence.New[model.Value]().Reduce(add); err != nil {
		p.show("[].reduce(add)", err)
	}

	p.section("join / split")
	joined := model.Join(strs("first", "second", "third"), "-")
	p.show("join(-)", joined)
	p.show("split(-)", render(model.Split(joined, "-")))

	p.section("flat")
	nested := sequence.New(
		model.ListOf(ints(1, 2)),
		model.ListOf(ints(3, 4)),
		model.NewList(model.Int(5), model.Int(6), model.ListOf(ints(7, 8))),
	)
	p.show("flat()", render(model.Flat(nested, 1)))
	p.show("flat(2)", render(model.Flat(nested, 2)))

	p.section("concat")
	arr1, arr2, arr3 := ints(1, 2, 3), ints(4, 5, 6), ints(6, 7, 8)
	p.show("arr1.concat(arr2, arr3)", render(arr1.Concat(arr2, arr3)))
	p.show("[].concat(arr1, ...)", render(model.ConcatValues(sequence.New[model.Value](), model.ListOf(arr1), model.ListOf(arr2), model.ListOf(arr3))))
	p.show("arr1 unchanged", render(arr1))

	p.section("shared handles")
	original := strs("first")
	alias := original
	alias.Append(model.String("second"))
	p.show("original after alias push", render(original))
	copied := original.Clone()
	copied.Append(model.String("third"))
	p.show("original after copy push", render(original))

	return p.err
}
