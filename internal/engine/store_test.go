package engine

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simpleseq/internal/model"
)

func strs(vs ...string) []model.Value {
	out := make([]model.Value, len(vs))
	for i, v := range vs {
		out[i] = model.String(v)
	}
	return out
}

func render(vs []model.Value) string {
	return model.NewList(vs...).String()
}

func TestStoreLifecycle(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(zerolog.Nop())

	require.NoError(t, s.Create("position", strs("first", "second", "third")))
	assert.ErrorIs(t, s.Create("position", nil), ErrSequenceExists)
	assert.ErrorIs(t, s.Create("", nil), ErrInvalidName)
	assert.ErrorIs(t, s.Create("a/b", nil), ErrInvalidName)

	require.NoError(t, s.Create("alpha", nil))
	assert.Equal(t, []string{"alpha", "position"}, s.Names())

	n, err := s.Len("position")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, s.Drop("alpha"))
	assert.ErrorIs(t, s.Drop("alpha"), ErrSequenceNotFound)
	_, err = s.Snapshot("alpha")
	assert.ErrorIs(t, err, ErrSequenceNotFound)
}

func TestStoreMutations(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(zerolog.Nop())
	require.NoError(t, s.Create("p", strs("first", "second", "third")))

	ok, err := s.Set("p", 0, model.String("left"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Set("p", -10, model.String("nowhere"))
	require.NoError(t, err)
	assert.False(t, ok)

	v, found, err := s.Get("p", -1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.String("third"), v)

	_, found, err = s.Get("p", 7)
	require.NoError(t, err)
	assert.False(t, found)

	n, err := s.Append("p", strs("fourth", "fifth")...)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = s.Prepend("p", model.String("zeroth"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	last, ok, err := s.RemoveLast("p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.String("fifth"), last)

	first, ok, err := s.RemoveFirst("p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.String("zeroth"), first)

	removed, err := s.Splice("p", 1, 1, false, model.String("newSecond"))
	require.NoError(t, err)
	assert.Equal(t, strs("second"), removed)

	removed, err = s.Splice("p", 2, 0, true)
	require.NoError(t, err)
	assert.Equal(t, strs("third", "fourth"), removed)

	snap, err := s.Snapshot("p")
	require.NoError(t, err)
	assert.Equal(t, strs("left", "newSecond"), snap)

	require.NoError(t, s.SetLen("p", 0))
	_, ok, err = s.RemoveLast("p")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Append("missing", model.Int(1))
	assert.ErrorIs(t, err, ErrSequenceNotFound)
}

func TestStoreQueries(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(zerolog.Nop())

	mixed := []model.Value{model.String("a"), model.String("b"), model.String("c"), model.Int(41), model.String("b"), model.Bool(false)}
	require.NoError(t, s.Create("mixed", mixed))

	res, err := s.Search("mixed", model.String("b"))
	require.NoError(t, err)
	assert.Equal(t, SearchResult{IndexOf: 1, LastIndexOf: 4, Includes: true}, res)

	res, err = s.Search("mixed", model.String("N"))
	require.NoError(t, err)
	assert.Equal(t, SearchResult{IndexOf: -1, LastIndexOf: -1, Includes: false}, res)

	end := 2
	sliced, err := s.Slice("mixed", 1, &end)
	require.NoError(t, err)
	assert.Equal(t, strs("b"), sliced)

	sliced, err = s.Slice("mixed", -2, nil)
	require.NoError(t, err)
	assert.Equal(t, `["b", false]`, render(sliced))

	joined, err := s.Join("mixed", "-")
	require.NoError(t, err)
	assert.Equal(t, "a-b-c-41-b-false", joined)

	nested, err := model.ParseValue(`[[1,2],[3,4],[5,6,[7,8]]]`)
	require.NoError(t, err)
	l, _ := nested.AsList()
	require.NoError(t, s.Create("nested", l.Values()))

	flat, err := s.Flat("nested", 1)
	require.NoError(t, err)
	assert.Equal(t, "[1, 2, 3, 4, 5, 6, [7, 8]]", render(flat))
	flat, err = s.Flat("nested", 2)
	require.NoError(t, err)
	assert.Equal(t, "[1, 2, 3, 4, 5, 6, 7, 8]", render(flat))

	require.NoError(t, s.Create("arr1", []model.Value{model.Int(1), model.Int(2), model.Int(3)}))
	require.NoError(t, s.Create("arr2", []model.Value{model.Int(4), model.Int(5), model.Int(6)}))
	all, err := s.Concat("arr1", "arr2")
	require.NoError(t, err)
	assert.Equal(t, "[1, 2, 3, 4, 5, 6]", render(all))

	n, err := s.Len("arr1")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "concat must not mutate its operands")

	_, err = s.Concat("arr1", "nope")
	assert.ErrorIs(t, err, ErrSequenceNotFound)
}

func TestStoreReplaysCommitLog(t *testing.T) {
	t.Parallel()
	cfg := CommitLogCfg{
		Path:                  filepath.Join(t.TempDir(), "wal.log"),
		FlushIntervalInSecond: time.Hour,
	}

	s, err := OpenStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, s.Create("letters", strs("c", "a")))
	_, err = s.Append("letters", strs("b", "d")...)
	require.NoError(t, err)
	require.NoError(t, s.Sort("letters"))
	_, err = s.Splice("letters", 1, 2, false, model.String("x"))
	require.NoError(t, err)
	require.NoError(t, s.Fill("letters", model.String("z"), -1, nil))
	require.NoError(t, s.Reverse("letters"))
	_, _, err = s.RemoveFirst("letters")
	require.NoError(t, err)
	require.NoError(t, s.Create("gone", nil))
	require.NoError(t, s.Drop("gone"))

	want, err := s.Snapshot("letters")
	require.NoError(t, err)
	assert.Equal(t, strs("x", "a"), want)
	s.Close()

	reopened, err := OpenStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, []string{"letters"}, reopened.Names())
	got, err := reopened.Snapshot("letters")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStoreRejectsGrowthPastLimit(t *testing.T) {
	t.Parallel()
	cfg := CommitLogCfg{
		Path:                  filepath.Join(t.TempDir(), "wal.log"),
		FlushIntervalInSecond: time.Hour,
	}

	s, err := OpenStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Create("a", []model.Value{model.Int(1)}))

	_, err = s.Set("a", 1<<60, model.Int(2))
	assert.ErrorIs(t, err, ErrLengthLimit)
	_, err = s.Set("a", math.MaxInt, model.Int(2))
	assert.ErrorIs(t, err, ErrLengthLimit)
	_, err = s.Set("a", model.MaxListLength, model.Int(2))
	assert.ErrorIs(t, err, ErrLengthLimit)
	assert.ErrorIs(t, s.SetLen("a", model.MaxListLength+1), ErrLengthLimit)
	assert.ErrorIs(t, s.SetLen("a", math.MaxInt), ErrLengthLimit)

	ok, err := s.Set("a", 3, model.Int(4))
	require.NoError(t, err)
	assert.True(t, ok)
	s.Close()

	reopened, err := OpenStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Snapshot("a")
	require.NoError(t, err)
	assert.Equal(t, "[1, null, null, 4]", render(got))
}

func TestCheckLengthSplice(t *testing.T) {
	t.Parallel()
	full := model.MaxListLength
	one := []model.Value{model.Int(1)}

	assert.NoError(t, checkLength(model.SPLICE, full, model.MutationArgs{Start: -1, Count: 1, Values: one}))
	assert.NoError(t, checkLength(model.SPLICE, full, model.MutationArgs{Start: 0, ToEnd: true, Values: one}))
	assert.ErrorIs(t, checkLength(model.SPLICE, full, model.MutationArgs{Start: 0, Count: 0, Values: one}), ErrLengthLimit)
	assert.ErrorIs(t, checkLength(model.SPLICE, full, model.MutationArgs{Start: 0, Count: -5, Values: one}), ErrLengthLimit)
	assert.ErrorIs(t, checkLength(model.APPEND, full, model.MutationArgs{Values: one}), ErrLengthLimit)
	assert.ErrorIs(t, checkLength(model.PREPEND, full, model.MutationArgs{Values: one}), ErrLengthLimit)
	assert.NoError(t, checkLength(model.SET, full, model.MutationArgs{Index: -1}))
}

func TestStoreReplaySkipsRecordsThatCannotApply(t *testing.T) {
	t.Parallel()
	cfg := CommitLogCfg{
		Path:                  filepath.Join(t.TempDir(), "wal.log"),
		FlushIntervalInSecond: time.Hour,
	}

	mgr, cancel, err := NewCommitLogManager(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	for _, mut := range []model.Mutation{
		{Op: model.CREATE, Name: []byte("a"), Payload: []byte(`{"values":[1]}`)},
		{Op: model.SET, Name: []byte("a"), Payload: []byte(`{"index":1152921504606846976,"values":[9]}`)},
		{Op: model.SET_LEN, Name: []byte("a"), Payload: []byte(`{"length":1152921504606846976}`)},
		{Op: model.SET, Name: []byte("a"), Payload: []byte(`{"index":0,"values":[7,8]}`)},
		{Op: model.APPEND, Name: []byte("missing"), Payload: []byte(`{"values":[3]}`)},
		{Op: model.APPEND, Name: []byte("a"), Payload: []byte(`{"values":[2]}`)},
	} {
		_, err := mgr.Append(mut)
		require.NoError(t, err)
	}
	cancel()
	<-mgr.Done()

	var s *Store
	require.NotPanics(t, func() {
		s, err = OpenStore(context.Background(), cfg, zerolog.Nop())
	})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Snapshot("a")
	require.NoError(t, err)
	assert.Equal(t, "[1, 2]", render(got))
	assert.Equal(t, []string{"a"}, s.Names())
}

func TestStoreKeepsWritesAfterTornTail(t *testing.T) {
	t.Parallel()
	cfg := CommitLogCfg{
		Path:                  filepath.Join(t.TempDir(), "wal.log"),
		FlushIntervalInSecond: time.Hour,
	}

	s, err := OpenStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Create("first", nil))
	s.Close()

	f, err := os.OpenFile(cfg.Path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{0, 0, 0, 40, 1, 2})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err = OpenStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Create("second", strs("kept")))
	s.Close()

	reopened, err := OpenStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, []string{"first", "second"}, reopened.Names())
	got, err := reopened.Snapshot("second")
	require.NoError(t, err)
	assert.Equal(t, strs("kept"), got)
}
