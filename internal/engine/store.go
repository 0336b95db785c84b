package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/tidwall/btree"

	"simpleseq/internal/model"
	"simpleseq/internal/sequence"
)

var (
	ErrSequenceNotFound = errors.New("sequence not found")
	ErrSequenceExists   = errors.New("sequence already exists")
	ErrInvalidName      = errors.New("invalid sequence name")
	ErrLengthLimit      = errors.New("sequence length limit exceeded")
)

const maxNameBytes = 256

// SearchResult groups the three strict-equality lookups of a value.
type SearchResult struct {
	IndexOf     int  `json:"indexOf"`
	LastIndexOf int  `json:"lastIndexOf"`
	Includes    bool `json:"includes"`
}

/*
Store holds named sequences of dynamic values.

Every mutation is validated, appended to the commit log and only then applied
in memory, so replaying the log on open rebuilds the same state. Names are kept
in a B-tree so listings come back sorted. A Store without a commit log keeps
everything in memory.
*/
type Store struct {
	mu     sync.RWMutex
	seqs   btree.Map[string, *model.List]
	wal    *CommitLogManager
	stop   context.CancelFunc
	logger zerolog.Logger
}

// NewMemoryStore returns a store that does not persist anything.
func NewMemoryStore(logger zerolog.Logger) *Store {
	return &Store{logger: logger.With().Str("component", "store").Logger()}
}

// OpenStore opens (or creates) the commit log described by cfg and replays it.
func OpenStore(ctx context.Context, cfg CommitLogCfg, logger zerolog.Logger) (*Store, error) {
	wal, cancel, err := NewCommitLogManager(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	s := NewMemoryStore(logger)
	s.wal = wal
	s.stop = cancel

	replayed := 0
	for _, mut := range wal.Load() {
		if _, err := s.replay(mut); err != nil {
			s.logger.Warn().Err(err).
				Uint64("seq", mut.Sequence).
				Stringer("op", mut.Op).
				Msg("skipping commit log record that cannot be replayed")
			continue
		}
		replayed++
	}
	s.logger.Info().Int("replayed", replayed).Int("sequences", s.seqs.Len()).Msg("store opened")
	return s, nil
}

// Close flushes the commit log and waits for its writer to stop.
func (s *Store) Close() {
	if s.stop == nil {
		return
	}
	s.stop()
	<-s.wal.Done()
}

func validateName(name string) error {
	if name == "" || len(name) > maxNameBytes || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Names lists every sequence name in ascending order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seqs.Keys()
}

func (s *Store) Create(name string, values []model.Value) error {
	if err := validateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seqs.Get(name); ok {
		return fmt.Errorf("%w: %q", ErrSequenceExists, name)
	}
	_, err := s.commit(model.CREATE, name, model.MutationArgs{Values: values})
	return err
}

func (s *Store) Drop(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(name); err != nil {
		return err
	}
	_, err := s.commit(model.DROP, name, model.MutationArgs{})
	return err
}

func (s *Store) Len(name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	return l.Len(), nil
}

// Snapshot copies the current elements of a sequence.
func (s *Store) Snapshot(name string) ([]model.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return l.Values(), nil
}

func (s *Store) Get(name string, index int) (model.Value, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, err := s.lookup(name)
	if err != nil {
		return model.Null, false, err
	}
	v, ok := l.Get(index)
	return v, ok, nil
}

// Set stores v at index. It reports false, and records nothing, when a
// negative index falls before the start.
func (s *Store) Set(name string, index int, v model.Value) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.lookup(name)
	if err != nil {
		return false, err
	}
	if index < 0 && index+l.Len() < 0 {
		return false, nil
	}
	_, err = s.commit(model.SET, name, model.MutationArgs{Index: index, Values: []model.Value{v}})
	return err == nil, err
}

func (s *Store) Append(name string, values ...model.Value) (int, error) {
	return s.grow(model.APPEND, name, values)
}

func (s *Store) Prepend(name string, values ...model.Value) (int, error) {
	return s.grow(model.PREPEND, name, values)
}

func (s *Store) grow(op model.OpsType, name string, values []model.Value) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return l.Len(), nil
	}
	res, err := s.commit(op, name, model.MutationArgs{Values: values})
	return res.length, err
}

func (s *Store) RemoveLast(name string) (model.Value, bool, error) {
	return s.shrink(model.REMOVE_LAST, name)
}

func (s *Store) RemoveFirst(name string) (model.Value, bool, error) {
	return s.shrink(model.REMOVE_FIRST, name)
}

func (s *Store) shrink(op model.OpsType, name string) (model.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.lookup(name)
	if err != nil {
		return model.Null, false, err
	}
	if l.Len() == 0 {
		return model.Null, false, nil
	}
	res, err := s.commit(op, name, model.MutationArgs{})
	if err != nil {
		return model.Null, false, err
	}
	return res.value, true, nil
}

// Splice removes count elements at start and inserts values in their place.
// With toEnd set, count is ignored and everything from start on is removed.
func (s *Store) Splice(name string, start, count int, toEnd bool, values ...model.Value) ([]model.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(name); err != nil {
		return nil, err
	}
	res, err := s.commit(model.SPLICE, name, model.MutationArgs{Start: start, Count: count, ToEnd: toEnd, Values: values})
	if err != nil {
		return nil, err
	}
	return res.removed, nil
}

func (s *Store) SetLen(name string, length int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(name); err != nil {
		return err
	}
	if length < 0 {
		return nil
	}
	_, err := s.commit(model.SET_LEN, name, model.MutationArgs{Length: length})
	return err
}

// Fill overwrites [start, end) with v; a nil end means the end of the sequence.
func (s *Store) Fill(name string, v model.Value, start int, end *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(name); err != nil {
		return err
	}
	_, err := s.commit(model.FILL, name, model.MutationArgs{Start: start, End: end, Values: []model.Value{v}})
	return err
}

func (s *Store) Reverse(name string) error {
	return s.reorder(model.REVERSE, name)
}

func (s *Store) Sort(name string) error {
	return s.reorder(model.SORT, name)
}

func (s *Store) reorder(op model.OpsType, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(name); err != nil {
		return err
	}
	_, err := s.commit(op, name, model.MutationArgs{})
	return err
}

// Slice copies [start, end) of a sequence; a nil end means the end.
func (s *Store) Slice(name string, start int, end *int) ([]model.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if end == nil {
		return l.SliceFrom(start).Values(), nil
	}
	return l.Slice(start, *end).Values(), nil
}

// Search looks v up with strict equality. Lists are compared by handle, so a
// list decoded from a request never matches a stored one.
func (s *Store) Search(name string, v model.Value) (SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, err := s.lookup(name)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{
		IndexOf:     sequence.IndexOf(l, v),
		LastIndexOf: sequence.LastIndexOf(l, v),
		Includes:    sequence.Includes(l, v),
	}, nil
}

func (s *Store) Join(name, sep string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, err := s.lookup(name)
	if err != nil {
		return "", err
	}
	return model.Join(l, sep), nil
}

func (s *Store) Flat(name string, depth int) ([]model.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return model.Flat(l, depth).Values(), nil
}

// Concat joins several named sequences, in order, into a new list.
func (s *Store) Concat(names ...string) ([]model.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lists := make([]*model.List, 0, len(names))
	for _, name := range names {
		l, err := s.lookup(name)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	out := sequence.New[model.Value]()
	return out.Concat(lists...).Values(), nil
}

func (s *Store) lookup(name string) (*model.List, error) {
	l, ok := s.seqs.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSequenceNotFound, name)
	}
	return l, nil
}

type applyResult struct {
	length  int
	value   model.Value
	removed []model.Value
}

// commit logs the mutation, when a commit log is attached, and applies it.
// The caller holds the write lock.
func (s *Store) commit(op model.OpsType, name string, args model.MutationArgs) (applyResult, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return applyResult{}, fmt.Errorf("encode %s args: %w", op, err)
	}
	mut := model.Mutation{Op: op, Name: []byte(name), Payload: payload}

	cur := 0
	if l, ok := s.seqs.Get(name); ok {
		cur = l.Len()
	}
	if err := checkLength(op, cur, args); err != nil {
		return applyResult{}, err
	}

	if s.wal != nil {
		seq, err := s.wal.Append(mut)
		if err != nil {
			return applyResult{}, fmt.Errorf("commit log append: %w", err)
		}
		mut.Sequence = seq
	}

	res, err := s.apply(mut)
	if err != nil {
		return applyResult{}, err
	}
	s.logger.Debug().Uint64("seq", mut.Sequence).Stringer("op", op).Str("name", name).Msg("applied mutation")
	return res, nil
}

// apply performs a recorded mutation on the in-memory state. It is shared by
// live writes and commit log replay.
func (s *Store) apply(mut model.Mutation) (applyResult, error) {
	var args model.MutationArgs
	if len(mut.Payload) > 0 {
		if err := json.Unmarshal(mut.Payload, &args); err != nil {
			return applyResult{}, fmt.Errorf("decode %s args: %w", mut.Op, err)
		}
	}
	name := string(mut.Name)

	if mut.Op == model.CREATE {
		if err := checkLength(mut.Op, 0, args); err != nil {
			return applyResult{}, err
		}
	}

	switch mut.Op {
	case model.CREATE:
		s.seqs.Set(name, sequence.Of(args.Values))
		return applyResult{length: len(args.Values)}, nil
	case model.DROP:
		s.seqs.Delete(name)
		return applyResult{}, nil
	}

	l, err := s.lookup(name)
	if err != nil {
		return applyResult{}, err
	}
	if err := checkLength(mut.Op, l.Len(), args); err != nil {
		return applyResult{}, err
	}

	switch mut.Op {
	case model.SET:
		if len(args.Values) != 1 {
			return applyResult{}, fmt.Errorf("set expects one value, got %d", len(args.Values))
		}
		l.Set(args.Index, args.Values[0])
	case model.APPEND:
		l.Append(args.Values...)
	case model.PREPEND:
		l.Prepend(args.Values...)
	case model.REMOVE_LAST:
		v, _ := l.RemoveLast()
		return applyResult{length: l.Len(), value: v}, nil
	case model.REMOVE_FIRST:
		v, _ := l.RemoveFirst()
		return applyResult{length: l.Len(), value: v}, nil
	case model.SPLICE:
		var removed *model.List
		if args.ToEnd {
			removed = l.SpliceFrom(args.Start)
			l.Splice(l.Len(), 0, args.Values...)
		} else {
			removed = l.Splice(args.Start, args.Count, args.Values...)
		}
		return applyResult{length: l.Len(), removed: removed.Values()}, nil
	case model.SET_LEN:
		l.SetLen(args.Length)
	case model.FILL:
		if len(args.Values) != 1 {
			return applyResult{}, fmt.Errorf("fill expects one value, got %d", len(args.Values))
		}
		end := l.Len()
		if args.End != nil {
			end = *args.End
		}
		l.Fill(args.Values[0], args.Start, end)
	case model.REVERSE:
		l.Reverse()
	case model.SORT:
		model.Sort(l)
	default:
		return applyResult{}, fmt.Errorf("unsupported operation %s", mut.Op)
	}
	return applyResult{length: l.Len()}, nil
}

// replay applies a mutation read back from the commit log. A record that
// cannot be applied is reported as an error instead of taking the store down.
func (s *Store) replay(mut model.Mutation) (res applyResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("apply %s: %v", mut.Op, r)
		}
	}()
	return s.apply(mut)
}

// checkLength rejects a mutation that would grow a sequence of length cur past
// model.MaxListLength.
func checkLength(op model.OpsType, cur int, args model.MutationArgs) error {
	limit := model.MaxListLength
	var grows bool
	switch op {
	case model.CREATE:
		grows = len(args.Values) > limit
	case model.SET:
		grows = args.Index >= limit
	case model.APPEND, model.PREPEND:
		grows = len(args.Values) > limit-cur
	case model.SPLICE:
		from := clampStart(args.Start, cur)
		removed := cur - from
		if !args.ToEnd {
			removed = min(max(args.Count, 0), removed)
		}
		grows = len(args.Values) > limit-cur+removed
	case model.SET_LEN:
		grows = args.Length > limit
	}
	if grows {
		return fmt.Errorf("%w: %s would exceed %d elements", ErrLengthLimit, op, limit)
	}
	return nil
}

// clampStart resolves a possibly negative splice start against length n.
func clampStart(i, n int) int {
	if i < 0 {
		return max(i+n, 0)
	}
	return min(i, n)
}
