package demo

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"simpleseq/internal/model"
	"simpleseq/internal/sequence"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("bad arguments")
)

const absent = "absent"

type command struct {
	usage string
	run   func(s *Shell, args []model.Value, raw string) (string, error)
}

var commands = map[string]command{
	"push": {"push <value>...", func(s *Shell, args []model.Value, _ string) (string, error) {
		return strconv.Itoa(s.list.Append(args...)), nil
	}},
	"unshift": {"unshift <value>...", func(s *Shell, args []model.Value, _ string) (string, error) {
		return strconv.Itoa(s.list.Prepend(args...)), nil
	}},
	"pop": {"pop", func(s *Shell, _ []model.Value, _ string) (string, error) {
		return orAbsent(s.list.RemoveLast()), nil
	}},
	"shift": {"shift", func(s *Shell, _ []model.Value, _ string) (string, error) {
		return orAbsent(s.list.RemoveFirst()), nil
	}},
	"get": {"get <index>", func(s *Shell, args []model.Value, _ string) (string, error) {
		idx, err := intArgs(args, 1, 1)
		if err != nil {
			return "", err
		}
		return orAbsent(s.list.Get(idx[0])), nil
	}},
	"set": {"set <index> <value>", func(s *Shell, args []model.Value, _ string) (string, error) {
		if len(args) != 2 {
			return "", fmt.Errorf("%w: set takes an index and a value", ErrBadArguments)
		}
		idx, err := intArgs(args[:1], 1, 1)
		if err != nil {
			return "", err
		}
		if idx[0] >= model.MaxListLength {
			return "", fmt.Errorf("%w: set index %d would exceed %d elements", ErrBadArguments, idx[0], model.MaxListLength)
		}
		if !s.list.Set(idx[0], args[1]) {
			return absent, nil
		}
		return s.show(), nil
	}},
	"len": {"len", func(s *Shell, _ []model.Value, _ string) (string, error) {
		return strconv.Itoa(s.list.Len()), nil
	}},
	"slice": {"slice <start> [end]", func(s *Shell, args []model.Value, _ string) (string, error) {
		idx, err := intArgs(args, 1, 2)
		if err != nil {
			return "", err
		}
		if len(idx) == 1 {
			return render(s.list.SliceFrom(idx[0])), nil
		}
		return render(s.list.Slice(idx[0], idx[1])), nil
	}},
	"splice": {"splice <start> [count [value...]]", func(s *Shell, args []model.Value, _ string) (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("%w: splice needs a start index", ErrBadArguments)
		}
		idx, err := intArgs(args[:min(2, len(args))], 1, 2)
		if err != nil {
			return "", err
		}
		if len(idx) == 1 {
			return render(s.list.SpliceFrom(idx[0])), nil
		}
		return render(s.list.Splice(idx[0], idx[1], args[2:]...)), nil
	}},
	"indexOf": {"indexOf <value>", func(s *Shell, args []model.Value, _ string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("%w: indexOf takes one value", ErrBadArguments)
		}
		return strconv.Itoa(sequence.IndexOf(s.list, args[0])), nil
	}},
	"lastIndexOf": {"lastIndexOf <value>", func(s *Shell, args []model.Value, _ string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("%w: lastIndexOf takes one value", ErrBadArguments)
		}
		return strconv.Itoa(sequence.LastIndexOf(s.list, args[0])), nil
	}},
	"includes": {"includes <value>", func(s *Shell, args []model.Value, _ string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("%w: includes takes one value", ErrBadArguments)
		}
		return strconv.FormatBool(sequence.Includes(s.list, args[0])), nil
	}},
	"join": {"join [separator]", func(s *Shell, _ []model.Value, raw string) (string, error) {
		sep := ","
		if raw != "" {
			sep = raw
			if unquoted, err := strconv.Unquote(raw); err == nil {
				sep = unquoted
			}
		}
		return model.Join(s.list, sep), nil
	}},
	"flat": {"flat [depth]", func(s *Shell, args []model.Value, _ string) (string, error) {
		depth := 1
		if len(args) > 0 {
			idx, err := intArgs(args, 1, 1)
			if err != nil {
				return "", err
			}
			depth = idx[0]
		}
		return render(model.Flat(s.list, depth)), nil
	}},
	"reverse": {"reverse", func(s *Shell, _ []model.Value, _ string) (string, error) {
		s.list.Reverse()
		return s.show(), nil
	}},
	"sort": {"sort", func(s *Shell, _ []model.Value, _ string) (string, error) {
		model.Sort(s.list)
		return s.show(), nil
	}},
	"fill": {"fill <value> [start [end]]", func(s *Shell, args []model.Value, _ string) (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("%w: fill needs a value", ErrBadArguments)
		}
		bounds := []int{0, s.list.Len()}
		if len(args) > 1 {
			idx, err := intArgs(args[1:], 1, 2)
			if err != nil {
				return "", err
			}
			copy(bounds, idx)
		}
		s.list.Fill(args[0], bounds[0], bounds[1])
		return s.show(), nil
	}},
	"sum": {"sum", func(s *Shell, _ []model.Value, _ string) (string, error) {
		return model.Number(model.Sum(s.list)).String(), nil
	}},
	"clear": {"clear", func(s *Shell, _ []model.Value, _ string) (string, error) {
		s.list.SetLen(0)
		return s.show(), nil
	}},
	"show": {"show", func(s *Shell, _ []model.Value, _ string) (string, error) {
		return s.show(), nil
	}},
}

// Shell runs one-line commands against a single sequence. Arguments are JSON
// values separated by whitespace, e.g. `push "a" 1 [2, 3]`.
type Shell struct {
	list *model.List
}

func NewShell() *Shell {
	return &Shell{list: sequence.New[model.Value]()}
}

// List is the sequence the shell operates on.
func (s *Shell) List() *model.List {
	return s.list
}

// Commands lists the command names in alphabetical order.
func Commands() []string {
	names := make([]string, 0, len(commands)+1)
	for name := range commands {
		names = append(names, name)
	}
	names = append(names, "help")
	sort.Strings(names)
	return names
}

// Exec runs one command line and returns what it printed.
func (s *Shell) Exec(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	name, raw, _ := strings.Cut(line, " ")
	raw = strings.TrimSpace(raw)

	if name == "help" {
		return help(), nil
	}
	cmd, ok := commands[name]
	if !ok {
		return "", fmt.Errorf("%w: %q (try help)", ErrUnknownCommand, name)
	}

	var args []model.Value
	if name != "join" {
		var err error
		if args, err = parseArgs(raw); err != nil {
			return "", fmt.Errorf("%w: %v (usage: %s)", ErrBadArguments, err, cmd.usage)
		}
	}
	return cmd.run(s, args, raw)
}

func (s *Shell) show() string {
	return render(s.list)
}

func help() string {
	var sb strings.Builder
	for _, name := range Commands() {
		if name == "help" {
			sb.WriteString("  help\n")
			continue
		}
		sb.WriteString("  " + commands[name].usage + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func parseArgs(raw string) ([]model.Value, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	var out []model.Value
	for {
		var v model.Value
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, v)
	}
}

// intArgs converts between lo and hi integer arguments. Every integer must lie
// within ±model.MaxListLength.
func intArgs(args []model.Value, lo, hi int) ([]int, error) {
	if len(args) < lo || len(args) > hi {
		return nil, fmt.Errorf("%w: expected %d to %d integers, got %d values", ErrBadArguments, lo, hi, len(args))
	}
	out := make([]int, len(args))
	for i, a := range args {
		n, ok := a.AsNumber()
		if !ok || n != math.Trunc(n) {
			return nil, fmt.Errorf("%w: %s is not an integer", ErrBadArguments, a)
		}
		if math.Abs(n) > model.MaxListLength {
			return nil, fmt.Errorf("%w: %s is out of range (limit %d)", ErrBadArguments, a, model.MaxListLength)
		}
		out[i] = int(n)
	}
	return out, nil
}

func orAbsent(v model.Value, ok bool) string {
	if !ok {
		return absent
	}
	return v.String()
}
