package model

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"simpleseq/internal/sequence"
)

type Kind byte

const (
	NULL Kind = iota
	BOOL
	NUMBER
	STRING
	LIST
)

func (k Kind) String() string {
	switch k {
	case NULL:
		return "null"
	case BOOL:
		return "bool"
	case NUMBER:
		return "number"
	case STRING:
		return "string"
	case LIST:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// List is a sequence of dynamic values.
type List = sequence.Sequence[Value]

/*
Value is a dynamically typed element.

Values are comparable with ==, which gives strict equality: null, booleans,
numbers and strings compare by content, lists compare by handle. NaN is not
equal to itself.
*/
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	l    *List
}

var Null = Value{}

func Bool(b bool) Value      { return Value{kind: BOOL, b: b} }
func Number(n float64) Value { return Value{kind: NUMBER, n: n} }
func Int(n int) Value        { return Value{kind: NUMBER, n: float64(n)} }
func String(s string) Value  { return Value{kind: STRING, s: s} }

// ListOf wraps an existing list handle; mutations through either side are shared.
func ListOf(l *List) Value {
	if l == nil {
		return Null
	}
	return Value{kind: LIST, l: l}
}

// NewList builds a fresh list value from elements.
func NewList(elems ...Value) Value {
	return Value{kind: LIST, l: sequence.New(elems...)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == NULL }

func (v Value) AsBool() (bool, bool)      { return v.b, v.kind == BOOL }
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == NUMBER }
func (v Value) AsString() (string, bool)  { return v.s, v.kind == STRING }

// AsList returns the list handle of a LIST value.
func (v Value) AsList() (*List, bool) {
	if v.kind != LIST {
		return nil, false
	}
	return v.l, true
}

// Truthy follows the usual scripting rules: null, false, 0, NaN and "" are
// falsy, every list is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case BOOL:
		return v.b
	case NUMBER:
		return v.n != 0 && !math.IsNaN(v.n)
	case STRING:
		return v.s != ""
	case LIST:
		return true
	default:
		return false
	}
}

// String renders the value the way the console demonstrations print it.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb, true)
	return sb.String()
}

// JoinString renders the value as an element of a joined string: null is
// empty, strings are unquoted and nested lists are joined with ",".
func (v Value) JoinString() string {
	switch v.kind {
	case NULL:
		return ""
	case STRING:
		return v.s
	case LIST:
		return Join(v.l, ",")
	default:
		return v.String()
	}
}

func (v Value) write(sb *strings.Builder, quote bool) {
	switch v.kind {
	case NULL:
		sb.WriteString("null")
	case BOOL:
		sb.WriteString(strconv.FormatBool(v.b))
	case NUMBER:
		sb.WriteString(formatNumber(v.n))
	case STRING:
		if quote {
			sb.WriteString(strconv.Quote(v.s))
		} else {
			sb.WriteString(v.s)
		}
	case LIST:
		sb.WriteByte('[')
		v.l.Each(func(i int, e Value) bool {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.write(sb, true)
			return true
		})
		sb.WriteByte(']')
	}
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

var ErrUnsupportedJSON = errors.New("unsupported JSON value")

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case NULL:
		return []byte("null"), nil
	case BOOL:
		return json.Marshal(v.b)
	case NUMBER:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedJSON, formatNumber(v.n))
		}
		return json.Marshal(v.n)
	case STRING:
		return json.Marshal(v.s)
	case LIST:
		return json.Marshal(v.l.Values())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedJSON, v.kind)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty input", ErrUnsupportedJSON)
	}
	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return fmt.Errorf("%w: %q", ErrUnsupportedJSON, data)
		}
		*v = Null
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case '[':
		var elems []Value
		if err := json.Unmarshal(data, &elems); err != nil {
			return err
		}
		*v = NewList(elems...)
	case '{':
		return fmt.Errorf("%w: objects cannot be sequence elements", ErrUnsupportedJSON)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Number(n)
	}
	return nil
}

// ParseValue decodes a single JSON value.
func ParseValue(text string) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON([]byte(text)); err != nil {
		return Null, err
	}
	return v, nil
}
