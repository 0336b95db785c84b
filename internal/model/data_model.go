package model

type OpsType byte

const (
	CREATE OpsType = iota
	DROP
	SET
	APPEND
	PREPEND
	REMOVE_LAST
	REMOVE_FIRST
	SPLICE
	SET_LEN
	FILL
	REVERSE
	SORT
)

var opNames = [...]string{
	CREATE:       "create",
	DROP:         "drop",
	SET:          "set",
	APPEND:       "append",
	PREPEND:      "prepend",
	REMOVE_LAST:  "remove-last",
	REMOVE_FIRST: "remove-first",
	SPLICE:       "splice",
	SET_LEN:      "set-len",
	FILL:         "fill",
	REVERSE:      "reverse",
	SORT:         "sort",
}

func (op OpsType) Valid() bool {
	return int(op) < len(opNames)
}

func (op OpsType) String() string {
	if !op.Valid() {
		return "unknown"
	}
	return opNames[op]
}

// Mutation is one change to a named sequence as recorded in the commit log.
// Payload holds the JSON encoding of the operation's MutationArgs.
type Mutation struct {
	Sequence uint64
	Op       OpsType
	Name     []byte
	Payload  []byte
}

// MutationArgs carries the operands of a mutation. Fields that an operation
// does not use are left at their zero value.
type MutationArgs struct {
	Index  int     `json:"index,omitempty"`
	Count  int     `json:"count,omitempty"`
	ToEnd  bool    `json:"toEnd,omitempty"`
	Start  int     `json:"start,omitempty"`
	End    *int    `json:"end,omitempty"`
	Length int     `json:"length,omitempty"`
	Values []Value `json:"values,omitempty"`
}
