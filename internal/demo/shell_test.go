package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, sh *Shell, line string) string {
	t.Helper()
	out, err := sh.Exec(line)
	require.NoError(t, err, line)
	return out
}

func TestShellSession(t *testing.T) {
	sh := NewShell()

	steps := []struct {
		line, want string
	}{
		{`push "first" "second" "third"`, "3"},
		{`get 0`, `"first"`},
		{`get -1`, `"third"`},
		{`get 7`, "absent"},
		{`set 0 "left"`, `["left", "second", "third"]`},
		{`set -9 "x"`, "absent"},
		{`len`, "3"},
		{`push "fourth" "fifth"`, "5"},
		{`pop`, `"fifth"`},
		{`unshift "zeroth"`, "5"},
		{`shift`, `"zeroth"`},
		{`slice 1 2`, `["second"]`},
		{`slice -2`, `["third", "fourth"]`},
		{`splice 1 0 "insertedBetween"`, `[]`},
		{`show`, `["left", "insertedBetween", "second", "third", "fourth"]`},
		{`splice 3`, `["third", "fourth"]`},
		{`indexOf "second"`, "2"},
		{`lastIndexOf "nope"`, "-1"},
		{`includes "left"`, "true"},
		{`join "-"`, "left-insertedBetween-second"},
		{`join`, "left,insertedBetween,second"},
		{`join  + `, "left+insertedBetween+second"},
		{`reverse`, `["second", "insertedBetween", "left"]`},
		{`sort`, `["insertedBetween", "left", "second"]`},
		{`fill 0 1`, `["insertedBetween", 0, 0]`},
		{`clear`, `[]`},
		{`pop`, "absent"},
		{`push [1, 2] [3, [4]] 5`, "3"},
		{`flat`, `[1, 2, 3, [4], 5]`},
		{`flat 2`, `[1, 2, 3, 4, 5]`},
		{`clear`, `[]`},
		{`push 1 2 3 4 5`, "5"},
		{`sum`, "15"},
		{``, ""},
	}
	for _, step := range steps {
		assert.Equal(t, step.want, run(t, sh, step.line), step.line)
	}
	assert.Equal(t, 5, sh.List().Len())
}

func TestShellErrors(t *testing.T) {
	sh := NewShell()

	_, err := sh.Exec("frobnicate")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	for _, line := range []string{
		`get`,
		`get "zero"`,
		`get 1.5`,
		`set 0`,
		`push {"a": 1}`,
		`push [1,`,
		`splice`,
		`fill`,
		`indexOf`,
		`slice 1 2 3`,
		`set 1e300 1`,
		`set 1048576 1`,
		`get 1e30`,
		`slice -1e20`,
	} {
		_, err := sh.Exec(line)
		assert.ErrorIs(t, err, ErrBadArguments, line)
	}
	assert.Zero(t, sh.List().Len())
}

func TestShellHelp(t *testing.T) {
	out := run(t, NewShell(), "help")
	for _, name := range Commands() {
		assert.Contains(t, out, "  "+name)
	}
	assert.Contains(t, out, "splice <start> [count [value...]]")
}
