// Copyright © 2024 The ELPS authors

package editscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/tdl/incr"
)

func TestParse(t *testing.T) {
	cmds, err := Parse([]byte(`# widen the constant
insert 12 "0"
delete 3 2
replace 4 1 "x + 1"
change "log(1)" "log(2)"

check
emit
show   # trailing comment
rebuild
`))
	require.NoError(t, err)
	require.Len(t, cmds, 8)

	assert.Equal(t, &Command{Op: OpInsert, Offset: 12, Text: "0", Line: 2}, cmds[0])
	assert.Equal(t, &Command{Op: OpDelete, Offset: 3, Length: 2, Line: 3}, cmds[1])
	assert.Equal(t, &Command{Op: OpReplace, Offset: 4, Length: 1, Text: "x + 1", Line: 4}, cmds[2])
	assert.Equal(t, &Command{Op: OpChange, Old: "log(1)", Text: "log(2)", Line: 5}, cmds[3])
	var ops []Op
	for _, c := range cmds[4:] {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []Op{OpCheck, OpEmit, OpShow, OpRebuild}, ops)
	assert.Equal(t, 7, cmds[4].Line)
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		`insert "x"`,
		`delete 1`,
		`frobnicate`,
		`check
insert x`,
	} {
		_, err := Parse([]byte(src))
		assert.Error(t, err, src)
	}

	_, err := Parse([]byte("check\ninsert x"))
	assert.ErrorContains(t, err, "line 2")
}

func TestParseLine(t *testing.T) {
	cmd, err := ParseLine("   ")
	require.NoError(t, err)
	assert.Nil(t, cmd)

	cmd, err = ParseLine("# note")
	require.NoError(t, err)
	assert.Nil(t, cmd)

	cmd, err = ParseLine(`change "a" "b"`)
	require.NoError(t, err)
	assert.Equal(t, OpChange, cmd.Op)

	_, err = ParseLine("check\ncheck")
	assert.Error(t, err)
}

func TestEdit(t *testing.T) {
	const text = "module A { const integer K := 1; }"

	e, ins, err := (&Command{Op: OpChange, Old: "1;", Text: "10 + 1;"}).Edit(text)
	require.NoError(t, err)
	assert.Equal(t, incr.Edit{Offset: 30, Removed: 2, Inserted: 7}, e)
	assert.Equal(t, "10 + 1;", ins)

	e, _, err = (&Command{Op: OpInsert, Offset: 34, Text: "\n"}).Edit(text)
	require.NoError(t, err)
	assert.Equal(t, incr.Edit{Offset: 34, Inserted: 1}, e)

	e, ins, err = (&Command{Op: OpDelete, Offset: 0, Length: 7}).Edit(text)
	require.NoError(t, err)
	assert.Equal(t, incr.Edit{Removed: 7}, e)
	assert.Empty(t, ins)

	_, _, err = (&Command{Op: OpChange, Old: "missing"}).Edit(text)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = (&Command{Op: OpDelete, Offset: 30, Length: 10}).Edit(text)
	assert.Error(t, err)

	_, _, err = (&Command{Op: OpCheck}).Edit(text)
	assert.Error(t, err)
}

func TestOp(t *testing.T) {
	assert.True(t, OpChange.IsEdit())
	assert.False(t, OpCheck.IsEdit())
	assert.Equal(t, "rebuild", OpRebuild.String())
	assert.Equal(t, "INVALID", Op(99).String())
	assert.Equal(t, `replace 1 2 "x"`, (&Command{Op: OpReplace, Offset: 1, Length: 2, Text: "x"}).String())
}

func TestParseEscapes(t *testing.T) {
	cmd, err := ParseLine(`insert 0 "a\n\tb"`)
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, "a\n\tb", cmd.Text)
}
