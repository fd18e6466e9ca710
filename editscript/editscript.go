// Copyright © 2024 The ELPS authors

// Package editscript parses the small command language used to replay
// edits against a module:
//
//	insert 12 "text"         # insert text at byte offset 12
//	delete 10 5              # remove 5 bytes at offset 10
//	replace 10 5 "text"      # remove 5 bytes at offset 10, insert text
//	change "old" "new"       # replace the first occurrence of old
//	check                    # check the workspace and print diagnostics
//	emit                     # print generated Go for the module
//	show                     # print the module text
//	rebuild                  # discard caches and parse from scratch
package editscript

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	parsec "github.com/prataprc/goparsec"

	"github.com/luthersystems/tdl/incr"
)

// ErrNotFound is returned when the text a change command replaces does not
// occur in the module.
var ErrNotFound = errors.New("text not found")

// Op is the kind of a command.
type Op uint

const (
	OpInsert Op = iota
	OpDelete
	OpReplace
	OpChange
	OpCheck
	OpEmit
	OpShow
	OpRebuild
)

var opStrings = []string{
	OpInsert:  "insert",
	OpDelete:  "delete",
	OpReplace: "replace",
	OpChange:  "change",
	OpCheck:   "check",
	OpEmit:    "emit",
	OpShow:    "show",
	OpRebuild: "rebuild",
}

func (op Op) String() string {
	if int(op) >= len(opStrings) {
		return "INVALID"
	}
	return opStrings[op]
}

// IsEdit reports whether commands of kind op change the module text.
func (op Op) IsEdit() bool {
	return op <= OpChange
}

// Command is one parsed command. Offset and Length are byte counts. Old is
// only set by change commands.
type Command struct {
	Op     Op
	Offset int
	Length int
	Old    string
	Text   string
	// Line is the 1-based line the command starts on.
	Line int
}

func (c *Command) String() string {
	switch c.Op {
	case OpInsert:
		return fmt.Sprintf("insert %d %q", c.Offset, c.Text)
	case OpDelete:
		return fmt.Sprintf("delete %d %d", c.Offset, c.Length)
	case OpReplace:
		return fmt.Sprintf("replace %d %d %q", c.Offset, c.Length, c.Text)
	case OpChange:
		return fmt.Sprintf("change %q %q", c.Old, c.Text)
	}
	return c.Op.String()
}

// Edit resolves an edit command against the current module text. It
// returns the edit and the text it inserts.
func (c *Command) Edit(text string) (incr.Edit, string, error) {
	var e incr.Edit
	switch c.Op {
	case OpInsert:
		e = incr.Edit{Offset: c.Offset, Inserted: len(c.Text)}
	case OpDelete:
		e = incr.Edit{Offset: c.Offset, Removed: c.Length}
	case OpReplace:
		e = incr.Edit{Offset: c.Offset, Removed: c.Length, Inserted: len(c.Text)}
	case OpChange:
		i := strings.Index(text, c.Old)
		if i < 0 || c.Old == "" {
			return incr.Edit{}, "", fmt.Errorf("line %d: %q: %w", c.Line, c.Old, ErrNotFound)
		}
		e = incr.Edit{Offset: i, Removed: len(c.Old), Inserted: len(c.Text)}
	default:
		return incr.Edit{}, "", fmt.Errorf("line %d: %s does not edit text", c.Line, c.Op)
	}
	if e.Offset+e.Removed > len(text) {
		return incr.Edit{}, "", fmt.Errorf("line %d: %v past end of text (%d bytes)", c.Line, e, len(text))
	}
	return e, c.Text, nil
}

// Parse parses a whole script.
func Parse(text []byte) ([]*Command, error) {
	var cmds []*Command
	s := parsec.NewScanner(text)
	s = s.TrackLineno()
	parser := newParser()
	for {
		_, s = s.SkipWS()
		if s.Endof() {
			return cmds, nil
		}
		line := s.Lineno()
		var root parsec.ParsecNode
		root, s = parser(s)
		if root == nil {
			b, _ := s.Match(`[^\n]{1,16}`)
			if len(b) > 15 {
				b = append(b[:15:15], []byte("...")...)
			}
			return cmds, fmt.Errorf("line %d: unexpected text starting: %s", line, b)
		}
		cmd, err := getCommand(root)
		if err != nil {
			return cmds, fmt.Errorf("line %d: %w", line, err)
		}
		if cmd != nil {
			cmd.Line = line
			cmds = append(cmds, cmd)
		}
	}
}

// ParseLine parses a single command, as typed at a prompt. A blank line or
// a comment yields a nil command.
func ParseLine(line string) (*Command, error) {
	cmds, err := Parse([]byte(line))
	if err != nil {
		return nil, err
	}
	switch len(cmds) {
	case 0:
		return nil, nil
	case 1:
		return cmds[0], nil
	}
	return nil, fmt.Errorf("expected one command, got %d", len(cmds))
}

func newParser() parsec.Parser {
	comment := parsec.Token(`#[^\n]*`, "COMMENT")
	integer := parsec.Token(`[0-9]+`, "INT")
	str := parsec.String()
	keyword := func(op Op) parsec.Parser {
		return parsec.Token(op.String()+`\b`, strings.ToUpper(op.String()))
	}
	return parsec.OrdChoice(nil,
		comment,
		parsec.And(command(OpInsert), keyword(OpInsert), integer, str),
		parsec.And(command(OpDelete), keyword(OpDelete), integer, integer),
		parsec.And(command(OpReplace), keyword(OpReplace), integer, integer, str),
		parsec.And(command(OpChange), keyword(OpChange), str, str),
		parsec.And(command(OpCheck), keyword(OpCheck)),
		parsec.And(command(OpEmit), keyword(OpEmit)),
		parsec.And(command(OpShow), keyword(OpShow)),
		parsec.And(command(OpRebuild), keyword(OpRebuild)),
	)
}

func command(op Op) parsec.Nodify {
	return func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		return newCommand(op, nodes[1:])
	}
}

// newCommand builds a command from the operands following its keyword.
// Errors are returned as nodes.
func newCommand(op Op, args []parsec.ParsecNode) parsec.ParsecNode {
	cmd := &Command{Op: op}
	var ints []int
	var strs []string
	for _, n := range args {
		switch n := n.(type) {
		case *parsec.Terminal:
			x, err := strconv.Atoi(n.GetValue())
			if err != nil {
				return fmt.Errorf("bad number: %s", n.GetValue())
			}
			ints = append(ints, x)
		case string:
			strs = append(strs, unquoteString(n))
		}
	}
	switch op {
	case OpInsert:
		cmd.Offset, cmd.Text = ints[0], strs[0]
	case OpDelete:
		cmd.Offset, cmd.Length = ints[0], ints[1]
	case OpReplace:
		cmd.Offset, cmd.Length, cmd.Text = ints[0], ints[1], strs[0]
	case OpChange:
		cmd.Old, cmd.Text = strs[0], strs[1]
	}
	return cmd
}

// getCommand digs the command out of the node a top level parse returned.
// Comments yield nil.
func getCommand(root parsec.ParsecNode) (*Command, error) {
	switch n := root.(type) {
	case *Command:
		return n, nil
	case error:
		return nil, n
	case *parsec.Terminal:
		return nil, nil
	case []parsec.ParsecNode:
		for _, c := range n {
			cmd, err := getCommand(c)
			if cmd != nil || err != nil {
				return cmd, err
			}
		}
	}
	return nil, nil
}

// goparsec.String() unescapes the quoted source text and then wraps the
// result in double quotes again.
// unquoteString interprets Go escapes so scripts can insert newlines.
func unquoteString(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s[1 : len(s)-1]
}
