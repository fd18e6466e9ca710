// Copyright © 2018 The ELPS authors

package repl

import (
	"sort"
	"strings"

	"github.com/luthersystems/tdl/astutil"
	"github.com/luthersystems/tdl/editscript"
	"github.com/luthersystems/tdl/workspace"
)

// commandCompleter implements readline.AutoCompleter. The first word of a
// line completes to a command name; later words complete to names
// declared by the edited module.
type commandCompleter struct {
	session *Session
}

func (c *commandCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Extract the word being typed (backwards from cursor to whitespace or quote).
	start := pos
	for start > 0 {
		ch := line[start-1]
		if ch == ' ' || ch == '\t' || ch == '"' {
			break
		}
		start--
	}
	prefix := string(line[start:pos])

	var candidates []string
	if strings.TrimSpace(string(line[:start])) == "" {
		candidates = commandNames(prefix)
	} else if prefix != "" {
		candidates = c.declaredNames(prefix)
	}
	if len(candidates) == 0 {
		return nil, 0
	}

	// Build completions: each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, name := range candidates {
		result = append(result, []rune(name[len(prefix):]))
	}
	return result, len(prefix)
}

func commandNames(prefix string) []string {
	var out []string
	for op := editscript.OpInsert; op <= editscript.OpRebuild; op++ {
		if name := op.String(); strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

func (c *commandCompleter) declaredNames(prefix string) []string {
	m, ok := c.session.ws.Get(c.session.file)
	if !ok {
		return nil
	}
	var out []string
	m.View(func(v *workspace.View) {
		if v.Tree == nil {
			return
		}
		for name := range astutil.Declared(v.Tree) {
			if strings.HasPrefix(name, prefix) {
				out = append(out, name)
			}
		}
	})
	sort.Strings(out)
	return out
}
