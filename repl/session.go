// Copyright © 2024 The ELPS authors

package repl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/luthersystems/tdl/diagnostic"
	"github.com/luthersystems/tdl/editscript"
	"github.com/luthersystems/tdl/emit"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/workspace"
)

// Session applies edit script commands to one module of a workspace and
// reports the results to an output stream.
type Session struct {
	ws       *workspace.Workspace
	file     string
	out      io.Writer
	renderer *diagnostic.Renderer
	emitOpts emit.Options
	log      *logrus.Entry
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithColor sets the color mode of rendered diagnostics.
func WithColor(mode diagnostic.ColorMode) SessionOption {
	return func(s *Session) { s.renderer.Color = mode }
}

// WithWidth wraps diagnostic notes at width columns.
func WithWidth(width int) SessionOption {
	return func(s *Session) { s.renderer.Width = width }
}

// WithEmitOptions sets the options of emit commands.
func WithEmitOptions(opts emit.Options) SessionOption {
	return func(s *Session) { s.emitOpts = opts }
}

// WithLogger sets the logger of the session.
func WithLogger(l *logrus.Logger) SessionOption {
	return func(s *Session) { s.log = l.WithField("component", "repl") }
}

// NewSession returns a session editing file, which must be open in ws.
func NewSession(ws *workspace.Workspace, file string, out io.Writer, opts ...SessionOption) (*Session, error) {
	if _, ok := ws.Get(file); !ok {
		return nil, fmt.Errorf("%s: %w", file, workspace.ErrNotOpen)
	}
	s := &Session{
		ws:       ws,
		file:     file,
		out:      out,
		renderer: &diagnostic.Renderer{Color: diagnostic.ColorNever},
	}
	s.renderer.SourceReader = s.readSource
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = logrus.NewEntry(l)
	}
	return s, nil
}

// File returns the file the session edits.
func (s *Session) File() string {
	return s.file
}

// Text returns the current text of the edited module.
func (s *Session) Text() string {
	m, ok := s.ws.Get(s.file)
	if !ok {
		return ""
	}
	var text string
	m.View(func(v *workspace.View) { text = v.Buffer.Text() })
	return text
}

// ExecLine parses and executes one line of input. Blank lines and comments
// do nothing.
func (s *Session) ExecLine(ctx context.Context, line string) error {
	cmd, err := editscript.ParseLine(line)
	if err != nil || cmd == nil {
		return err
	}
	return s.Exec(ctx, cmd)
}

// Replay executes every command of an edit script in order and stops at
// the first failing command.
func (s *Session) Replay(ctx context.Context, r io.Reader) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	cmds, err := editscript.Parse(src)
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Exec(ctx, cmd); err != nil {
			return fmt.Errorf("line %d: %s: %w", cmd.Line, cmd.Op, err)
		}
	}
	return nil
}

// Exec executes a single command.
func (s *Session) Exec(ctx context.Context, cmd *editscript.Command) error {
	s.log.WithFields(logrus.Fields{"file": s.file, "command": cmd.String()}).Debug("exec")
	switch cmd.Op {
	case editscript.OpInsert, editscript.OpDelete, editscript.OpReplace, editscript.OpChange:
		return s.edit(ctx, cmd)
	case editscript.OpCheck:
		return s.check(ctx)
	case editscript.OpEmit:
		return s.emit(ctx)
	case editscript.OpShow:
		return s.show()
	case editscript.OpRebuild:
		if err := s.ws.Rebuild(ctx, s.file); err != nil {
			return err
		}
		_, err := fmt.Fprintln(s.out, "rebuilt")
		return err
	}
	return fmt.Errorf("unknown command %v", cmd.Op)
}

func (s *Session) edit(ctx context.Context, cmd *editscript.Command) error {
	e, inserted, err := cmd.Edit(s.Text())
	if err != nil {
		return err
	}
	out, err := s.ws.ApplyEdit(ctx, s.file, e, inserted)
	if err != nil {
		return err
	}
	return s.printOutcome(e, out)
}

func (s *Session) printOutcome(e incr.Edit, out incr.Outcome) error {
	line := fmt.Sprintf("%s: %s", e, out.Kind)
	switch out.Kind {
	case incr.PartiallyUpdated:
		line += fmt.Sprintf(" [%d,%d) %s", out.Span.Start, out.Span.End, plural(len(out.Nodes), "node"))
	case incr.FullyRebuilt, incr.Failed:
		if out.Reason != nil && !errors.Is(out.Reason, workspace.ErrNeedsRebuild) {
			line += ": " + out.Reason.Error()
		}
	}
	_, err := fmt.Fprintln(s.out, line)
	return err
}

// check checks the workspace and renders the diagnostics of every module,
// the edited one first.
func (s *Session) check(ctx context.Context) error {
	results, err := s.ws.Check(ctx)
	if err != nil {
		return err
	}
	files := make([]string, 0, len(results))
	for f := range results {
		if f != s.file {
			files = append(files, f)
		}
	}
	sort.Strings(files)
	files = append([]string{s.file}, files...)

	var all []diagnostic.Diagnostic
	for _, f := range files {
		res, ok := results[f]
		if !ok {
			continue
		}
		m, ok := s.ws.Get(f)
		if !ok {
			continue
		}
		m.View(func(v *workspace.View) {
			all = append(all, diagnostic.From(v.Buffer, res.Diagnostics)...)
		})
	}
	if len(all) == 0 {
		_, err := fmt.Fprintln(s.out, "ok")
		return err
	}
	if err := s.renderer.RenderAll(s.out, all); err != nil {
		return err
	}
	return s.renderer.RenderSummary(s.out, all)
}

func (s *Session) emit(ctx context.Context) error {
	src, err := s.ws.Emit(ctx, s.file, s.emitOpts)
	if err != nil {
		return err
	}
	_, err = s.out.Write(src)
	return err
}

// show prints the module text with line numbers.
func (s *Session) show() error {
	sc := bufio.NewScanner(bytes.NewReader([]byte(s.Text())))
	for n := 1; sc.Scan(); n++ {
		if _, err := fmt.Fprintf(s.out, "%4d  %s\n", n, sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}

// readSource serves diagnostic snippets from the workspace buffers so
// unsaved edits are shown.
func (s *Session) readSource(file string) ([]byte, error) {
	m, ok := s.ws.Get(file)
	if !ok {
		return nil, fmt.Errorf("%s: %w", file, workspace.ErrNotOpen)
	}
	var text string
	m.View(func(v *workspace.View) { text = v.Buffer.Text() })
	return []byte(text), nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
