// Copyright © 2018 The ELPS authors

package repl

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/tdl/editscript"
	"github.com/luthersystems/tdl/workspace"
)

const file = "/ws/a.tdl"

const src = `module A {
  const integer K := 1;
  function f() return integer {
    return K;
  }
}`

func newSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	ws := workspace.New()
	ws.Open(file, src)
	var out bytes.Buffer
	s, err := NewSession(ws, file, &out)
	require.NoError(t, err)
	return s, &out
}

func TestNewSessionNotOpen(t *testing.T) {
	_, err := NewSession(workspace.New(), file, io.Discard)
	assert.ErrorIs(t, err, workspace.ErrNotOpen)
}

func TestExecEdit(t *testing.T) {
	s, out := newSession(t)
	ctx := context.Background()

	require.NoError(t, s.ExecLine(ctx, `change "1;" "2;"`))
	assert.Contains(t, s.Text(), "K := 2;")
	assert.True(t, strings.HasPrefix(out.String(), "edit@"), out.String())

	out.Reset()
	require.NoError(t, s.ExecLine(ctx, "check"))
	assert.Equal(t, "ok\n", out.String())
}

func TestExecCheckRendersDiagnostics(t *testing.T) {
	s, out := newSession(t)
	ctx := context.Background()

	require.NoError(t, s.ExecLine(ctx, `change "return K" "return J"`))
	out.Reset()
	require.NoError(t, s.ExecLine(ctx, "check"))
	got := out.String()
	assert.Contains(t, got, "error[undefined]: undefined: J")
	assert.Contains(t, got, "--> /ws/a.tdl:4:")
	assert.Contains(t, got, "return J;")
	assert.Contains(t, got, "1 error generated")
}

func TestExecChangeNotFound(t *testing.T) {
	s, _ := newSession(t)
	err := s.ExecLine(context.Background(), `change "nothing" "x"`)
	assert.ErrorIs(t, err, editscript.ErrNotFound)
	assert.Equal(t, src, s.Text())
}

func TestExecBlankAndComment(t *testing.T) {
	s, out := newSession(t)
	require.NoError(t, s.ExecLine(context.Background(), "   "))
	require.NoError(t, s.ExecLine(context.Background(), "# nothing"))
	assert.Empty(t, out.String())
}

func TestExecShow(t *testing.T) {
	s, out := newSession(t)
	require.NoError(t, s.ExecLine(context.Background(), "show"))
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "   1  module A {", lines[0])
	assert.Equal(t, "   6  }", lines[5])
}

func TestExecEmit(t *testing.T) {
	s, out := newSession(t)
	ctx := context.Background()

	err := s.ExecLine(ctx, "emit")
	assert.ErrorIs(t, err, workspace.ErrNotChecked)

	require.NoError(t, s.ExecLine(ctx, "check"))
	out.Reset()
	require.NoError(t, s.ExecLine(ctx, "emit"))
	assert.Contains(t, out.String(), "package main")
}

func TestExecRebuild(t *testing.T) {
	s, out := newSession(t)
	require.NoError(t, s.ExecLine(context.Background(), "rebuild"))
	assert.Equal(t, "rebuilt\n", out.String())
}

func TestReplay(t *testing.T) {
	s, out := newSession(t)
	script := `# rename the constant use
change "return K" "return L"
insert 11 "  const integer L := 3;\n"
check
`
	require.NoError(t, s.Replay(context.Background(), strings.NewReader(script)))
	assert.Contains(t, s.Text(), "const integer L := 3;")
	assert.True(t, strings.HasSuffix(out.String(), "ok\n"), out.String())
}

func TestReplayStopsAtError(t *testing.T) {
	s, _ := newSession(t)
	script := "delete 0 1000\ncheck\n"
	err := s.Replay(context.Background(), strings.NewReader(script))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1: delete")
}

func TestReplayParseError(t *testing.T) {
	s, _ := newSession(t)
	err := s.Replay(context.Background(), strings.NewReader("check\nfrobnicate\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func TestRun(t *testing.T) {
	s, out := newSession(t)
	inR, inW := io.Pipe()
	go func() {
		defer inW.Close() //nolint:errcheck // test cleanup
		_, _ = io.WriteString(inW, "change \"1;\" \"5;\"\nbogus\nshow\n")
	}()

	var stderr bytes.Buffer
	err := Run(context.Background(), s,
		WithStdin(inR),
		WithStderr(nopWriteCloser{&stderr}),
		WithHistory(""))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "K := 5;")
	assert.Contains(t, stderr.String(), "unexpected text")
}

func TestEnsureHistoryFilePermissions_CreatesWithRestrictedMode(t *testing.T) {
	dir := t.TempDir()
	histFile := filepath.Join(dir, ".tdl_history")

	// File does not exist yet.
	ensureHistoryFilePermissions(histFile)

	info, err := os.Stat(histFile)
	require.NoError(t, err, "history file should be created")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "new history file should have mode 0600")
}

func TestEnsureHistoryFilePermissions_RestrictsExistingFile(t *testing.T) {
	dir := t.TempDir()
	histFile := filepath.Join(dir, ".tdl_history")

	// Create the file with overly permissive mode.
	err := os.WriteFile(histFile, []byte("some history"), 0644)
	require.NoError(t, err)

	ensureHistoryFilePermissions(histFile)

	info, err := os.Stat(histFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "existing history file should be restricted to 0600")

	// Verify contents are preserved.
	data, err := os.ReadFile(histFile)
	require.NoError(t, err)
	assert.Equal(t, "some history", string(data))
}

func TestEnsureHistoryFilePermissions_EmptyPathNoOp(t *testing.T) {
	// Should not panic or error with empty path.
	ensureHistoryFilePermissions("")
}
