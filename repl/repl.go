// Copyright © 2018 The ELPS authors

// Package repl drives a workspace module interactively with edit script
// commands.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
)

type config struct {
	stdin  io.ReadCloser
	stderr io.WriteCloser
	prompt  string
	history string
}

func newConfig(opts ...Option) *config {
	config := &config{prompt: "tdl> ", history: historyPath()}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithPrompt sets the prompt shown before each command.
func WithPrompt(prompt string) Option {
	return func(c *config) {
		c.prompt = prompt
	}
}

// WithHistory sets the history file. An empty path disables history.
func WithHistory(path string) Option {
	return func(c *config) {
		c.history = path
	}
}

// Run reads commands until end of input and executes them in s. Command
// errors are printed and do not end the loop.
func Run(ctx context.Context, s *Session, opts ...Option) error {
	cfg := newConfig(opts...)

	var errOut io.Writer = os.Stderr
	if cfg.stderr != nil {
		errOut = cfg.stderr
	}
	ensureHistoryFilePermissions(cfg.history)
	rlCfg := &readline.Config{
		Prompt:            cfg.prompt,
		HistoryFile:       cfg.history,
		HistorySearchFold: true,
		AutoComplete:      &commandCompleter{session: s},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	if cfg.stderr != nil {
		rlCfg.Stdout = cfg.stderr
		rlCfg.Stderr = cfg.stderr
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return err
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := s.ExecLine(ctx, line); err != nil {
			fmt.Fprintln(errOut, err) //nolint:errcheck // best-effort error display
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tdl_history")
}

// ensureHistoryFilePermissions creates the history file if needed and
// restricts it to the owner. Edit commands may carry source text.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path is the user's history file
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0o600)
}
