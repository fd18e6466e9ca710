// Copyright © 2018 The ELPS authors

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/luthersystems/tdl/diagnostic"
	"github.com/luthersystems/tdl/repl"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl FILE",
	Short: "Edit a module interactively",
	Long: `Open FILE in an incremental workspace and read edit commands from the
terminal. Each edit is applied in place and the reparse outcome is printed.
The file on disk is never written.

Commands:
  insert OFFSET "text"          insert text at a byte offset
  delete OFFSET LENGTH          remove bytes
  replace OFFSET LENGTH "text"  remove bytes, then insert text
  change "old" "new"            replace the first occurrence of old
  check                         check the workspace and print diagnostics
  emit                          print the Go translation of the module
  show                          print the module with line numbers
  rebuild                       discard caches and parse from scratch

Example session:
  tdl> change "K := 1" "K := 2"
  edit@24 -6 +6: partially-updated [24,30) 1 node
  tdl> check
  ok`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, done, err := newSession(cmd, args[0])
		if err != nil {
			return err
		}
		defer done()
		return repl.Run(cmd.Context(), s)
	},
}

// newSession opens file with its project and returns a session editing it
// that writes to stdout.
func newSession(cmd *cobra.Command, file string) (*repl.Session, func(), error) {
	log := newLogger()
	ws, flush, err := newWorkspace(log)
	if err != nil {
		return nil, nil, err
	}
	abs, manifest, err := openModule(cmd.Context(), ws, file)
	if err != nil {
		flush()
		return nil, nil, err
	}
	s, err := repl.NewSession(ws, abs, os.Stdout,
		repl.WithLogger(log),
		repl.WithColor(colorMode()),
		repl.WithWidth(diagnostic.TerminalWidth(os.Stdout)),
		repl.WithEmitOptions(emitOptions(cmd, manifest)),
	)
	if err != nil {
		flush()
		return nil, nil, err
	}
	return s, flush, nil
}

func init() {
	rootCmd.AddCommand(replCmd)
	addEmitFlags(replCmd)
}
