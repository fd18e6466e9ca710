// Copyright © 2024 The ELPS authors

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE SCRIPT",
	Short: "Replay an edit script against a module",
	Long: `Open FILE in an incremental workspace and execute the commands of
SCRIPT in order, as the repl command would. Replay stops at the first
command that fails. Use "-" to read the script from standard input.

Example script:
  # widen the constant, then check
  change "K := 1" "K := 100"
  check
  insert 0 "// generated\n"
  show`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, done, err := newSession(cmd, args[0])
		if err != nil {
			return err
		}
		defer done()

		in := os.Stdin
		if args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck // read-only
			in = f
		}
		return s.Replay(cmd.Context(), in)
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	addEmitFlags(replayCmd)
}
