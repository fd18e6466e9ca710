// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/luthersystems/tdl/analysis"
	"github.com/luthersystems/tdl/diagnostic"
)

var explainCmd = &cobra.Command{
	Use:   "explain [code]",
	Short: "Describe diagnostic codes",
	Long: `Explain prints the description of a diagnostic code, the name shown in
brackets after "error" or "warning". With no argument every code is listed.

Examples:
  tdl explain
  tdl explain circular-reference`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		width := diagnostic.TerminalWidth(os.Stdout)
		if len(args) == 0 {
			return explainAll(os.Stdout, width)
		}
		return explain(os.Stdout, args[0], width)
	},
}

func explain(w io.Writer, code string, width int) error {
	text, ok := analysis.Explain(code)
	if !ok {
		return fmt.Errorf("unknown diagnostic code %q (run tdl explain to list them)", code)
	}
	_, err := fmt.Fprintf(w, "%s\n\n%s\n", code, indent.String(wrap(text, width-2), 2))
	return err
}

func explainAll(w io.Writer, width int) error {
	for _, code := range analysis.Codes() {
		text, _ := analysis.Explain(code)
		if _, err := fmt.Fprintf(w, "%s\n%s\n", code, indent.String(wrap(text, width-4), 4)); err != nil {
			return err
		}
	}
	return nil
}

// wrap wraps text at width columns. Non-positive widths leave it as is.
func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
