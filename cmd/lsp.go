// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luthersystems/tdl/lsp"
)

// LSPCommand creates the "lsp" cobra command.
func LSPCommand() *cobra.Command {
	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the tdl Language Server Protocol server",
		Long: `Start an LSP server for tdl source files.

The language server keeps every open document in an incremental workspace.
Edits are applied as they arrive and the workspace is checked once they
pause for lsp.debounce (default 300ms). When the client's root folder
holds a tdl.toml manifest, the project sources are loaded so imports of
unopened modules resolve.

Features: diagnostics, hover, go-to-definition, find references,
completion, signature help, document and workspace symbols, folding and
rename.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  tdl lsp                            Start with stdio transport
  tdl lsp --port 7998                Start with TCP on port 7998
  TDL_LSP_DEBOUNCE=1s tdl lsp        Check less often while typing`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			log := newLogger()
			ws, flush, err := newWorkspace(log)
			if err != nil {
				return err
			}
			defer flush()

			srv := lsp.New(
				lsp.WithWorkspace(ws),
				lsp.WithLogger(log),
				lsp.WithDebounce(viper.GetDuration("lsp.debounce")),
			)

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.WithField("addr", addr).Info("tdl LSP server listening")
				return srv.RunTCP(addr)
			}
			return srv.RunStdio()
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
	cmd.Flags().Duration("debounce", lsp.DefaultDebounce,
		"Delay between the last change and the check it triggers")
	if err := viper.BindPFlag("lsp.debounce", cmd.Flags().Lookup("debounce")); err != nil {
		panic(err)
	}
	viper.SetDefault("lsp.debounce", lsp.DefaultDebounce)

	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
