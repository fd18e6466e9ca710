// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luthersystems/tdl/diagnostic"
	"github.com/luthersystems/tdl/emit"
	"github.com/luthersystems/tdl/workspace"
)

var emitCmd = &cobra.Command{
	Use:   "emit [flags] FILE",
	Short: "Translate a module to Go",
	Long: `Check FILE and print its Go translation. Modules with errors are not
translated; their diagnostics are printed instead. When FILE belongs to a
project whose manifest sets emit.out, the translation is written there.

Examples:
  tdl emit main.tdl
  tdl emit --package suite -o suite.go main.tdl`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		ws, flush, err := newWorkspace(log)
		if err != nil {
			return err
		}
		defer flush()

		file, manifest, err := openModule(cmd.Context(), ws, args[0])
		if err != nil {
			return err
		}
		results, err := ws.CheckFiles(cmd.Context(), []string{file})
		if err != nil {
			return err
		}
		if res := results[file]; res != nil && res.HasErrors() {
			m, _ := ws.Get(file)
			var ds []diagnostic.Diagnostic
			m.View(func(v *workspace.View) { ds = diagnostic.From(v.Buffer, res.Diagnostics) })
			r := newRenderer()
			_ = r.RenderAll(os.Stderr, ds)
			_ = r.RenderSummary(os.Stderr, ds)
			return errReported
		}

		src, err := ws.Emit(cmd.Context(), file, emitOptions(cmd, manifest))
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		if out == "" && manifest != nil && manifest.Emit.Out != "" {
			dir := manifest.Emit.Out
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(manifest.Root, dir)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			out = filepath.Join(dir, strings.TrimSuffix(filepath.Base(file), ".tdl")+".go")
		}
		if out == "" || out == "-" {
			_, err = os.Stdout.Write(src)
			return err
		}
		if err := os.WriteFile(out, src, 0o644); err != nil { //nolint:gosec // generated source is not secret
			return fmt.Errorf("writing %s: %w", out, err)
		}
		return nil
	},
}

// addEmitFlags adds the flags controlling translation to cmd.
func addEmitFlags(cmd *cobra.Command) {
	cmd.Flags().String("package", "", `Go package clause of translated modules (default "main")`)
}

// emitOptions reads the translation flags. The manifest, when there is
// one, supplies the defaults.
func emitOptions(cmd *cobra.Command, m *workspace.Manifest) emit.Options {
	pkg, _ := cmd.Flags().GetString("package")
	if pkg == "" && m != nil {
		pkg = m.Emit.Package
	}
	return emit.Options{Package: pkg}
}

func init() {
	rootCmd.AddCommand(emitCmd)
	addEmitFlags(emitCmd)
	emitCmd.Flags().StringP("output", "o", "", "Write the translation to a file instead of stdout")
}
