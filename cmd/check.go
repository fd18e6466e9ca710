// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luthersystems/tdl/diagnostic"
	"github.com/luthersystems/tdl/diskcache"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/workspace"
)

// CheckCommand creates the "check" cobra command.
func CheckCommand() *cobra.Command {
	var (
		excludes   []string
		noCache    bool
		clearCache bool
	)

	cmd := &cobra.Command{
		Use:   "check [flags] [files...]",
		Short: "Check modules and report diagnostics",
		Long: `Check parses and checks modules and prints their diagnostics.

With no arguments the sources of the tdl.toml manifest found in the current
directory or one of its parents are checked. Arguments may be files,
directories or patterns ending in /... which expand to every .tdl file
below a directory. The project around the arguments is always loaded so
imports resolve, but only the named modules are reported.

Results are cached by module text and by the exports the module imports,
so unchanged modules are not checked again. The exit status is 1 when any
error is reported.

Examples:
  tdl check
  tdl check src/...
  tdl check --exclude generated src/...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			ws, flush, err := newWorkspace(log)
			if err != nil {
				return err
			}
			defer flush()

			var cache *diskcache.Cache
			if !noCache {
				cache = openCache(log)
				defer cache.Close()
				if clearCache {
					if err := cache.DropAll(); err != nil {
						return err
					}
				}
			}

			files, err := checkTargets(cmd.Context(), ws, args, excludes)
			if err != nil {
				return err
			}
			c := &checker{ws: ws, cache: cache, log: log, renderer: newRenderer()}
			return c.run(cmd.Context(), os.Stderr, files)
		},
	}

	cmd.Flags().StringSliceVar(&excludes, "exclude", nil,
		"Skip files whose path, name or directory matches a glob pattern")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Check every module even if a cached result exists")
	cmd.Flags().BoolVar(&clearCache, "clear-cache", false, "Drop every cached result before checking")
	return cmd
}

func init() {
	rootCmd.AddCommand(CheckCommand())
}

// checkTargets loads the project and the files named by args into ws and
// returns the files to report.
func checkTargets(ctx context.Context, ws *workspace.Workspace, args, excludes []string) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(args) == 0 {
		m, err := loadProject(ctx, ws, ".")
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, fmt.Errorf("no files given and no %s found", workspace.ManifestFile)
		}
		return filterExcludes(ws.Files(), excludes), nil
	}
	files, err := expandArgs(args)
	if err != nil {
		return nil, err
	}
	files, err = absPaths(filterExcludes(files, excludes))
	if err != nil {
		return nil, err
	}
	if _, err := loadProject(ctx, ws, "."); err != nil {
		return nil, err
	}
	if err := ws.LoadFiles(ctx, files); err != nil {
		return nil, err
	}
	return files, nil
}

func openCache(log *logrus.Logger) *diskcache.Cache {
	dir := viper.GetString("cache-dir")
	if dir == "" {
		var err error
		if dir, err = diskcache.DefaultDir(); err != nil {
			log.WithError(err).Warn("check cache disabled")
			return nil
		}
	}
	cache, err := diskcache.Open(dir)
	if err != nil {
		log.WithError(err).Warn("check cache disabled")
		return nil
	}
	return cache
}

// checker checks files through a workspace, serving unchanged modules
// from the disk cache.
type checker struct {
	ws       *workspace.Workspace
	cache    *diskcache.Cache
	log      *logrus.Logger
	renderer *diagnostic.Renderer
}

func (c *checker) run(ctx context.Context, w io.Writer, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sort.Strings(files)
	exports := c.ws.Exports(ctx)

	diags := make(map[string][]incr.Diagnostic, len(files))
	keys := make(map[string]diskcache.Key, len(files))
	var misses []string
	for _, f := range files {
		text, deps, err := c.ws.Inputs(f, exports)
		if err != nil {
			return err
		}
		k := diskcache.KeyFor(f, text, deps)
		keys[f] = k
		e, ok, err := c.cache.Get(k)
		if err != nil {
			c.log.WithError(err).WithField("file", f).Warn("ignoring cache entry")
		}
		if ok {
			diags[f] = diskcache.ToDiagnostics(e.Diagnostics)
			continue
		}
		misses = append(misses, f)
	}
	c.log.WithFields(logrus.Fields{"files": len(files), "checked": len(misses)}).Debug("check")

	if len(misses) > 0 {
		results, err := c.ws.CheckFiles(ctx, misses)
		if err != nil {
			return err
		}
		for _, f := range misses {
			res, ok := results[f]
			if !ok {
				continue
			}
			diags[f] = res.Diagnostics
			c.store(keys[f], f, res.Diagnostics)
		}
	}

	var all []diagnostic.Diagnostic
	for _, f := range files {
		m, ok := c.ws.Get(f)
		if !ok {
			continue
		}
		m.View(func(v *workspace.View) {
			all = append(all, diagnostic.From(v.Buffer, diags[f])...)
		})
	}
	if err := c.renderer.RenderAll(w, all); err != nil {
		return err
	}
	if len(all) > 0 {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	if err := c.renderer.RenderSummary(w, all); err != nil {
		return err
	}
	if errs, _ := diagnostic.Count(all); errs > 0 {
		return errReported
	}
	return nil
}

func (c *checker) store(k diskcache.Key, file string, ds []incr.Diagnostic) {
	if c.cache == nil {
		return
	}
	var module string
	if m, ok := c.ws.Get(file); ok {
		module = m.Name()
	}
	e := &diskcache.Entry{
		File:        file,
		Module:      module,
		Diagnostics: diskcache.FromDiagnostics(ds),
		Stored:      time.Now(),
	}
	if err := c.cache.Put(k, e); err != nil {
		c.log.WithError(err).WithField("file", file).Warn("caching check result")
	}
}
