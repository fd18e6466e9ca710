// Copyright © 2024 The ELPS authors

package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// ManifestFile is the name of the project manifest.
const ManifestFile = "tdl.toml"

// Manifest describes a project.
//
//	name = "demo"
//	sources = ["src", "lib/extra.tdl"]
//	jobs = 4
//
//	[emit]
//	package = "demo"
//	out = "gen"
type Manifest struct {
	Name    string   `toml:"name"`
	Sources []string `toml:"sources"`
	Jobs    int      `toml:"jobs"`
	Emit    struct {
		Package string `toml:"package"`
		Out     string `toml:"out"`
	} `toml:"emit"`

	// Root is the directory holding the manifest.
	Root string `toml:"-"`
}

// LoadManifest reads the manifest at path. Relative source paths are
// resolved against the manifest directory; with no sources listed the
// manifest directory itself is the only source.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undec[0].String())
	}
	m.Root = filepath.Dir(path)
	if len(m.Sources) == 0 {
		m.Sources = []string{"."}
	}
	for i, src := range m.Sources {
		if !filepath.IsAbs(src) {
			m.Sources[i] = filepath.Join(m.Root, src)
		}
	}
	if m.Emit.Package == "" {
		m.Emit.Package = m.Name
	}
	return &m, nil
}

// FindManifest looks for a manifest in dir and its parents.
func FindManifest(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		path := filepath.Join(dir, ManifestFile)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Files expands the manifest sources into a sorted list of .tdl files.
func (m *Manifest) Files() ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, src := range m.Sources {
		found, err := SourceFiles(src)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// SourceFiles returns path when it is a file, or every .tdl file below
// path when it is a directory. Hidden directories are skipped.
func SourceFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(p) == ".tdl" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// shouldSkipDir returns true for directories that should not be walked:
// hidden directories and node_modules, but not "." or "..".
func shouldSkipDir(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	if len(name) > 0 && name[0] == '.' {
		return true
	}
	return name == "node_modules"
}

// LoadFiles opens every file in files. Files that cannot be read are
// reported together and the others are still opened.
func (w *Workspace) LoadFiles(ctx context.Context, files []string) error {
	var errs []error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := os.ReadFile(f) //nolint:gosec // CLI tool reads user-specified files
		if err != nil {
			errs = append(errs, err)
			continue
		}
		w.Open(f, string(b))
	}
	return errors.Join(errs...)
}

// LoadManifest opens the sources of m. A positive job limit in m replaces
// the one of the workspace.
func (w *Workspace) LoadManifest(ctx context.Context, m *Manifest) error {
	files, err := m.Files()
	if err != nil {
		return err
	}
	if m.Jobs > 0 {
		w.jobs = m.Jobs
	}
	return w.LoadFiles(ctx, files)
}
