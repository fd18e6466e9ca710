// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/tdl/diagnostic"
	"github.com/luthersystems/tdl/diskcache"
	"github.com/luthersystems/tdl/workspace"
)

const (
	checkLib = `module Lib {
  function twice(integer a) return integer {
    return a * 2;
  }
}
`
	checkApp = `module App {
  import from Lib all;
  function main() {
    log(twice(1));
    log(thrice(1));
  }
}
`
)

func writeProject(t *testing.T) (lib, app string) {
	t.Helper()
	dir := t.TempDir()
	lib = filepath.Join(dir, "lib.tdl")
	app = filepath.Join(dir, "app.tdl")
	require.NoError(t, os.WriteFile(lib, []byte(checkLib), 0o600))
	require.NoError(t, os.WriteFile(app, []byte(checkApp), 0o600))
	return lib, app
}

func newTestChecker(t *testing.T, cache *diskcache.Cache, files ...string) *checker {
	t.Helper()
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	ws := workspace.New(workspace.WithLogger(log))
	require.NoError(t, ws.LoadFiles(context.Background(), files))
	return &checker{
		ws:       ws,
		cache:    cache,
		log:      log,
		renderer: &diagnostic.Renderer{Color: diagnostic.ColorNever},
	}
}

func TestCheckerReportsErrors(t *testing.T) {
	lib, app := writeProject(t)
	c := newTestChecker(t, nil, lib, app)

	var out bytes.Buffer
	err := c.run(context.Background(), &out, []string{app, lib})
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out.String(), "error[undefined]: undefined: thrice")
	assert.Contains(t, out.String(), "app.tdl:5:")
	assert.Contains(t, out.String(), "1 error generated")
}

func TestCheckerClean(t *testing.T) {
	lib, _ := writeProject(t)
	c := newTestChecker(t, nil, lib)

	var out bytes.Buffer
	require.NoError(t, c.run(context.Background(), &out, []string{lib}))
	assert.Empty(t, out.String())
}

func TestCheckerCache(t *testing.T) {
	lib, app := writeProject(t)
	cache, err := diskcache.Open(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	c := newTestChecker(t, cache, lib, app)
	var first bytes.Buffer
	require.ErrorIs(t, c.run(context.Background(), &first, []string{lib, app}), errReported)

	text, deps, err := c.ws.Inputs(app, c.ws.Exports(context.Background()))
	require.NoError(t, err)
	e, ok, err := cache.Get(diskcache.KeyFor(app, text, deps))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "App", e.Module)
	require.Len(t, e.Diagnostics, 1)

	// A fresh workspace serves both modules from the cache and reports the
	// same diagnostics.
	c2 := newTestChecker(t, cache, lib, app)
	var second bytes.Buffer
	require.ErrorIs(t, c2.run(context.Background(), &second, []string{lib, app}), errReported)
	assert.Equal(t, first.String(), second.String())
	m, ok := c2.ws.Get(app)
	require.True(t, ok)
	m.View(func(v *workspace.View) { assert.Nil(t, v.Result) })
}

func TestExplain(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, explain(&out, "circular-reference", 0))
	assert.Contains(t, out.String(), "circular-reference\n\n  A constant initializer depends on itself")

	err := explain(&out, "no-such-code", 0)
	assert.ErrorContains(t, err, `unknown diagnostic code "no-such-code"`)
}

func TestExplainAllWraps(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, explainAll(&out, 40))
	assert.Contains(t, out.String(), "unused-variable\n    A local variable")
	for _, line := range bytes.Split(out.Bytes(), []byte("\n")) {
		assert.LessOrEqual(t, len(line), 40, string(line))
	}
}
