// Copyright © 2024 The ELPS authors

// Package diskcache persists check results between runs of the command
// line tools. Entries are keyed by a digest of everything a module's check
// depends on, so a hit can be used without validation. Payloads are
// msgpack documents compressed with zstd.
package diskcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/luthersystems/tdl/incr"
)

// schemaVersion is bumped whenever Entry changes shape.
const schemaVersion uint16 = 1

// Key identifies the inputs of one module check.
type Key [sha256.Size]byte

// KeyFor derives the key of a module from its file name, its text and the
// digest of the exports it imports.
func KeyFor(file, text, deps string) Key {
	h := sha256.New()
	fmt.Fprintf(h, "tdl/%d\x00%s\x00%d\x00", schemaVersion, file, len(text))
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(deps))
	var k Key
	h.Sum(k[:0])
	return k
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Diagnostic is the persisted form of an incr.Diagnostic. Only its
// position survives; the node it was reported on does not.
type Diagnostic struct {
	Severity int8   `msgpack:"s"`
	Code     string `msgpack:"c"`
	Message  string `msgpack:"m"`
	Start    int    `msgpack:"b"`
	End      int    `msgpack:"e"`
}

// Entry is the cached result of checking one module.
type Entry struct {
	Schema      uint16       `msgpack:"schema"`
	File        string       `msgpack:"file"`
	Module      string       `msgpack:"module"`
	Diagnostics []Diagnostic `msgpack:"diagnostics"`
	Stored      time.Time    `msgpack:"stored"`
}

// FromDiagnostics converts diagnostics for storage.
func FromDiagnostics(ds []incr.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, len(ds))
	for i, d := range ds {
		sp := d.Span()
		out[i] = Diagnostic{
			Severity: int8(d.Severity),
			Code:     d.Code,
			Message:  d.Message,
			Start:    sp.Start,
			End:      sp.End,
		}
	}
	return out
}

// ToDiagnostics converts stored diagnostics back. Each carries its
// position in At.
func ToDiagnostics(ds []Diagnostic) []incr.Diagnostic {
	out := make([]incr.Diagnostic, len(ds))
	for i, d := range ds {
		out[i] = incr.Diagnostic{
			Severity: incr.Severity(d.Severity),
			Code:     d.Code,
			Message:  d.Message,
			At:       &incr.Span{Start: d.Start, End: d.End},
		}
	}
	return out
}

// Cache is a directory of entries. It is safe for concurrent use. A nil
// *Cache is valid and never hits.
type Cache struct {
	mu  sync.RWMutex
	dir string
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// DefaultDir returns the cache directory used when none is configured:
// $XDG_CACHE_HOME/tdl, or ~/.cache/tdl.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "tdl"), nil
}

// Open returns the cache stored in dir, creating the directory if needed.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close() //nolint:errcheck
		return nil, err
	}
	return &Cache{dir: dir, enc: enc, dec: dec}, nil
}

// Dir returns the directory of c.
func (c *Cache) Dir() string {
	return c.dir
}

// Close releases the compression state.
func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.enc.Close() //nolint:errcheck
	c.dec.Close()
}

func (c *Cache) pathFor(k Key) string {
	s := k.String()
	return filepath.Join(c.dir, "mods", s[:2], s+".mp.zst")
}

// Put stores e under k, replacing any previous entry atomically.
func (c *Cache) Put(k Key, e *Entry) error {
	if c == nil {
		return nil
	}
	e.Schema = schemaVersion
	if e.Stored.IsZero() {
		e.Stored = time.Now().UTC()
	}
	raw, err := msgpack.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.File, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	payload := c.enc.EncodeAll(raw, nil)

	p := c.pathFor(k)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name()) //nolint:errcheck
	if _, err := f.Write(payload); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get returns the entry stored under k. Entries written with another
// schema are reported as misses.
func (c *Cache) Get(k Key) (*Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	payload, err := os.ReadFile(c.pathFor(k))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	raw, err := c.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, false, fmt.Errorf("cache entry %s: %w", k, err)
	}
	var e Entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("cache entry %s: %w", k, err)
	}
	if e.Schema != schemaVersion {
		return nil, false, nil
	}
	return &e, true, nil
}

// DropAll removes every entry.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	old := filepath.Join(c.dir, "mods.old-"+time.Now().Format("20060102150405"))
	if err := os.Rename(filepath.Join(c.dir, "mods"), old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
