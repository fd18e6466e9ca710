// Copyright © 2024 The ELPS authors

// Package diagnostic renders findings as annotated source snippets for the
// command line tools. It knows nothing about checking; From converts the
// engine's diagnostics into its own form.
package diagnostic

import (
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/source"
)

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight in the diagnostic.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Line   int    // 1-based line number
	Col    int    // 1-based start column
	EndCol int    // 1-based end column (0 = auto-detect from source)
	Label  string // text shown under the underline
}

// Diagnostic represents a single error, warning, or note with optional
// source annotations and trailing notes.
type Diagnostic struct {
	Severity Severity
	Code     string // shown as error[code]
	Message  string
	Spans    []Span
	Notes    []string // "= note:" lines
}

// From converts engine diagnostics reported against the text of b. Spans
// that cross lines are underlined to the end of their first line.
func From(b *source.Buffer, ds []incr.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(ds))
	for _, d := range ds {
		out = append(out, Diagnostic{
			Severity: Severity(d.Severity),
			Code:     d.Code,
			Message:  d.Message,
			Spans:    []Span{spanOf(b, d.Span())},
		})
	}
	return out
}

func spanOf(b *source.Buffer, s incr.Span) Span {
	start := b.Position(s.Start)
	sp := Span{File: b.Name, Line: start.Line + 1, Col: start.Col + 1}
	if s.End > s.Start {
		end := b.Position(s.End - 1)
		if end.Line == start.Line {
			sp.EndCol = end.Col + 1
		} else {
			sp.EndCol = len(b.Line(start.Line))
		}
	}
	return sp
}

// Count returns the number of errors and warnings in ds.
func Count(ds []Diagnostic) (errs, warnings int) {
	for _, d := range ds {
		switch d.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warnings++
		}
	}
	return errs, warnings
}
