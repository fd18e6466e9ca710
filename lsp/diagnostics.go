// Copyright © 2024 The ELPS authors

package lsp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/source"
	"github.com/luthersystems/tdl/workspace"
)

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(params.TextDocument.URI, int32(params.TextDocument.Version))
	if _, ok := s.ws.Get(doc.File); ok {
		if _, err := s.ws.Replace(context.Background(), doc.File, params.TextDocument.Text); err != nil {
			return err
		}
	} else {
		s.ws.Open(doc.File, params.TextDocument.Text)
	}
	s.checkAndPublish(context.Background())
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
// Ranged changes are applied as incremental edits in order.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return fmt.Errorf("%s: %w", params.TextDocument.URI, workspace.ErrNotOpen)
	}
	s.docs.SetVersion(doc.URI, int32(params.TextDocument.Version))
	for _, change := range params.ContentChanges {
		var err error
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			_, err = s.ws.Replace(context.Background(), doc.File, c.Text)
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				_, err = s.ws.Replace(context.Background(), doc.File, c.Text)
				break
			}
			err = s.applyChange(doc.File, *c.Range, c.Text)
		}
		if err != nil {
			return err
		}
	}
	s.schedule()
	return nil
}

// applyChange applies one ranged content change.
func (s *Server) applyChange(file string, r protocol.Range, text string) error {
	m, ok := s.ws.Get(file)
	if !ok {
		return fmt.Errorf("%s: %w", file, workspace.ErrNotOpen)
	}
	var e incr.Edit
	var err error
	m.View(func(v *workspace.View) {
		var start, end int
		if start, err = bufferOffset(v.Buffer, r.Start); err != nil {
			return
		}
		if end, err = bufferOffset(v.Buffer, r.End); err != nil {
			return
		}
		e = incr.Edit{Offset: start, Removed: end - start, Inserted: len(text)}
	})
	if err != nil {
		return fmt.Errorf("%s: change %v: %w", file, r, err)
	}
	out, err := s.ws.ApplyEdit(context.Background(), file, e, text)
	if err != nil {
		return err
	}
	entry := s.log.WithFields(logrus.Fields{"file": file, "edit": e.String(), "outcome": out.Kind.String()})
	if out.Reason != nil && !errors.Is(out.Reason, workspace.ErrNeedsRebuild) {
		entry = entry.WithError(out.Reason)
	}
	entry.Debug("change applied")
	return nil
}

// schedule checks the workspace once changes stop arriving for the
// debounce delay.
func (s *Server) schedule() {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(s.debounceDelay, func() {
		defer func() { _ = recover() }() // don't crash the server on analysis panic
		s.checkAndPublish(context.Background())
	})
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	s.debounceMu.Lock()
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	s.debounceMu.Unlock()
	s.checkAndPublish(context.Background())
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	s.docs.Close(doc.URI)

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.onDiskMu.Lock()
	project := s.onDisk[doc.File]
	s.onDiskMu.Unlock()
	if !project {
		s.ws.Close(doc.File)
		s.schedule()
		return nil
	}
	// Project modules fall back to their saved text.
	text, err := os.ReadFile(doc.File)
	if err != nil {
		s.ws.Close(doc.File)
		s.schedule()
		return nil
	}
	if _, err := s.ws.Replace(context.Background(), doc.File, string(text)); err != nil {
		return err
	}
	s.schedule()
	return nil
}

// checkAndPublish checks the workspace and publishes the diagnostics of
// every open document.
func (s *Server) checkAndPublish(ctx context.Context) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	if _, err := s.ws.Check(ctx); err != nil {
		s.log.WithError(err).Warn("check failed")
		return
	}
	for _, doc := range s.docs.All() {
		m, ok := s.ws.Get(doc.File)
		if !ok {
			continue
		}
		var diags []protocol.Diagnostic
		m.View(func(v *workspace.View) {
			if v.Result == nil {
				return
			}
			diags = convertDiagnostics(v.Buffer, v.Result.Diagnostics)
		})
		version := protocol.UInteger(0)
		if doc.Version > 0 {
			version = safeUint(int(doc.Version))
		}
		s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
			URI:         doc.URI,
			Version:     &version,
			Diagnostics: diags,
		})
	}
}

// convertDiagnostics converts engine diagnostics to LSP diagnostics.
func convertDiagnostics(b *source.Buffer, ds []incr.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(ds))
	for _, d := range ds {
		sev := mapSeverity(d.Severity)
		pd := protocol.Diagnostic{
			Range:    lspRange(b, d.Span()),
			Severity: &sev,
			Source:   strPtr("tdl"),
			Message:  d.Message,
		}
		if d.Code != "" {
			pd.Code = &protocol.IntegerOrString{Value: d.Code}
		}
		out = append(out, pd)
	}
	return out
}

// mapSeverity converts an incr.Severity to a protocol.DiagnosticSeverity.
func mapSeverity(sev incr.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case incr.SeverityError:
		return protocol.DiagnosticSeverityError
	case incr.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}
