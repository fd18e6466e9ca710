// Copyright © 2024 The ELPS authors

// Package lsp implements a Language Server Protocol server for tdl.
// Documents are synchronized incrementally: every content change is fed to
// the workspace as an edit, so unchanged definitions keep their syntax
// trees and diagnostics. The server provides diagnostics, hover,
// go-to-definition, references, completion and document and workspace
// symbols.
package lsp

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/tdl/workspace"
)

const serverName = "tdl-lsp"

// DefaultDebounce is the delay between the last change notification and
// the check that follows it.
const DefaultDebounce = 300 * time.Millisecond

// Server is the tdl language server.
type Server struct {
	handler  protocol.Handler
	glspSrv  *glspserver.Server
	ws       *workspace.Workspace
	docs     *DocumentStore
	log      *logrus.Entry
	rootURI  string
	rootPath string

	// onDisk holds files loaded from the project manifest. They stay in
	// the workspace when their documents close.
	onDiskMu sync.Mutex
	onDisk   map[string]bool

	// Debouncer for didChange notifications. One timer covers the whole
	// workspace because an edit can change the diagnostics of importers.
	debounceMu    sync.Mutex
	debounce      *time.Timer
	debounceDelay time.Duration

	// publishMu serializes check and publish passes.
	publishMu sync.Mutex

	// Context for sending notifications (captured from latest request).
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// exitFn is called on the LSP exit notification. Defaults to os.Exit.
	// Overridable for testing.
	exitFn func(int)
}

// Option configures the LSP server.
type Option func(*Server)

// WithWorkspace makes the server operate on ws.
func WithWorkspace(ws *workspace.Workspace) Option {
	return func(s *Server) { s.ws = ws }
}

// WithLogger sets the logger of the server.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Server) { s.log = l.WithField("component", "lsp") }
}

// WithDebounce sets the delay between a change and the check it triggers.
func WithDebounce(d time.Duration) Option {
	return func(s *Server) { s.debounceDelay = d }
}

// New creates a new language server.
func New(opts ...Option) *Server {
	s := &Server{
		docs:          NewDocumentStore(),
		onDisk:        make(map[string]bool),
		debounceDelay: DefaultDebounce,
		exitFn:        os.Exit,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = logrus.NewEntry(l)
	}
	if s.ws == nil {
		s.ws = workspace.New(workspace.WithLogger(s.log.Logger))
	}

	s.handler = protocol.Handler{
		Initialize: s.initialize,
		Shutdown:   s.shutdown,
		Exit:       s.exit,
		SetTrace:   s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover:          s.textDocumentHover,
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentReferences:     s.textDocumentReferences,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		TextDocumentRename:         s.textDocumentRename,
		TextDocumentPrepareRename:  s.textDocumentPrepareRename,
		TextDocumentSignatureHelp:  s.textDocumentSignatureHelp,
		TextDocumentFoldingRange:   s.textDocumentFoldingRange,
		WorkspaceSymbol:            s.workspaceSymbol,
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// Workspace returns the workspace the server operates on.
func (s *Server) Workspace() *workspace.Workspace {
	return s.ws
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

// initialize handles the LSP initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotify(ctx)

	if params.RootURI != nil {
		s.rootURI = *params.RootURI
		s.rootPath = uriToPath(s.rootURI)
	} else if params.RootPath != nil {
		s.rootPath = *params.RootPath
		s.rootURI = pathToURI(s.rootPath)
	}
	if s.rootPath != "" {
		s.loadProject(context.Background())
	}

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.RenameProvider = &protocol.RenameOptions{
		PrepareProvider: boolPtr(true),
	}
	capabilities.SignatureHelpProvider = &protocol.SignatureHelpOptions{
		TriggerCharacters:   []string{"(", ","},
		RetriggerCharacters: []string{")"},
	}

	version := "0.1.0"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

// loadProject opens the modules listed by the manifest governing the
// workspace root, so imports of unopened modules resolve.
func (s *Server) loadProject(ctx context.Context) {
	path, ok := workspace.FindManifest(s.rootPath)
	if !ok {
		return
	}
	m, err := workspace.LoadManifest(path)
	if err != nil {
		s.log.WithError(err).Warn("ignoring project manifest")
		return
	}
	files, err := m.Files()
	if err != nil {
		s.log.WithError(err).Warn("listing project sources")
		return
	}
	if err := s.ws.LoadFiles(ctx, files); err != nil {
		s.log.WithError(err).Warn("loading project sources")
	}
	s.onDiskMu.Lock()
	for _, f := range files {
		s.onDisk[f] = true
	}
	s.onDiskMu.Unlock()
	s.log.WithFields(logrus.Fields{"manifest": path, "modules": len(files)}).Info("project loaded")
}

// shutdown handles the LSP shutdown request.
func (s *Server) shutdown(ctx *glsp.Context) error {
	s.debounceMu.Lock()
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	s.debounceMu.Unlock()
	return nil
}

// exit handles the LSP exit notification by terminating the process.
func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

// setTrace handles the $/setTrace notification (required by some clients).
func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// captureNotify stores the notification function from the context for
// async use (e.g., publishing diagnostics after a debounce).
func (s *Server) captureNotify(ctx *glsp.Context) {
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

// sendNotification sends a notification to the client.
func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	fn := s.notify
	s.notifyMu.Unlock()
	if fn != nil {
		fn(method, params)
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
