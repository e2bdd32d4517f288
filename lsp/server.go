package lsp

import (
	"fmt"
	"path/filepath"
	"sync"

	"bennypowers.dev/xmlls/internal/documents"
	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/internal/version"
	"bennypowers.dev/xmlls/lsp/methods/lifecycle"
	"bennypowers.dev/xmlls/lsp/methods/textDocument"
	"bennypowers.dev/xmlls/lsp/methods/textDocument/diagnostic"
	documentsymbol "bennypowers.dev/xmlls/lsp/methods/textDocument/documentSymbol"
	foldingrange "bennypowers.dev/xmlls/lsp/methods/textDocument/foldingRange"
	"bennypowers.dev/xmlls/lsp/methods/textDocument/hover"
	semantictokens "bennypowers.dev/xmlls/lsp/methods/textDocument/semanticTokens"
	"bennypowers.dev/xmlls/lsp/methods/workspace"
	"bennypowers.dev/xmlls/lsp/types"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

// Verify that Server implements ServerContext interface
var _ types.ServerContext = (*Server)(nil)

// Server is the XML regions language server
type Server struct {
	documents                  *documents.Manager
	glspServer                 *server.Server
	context                    *glsp.Context
	rootURI                    string             // Workspace root URI
	rootPath                   string             // Workspace root path (file system)
	config                     types.ServerConfig // Server configuration
	configFile                 string             // Workspace configuration file in effect, if any
	configMu                   sync.RWMutex       // Protects the fields above and the diagnostics model
	clientDiagnosticCapability *bool              // Detected from raw initialize params (nil = not detected yet)
	usePullDiagnostics         bool               // Pull (LSP 3.17) instead of push diagnostics
	semanticTokenCache         *semantictokens.TokenCache
}

// NewServer creates a new XML regions language server
func NewServer() (*Server, error) {
	s := &Server{
		documents:          documents.NewManager(),
		config:             types.DefaultConfig(),
		semanticTokenCache: semantictokens.NewTokenCache(),
	}

	protocolHandler := protocol.Handler{
		Initialize:                          method(s, "initialize", lifecycle.Initialize),
		Initialized:                         notify(s, "initialized", lifecycle.Initialized),
		Shutdown:                            noParam(s, "shutdown", lifecycle.Shutdown),
		SetTrace:                            notify(s, "$/setTrace", lifecycle.SetTrace),
		WorkspaceDidChangeConfiguration:     notify(s, "workspace/didChangeConfiguration", workspace.DidChangeConfiguration),
		WorkspaceDidChangeWatchedFiles:      notify(s, "workspace/didChangeWatchedFiles", workspace.DidChangeWatchedFiles),
		TextDocumentDidOpen:                 notify(s, "textDocument/didOpen", textDocument.DidOpen),
		TextDocumentDidChange:               notify(s, "textDocument/didChange", textDocument.DidChange),
		TextDocumentDidClose:                notify(s, "textDocument/didClose", textDocument.DidClose),
		TextDocumentHover:                   method(s, "textDocument/hover", hover.Hover),
		TextDocumentDocumentSymbol:          method(s, "textDocument/documentSymbol", documentsymbol.DocumentSymbol),
		TextDocumentFoldingRange:            method(s, "textDocument/foldingRange", foldingrange.FoldingRange),
		TextDocumentSemanticTokensFull:      method(s, "textDocument/semanticTokens/full", semantictokens.SemanticTokensFull),
		TextDocumentSemanticTokensFullDelta: method(s, "textDocument/semanticTokens/full/delta", semantictokens.SemanticTokensDelta),
		TextDocumentSemanticTokensRange:     method(s, "textDocument/semanticTokens/range", semantictokens.SemanticTokensRange),
	}

	// The CustomHandler intercepts LSP 3.17 methods (textDocument/diagnostic)
	// before they reach protocol.Handler, which only knows about LSP 3.16.
	customHandler := &CustomHandler{
		Handler: &protocolHandler,
		server:  s,
	}

	s.glspServer = server.NewServer(customHandler, version.ServerName, log.Enabled(log.LevelDebug))

	return s, nil
}

// RunStdio starts the LSP server using stdio transport
func (s *Server) RunStdio() error {
	return s.glspServer.RunStdio()
}

// Close drops open documents and cached results. It is safe to call Close
// multiple times.
func (s *Server) Close() error {
	for _, doc := range s.documents.GetAll() {
		s.semanticTokenCache.Invalidate(doc.URI())
		_ = s.documents.DidClose(doc.URI())
	}
	return nil
}

// ServerContext interface implementation

// Document returns the document with the given URI
func (s *Server) Document(uri string) *documents.Document {
	return s.documents.Get(uri)
}

// DocumentManager returns the document manager
func (s *Server) DocumentManager() *documents.Manager {
	return s.documents
}

// AllDocuments returns all tracked documents
func (s *Server) AllDocuments() []*documents.Document {
	return s.documents.GetAll()
}

// RootURI returns the workspace root URI
func (s *Server) RootURI() string {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.rootURI
}

// RootPath returns the workspace root path
func (s *Server) RootPath() string {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.rootPath
}

// SetRootURI sets the workspace root URI
func (s *Server) SetRootURI(uri string) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.rootURI = uri
}

// SetRootPath sets the workspace root path
func (s *Server) SetRootPath(path string) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.rootPath = path
}

// GLSPContext returns the GLSP context
func (s *Server) GLSPContext() *glsp.Context {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.context
}

// SetGLSPContext sets the GLSP context
func (s *Server) SetGLSPContext(ctx *glsp.Context) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.context = ctx
}

// ClientDiagnosticCapability returns the detected client diagnostic capability.
// Returns nil before initialize.
func (s *Server) ClientDiagnosticCapability() *bool {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.clientDiagnosticCapability
}

// SetClientDiagnosticCapability records whether the raw initialize params
// declared textDocument.diagnostic
func (s *Server) SetClientDiagnosticCapability(hasCapability bool) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.clientDiagnosticCapability = &hasCapability
}

// UsePullDiagnostics returns whether the client pulls diagnostics with
// textDocument/diagnostic instead of receiving textDocument/publishDiagnostics
func (s *Server) UsePullDiagnostics() bool {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.usePullDiagnostics
}

// SetUsePullDiagnostics sets whether to use pull diagnostics
func (s *Server) SetUsePullDiagnostics(use bool) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.usePullDiagnostics = use
}

// SemanticTokenCache returns the semantic tokens result cache
func (s *Server) SemanticTokenCache() types.SemanticTokenCacher {
	return s.semanticTokenCache
}

// PublishDiagnostics publishes diagnostics for a document
func (s *Server) PublishDiagnostics(context *glsp.Context, uri string) error {
	log.Debug("Publishing diagnostics for: %s", uri)

	workingContext := context
	if workingContext == nil {
		workingContext = s.GLSPContext()
	}
	if workingContext == nil {
		return fmt.Errorf("cannot publish diagnostics: no client context available")
	}

	// The client requests diagnostics itself
	if s.UsePullDiagnostics() {
		return nil
	}

	diagnostics, err := diagnostic.GetDiagnostics(s, uri)
	if err != nil {
		return err
	}

	// Contexts built in tests have no transport
	if workingContext.Notify == nil {
		return nil
	}
	workingContext.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
	return nil
}

// RegisterFileWatchers asks the client to watch the workspace configuration files
func (s *Server) RegisterFileWatchers(context *glsp.Context) error {
	// Contexts created in tests have no Call function
	if context == nil || context.Call == nil {
		log.Info("Skipping file watcher registration (no client context)")
		return nil
	}

	watchers := configWatchers(s.RootPath())
	params := protocol.RegistrationParams{
		Registrations: []protocol.Registration{
			{
				ID:     "xmlls-config-watcher",
				Method: "workspace/didChangeWatchedFiles",
				RegisterOptions: protocol.DidChangeWatchedFilesRegistrationOptions{
					Watchers: watchers,
				},
			},
		},
	}

	// client/registerCapability is a request. Calling it on the handler
	// goroutine would deadlock: the response is read by the same loop.
	go func(ctx *glsp.Context) {
		var result any
		ctx.Call("client/registerCapability", params, &result)
		log.Debug("File watcher registration completed")
	}(context)

	log.Info("Sent file watcher registration request (%d watchers)", len(watchers))
	return nil
}

// configWatchers returns one watcher per configuration file name, anchored
// at the workspace root when there is one
func configWatchers(rootPath string) []protocol.FileSystemWatcher {
	watchers := make([]protocol.FileSystemWatcher, 0, len(types.ConfigFileNames))
	for _, name := range types.ConfigFileNames {
		pattern := "**/" + name
		if rootPath != "" {
			pattern = filepath.ToSlash(filepath.Join(rootPath, name))
		}
		watchers = append(watchers, protocol.FileSystemWatcher{GlobPattern: pattern})
	}
	return watchers
}
