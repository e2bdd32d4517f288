package types

import (
	"bennypowers.dev/xmlls/internal/documents"
	"github.com/tliron/glsp"
)

// ServerContext provides all dependencies needed for LSP handlers.
// Handlers depend on this interface rather than on the server so tests can
// substitute testutil.MockServerContext.
type ServerContext interface {
	// Document operations
	Document(uri string) *documents.Document
	DocumentManager() *documents.Manager
	AllDocuments() []*documents.Document

	// Workspace operations
	RootURI() string
	RootPath() string
	SetRootURI(uri string)
	SetRootPath(path string)

	// Configuration
	GetConfig() ServerConfig
	SetConfig(config ServerConfig)
	LoadWorkspaceConfig() error
	IsConfigFile(path string) bool

	// ShouldProcess reports whether the document gets XML features
	ShouldProcess(uri string) bool

	// Workspace initialization (called by Initialized handler)
	RegisterFileWatchers(ctx *glsp.Context) error

	// LSP context (for publishing diagnostics, etc.)
	GLSPContext() *glsp.Context
	SetGLSPContext(ctx *glsp.Context)

	// Diagnostics model, detected from the raw initialize params
	ClientDiagnosticCapability() *bool
	SetClientDiagnosticCapability(hasCapability bool)
	UsePullDiagnostics() bool
	SetUsePullDiagnostics(use bool)
	PublishDiagnostics(context *glsp.Context, uri string) error

	// Semantic tokens results, for delta requests
	SemanticTokenCache() SemanticTokenCacher
}

// SemanticTokenCacheEntry is a semantic tokens result sent to the client
type SemanticTokenCacheEntry struct {
	ResultID string
	Data     []uint32
	Version  int
}

// SemanticTokenCacher stores the last semantic tokens result per document
type SemanticTokenCacher interface {
	Store(uri string, data []uint32, version int) string
	Get(resultID string) *SemanticTokenCacheEntry
	GetForURI(resultID, uri string) *SemanticTokenCacheEntry
	Invalidate(uri string)
}
