package testutil

import (
	"fmt"
	"sync"

	"bennypowers.dev/xmlls/internal/documents"
	"bennypowers.dev/xmlls/lsp/types"
	"github.com/tliron/glsp"
)

// MockServerContext implements types.ServerContext for testing.
// It provides a minimal implementation with configurable behavior via callback functions.
type MockServerContext struct {
	docs        *documents.Manager
	rootURI     string
	rootPath    string
	config      types.ServerConfig
	glspContext *glsp.Context
	cache       *MockTokenCache

	clientDiagnosticCapability *bool
	usePullDiagnostics         bool

	// Optional callbacks for custom behavior in tests
	LoadConfigFunc         func() error
	RegisterWatchersFunc   func(*glsp.Context) error
	ShouldProcessFunc      func(uri string) bool
	IsConfigFileFunc       func(path string) bool
	PublishDiagnosticsFunc func(*glsp.Context, string) error

	// Tracking for tests that need to verify methods were called
	mu                     sync.Mutex
	LoadConfigCalled       bool
	RegisterWatchersCalled bool
	PublishedURIs          []string
}

// NewMockServerContext creates a new mock server context with default behavior
func NewMockServerContext() *MockServerContext {
	return &MockServerContext{
		docs:   documents.NewManager(),
		config: types.DefaultConfig(),
		cache:  NewMockTokenCache(),
	}
}

// Document returns the document with the given URI
func (m *MockServerContext) Document(uri string) *documents.Document {
	return m.docs.Get(uri)
}

// DocumentManager returns the document manager
func (m *MockServerContext) DocumentManager() *documents.Manager {
	return m.docs
}

// AllDocuments returns all tracked documents
func (m *MockServerContext) AllDocuments() []*documents.Document {
	return m.docs.GetAll()
}

// RootURI returns the workspace root URI
func (m *MockServerContext) RootURI() string {
	return m.rootURI
}

// RootPath returns the workspace root path
func (m *MockServerContext) RootPath() string {
	return m.rootPath
}

// SetRootURI sets the workspace root URI
func (m *MockServerContext) SetRootURI(uri string) {
	m.rootURI = uri
}

// SetRootPath sets the workspace root path
func (m *MockServerContext) SetRootPath(path string) {
	m.rootPath = path
}

// GetConfig returns the server configuration
func (m *MockServerContext) GetConfig() types.ServerConfig {
	return m.config
}

// SetConfig sets the server configuration
func (m *MockServerContext) SetConfig(config types.ServerConfig) {
	m.config = config
}

// LoadWorkspaceConfig records the call and runs LoadConfigFunc
func (m *MockServerContext) LoadWorkspaceConfig() error {
	m.LoadConfigCalled = true
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc()
	}
	return nil
}

// IsConfigFile runs IsConfigFileFunc, false by default
func (m *MockServerContext) IsConfigFile(path string) bool {
	if m.IsConfigFileFunc != nil {
		return m.IsConfigFileFunc(path)
	}
	return false
}

// ShouldProcess runs ShouldProcessFunc; by default every open document is processed
func (m *MockServerContext) ShouldProcess(uri string) bool {
	if m.ShouldProcessFunc != nil {
		return m.ShouldProcessFunc(uri)
	}
	return m.docs.Get(uri) != nil
}

// RegisterFileWatchers records the call and runs RegisterWatchersFunc
func (m *MockServerContext) RegisterFileWatchers(ctx *glsp.Context) error {
	m.RegisterWatchersCalled = true
	if m.RegisterWatchersFunc != nil {
		return m.RegisterWatchersFunc(ctx)
	}
	return nil
}

// GLSPContext returns the GLSP context
func (m *MockServerContext) GLSPContext() *glsp.Context {
	return m.glspContext
}

// SetGLSPContext sets the GLSP context
func (m *MockServerContext) SetGLSPContext(ctx *glsp.Context) {
	m.glspContext = ctx
}

// ClientDiagnosticCapability returns the detected client diagnostic capability
func (m *MockServerContext) ClientDiagnosticCapability() *bool {
	return m.clientDiagnosticCapability
}

// SetClientDiagnosticCapability sets the detected client diagnostic capability
func (m *MockServerContext) SetClientDiagnosticCapability(hasCapability bool) {
	m.clientDiagnosticCapability = &hasCapability
}

// UsePullDiagnostics returns whether pull diagnostics are in use
func (m *MockServerContext) UsePullDiagnostics() bool {
	return m.usePullDiagnostics
}

// SetUsePullDiagnostics sets whether pull diagnostics are in use
func (m *MockServerContext) SetUsePullDiagnostics(use bool) {
	m.usePullDiagnostics = use
}

// PublishDiagnostics records the URI and runs PublishDiagnosticsFunc
func (m *MockServerContext) PublishDiagnostics(ctx *glsp.Context, uri string) error {
	m.mu.Lock()
	m.PublishedURIs = append(m.PublishedURIs, uri)
	m.mu.Unlock()
	if m.PublishDiagnosticsFunc != nil {
		return m.PublishDiagnosticsFunc(ctx, uri)
	}
	return nil
}

// Published returns the URIs passed to PublishDiagnostics so far
func (m *MockServerContext) Published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.PublishedURIs...)
}

// SemanticTokenCache returns the mock's token cache
func (m *MockServerContext) SemanticTokenCache() types.SemanticTokenCacher {
	return m.cache
}

// MockTokenCache is a map-backed types.SemanticTokenCacher
type MockTokenCache struct {
	mu      sync.Mutex
	entries map[string]*types.SemanticTokenCacheEntry // uri -> entry
	next    int
}

// NewMockTokenCache creates an empty MockTokenCache
func NewMockTokenCache() *MockTokenCache {
	return &MockTokenCache{entries: make(map[string]*types.SemanticTokenCacheEntry)}
}

// Store replaces the entry for uri and returns its result id
func (c *MockTokenCache) Store(uri string, data []uint32, version int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	id := fmt.Sprintf("mock-%d", c.next)
	c.entries[uri] = &types.SemanticTokenCacheEntry{
		ResultID: id,
		Data:     append([]uint32(nil), data...),
		Version:  version,
	}
	return id
}

// Get returns the entry with the given result id
func (c *MockTokenCache) Get(resultID string) *types.SemanticTokenCacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.ResultID == resultID {
			return e
		}
	}
	return nil
}

// GetForURI returns the entry with the given result id if it belongs to uri
func (c *MockTokenCache) GetForURI(resultID, uri string) *types.SemanticTokenCacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[uri]; ok && e.ResultID == resultID {
		return e
	}
	return nil
}

// Invalidate drops the entry for uri
func (c *MockTokenCache) Invalidate(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, uri)
}
