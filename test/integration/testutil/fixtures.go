package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"bennypowers.dev/xmlls/lsp"
	"bennypowers.dev/xmlls/lsp/methods/textDocument"
	"bennypowers.dev/xmlls/lsp/types"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// FixtureRoot returns the path to the test fixtures directory
func FixtureRoot() string {
	return filepath.Join("..", "fixtures")
}

// LoadXMLFixture returns the content of a file under fixtures/xml
func LoadXMLFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(FixtureRoot(), "xml", name)
	data, err := os.ReadFile(path) //nolint:gosec // G304: Test fixture path - test code only
	require.NoError(t, err, "Failed to load XML fixture: %s", name)
	return string(data)
}

// NewTestServer creates a server that is closed when the test ends
func NewTestServer(t *testing.T) *lsp.Server {
	t.Helper()
	server, err := lsp.NewServer()
	require.NoError(t, err, "Failed to create test server")
	t.Cleanup(func() { _ = server.Close() })
	return server
}

// OpenXMLFixture opens a fixture in the server under uri
func OpenXMLFixture(t *testing.T, server *lsp.Server, uri, languageID, fixtureName string) string {
	t.Helper()
	content := LoadXMLFixture(t, fixtureName)
	params := &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: languageID,
			Version:    1,
			Text:       content,
		},
	}
	req := types.NewRequestContext(server, nil)
	require.NoError(t, textDocument.DidOpen(req, params), "Failed to open XML fixture: %s", fixtureName)
	return content
}
