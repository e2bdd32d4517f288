package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"bennypowers.dev/xmlls/lsp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer()
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	return server
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWorkspaceConfig(t *testing.T) {
	t.Run("yaml file", func(t *testing.T) {
		root := t.TempDir()
		path := writeFile(t, root, ".xmlls.yaml", "exclude:\n  - build/**\nwellFormedness: false\nlanguageIds: [xaml]\n")

		server := newTestServer(t)
		server.SetRootPath(root)
		require.NoError(t, server.LoadWorkspaceConfig())

		config := server.GetConfig()
		assert.Equal(t, []string{"build/**"}, config.Exclude)
		assert.Equal(t, []string{"xaml"}, config.LanguageIDs)
		assert.False(t, config.WellFormedness)
		// Keys missing from the file keep their value
		assert.True(t, config.SemanticTokens)
		assert.Equal(t, types.DefaultConfig().MaxDocumentSize, config.MaxDocumentSize)

		assert.True(t, server.IsConfigFile(path))
	})

	t.Run("json file with comments", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".xmllsrc.json", `{
			// folding is noisy in generated files
			"foldingRanges": false,
			"maxDocumentSize": 1024 /* bytes */
		}`)

		server := newTestServer(t)
		server.SetRootPath(root)
		require.NoError(t, server.LoadWorkspaceConfig())

		config := server.GetConfig()
		assert.False(t, config.FoldingRanges)
		assert.Equal(t, 1024, config.MaxDocumentSize)
	})

	t.Run("yaml is preferred over json", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".xmlls.yml", "semanticTokens: false\n")
		writeFile(t, root, ".xmllsrc.json", `{"foldingRanges": false}`)

		server := newTestServer(t)
		server.SetRootPath(root)
		require.NoError(t, server.LoadWorkspaceConfig())

		config := server.GetConfig()
		assert.False(t, config.SemanticTokens)
		assert.True(t, config.FoldingRanges)
	})

	t.Run("no file", func(t *testing.T) {
		server := newTestServer(t)
		server.SetRootPath(t.TempDir())
		require.NoError(t, server.LoadWorkspaceConfig())
		assert.Equal(t, types.DefaultConfig(), server.GetConfig())
	})

	t.Run("no workspace root", func(t *testing.T) {
		server := newTestServer(t)
		require.NoError(t, server.LoadWorkspaceConfig())
		assert.Equal(t, types.DefaultConfig(), server.GetConfig())
	})

	t.Run("malformed file keeps the configuration", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".xmlls.yaml", "semanticTokens: [\n")

		server := newTestServer(t)
		server.SetRootPath(root)
		err := server.LoadWorkspaceConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".xmlls.yaml")
		assert.Equal(t, types.DefaultConfig(), server.GetConfig())
	})

	t.Run("bad glob pattern", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".xmlls.yaml", "include:\n  - \"src/[a-\"\n")

		server := newTestServer(t)
		server.SetRootPath(root)
		err := server.LoadWorkspaceConfig()
		assert.ErrorContains(t, err, "bad glob pattern")
	})

	t.Run("unknown log level", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".xmlls.yaml", "logLevel: loud\n")

		server := newTestServer(t)
		server.SetRootPath(root)
		assert.ErrorContains(t, server.LoadWorkspaceConfig(), "unknown log level")
	})
}

func TestIsConfigFile(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "workspace")
	server := newTestServer(t)
	server.SetRootPath(root)

	assert.True(t, server.IsConfigFile(filepath.Join(root, ".xmlls.yaml")))
	assert.True(t, server.IsConfigFile(filepath.Join(root, ".xmllsrc.json")))
	assert.False(t, server.IsConfigFile(filepath.Join(root, "nested", ".xmlls.yaml")))
	assert.False(t, server.IsConfigFile(filepath.Join(root, "settings.yaml")))
}

func TestShouldProcess(t *testing.T) {
	server := newTestServer(t)
	server.SetRootPath("/workspace")

	open := func(uri, languageID, content string) string {
		require.NoError(t, server.DocumentManager().DidOpen(uri, languageID, 1, content))
		return uri
	}

	xml := open("file:///workspace/a.xml", "xml", "<a/>")
	svg := open("file:///workspace/icon.svg", "SVG", "<svg/>")
	sniffed := open("file:///workspace/data.txt", "plaintext", "  <?xml version=\"1.0\"?><a/>")
	text := open("file:///workspace/notes.txt", "plaintext", "a < b")
	built := open("file:///workspace/build/out.xml", "xml", "<out/>")
	xaml := open("file:///workspace/App.xaml", "xaml", "")

	t.Run("language id and content", func(t *testing.T) {
		assert.True(t, server.ShouldProcess(xml))
		assert.True(t, server.ShouldProcess(svg))
		assert.True(t, server.ShouldProcess(sniffed))
		assert.False(t, server.ShouldProcess(text))
		assert.False(t, server.ShouldProcess(xaml))
		assert.False(t, server.ShouldProcess("file:///workspace/closed.xml"))
	})

	t.Run("configuration", func(t *testing.T) {
		config := types.DefaultConfig()
		config.Exclude = []string{"build/**"}
		config.Include = []string{"**/notes.txt", "build/**"}
		config.LanguageIDs = []string{"xaml"}
		server.SetConfig(config)
		t.Cleanup(func() { server.SetConfig(types.DefaultConfig()) })

		assert.False(t, server.ShouldProcess(built), "exclude wins over include")
		assert.True(t, server.ShouldProcess(text))
		assert.True(t, server.ShouldProcess(xaml))
		assert.True(t, server.ShouldProcess(xml))
	})
}
