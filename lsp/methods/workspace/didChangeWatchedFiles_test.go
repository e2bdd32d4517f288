package workspace

import (
	"errors"
	"path/filepath"
	"testing"

	"bennypowers.dev/xmlls/lsp/testutil"
	"bennypowers.dev/xmlls/lsp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func newWatchedFilesContext(t *testing.T) *testutil.MockServerContext {
	t.Helper()
	ctx := testutil.NewMockServerContext()
	ctx.SetGLSPContext(&glsp.Context{})
	ctx.IsConfigFileFunc = func(path string) bool {
		return filepath.Base(path) == ".xmlls.yaml"
	}
	require.NoError(t, ctx.DocumentManager().DidOpen("file:///workspace/a.xml", "xml", 1, "<a/>"))
	return ctx
}

func TestDidChangeWatchedFiles(t *testing.T) {
	t.Run("configuration file change reloads", func(t *testing.T) {
		ctx := newWatchedFilesContext(t)

		err := DidChangeWatchedFiles(types.NewRequestContext(ctx, nil), &protocol.DidChangeWatchedFilesParams{
			Changes: []protocol.FileEvent{
				{URI: "file:///workspace/.xmlls.yaml", Type: protocol.FileChangeTypeChanged},
			},
		})
		require.NoError(t, err)

		assert.True(t, ctx.LoadConfigCalled)
		assert.Equal(t, []string{"file:///workspace/a.xml"}, ctx.Published())
	})

	t.Run("configuration file deleted", func(t *testing.T) {
		ctx := newWatchedFilesContext(t)

		err := DidChangeWatchedFiles(types.NewRequestContext(ctx, nil), &protocol.DidChangeWatchedFilesParams{
			Changes: []protocol.FileEvent{
				{URI: "file:///workspace/.xmlls.yaml", Type: protocol.FileChangeTypeDeleted},
			},
		})
		require.NoError(t, err)
		assert.True(t, ctx.LoadConfigCalled)
	})

	t.Run("other files are ignored", func(t *testing.T) {
		ctx := newWatchedFilesContext(t)

		err := DidChangeWatchedFiles(types.NewRequestContext(ctx, nil), &protocol.DidChangeWatchedFilesParams{
			Changes: []protocol.FileEvent{
				{URI: "file:///workspace/b.xml", Type: protocol.FileChangeTypeCreated},
			},
		})
		require.NoError(t, err)

		assert.False(t, ctx.LoadConfigCalled)
		assert.Empty(t, ctx.Published())
	})

	t.Run("reload failure is a warning", func(t *testing.T) {
		ctx := newWatchedFilesContext(t)
		ctx.LoadConfigFunc = func() error { return errors.New("bad yaml") }
		req := types.NewRequestContext(ctx, nil)

		err := DidChangeWatchedFiles(req, &protocol.DidChangeWatchedFilesParams{
			Changes: []protocol.FileEvent{
				{URI: "file:///workspace/.xmlls.yaml", Type: protocol.FileChangeTypeChanged},
			},
		})
		require.NoError(t, err)

		require.Len(t, req.Warnings(), 1)
		assert.ErrorContains(t, req.Warnings()[0], "bad yaml")
		assert.Len(t, ctx.Published(), 1)
	})
}
