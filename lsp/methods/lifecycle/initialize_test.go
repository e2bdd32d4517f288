package lifecycle

import (
	"encoding/json"
	"errors"
	"testing"

	"bennypowers.dev/xmlls/internal/version"
	"bennypowers.dev/xmlls/lsp/testutil"
	"bennypowers.dev/xmlls/lsp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func initialize(t *testing.T, ctx *testutil.MockServerContext, params *protocol.InitializeParams) (InitializeResult, *types.RequestContext) {
	t.Helper()
	req := types.NewRequestContext(ctx, nil)
	result, err := Initialize(req, params)
	require.NoError(t, err)
	initResult, ok := result.(InitializeResult)
	require.True(t, ok)
	return initResult, req
}

func TestInitialize(t *testing.T) {
	t.Run("sets root from rootUri", func(t *testing.T) {
		ctx := testutil.NewMockServerContext()
		rootURI := "file:///workspace"

		initialize(t, ctx, &protocol.InitializeParams{RootURI: &rootURI})

		assert.Equal(t, "file:///workspace", ctx.RootURI())
		assert.Equal(t, "/workspace", ctx.RootPath())
	})

	t.Run("sets root from rootPath", func(t *testing.T) {
		ctx := testutil.NewMockServerContext()
		rootPath := "/workspace"

		initialize(t, ctx, &protocol.InitializeParams{RootPath: &rootPath})

		assert.Equal(t, "/workspace", ctx.RootPath())
		assert.Equal(t, "file:///workspace", ctx.RootURI())
	})

	t.Run("loads workspace configuration", func(t *testing.T) {
		ctx := testutil.NewMockServerContext()

		initialize(t, ctx, &protocol.InitializeParams{})

		assert.True(t, ctx.LoadConfigCalled)
	})

	t.Run("configuration errors are warnings", func(t *testing.T) {
		ctx := testutil.NewMockServerContext()
		ctx.LoadConfigFunc = func() error { return errors.New("bad yaml") }

		_, req := initialize(t, ctx, &protocol.InitializeParams{})

		require.Len(t, req.Warnings(), 1)
		assert.ErrorContains(t, req.Warnings()[0], "bad yaml")
	})

	t.Run("initialization options override the workspace file", func(t *testing.T) {
		ctx := testutil.NewMockServerContext()
		ctx.LoadConfigFunc = func() error {
			cfg := ctx.GetConfig()
			cfg.FoldingRanges = false
			cfg.SemanticTokens = false
			ctx.SetConfig(cfg)
			return nil
		}

		initialize(t, ctx, &protocol.InitializeParams{
			InitializationOptions: map[string]any{"semanticTokens": true},
		})

		assert.True(t, ctx.GetConfig().SemanticTokens)
		assert.False(t, ctx.GetConfig().FoldingRanges)
	})

	t.Run("server info", func(t *testing.T) {
		result, _ := initialize(t, testutil.NewMockServerContext(), &protocol.InitializeParams{})

		require.NotNil(t, result.ServerInfo)
		assert.Equal(t, version.ServerName, result.ServerInfo.Name)
		require.NotNil(t, result.ServerInfo.Version)
		assert.Equal(t, version.GetVersion(), *result.ServerInfo.Version)
	})
}

func TestInitialize_Diagnostics(t *testing.T) {
	t.Run("push when capability not detected", func(t *testing.T) {
		ctx := testutil.NewMockServerContext()

		result, _ := initialize(t, ctx, &protocol.InitializeParams{})

		assert.False(t, ctx.UsePullDiagnostics())
		assert.NotContains(t, result.Capabilities, "diagnosticProvider")
	})

	t.Run("pull when the client declares it", func(t *testing.T) {
		ctx := testutil.NewMockServerContext()
		ctx.SetClientDiagnosticCapability(true)

		result, _ := initialize(t, ctx, &protocol.InitializeParams{})

		assert.True(t, ctx.UsePullDiagnostics())
		assert.Contains(t, result.Capabilities, "diagnosticProvider")
	})
}

func TestCapabilities(t *testing.T) {
	data, err := json.Marshal(Capabilities(false))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"textDocumentSync": {"openClose": true, "change": 2},
		"hoverProvider": true,
		"documentSymbolProvider": true,
		"foldingRangeProvider": true,
		"semanticTokensProvider": {
			"legend": {
				"tokenTypes": ["macro", "comment", "type", "property", "string"],
				"tokenModifiers": ["documentation"]
			},
			"full": {"delta": true},
			"range": true
		}
	}`, string(data))
}
