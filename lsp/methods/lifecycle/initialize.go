package lifecycle

import (
	"fmt"

	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/internal/uriutil"
	"bennypowers.dev/xmlls/internal/version"
	"bennypowers.dev/xmlls/lsp/methods/textDocument/diagnostic"
	semantictokens "bennypowers.dev/xmlls/lsp/methods/textDocument/semanticTokens"
	"bennypowers.dev/xmlls/lsp/methods/workspace"
	"bennypowers.dev/xmlls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// InitializeResult is the initialize response. Capabilities is a map so it
// can carry LSP 3.17 fields that protocol.ServerCapabilities lacks.
type InitializeResult struct {
	Capabilities map[string]any                       `json:"capabilities"`
	ServerInfo   *protocol.InitializeResultServerInfo `json:"serverInfo,omitempty"`
}

// Initialize handles the LSP initialize request
func Initialize(req *types.RequestContext, params *protocol.InitializeParams) (any, error) {
	clientName := "unknown"
	if params.ClientInfo != nil {
		clientName = params.ClientInfo.Name
	}
	log.Info("Initializing for client: %s", clientName)

	// The CustomHandler reads the raw params before this handler runs
	supportsPullDiagnostics := false
	if detected := req.Server.ClientDiagnosticCapability(); detected != nil {
		supportsPullDiagnostics = *detected
	}
	req.Server.SetUsePullDiagnostics(supportsPullDiagnostics)
	if supportsPullDiagnostics {
		log.Info("Using pull diagnostics model (LSP 3.17)")
	} else {
		log.Info("Using push diagnostics model")
	}

	if params.RootURI != nil {
		req.Server.SetRootURI(*params.RootURI)
		req.Server.SetRootPath(uriutil.URIToPath(*params.RootURI))
		log.Info("Workspace root: %s", req.Server.RootPath())
	} else if params.RootPath != nil {
		req.Server.SetRootPath(*params.RootPath)
		req.Server.SetRootURI(uriutil.PathToURI(*params.RootPath))
		log.Info("Workspace root (from rootPath): %s", req.Server.RootPath())
	}

	if err := req.Server.LoadWorkspaceConfig(); err != nil {
		req.AddWarning(fmt.Errorf("failed to load workspace configuration: %w", err))
	}

	// Initialization options hold the same settings as didChangeConfiguration,
	// without the section key. They win over the workspace file.
	if params.InitializationOptions != nil {
		options := map[string]any{types.SettingsSections[0]: params.InitializationOptions}
		config, err := workspace.ParseSettings(req.Server.GetConfig(), options)
		if err != nil {
			req.AddWarning(fmt.Errorf("failed to parse initialization options: %w", err))
		} else {
			req.Server.SetConfig(config)
		}
	}

	return InitializeResult{
		Capabilities: Capabilities(supportsPullDiagnostics),
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    version.ServerName,
			Version: strPtr(version.GetVersion()),
		},
	}, nil
}

// Capabilities returns the server capabilities advertised to the client.
// The diagnostic provider is only advertised to clients that pull diagnostics.
func Capabilities(pullDiagnostics bool) map[string]any {
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities := map[string]any{
		"textDocumentSync": protocol.TextDocumentSyncOptions{
			OpenClose: boolPtr(true),
			Change:    &syncKind,
		},
		"hoverProvider":          true,
		"documentSymbolProvider": true,
		"foldingRangeProvider":   true,
		"semanticTokensProvider": map[string]any{
			"legend": map[string]any{
				"tokenTypes":     semantictokens.TokenTypes,
				"tokenModifiers": semantictokens.TokenModifiers,
			},
			"full": map[string]any{
				"delta": true,
			},
			"range": true,
		},
	}

	if pullDiagnostics {
		capabilities["diagnosticProvider"] = diagnostic.DiagnosticOptions{
			InterFileDependencies: false,
			WorkspaceDiagnostics:  false,
		}
	}
	return capabilities
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
