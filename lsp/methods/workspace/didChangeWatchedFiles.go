package workspace

import (
	"fmt"

	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/internal/uriutil"
	"bennypowers.dev/xmlls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DidChangeWatchedFiles handles the workspace/didChangeWatchedFiles
// notification. A change to a workspace configuration file reloads the
// configuration and republishes diagnostics.
func DidChangeWatchedFiles(req *types.RequestContext, params *protocol.DidChangeWatchedFilesParams) error {
	log.Debug("Watched files changed: %d files", len(params.Changes))

	needsReload := false
	for _, change := range params.Changes {
		path := uriutil.URIToPath(change.URI)
		log.Debug("File change: %s (type: %d)", path, change.Type)

		if req.Server.IsConfigFile(path) {
			if change.Type == protocol.FileChangeTypeDeleted {
				log.Info("Configuration file deleted: %s", path)
			}
			needsReload = true
		}
	}

	if !needsReload {
		return nil
	}

	log.Info("Reloading workspace configuration")
	if err := req.Server.LoadWorkspaceConfig(); err != nil {
		req.AddWarning(fmt.Errorf("failed to reload configuration: %w", err))
	}

	RepublishDiagnostics(req)
	return nil
}
