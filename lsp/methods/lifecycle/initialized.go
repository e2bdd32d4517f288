package lifecycle

import (
	"fmt"

	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Initialized handles the LSP initialized notification
func Initialized(req *types.RequestContext, params *protocol.InitializedParams) error {
	log.Info("Server initialized")

	// Stored for diagnostics published outside a request
	req.Server.SetGLSPContext(req.GLSP)

	// Watching is optional; the client keeps working without it
	if err := req.Server.RegisterFileWatchers(req.GLSP); err != nil {
		req.AddWarning(fmt.Errorf("failed to register file watchers: %w", err))
	}

	return nil
}
