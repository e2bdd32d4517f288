package lifecycle

import (
	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/lsp/types"
)

// Shutdown handles the LSP shutdown request. Open documents are dropped
// along with their cached semantic tokens.
func Shutdown(req *types.RequestContext) error {
	log.Info("Server shutting down")

	cache := req.Server.SemanticTokenCache()
	for _, doc := range req.Server.AllDocuments() {
		cache.Invalidate(doc.URI())
		if err := req.Server.DocumentManager().DidClose(doc.URI()); err != nil {
			req.AddWarning(err)
		}
	}
	return nil
}
