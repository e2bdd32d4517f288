package helpers

import (
	"bennypowers.dev/xmlls/internal/documents"
	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/lsp/types"
)

// FeatureDocument returns the document at uri if it gets XML features:
// it is open, selected by ShouldProcess, and within the configured size
// limit. Otherwise it returns nil.
func FeatureDocument(ctx types.ServerContext, uri string) *documents.Document {
	doc := ctx.Document(uri)
	if doc == nil || !ctx.ShouldProcess(uri) {
		return nil
	}
	if limit := ctx.GetConfig().MaxDocumentSize; limit > 0 && len(doc.Content()) > limit {
		log.Debug("Skipping %s: %d bytes exceeds maxDocumentSize", uri, len(doc.Content()))
		return nil
	}
	return doc
}
