package textDocument

import (
	"fmt"

	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/lsp/methods/workspace"
	"bennypowers.dev/xmlls/lsp/types"
	"github.com/dustin/go-humanize"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DidOpen handles the textDocument/didOpen notification
func DidOpen(req *types.RequestContext, params *protocol.DidOpenTextDocumentParams) error {
	log.Info("Document opened: %s (language: %s, version: %d)",
		params.TextDocument.URI, params.TextDocument.LanguageID, int(params.TextDocument.Version))

	err := req.Server.DocumentManager().DidOpen(params.TextDocument.URI, params.TextDocument.LanguageID,
		int(params.TextDocument.Version), params.TextDocument.Text)
	if err != nil {
		return err
	}

	warnTooLarge(req, params.TextDocument.URI, len(params.TextDocument.Text))
	publish(req, params.TextDocument.URI)
	return nil
}

// warnTooLarge tells the user once per open that a document gets no XML
// features because of maxDocumentSize
func warnTooLarge(req *types.RequestContext, uri string, size int) {
	limit := req.Server.GetConfig().MaxDocumentSize
	if limit <= 0 || size <= limit {
		return
	}
	workspace.ShowMessage(req.GLSP, protocol.MessageTypeWarning, fmt.Sprintf(
		"%s is %s, XML features are disabled above %s (maxDocumentSize)",
		uri, humanize.Bytes(uint64(size)), humanize.Bytes(uint64(limit))))
}

// DidChange handles the textDocument/didChange notification
func DidChange(req *types.RequestContext, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	version := int(params.TextDocument.Version)

	log.Debug("Document changed: %s (version: %d, changes: %d)", uri, version, len(params.ContentChanges))

	changes, err := contentChanges(params.ContentChanges)
	if err != nil {
		return err
	}

	if err := req.Server.DocumentManager().DidChange(uri, version, changes); err != nil {
		return err
	}

	publish(req, uri)
	return nil
}

// contentChanges converts the decoded change events. Whole-document
// replacements become events without a range.
func contentChanges(raw []any) ([]protocol.TextDocumentContentChangeEvent, error) {
	changes := make([]protocol.TextDocumentContentChangeEvent, 0, len(raw))
	for _, change := range raw {
		switch event := change.(type) {
		case protocol.TextDocumentContentChangeEvent:
			changes = append(changes, event)
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, protocol.TextDocumentContentChangeEvent{Text: event.Text})
		default:
			return nil, fmt.Errorf("unsupported content change %T", change)
		}
	}
	return changes, nil
}

// DidClose handles the textDocument/didClose notification
func DidClose(req *types.RequestContext, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	log.Info("Document closed: %s", uri)

	req.Server.SemanticTokenCache().Invalidate(uri)
	return req.Server.DocumentManager().DidClose(uri)
}

// publish pushes diagnostics for uri unless the client pulls them
func publish(req *types.RequestContext, uri string) {
	if req.Server.UsePullDiagnostics() {
		return
	}
	glspCtx := req.Server.GLSPContext()
	if glspCtx == nil {
		return
	}
	if err := req.Server.PublishDiagnostics(glspCtx, uri); err != nil {
		req.AddWarning(fmt.Errorf("failed to publish diagnostics for %s: %w", uri, err))
	}
}
