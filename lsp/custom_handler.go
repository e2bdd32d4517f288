package lsp

import (
	"encoding/json"

	"bennypowers.dev/xmlls/lsp/methods/textDocument/diagnostic"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// CustomHandler wraps protocol.Handler to add the LSP 3.17 methods that glsp
// v0.2.2 does not know about
type CustomHandler struct {
	*protocol.Handler // Pointer to avoid copying embedded mutex
	server            *Server
}

// Handle implements glsp.Handler interface
func (h *CustomHandler) Handle(context *glsp.Context) (r any, validMethod bool, validParams bool, err error) {
	switch context.Method {
	case protocol.MethodInitialize:
		// The parsed InitializeParams lack the 3.17 "diagnostic" capability,
		// so it is read from the raw params before the normal handler runs.
		h.server.SetClientDiagnosticCapability(DetectPullDiagnosticsSupport(context.Params))

	case diagnostic.MethodDocumentDiagnostic:
		var params diagnostic.DocumentDiagnosticParams
		if err := json.Unmarshal(context.Params, &params); err != nil {
			return nil, true, false, err
		}

		handler := method(h.server, diagnostic.MethodDocumentDiagnostic, diagnostic.DocumentDiagnostic)
		result, err := handler(context, &params)
		if err != nil {
			return nil, true, true, err
		}
		return result, true, true, nil
	}

	return h.Handler.Handle(context)
}
