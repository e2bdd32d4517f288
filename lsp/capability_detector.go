package lsp

import (
	"encoding/json"
)

// DetectPullDiagnosticsSupport reports whether raw initialize params declare
// the LSP 3.17 textDocument.diagnostic client capability. Any value, even an
// empty object, counts as support. Unparseable params mean push diagnostics.
func DetectPullDiagnosticsSupport(rawParams json.RawMessage) bool {
	var initParams struct {
		Capabilities struct {
			TextDocument *struct {
				Diagnostic json.RawMessage `json:"diagnostic"`
			} `json:"textDocument"`
		} `json:"capabilities"`
	}

	if err := json.Unmarshal(rawParams, &initParams); err != nil {
		return false
	}

	textDocument := initParams.Capabilities.TextDocument
	if textDocument == nil {
		return false
	}
	return len(textDocument.Diagnostic) > 0 && string(textDocument.Diagnostic) != "null"
}
