package diagnostic

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LSP 3.17 pull diagnostics types.
//
// glsp v0.2.2 only implements LSP 3.16, which has no textDocument/diagnostic
// request. Replace these with protocol_3_17 types once glsp provides them.
//
// See: https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_diagnostic

// MethodDocumentDiagnostic is the LSP 3.17 pull diagnostics request
const MethodDocumentDiagnostic = "textDocument/diagnostic"

// DocumentDiagnosticParams represents the parameters for textDocument/diagnostic request
type DocumentDiagnosticParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`

	// The additional identifier provided during registration
	Identifier string `json:"identifier,omitempty"`

	// The result id of a previous response if provided
	PreviousResultID string `json:"previousResultId,omitempty"`
}

// DocumentDiagnosticReportKind represents the kind of diagnostic report
type DocumentDiagnosticReportKind string

const (
	// DiagnosticFull represents a full document diagnostic report
	DiagnosticFull DocumentDiagnosticReportKind = "full"
	// DiagnosticUnchanged represents an unchanged diagnostic report
	DiagnosticUnchanged DocumentDiagnosticReportKind = "unchanged"
)

// RelatedFullDocumentDiagnosticReport represents a full diagnostic report
type RelatedFullDocumentDiagnosticReport struct {
	Kind     string                `json:"kind"`
	ResultID string                `json:"resultId,omitempty"`
	Items    []protocol.Diagnostic `json:"items"`
}

// RelatedUnchangedDocumentDiagnosticReport tells the client that the report
// with ResultID still applies
type RelatedUnchangedDocumentDiagnosticReport struct {
	Kind     string `json:"kind"`
	ResultID string `json:"resultId"`
}

// DiagnosticOptions represents server capabilities for pull diagnostics
type DiagnosticOptions struct {
	// Whether the server has inter-file dependencies
	InterFileDependencies bool `json:"interFileDependencies"`

	// Whether the server supports workspace diagnostics
	WorkspaceDiagnostics bool `json:"workspaceDiagnostics"`
}
