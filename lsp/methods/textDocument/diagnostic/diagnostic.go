package diagnostic

import (
	"fmt"

	"bennypowers.dev/xmlls/internal/documents"
	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/internal/outline"
	"bennypowers.dev/xmlls/internal/position"
	"bennypowers.dev/xmlls/internal/regions"
	"bennypowers.dev/xmlls/internal/wellformed"
	"bennypowers.dev/xmlls/lsp/types"
	"github.com/dustin/go-humanize"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Source is the source of every diagnostic the server reports
const Source = "xmlls"

// Diagnostic codes
const (
	CodeUnexpectedContent = "unexpected-content"
	CodeUnterminated      = "unterminated"
	CodeUnclosedElement   = "unclosed-element"
	CodeStrayClosingTag   = "stray-closing-tag"
	CodeNotWellFormed     = "not-well-formed"
	CodeDocumentTooLarge  = "document-too-large"
)

// DocumentDiagnostic handles the textDocument/diagnostic request (pull diagnostics).
//
// This is an LSP 3.17 request, routed here by the CustomHandler. The result id
// combines the content digest with the settings that affect diagnostics, so an
// unchanged document is answered with an unchanged report.
func DocumentDiagnostic(req *types.RequestContext, params *DocumentDiagnosticParams) (any, error) {
	uri := params.TextDocument.URI
	log.Debug("Pull diagnostics requested for: %s", uri)

	doc := req.Server.Document(uri)
	if doc == nil {
		return RelatedFullDocumentDiagnosticReport{
			Kind:  string(DiagnosticFull),
			Items: []protocol.Diagnostic{},
		}, nil
	}

	resultID := reportID(doc, req.Server.GetConfig())
	if params.PreviousResultID != "" && params.PreviousResultID == resultID {
		return RelatedUnchangedDocumentDiagnosticReport{
			Kind:     string(DiagnosticUnchanged),
			ResultID: resultID,
		}, nil
	}

	diagnostics, err := GetDiagnostics(req.Server, uri)
	if err != nil {
		return nil, err
	}

	return RelatedFullDocumentDiagnosticReport{
		Kind:     string(DiagnosticFull),
		ResultID: resultID,
		Items:    diagnostics,
	}, nil
}

func reportID(doc *documents.Document, cfg types.ServerConfig) string {
	return fmt.Sprintf("%s:%t:%d", doc.Digest(), cfg.WellFormedness, cfg.MaxDocumentSize)
}

// GetDiagnostics returns diagnostics for a document. The result is never nil
// so that it serializes as an empty array.
func GetDiagnostics(ctx types.ServerContext, uri string) ([]protocol.Diagnostic, error) {
	diagnostics := []protocol.Diagnostic{}

	doc := ctx.Document(uri)
	if doc == nil || !ctx.ShouldProcess(uri) {
		return diagnostics, nil
	}

	cfg := ctx.GetConfig()
	content := doc.Content()
	if cfg.MaxDocumentSize > 0 && len(content) > cfg.MaxDocumentSize {
		return append(diagnostics, newDiagnostic(
			protocol.Range{},
			protocol.DiagnosticSeverityInformation,
			CodeDocumentTooLarge,
			fmt.Sprintf("Document is %s, larger than the configured maximum of %s; XML features are disabled",
				humanize.Bytes(uint64(len(content))), humanize.Bytes(uint64(cfg.MaxDocumentSize))),
		)), nil
	}

	analysis := doc.Analysis()
	lines := analysis.Lines

	diagnostics = append(diagnostics, regionDiagnostics(content, analysis.Regions, lines)...)
	diagnostics = append(diagnostics, structureDiagnostics(outline.Build(content, analysis.Regions), lines)...)

	// The strict parser stops at the first problem, which is usually one
	// already reported above.
	if cfg.WellFormedness && len(diagnostics) == 0 {
		if issue := wellformed.Check(content); issue != nil {
			diagnostics = append(diagnostics, newDiagnostic(
				lines.LineRange(issue.Line-1),
				protocol.DiagnosticSeverityError,
				CodeNotWellFormed,
				"Not well-formed: "+issue.Message,
			))
		}
	}

	return diagnostics, nil
}

// regionDiagnostics reports unexpected content and constructs left open at
// the end of the input
func regionDiagnostics(content string, rs []regions.Region, lines *position.LineIndex) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, r := range rs {
		switch {
		case r.Kind == regions.Unexpected:
			diagnostics = append(diagnostics, newDiagnostic(
				lines.Range(r.Start, r.End),
				protocol.DiagnosticSeverityError,
				CodeUnexpectedContent,
				"Unexpected content",
			))
		case !regions.Terminated(content, r):
			diagnostics = append(diagnostics, newDiagnostic(
				lines.Range(r.Start, r.End),
				protocol.DiagnosticSeverityError,
				CodeUnterminated,
				unterminatedMessage(r.Kind),
			))
		}
	}
	return diagnostics
}

func unterminatedMessage(kind regions.Kind) string {
	switch kind {
	case regions.Comment:
		return "Comment is not closed with '-->'"
	case regions.CDATA:
		return "CDATA section is not closed with ']]>'"
	case regions.Instruction:
		return "Processing instruction is not closed with '?>'"
	case regions.AttributeValue:
		return "Attribute value is missing its closing quote"
	default:
		return fmt.Sprintf("Unterminated %s", kind)
	}
}

// structureDiagnostics reports elements that are never closed and closing
// tags without a start tag
func structureDiagnostics(o *outline.Outline, lines *position.LineIndex) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, e := range o.Unclosed {
		start, end := e.NameRange()
		diagnostics = append(diagnostics, newDiagnostic(
			lines.Range(start, end),
			protocol.DiagnosticSeverityWarning,
			CodeUnclosedElement,
			fmt.Sprintf("Element <%s> is never closed", e.Name),
		))
	}
	for _, s := range o.Stray {
		diagnostics = append(diagnostics, newDiagnostic(
			lines.Range(s.Start, s.End),
			protocol.DiagnosticSeverityError,
			CodeStrayClosingTag,
			fmt.Sprintf("Closing tag </%s> has no matching start tag", s.Name),
		))
	}
	return diagnostics
}

func newDiagnostic(rng protocol.Range, severity protocol.DiagnosticSeverity, code, message string) protocol.Diagnostic {
	source := Source
	return protocol.Diagnostic{
		Range:    rng,
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: code},
		Source:   &source,
		Message:  message,
	}
}
