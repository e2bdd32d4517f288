package documentsymbol

import (
	"bennypowers.dev/xmlls/internal/outline"
	"bennypowers.dev/xmlls/internal/position"
	"bennypowers.dev/xmlls/lsp/helpers"
	"bennypowers.dev/xmlls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// detailAttributes are shown next to an element name, first match wins
var detailAttributes = []string{"id", "name", "key"}

// DocumentSymbol handles the textDocument/documentSymbol request with the
// element tree of the document
func DocumentSymbol(req *types.RequestContext, params *protocol.DocumentSymbolParams) (any, error) {
	doc := helpers.FeatureDocument(req.Server, params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	analysis := doc.Analysis()
	return GetDocumentSymbols(outline.Build(doc.Content(), analysis.Regions), analysis.Lines), nil
}

// GetDocumentSymbols converts an outline to hierarchical symbols. Children
// are built before their parents without recursion.
func GetDocumentSymbols(o *outline.Outline, lines *position.LineIndex) []protocol.DocumentSymbol {
	var order []*outline.Element
	o.Walk(func(e *outline.Element) bool {
		order = append(order, e)
		return true
	})

	built := make(map[*outline.Element]protocol.DocumentSymbol, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		e := order[i]
		symbol := newSymbol(e, lines)
		if len(e.Children) > 0 {
			symbol.Children = make([]protocol.DocumentSymbol, len(e.Children))
			for j, child := range e.Children {
				symbol.Children[j] = built[child]
				delete(built, child)
			}
		}
		built[e] = symbol
	}

	symbols := make([]protocol.DocumentSymbol, len(o.Roots))
	for i, root := range o.Roots {
		symbols[i] = built[root]
	}
	return symbols
}

func newSymbol(e *outline.Element, lines *position.LineIndex) protocol.DocumentSymbol {
	nameStart, nameEnd := e.NameRange()
	symbol := protocol.DocumentSymbol{
		Name:           e.Name,
		Kind:           protocol.SymbolKindField,
		Range:          lines.Range(e.Start, e.End),
		SelectionRange: lines.Range(nameStart, nameEnd),
	}
	for _, attr := range detailAttributes {
		if v, ok := e.Attr(attr); ok && v != "" {
			symbol.Detail = &v
			break
		}
	}
	return symbol
}
