package semantictokens

import (
	"fmt"

	"bennypowers.dev/xmlls/internal/documents"
	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/internal/position"
	"bennypowers.dev/xmlls/internal/regions"
	"bennypowers.dev/xmlls/lsp/helpers"
	"bennypowers.dev/xmlls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Token types, as indices into TokenTypes
const (
	TypeMacro = iota
	TypeComment
	TypeType
	TypeProperty
	TypeString
)

// ModifierDocumentation marks CDATA sections, as a bit in the modifier set
const ModifierDocumentation = 1 << 0

// TokenTypes is the token type legend advertised in the initialize response
var TokenTypes = []string{
	string(protocol.SemanticTokenTypeMacro),
	string(protocol.SemanticTokenTypeComment),
	string(protocol.SemanticTokenTypeType),
	string(protocol.SemanticTokenTypeProperty),
	string(protocol.SemanticTokenTypeString),
}

// TokenModifiers is the token modifier legend advertised in the initialize response
var TokenModifiers = []string{
	string(protocol.SemanticTokenModifierDocumentation),
}

// SemanticTokenIntermediate is a token before delta encoding.
// StartChar and Length are in UTF-16 code units.
type SemanticTokenIntermediate struct {
	Line           int
	StartChar      int
	Length         int
	TokenType      int
	TokenModifiers int
}

// tokenType maps a region kind to its token type and modifiers.
// Whitespace, text content and unexpected content are not highlighted.
func tokenType(kind regions.Kind) (tokenType, modifiers int, ok bool) {
	switch kind {
	case regions.Instruction:
		return TypeMacro, 0, true
	case regions.Comment:
		return TypeComment, 0, true
	case regions.Markup:
		return TypeType, 0, true
	case regions.Attribute:
		return TypeProperty, 0, true
	case regions.AttributeValue:
		return TypeString, 0, true
	case regions.CDATA:
		return TypeString, ModifierDocumentation, true
	default:
		return 0, 0, false
	}
}

// SemanticTokensFull handles the textDocument/semanticTokens/full request
func SemanticTokensFull(req *types.RequestContext, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	uri := params.TextDocument.URI
	log.Debug("Semantic tokens requested for: %s", uri)

	doc, err := tokenDocument(req, uri)
	if doc == nil || err != nil {
		return nil, err
	}

	data := encodeSemanticTokens(GetSemanticTokensForDocument(doc))
	resultID := req.Server.SemanticTokenCache().Store(uri, data, doc.Version())
	return &protocol.SemanticTokens{
		ResultID: &resultID,
		Data:     data,
	}, nil
}

// SemanticTokensDelta handles the textDocument/semanticTokens/full/delta
// request. When the previous result is unknown the full tokens are returned.
func SemanticTokensDelta(req *types.RequestContext, params *protocol.SemanticTokensDeltaParams) (any, error) {
	uri := params.TextDocument.URI

	doc, err := tokenDocument(req, uri)
	if doc == nil || err != nil {
		return nil, err
	}

	cache := req.Server.SemanticTokenCache()
	data := encodeSemanticTokens(GetSemanticTokensForDocument(doc))
	previous := cache.GetForURI(params.PreviousResultID, uri)
	resultID := cache.Store(uri, data, doc.Version())

	if previous == nil {
		log.Debug("No semantic tokens result %q for %s, sending full result", params.PreviousResultID, uri)
		return &protocol.SemanticTokens{ResultID: &resultID, Data: data}, nil
	}

	edits := ComputeDelta(previous.Data, data)
	if edits == nil {
		edits = []protocol.SemanticTokensEdit{}
	}
	return &protocol.SemanticTokensDelta{ResultId: &resultID, Edits: edits}, nil
}

// SemanticTokensRange handles the textDocument/semanticTokens/range request.
// Tokens are included when they intersect the requested range.
func SemanticTokensRange(req *types.RequestContext, params *protocol.SemanticTokensRangeParams) (any, error) {
	doc, err := tokenDocument(req, params.TextDocument.URI)
	if doc == nil || err != nil {
		return nil, err
	}

	var filtered []SemanticTokenIntermediate
	for _, token := range GetSemanticTokensForDocument(doc) {
		line := position.Uint32(token.Line)
		tokenRange := protocol.Range{
			Start: protocol.Position{Line: line, Character: position.Uint32(token.StartChar)},
			End:   protocol.Position{Line: line, Character: position.Uint32(token.StartChar + token.Length)},
		}
		if helpers.RangesIntersect(tokenRange, params.Range) {
			filtered = append(filtered, token)
		}
	}

	return &protocol.SemanticTokens{Data: encodeSemanticTokens(filtered)}, nil
}

// tokenDocument returns the document to highlight. A nil document with a nil
// error means the request gets an empty response.
func tokenDocument(req *types.RequestContext, uri string) (*documents.Document, error) {
	if req.Server.Document(uri) == nil {
		return nil, fmt.Errorf("document not found: %s", uri)
	}
	if !req.Server.GetConfig().SemanticTokens {
		return nil, nil
	}
	return helpers.FeatureDocument(req.Server, uri), nil
}

// GetSemanticTokensForDocument returns one token per line segment of every
// highlighted region, in document order
func GetSemanticTokensForDocument(doc *documents.Document) []SemanticTokenIntermediate {
	analysis := doc.Analysis()
	content := doc.Content()
	lines := analysis.Lines

	tokens := make([]SemanticTokenIntermediate, 0, len(analysis.Regions))
	for _, r := range analysis.Regions {
		tt, modifiers, ok := tokenType(r.Kind)
		if !ok {
			continue
		}
		for _, seg := range lines.Segments(r.Start, r.End) {
			tokens = append(tokens, SemanticTokenIntermediate{
				Line:           seg.Line,
				StartChar:      lines.Column(seg.Line, seg.Start),
				Length:         position.StringLengthUTF16(content[seg.Start:seg.End]),
				TokenType:      tt,
				TokenModifiers: modifiers,
			})
		}
	}
	return tokens
}

// encodeSemanticTokens converts tokens to the relative five-integer encoding
// of the protocol. Tokens must be sorted by position.
func encodeSemanticTokens(tokens []SemanticTokenIntermediate) []uint32 {
	data := make([]uint32, 0, len(tokens)*5)
	prevLine, prevStart := 0, 0
	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		deltaStart := token.StartChar
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		}

		data = append(data,
			position.Uint32(deltaLine),
			position.Uint32(deltaStart),
			position.Uint32(token.Length),
			position.Uint32(token.TokenType),
			position.Uint32(token.TokenModifiers),
		)
		prevLine, prevStart = token.Line, token.StartChar
	}
	return data
}
