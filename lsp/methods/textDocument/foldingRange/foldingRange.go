package foldingrange

import (
	"cmp"
	"slices"

	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/internal/outline"
	"bennypowers.dev/xmlls/internal/position"
	"bennypowers.dev/xmlls/internal/regions"
	"bennypowers.dev/xmlls/lsp/helpers"
	"bennypowers.dev/xmlls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// FoldingRange handles the textDocument/foldingRange request.
// Elements fold up to the line before their closing tag, so the closing tag
// stays visible; comments and CDATA sections fold through their last line.
func FoldingRange(req *types.RequestContext, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	uri := params.TextDocument.URI
	if !req.Server.GetConfig().FoldingRanges {
		return nil, nil
	}

	doc := helpers.FeatureDocument(req.Server, uri)
	if doc == nil {
		return nil, nil
	}

	analysis := doc.Analysis()
	ranges := GetFoldingRanges(outline.Build(doc.Content(), analysis.Regions), analysis.Lines)
	log.Debug("Folding ranges for %s: %d", uri, len(ranges))
	return ranges, nil
}

// GetFoldingRanges returns the folding ranges of an outline, ordered by start line
func GetFoldingRanges(o *outline.Outline, lines *position.LineIndex) []protocol.FoldingRange {
	ranges := []protocol.FoldingRange{}
	add := func(start, end int, kind protocol.FoldingRangeKind) {
		if end > start {
			k := string(kind)
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: position.Uint32(start),
				EndLine:   position.Uint32(end),
				Kind:      &k,
			})
		}
	}

	o.Walk(func(e *outline.Element) bool {
		start := lines.LineOf(e.Start)
		if e.Closed && !e.SelfClosing {
			add(start, lines.LineOf(e.CloseStart)-1, protocol.FoldingRangeKindRegion)
		} else {
			add(start, lines.LineOf(e.End-1), protocol.FoldingRangeKindRegion)
		}
		return true
	})

	for _, b := range o.Blocks {
		kind := protocol.FoldingRangeKindRegion
		if b.Kind == regions.Comment {
			kind = protocol.FoldingRangeKindComment
		}
		add(lines.LineOf(b.Start), lines.LineOf(b.End-1), kind)
	}

	slices.SortStableFunc(ranges, func(a, b protocol.FoldingRange) int {
		return cmp.Compare(a.StartLine, b.StartLine)
	})
	return ranges
}
