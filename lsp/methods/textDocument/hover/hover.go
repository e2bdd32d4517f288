package hover

import (
	"bytes"
	"fmt"
	"text/template"

	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/internal/outline"
	"bennypowers.dev/xmlls/internal/regions"
	"bennypowers.dev/xmlls/lsp/helpers"
	"bennypowers.dev/xmlls/lsp/types"
	"github.com/dustin/go-humanize"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// regionHover is the data rendered into hover content
type regionHover struct {
	Title      string
	Kind       regions.Kind
	Element    string
	Start, End int
	Size       string
	Terminated bool
}

var regionHoverTemplate = template.Must(template.New("regionHover").Parse(`**{{.Title}}** ` + "`{{.Kind}}`" + `
{{if .Element}}
Inside ` + "`<{{.Element}}>`" + `
{{end}}
Bytes {{.Start}} to {{.End}} ({{.Size}})
{{if not .Terminated}}
⚠️ Not closed before the end of the document
{{end}}`))

var titles = map[regions.Kind]string{
	regions.Instruction:    "Processing instruction",
	regions.Comment:        "Comment",
	regions.Markup:         "Markup",
	regions.Attribute:      "Attribute name",
	regions.AttributeValue: "Attribute value",
	regions.MarkupValue:    "Text content",
	regions.CDATA:          "CDATA section",
	regions.Unexpected:     "Unexpected content",
}

// Hover handles the textDocument/hover request by describing the region
// under the cursor. Whitespace gets no hover.
func Hover(req *types.RequestContext, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI
	log.Debug("Hover requested: %s at line %d, char %d", uri, params.Position.Line, params.Position.Character)

	doc := helpers.FeatureDocument(req.Server, uri)
	if doc == nil {
		return nil, nil
	}

	analysis := doc.Analysis()
	content := doc.Content()
	offset := analysis.Lines.Offset(params.Position)

	r, ok := regions.At(analysis.Regions, offset)
	if !ok || r.Kind == regions.Whitespace {
		return nil, nil
	}

	data := regionHover{
		Title:      titles[r.Kind],
		Kind:       r.Kind,
		Start:      r.Start,
		End:        r.End,
		Size:       humanize.Bytes(uint64(r.Len())),
		Terminated: regions.Terminated(content, r),
	}
	if e := innermostElement(outline.Build(content, analysis.Regions), offset); e != nil {
		data.Element = e.Name
	}

	var buf bytes.Buffer
	if err := regionHoverTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render hover: %w", err)
	}

	rng := analysis.Lines.Range(r.Start, r.End)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: buf.String(),
		},
		Range: &rng,
	}, nil
}

// innermostElement returns the deepest element whose span contains offset
func innermostElement(o *outline.Outline, offset int) *outline.Element {
	var found *outline.Element
	o.Walk(func(e *outline.Element) bool {
		if offset < e.Start || offset >= e.End {
			return false
		}
		found = e
		return true
	})
	return found
}
