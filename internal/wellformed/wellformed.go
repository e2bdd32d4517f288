// Package wellformed runs a strict XML parse over a document. It complements
// the forgiving region analyzer: the analyzer always produces regions, and
// this check reports the first point where a conforming parser gives up.
package wellformed

import (
	"encoding/xml"
	"errors"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Issue is the first well-formedness error of a document
type Issue struct {
	// Line is the one-based line of the error, or 0 when the parser did not report one
	Line    int
	Message string
}

func (i *Issue) Error() string {
	return i.Message
}

// Check parses content strictly and returns nil when it is well-formed
func Check(content string) *Issue {
	_, err := xmlquery.ParseWithOptions(strings.NewReader(content), xmlquery.ParserOptions{
		WithLineNumbers: true,
	})
	if err == nil {
		return nil
	}

	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &Issue{Line: syntaxErr.Line, Message: syntaxErr.Msg}
	}
	return &Issue{Message: strings.TrimPrefix(err.Error(), "xmlquery: ")}
}
