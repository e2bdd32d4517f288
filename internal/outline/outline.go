// Package outline derives the element structure of a document from its
// region list. It tolerates the same malformed input as the region analyzer:
// mismatched closing tags close the nearest matching element and elements
// left open run to the end of the input.
package outline

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"bennypowers.dev/xmlls/internal/regions"
)

// Attribute is an attribute of a start tag, in byte offsets of the source
type Attribute struct {
	Name  string
	Start int
	End   int
	// Value is the attribute value without its '=' and quotes
	Value string
}

// Element is an element of the document. Offsets are byte offsets of the source.
type Element struct {
	Name string
	// Start is the offset of the '<' of the start tag
	Start int
	// OpenEnd is the end of the start tag
	OpenEnd int
	// CloseStart is the start of the closing tag, or End when there is none
	CloseStart int
	// End is the end of the closing tag, of a self-closing start tag, or of
	// the input for an unclosed element
	End         int
	SelfClosing bool
	Closed      bool
	Attributes  []Attribute
	Children    []*Element
	Parent      *Element
}

// Attr returns the value of the named attribute
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// NameRange returns the offsets of the element name in its start tag
func (e *Element) NameRange() (start, end int) {
	return e.Start + 1, e.Start + 1 + len(e.Name)
}

// StrayClose is a closing tag without a matching open element
type StrayClose struct {
	Name  string
	Start int
	End   int
}

// Outline is the element tree of a document
type Outline struct {
	Roots []*Element
	// Blocks holds the comment and CDATA regions, in document order
	Blocks []regions.Region
	// Unclosed lists elements that were never closed, in document order
	Unclosed []*Element
	Stray    []StrayClose
}

// builder holds the state of one Build call
type builder struct {
	src     string
	out     *Outline
	stack   []*Element
	open    map[string]int // number of elements on the stack per name
	pending *Element       // element whose start tag has not ended yet
}

// Build derives the outline of src from its regions, as returned by
// regions.Analyze. It does not recurse, so arbitrarily deep documents are fine.
func Build(src string, rs []regions.Region) *Outline {
	b := &builder{
		src:  src,
		out:  &Outline{},
		open: make(map[string]int),
	}

	for _, r := range rs {
		switch r.Kind {
		case regions.Markup:
			b.markup(r)
		case regions.Attribute:
			if b.pending != nil {
				b.pending.Attributes = append(b.pending.Attributes, Attribute{
					Name: r.Text(src), Start: r.Start, End: r.End,
				})
			}
		case regions.AttributeValue:
			if b.pending != nil && len(b.pending.Attributes) > 0 {
				last := &b.pending.Attributes[len(b.pending.Attributes)-1]
				last.Value = unquote(r.Text(src))
				last.End = r.End
			}
		case regions.Comment, regions.CDATA:
			b.out.Blocks = append(b.out.Blocks, r)
		}
	}

	b.endStartTag(len(src))
	for i := len(b.stack) - 1; i >= 0; i-- {
		e := b.stack[i]
		e.End, e.CloseStart = len(src), len(src)
	}
	b.out.Unclosed = append(b.out.Unclosed, b.stack...)
	slices.SortFunc(b.out.Unclosed, func(x, y *Element) int { return cmp.Compare(x.Start, y.Start) })
	return b.out
}

func (b *builder) markup(r regions.Region) {
	text := r.Text(b.src)
	switch {
	case strings.HasPrefix(text, "</"):
		b.endStartTag(r.Start)
		b.closeTag(tagName(text[2:]), r)

	case strings.HasPrefix(text, "<"):
		b.endStartTag(r.Start)
		b.startTag(text, r)

	case text == "/>":
		if e := b.pending; e != nil {
			e.OpenEnd, e.CloseStart, e.End = r.End, r.End, r.End
			e.SelfClosing, e.Closed = true, true
			b.pending = nil
			b.pop()
		}

	case text == ">":
		if b.pending != nil {
			b.pending.OpenEnd = r.End
			b.pending = nil
		}
	}
}

func (b *builder) startTag(text string, r regions.Region) {
	var name string
	selfClosing, complete := false, false
	switch {
	case strings.HasSuffix(text, "/>"):
		name, selfClosing = text[1:len(text)-2], true
	case strings.HasSuffix(text, ">"):
		name, complete = text[1:len(text)-1], true
	default:
		name = text[1:]
	}
	if name == "" || strings.HasPrefix(name, "?") {
		return
	}

	e := &Element{Name: name, Start: r.Start}
	if len(b.stack) > 0 {
		e.Parent = b.stack[len(b.stack)-1]
		e.Parent.Children = append(e.Parent.Children, e)
	} else {
		b.out.Roots = append(b.out.Roots, e)
	}

	if selfClosing {
		e.OpenEnd, e.CloseStart, e.End = r.End, r.End, r.End
		e.SelfClosing, e.Closed = true, true
		return
	}

	b.push(e)
	if complete {
		e.OpenEnd = r.End
	} else {
		b.pending = e
	}
}

// closeTag closes the innermost open element named name. Elements opened
// after it are closed at the start of the closing tag and reported as unclosed.
func (b *builder) closeTag(name string, r regions.Region) {
	if b.open[name] == 0 {
		b.out.Stray = append(b.out.Stray, StrayClose{Name: name, Start: r.Start, End: r.End})
		return
	}

	for {
		e := b.pop()
		if e.Name == name {
			e.CloseStart, e.End, e.Closed = r.Start, r.End, true
			return
		}
		e.CloseStart, e.End = r.Start, r.Start
		b.out.Unclosed = append(b.out.Unclosed, e)
	}
}

// endStartTag ends a start tag interrupted by another tag or the end of input
func (b *builder) endStartTag(at int) {
	if b.pending != nil {
		b.pending.OpenEnd = at
		b.pending = nil
	}
}

func (b *builder) push(e *Element) {
	b.stack = append(b.stack, e)
	b.open[e.Name]++
}

func (b *builder) pop() *Element {
	e := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	b.open[e.Name]--
	return e
}

// tagName extracts the name of a closing tag from the text after "</"
func tagName(s string) string {
	s = strings.TrimSuffix(s, ">")
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// unquote strips the '=' and the surrounding quotes of an attribute value region
func unquote(s string) string {
	s = strings.TrimLeftFunc(strings.TrimPrefix(s, "="), unicode.IsSpace)
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

// Walk visits every element in document order, parents before children.
// Returning false from fn skips the children of that element.
func (o *Outline) Walk(fn func(e *Element) bool) {
	stack := make([]*Element, 0, len(o.Roots))
	for i := len(o.Roots) - 1; i >= 0; i-- {
		stack = append(stack, o.Roots[i])
	}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(e) {
			continue
		}
		for i := len(e.Children) - 1; i >= 0; i-- {
			stack = append(stack, e.Children[i])
		}
	}
}
