package regions

import (
	"fmt"
	"sort"
)

// Kind classifies a region of an XML document
type Kind int

const (
	// Whitespace is a run of whitespace between constructs
	Whitespace Kind = iota
	// Instruction is a processing instruction, <? ... ?>
	Instruction
	// Comment is a comment, <!-- ... -->
	Comment
	// Markup is a tag name or the closing part of a tag (<name, >, />, </name>)
	Markup
	// Attribute is an attribute name inside a start tag
	Attribute
	// AttributeValue is an attribute value, from the '=' through the closing quote
	AttributeValue
	// MarkupValue is text content between tags
	MarkupValue
	// CDATA is a CDATA section, <![CDATA[ ... ]]>
	CDATA
	// Unexpected is content that cannot start an XML document
	Unexpected
)

// String returns the upper-case name of the kind
func (k Kind) String() string {
	switch k {
	case Whitespace:
		return "WHITESPACE"
	case Instruction:
		return "INSTRUCTION"
	case Comment:
		return "COMMENT"
	case Markup:
		return "MARKUP"
	case Attribute:
		return "ATTRIBUTE"
	case AttributeValue:
		return "ATTRIBUTE_VALUE"
	case MarkupValue:
		return "MARKUP_VALUE"
	case CDATA:
		return "CDATA"
	case Unexpected:
		return "UNEXPECTED"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Region is a typed, half-open byte span [Start, End) of the analyzed text
type Region struct {
	Kind  Kind
	Start int
	End   int
}

// Len returns the number of bytes covered by the region
func (r Region) Len() int {
	return r.End - r.Start
}

// Contains reports whether offset falls inside the region
func (r Region) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// Text returns the part of src covered by the region.
// src must be the text the region was produced from.
func (r Region) Text(src string) string {
	return src[r.Start:r.End]
}

func (r Region) String() string {
	return fmt.Sprintf("%s [%d,%d)", r.Kind, r.Start, r.End)
}

// At returns the region covering offset. The list must be contiguous and
// ordered, as returned by Analyze.
func At(regions []Region, offset int) (Region, bool) {
	i := sort.Search(len(regions), func(i int) bool {
		return regions[i].End > offset
	})
	if i < len(regions) && regions[i].Contains(offset) {
		return regions[i], true
	}
	return Region{}, false
}
