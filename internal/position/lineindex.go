package position

import (
	"sort"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LineIndex maps byte offsets of a text to LSP positions and back.
// It is built once per content and is read-only afterwards.
type LineIndex struct {
	text   string
	starts []int // byte offset of the first character of each line
}

// Segment is the part of a span that lies on a single line, in byte offsets.
// Line terminators are never part of a segment.
type Segment struct {
	Line  int
	Start int
	End   int
}

// NewLineIndex indexes the line starts of text. Lines end at '\n'; a '\r'
// before it is treated as part of the terminator.
func NewLineIndex(text string) *LineIndex {
	starts := make([]int, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// LineCount returns the number of lines, which is at least one
func (ix *LineIndex) LineCount() int {
	return len(ix.starts)
}

// lineEnd returns the offset where the content of line ends, before its terminator
func (ix *LineIndex) lineEnd(line int) int {
	end := len(ix.text)
	if line+1 < len(ix.starts) {
		end = ix.starts[line+1] - 1
	}
	if end > ix.starts[line] && ix.text[end-1] == '\r' {
		end--
	}
	return end
}

// Line returns the content of a line without its terminator
func (ix *LineIndex) Line(line int) string {
	if line < 0 || line >= len(ix.starts) {
		return ""
	}
	return ix.text[ix.starts[line]:ix.lineEnd(line)]
}

// LineOf returns the zero-based line containing offset
func (ix *LineIndex) LineOf(offset int) int {
	return sort.Search(len(ix.starts), func(i int) bool {
		return ix.starts[i] > offset
	}) - 1
}

// Position converts a byte offset to an LSP position. Offsets are clamped to
// the text.
func (ix *LineIndex) Position(offset int) protocol.Position {
	offset = max(0, min(offset, len(ix.text)))
	line := ix.LineOf(offset)
	start := ix.starts[line]
	return protocol.Position{
		Line:      Uint32(line),
		Character: Uint32(ByteOffsetToUTF16(ix.text[start:], offset-start)),
	}
}

// Offset converts an LSP position to a byte offset. Positions past the end of
// a line resolve to the end of that line; lines past the end of the text
// resolve to the end of the text.
func (ix *LineIndex) Offset(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(ix.starts) {
		return len(ix.text)
	}
	start := ix.starts[line]
	return start + UTF16ToByteOffset(ix.text[start:ix.lineEnd(line)], int(pos.Character))
}

// Range converts a byte span to an LSP range
func (ix *LineIndex) Range(start, end int) protocol.Range {
	return protocol.Range{Start: ix.Position(start), End: ix.Position(end)}
}

// Segments splits the span [start, end) at line boundaries. Segments that
// would be empty, such as the terminator of a blank line, are left out.
func (ix *LineIndex) Segments(start, end int) []Segment {
	start = max(0, start)
	end = min(end, len(ix.text))
	if start >= end {
		return nil
	}

	var segments []Segment
	for line := ix.LineOf(start); line < len(ix.starts) && ix.starts[line] < end; line++ {
		s := max(start, ix.starts[line])
		e := min(end, ix.lineEnd(line))
		if e > s {
			segments = append(segments, Segment{Line: line, Start: s, End: e})
		}
	}
	return segments
}

// Column returns the UTF-16 column of a byte offset on the given line
func (ix *LineIndex) Column(line, offset int) int {
	start := ix.starts[line]
	return ByteOffsetToUTF16(ix.text[start:], offset-start)
}

// LineRange returns the range covering the content of a line. Lines past the
// end of the text give an empty range at the end of the text.
func (ix *LineIndex) LineRange(line int) protocol.Range {
	if line < 0 || line >= len(ix.starts) {
		return ix.Range(len(ix.text), len(ix.text))
	}
	return ix.Range(ix.starts[line], ix.lineEnd(line))
}
