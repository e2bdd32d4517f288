package regions

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	commentOpen = "<!--"
	cdataOpen   = "<![CDATA["
)

// matcher identifies an entry in the dispatch table
type matcher uint8

const (
	matchWhitespace matcher = iota
	matchInstruction
	matchComment
	matchMarkup
	matchMarkupFollowers
	matchAttribute
	matchAttributeValue
	matchMarkupValue
	matchCDATA
)

// matchers maps each construct to the function recognizing it. A matcher
// consumes at most one construct at the cursor and schedules its followers.
var matchers = [...]func(*scanner){
	matchWhitespace:      (*scanner).whitespace,
	matchInstruction:     (*scanner).instruction,
	matchComment:         (*scanner).comment,
	matchMarkup:          (*scanner).markup,
	matchMarkupFollowers: (*scanner).markupFollowers,
	matchAttribute:       (*scanner).attribute,
	matchAttributeValue:  (*scanner).attributeValue,
	matchMarkupValue:     (*scanner).markupValue,
	matchCDATA:           (*scanner).cdata,
}

// scanner holds the state of a single analysis
type scanner struct {
	src     string
	pos     int
	regions []Region
	pending []matcher // LIFO work list
}

// Analyze splits text into a contiguous, ordered list of regions covering
// the whole input. It accepts any text, including documents that are not
// well-formed, and never fails: unknown leading content becomes a single
// Unexpected region and unterminated constructs extend to the end of input.
// Input that no matcher accepts further on, such as a DOCTYPE declaration,
// is reported as Unexpected up to the next '<'.
//
// Offsets are byte offsets into text. Analyze keeps no state between calls
// and is safe for concurrent use.
func Analyze(text string) []Region {
	s := &scanner{
		src:     text,
		regions: make([]Region, 0, len(text)/16+1),
	}

	s.whitespace()
	if s.done() {
		return s.regions
	}

	if s.src[s.pos] != '<' {
		s.emit(Unexpected, len(s.src))
		return s.regions
	}

	s.run(matchInstruction)
	for !s.done() {
		s.skipUnexpected()
		s.run(matchMarkupFollowers)
	}
	return s.regions
}

// run drains the work list. Every matcher is a no-op at end of input, so the
// loop stops there without draining the followers still pending.
func (s *scanner) run(start matcher) {
	s.pending = append(s.pending, start)
	for len(s.pending) > 0 && !s.done() {
		m := s.pending[len(s.pending)-1]
		s.pending = s.pending[:len(s.pending)-1]
		matchers[m](s)
	}
}

// then schedules followers to run in the given order, before anything that
// was already pending.
func (s *scanner) then(followers ...matcher) {
	for i := len(followers) - 1; i >= 0; i-- {
		s.pending = append(s.pending, followers[i])
	}
}

func (s *scanner) done() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) hasPrefix(prefix string) bool {
	return strings.HasPrefix(s.src[s.pos:], prefix)
}

// emit appends a region from the cursor to end and moves the cursor there
func (s *scanner) emit(kind Kind, end int) {
	s.emitFrom(kind, s.pos, end)
}

func (s *scanner) emitFrom(kind Kind, start, end int) {
	s.regions = append(s.regions, Region{Kind: kind, Start: start, End: end})
	s.pos = end
}

// retractWhitespace removes the last region if it is whitespace and returns it.
// This is the only place where an emitted region is taken back.
func (s *scanner) retractWhitespace() (Region, bool) {
	n := len(s.regions)
	if n == 0 || s.regions[n-1].Kind != Whitespace {
		return Region{}, false
	}
	last := s.regions[n-1]
	s.regions = s.regions[:n-1]
	return last, true
}

// scan returns the offset of the first rune at or after i for which stop
// reports true, or len(src).
func (s *scanner) scan(i int, stop func(r rune) bool) int {
	for i < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[i:])
		if stop(r) {
			return i
		}
		i += size
	}
	return i
}

// skipUnexpected covers input at the cursor that no matcher accepts, up to
// the next '<' after the cursor.
func (s *scanner) skipUnexpected() {
	end := len(s.src)
	if i := strings.IndexByte(s.src[s.pos+1:], '<'); i >= 0 {
		end = s.pos + 1 + i
	}
	s.emit(Unexpected, end)
}

func (s *scanner) whitespace() {
	end := s.scan(s.pos, func(r rune) bool { return !unicode.IsSpace(r) })
	if end > s.pos {
		s.emit(Whitespace, end)
	}
}

func (s *scanner) instruction() {
	s.whitespace()
	if s.hasPrefix("<?") {
		end, _ := instructionEnd(s.src, s.pos)
		s.emit(Instruction, end)
	}
	s.then(matchComment)
}

func (s *scanner) comment() {
	s.whitespace()
	if s.done() {
		return
	}

	if !s.hasPrefix(commentOpen) {
		s.then(matchMarkup)
		return
	}

	end, _ := closeAfter(s.src, s.pos+len(commentOpen), '-')
	s.emit(Comment, end)

	// Adjacent comments are absorbed before looking for markup again
	s.then(matchComment, matchMarkup)
}

func (s *scanner) markup() {
	s.whitespace()
	if s.done() {
		return
	}

	switch {
	case s.src[s.pos] == '<':
		// Comments and CDATA sections have their own matchers
		if s.hasPrefix("<!") {
			return
		}
		end := s.scan(s.pos, func(r rune) bool { return r == '>' || unicode.IsSpace(r) })
		if end < len(s.src) && s.src[end] == '>' {
			s.emit(Markup, end+1)
			s.then(matchMarkupFollowers)
			return
		}
		s.emit(Markup, end)
		s.then(matchAttribute, matchMarkupFollowers)

	case s.hasPrefix("/>"):
		s.emit(Markup, s.pos+2)
		s.then(matchMarkupFollowers)

	case s.src[s.pos] == '>':
		s.emit(Markup, s.pos+1)
		s.then(matchMarkupFollowers)
	}
}

// markupFollowers fans out to everything that may follow a tag. Only the
// matchers whose leading pattern is at the cursor emit anything.
func (s *scanner) markupFollowers() {
	s.then(matchComment, matchMarkupValue, matchWhitespace, matchCDATA, matchMarkup)
}

func (s *scanner) attribute() {
	s.whitespace()
	if s.done() {
		return
	}

	end := s.scan(s.pos, func(r rune) bool {
		return r == '=' || r == '/' || r == '>' || unicode.IsSpace(r)
	})
	if end == s.pos {
		return
	}

	s.emit(Attribute, end)
	s.then(matchAttributeValue)
}

func (s *scanner) attributeValue() {
	s.whitespace()
	if s.done() {
		return
	}

	if s.src[s.pos] == '=' {
		end, _ := quotedEnd(s.src, s.pos+1)
		s.emit(AttributeValue, end)
	}
	s.then(matchAttribute, matchMarkup)
}

// markupValue does not skip whitespace: leading whitespace belongs to the
// text content once something other than whitespace follows it.
func (s *scanner) markupValue() {
	end := len(s.src)
	if i := strings.IndexByte(s.src[s.pos:], '<'); i >= 0 {
		end = s.pos + i
	}
	if end == s.pos {
		return
	}

	start := s.pos
	if ws, ok := s.retractWhitespace(); ok {
		start = ws.Start
	}
	s.emitFrom(MarkupValue, start, end)
	s.then(matchComment, matchMarkup)
}

func (s *scanner) cdata() {
	s.whitespace()
	if s.done() {
		return
	}

	if s.hasPrefix(cdataOpen) {
		end, _ := closeAfter(s.src, s.pos+len(cdataOpen), ']')
		s.emit(CDATA, end)
	}
	s.then(matchComment, matchMarkup)
}

// instructionEnd returns the offset just past the first "?>" whose '?' is at
// or after start+1, so "<?>" is a complete instruction. Without a closer the
// instruction runs to the end of src.
func instructionEnd(src string, start int) (int, bool) {
	if i := strings.Index(src[start+1:], "?>"); i >= 0 {
		return start + 1 + i + 2, true
	}
	return len(src), false
}

// closeAfter scans src from i for mark, mark, '>' and returns the offset
// just past the '>'. Progress resets on any character that cannot extend
// the partial match, so "--->" does not close a comment.
// Without a closer the scan ends at len(src).
func closeAfter(src string, i int, mark byte) (int, bool) {
	progress := 0
	for ; i < len(src); i++ {
		c := src[i]
		switch {
		case c == mark && progress < 2:
			progress++
		case c == '>' && progress == 2:
			return i + 1, true
		default:
			progress = 0
		}
	}
	return len(src), false
}

// quotedEnd returns the offset just past the second double quote found at
// or after i. A quote preceded by a backslash is not counted.
// With fewer than two quotes the value runs to len(src).
func quotedEnd(src string, i int) (int, bool) {
	quotes := 0
	var prev byte
	for ; i < len(src); i++ {
		c := src[i]
		if c == '"' && prev != '\\' {
			quotes++
			if quotes == 2 {
				return i + 1, true
			}
		}
		prev = c
	}
	return len(src), false
}
