package regions

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyRegion is returned by Validate for a region with End <= Start
	ErrEmptyRegion = errors.New("empty region")
	// ErrGap is returned by Validate when a region does not start where the previous one ended
	ErrGap = errors.New("regions are not contiguous")
	// ErrCoverage is returned by Validate when the regions do not end at the end of the input
	ErrCoverage = errors.New("regions do not cover the input")
)

// Validate checks that regions are non-empty, contiguous, and cover an
// input of the given length, starting at offset 0.
func Validate(regions []Region, length int) error {
	end := 0
	for i, r := range regions {
		if r.Start != end {
			return fmt.Errorf("region %d (%s) starts at %d, previous ended at %d: %w", i, r, r.Start, end, ErrGap)
		}
		if r.End <= r.Start {
			return fmt.Errorf("region %d (%s): %w", i, r, ErrEmptyRegion)
		}
		end = r.End
	}

	if end != length {
		return fmt.Errorf("regions end at %d, input length is %d: %w", end, length, ErrCoverage)
	}
	return nil
}

// Terminated reports whether a region ends with the closing sequence of its
// construct. Comments, CDATA sections, instructions and attribute values
// left open at the end of the input are reported as not terminated; every
// other kind is always terminated.
func Terminated(src string, r Region) bool {
	text := r.Text(src)
	switch r.Kind {
	case Comment:
		_, ok := closeAfter(text, len(commentOpen), '-')
		return ok && strings.HasPrefix(text, commentOpen)
	case CDATA:
		_, ok := closeAfter(text, len(cdataOpen), ']')
		return ok && strings.HasPrefix(text, cdataOpen)
	case Instruction:
		if len(text) < len("<?") {
			return false
		}
		_, ok := instructionEnd(text, 0)
		return ok
	case AttributeValue:
		_, ok := quotedEnd(text, 1)
		return ok
	default:
		return true
	}
}
