package helpers

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// RangesIntersect reports whether two LSP ranges overlap. Ranges are
// half-open, so ranges that only touch do not intersect.
//
//   - [0:0, 0:5) and [0:3, 0:7) -> true
//   - [0:0, 0:5) and [0:5, 0:10) -> false
//   - [0:0, 1:0) and [0:5, 0:10) -> true
func RangesIntersect(a, b protocol.Range) bool {
	return before(a.Start, b.End) && before(b.Start, a.End)
}

// before reports whether p comes strictly before q
func before(p, q protocol.Position) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Character < q.Character)
}
