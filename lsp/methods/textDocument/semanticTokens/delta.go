package semantictokens

import (
	"bennypowers.dev/xmlls/internal/position"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ComputeDelta returns the edits turning oldData into newData: a single edit
// replacing whatever lies between their common prefix and common suffix, or
// none when the arrays are equal. Offsets count uint32 elements, not tokens.
func ComputeDelta(oldData, newData []uint32) []protocol.SemanticTokensEdit {
	shorter := min(len(oldData), len(newData))

	prefix := 0
	for prefix < shorter && oldData[prefix] == newData[prefix] {
		prefix++
	}
	if prefix == len(oldData) && prefix == len(newData) {
		return nil
	}

	suffix := 0
	for suffix < shorter-prefix && oldData[len(oldData)-1-suffix] == newData[len(newData)-1-suffix] {
		suffix++
	}

	insert := newData[prefix : len(newData)-suffix]
	return []protocol.SemanticTokensEdit{{
		Start:       position.Uint32(prefix),
		DeleteCount: position.Uint32(len(oldData) - prefix - suffix),
		Data:        append([]uint32(nil), insert...),
	}}
}
