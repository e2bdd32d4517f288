package position

import (
	"math"
	"unicode/utf16"
	"unicode/utf8"
)

// UTF16ToByteOffset converts a UTF-16 code unit offset within s to a byte offset.
// LSP columns count UTF-16 code units; Go strings are UTF-8. A column that
// falls inside a surrogate pair is clamped to the start of the rune, and an
// invalid UTF-8 byte counts as one unit.
func UTF16ToByteOffset(s string, utf16Col int) int {
	units := 0
	i := 0
	for i < len(s) && units < utf16Col {
		r, size := utf8.DecodeRuneInString(s[i:])
		n := 1
		if r != utf8.RuneError || size != 1 {
			n = utf16.RuneLen(r)
		}
		if units+n > utf16Col {
			break
		}
		units += n
		i += size
	}
	return i
}

// ByteOffsetToUTF16 converts a byte offset within s to UTF-16 code units.
// Offsets inside a multi-byte rune count only the runes that end before it.
func ByteOffsetToUTF16(s string, byteOffset int) int {
	byteOffset = min(byteOffset, len(s))
	units := 0
	for i := 0; i < byteOffset; {
		r, size := utf8.DecodeRuneInString(s[i:])
		if i+size > byteOffset {
			break
		}
		if r == utf8.RuneError && size == 1 {
			units++
		} else {
			units += utf16.RuneLen(r)
		}
		i += size
	}
	return units
}

// StringLengthUTF16 returns the length of s in UTF-16 code units
func StringLengthUTF16(s string) int {
	return ByteOffsetToUTF16(s, len(s))
}

// Uint32 clamps n to the range of an LSP uinteger
func Uint32(n int) uint32 {
	switch {
	case n < 0:
		return 0
	case n > math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(n)
	}
}
