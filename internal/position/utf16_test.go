package position

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUTF16ToByteOffset(t *testing.T) {
	tests := []struct {
		name       string
		s          string
		utf16Col   int
		expectByte int
	}{
		{"empty string", "", 0, 0},
		{"ASCII only", "<root/>", 5, 5},
		{"beyond end", "<a/>", 100, 4},
		{"negative column", "<a/>", -1, 0},
		{"emoji at start (surrogate pair)", "👍<a/>", 2, 4},
		{"emoji in attribute value", `<a b="👍"/>`, 8, 10},
		{"CJK tag name", "<颜色>", 3, 7},
		{"surrogate pair boundary clamps to start", "👍", 1, 0},
		{"second emoji boundary", "👍🎨", 3, 4},
		{"invalid UTF-8 byte", "a\xffb", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectByte, UTF16ToByteOffset(tt.s, tt.utf16Col))
		})
	}
}

func TestByteOffsetToUTF16(t *testing.T) {
	tests := []struct {
		name        string
		s           string
		byteOffset  int
		expectUTF16 int
	}{
		{"empty string", "", 0, 0},
		{"ASCII only", "<root/>", 5, 5},
		{"beyond end", "<a/>", 100, 4},
		{"negative offset", "<a/>", -3, 0},
		{"emoji at start", "👍<a/>", 4, 2},
		{"inside a rune", "👍<a/>", 2, 0},
		{"CJK tag name", "<颜色>", 7, 3},
		{"invalid UTF-8 byte", "a\xffb", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectUTF16, ByteOffsetToUTF16(tt.s, tt.byteOffset))
		})
	}
}

func TestStringLengthUTF16(t *testing.T) {
	assert.Equal(t, 0, StringLengthUTF16(""))
	assert.Equal(t, 4, StringLengthUTF16("<a/>"))
	assert.Equal(t, 4, StringLengthUTF16("👍🎨"))
	assert.Equal(t, 4, StringLengthUTF16("<颜色>"))
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"<a/>", "👍<a/>", "<颜色 a='🎨'/>", ""} {
		t.Run(s, func(t *testing.T) {
			for i := range len(s) + 1 {
				col := ByteOffsetToUTF16(s, i)
				back := UTF16ToByteOffset(s, col)
				// Offsets inside a rune come back as the start of that rune
				assert.LessOrEqual(t, back, i)
				assert.Equal(t, col, ByteOffsetToUTF16(s, back))
			}
		})
	}
}

func TestUint32(t *testing.T) {
	assert.Equal(t, uint32(0), Uint32(-1))
	assert.Equal(t, uint32(42), Uint32(42))
	assert.Equal(t, uint32(math.MaxUint32), Uint32(math.MaxUint32+1))
}
