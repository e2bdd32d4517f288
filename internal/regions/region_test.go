package regions_test

import (
	"testing"

	"bennypowers.dev/xmlls/internal/regions"
	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind regions.Kind
		want string
	}{
		{regions.Whitespace, "WHITESPACE"},
		{regions.Instruction, "INSTRUCTION"},
		{regions.Comment, "COMMENT"},
		{regions.Markup, "MARKUP"},
		{regions.Attribute, "ATTRIBUTE"},
		{regions.AttributeValue, "ATTRIBUTE_VALUE"},
		{regions.MarkupValue, "MARKUP_VALUE"},
		{regions.CDATA, "CDATA"},
		{regions.Unexpected, "UNEXPECTED"},
		{regions.Kind(42), "Kind(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestRegion(t *testing.T) {
	src := `<a b="c"/>`
	r := region(regions.AttributeValue, 4, 8)

	t.Run("Len", func(t *testing.T) {
		assert.Equal(t, 4, r.Len())
	})

	t.Run("Text", func(t *testing.T) {
		assert.Equal(t, `="c"`, r.Text(src))
	})

	t.Run("Contains is half-open", func(t *testing.T) {
		assert.False(t, r.Contains(3))
		assert.True(t, r.Contains(4))
		assert.True(t, r.Contains(7))
		assert.False(t, r.Contains(8))
	})

	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "ATTRIBUTE_VALUE [4,8)", r.String())
	})
}

func TestAt(t *testing.T) {
	src := `<a b="c"/>`
	result := regions.Analyze(src)

	t.Run("every offset maps to its region", func(t *testing.T) {
		for offset := range len(src) {
			r, ok := regions.At(result, offset)
			if assert.True(t, ok, "offset %d", offset) {
				assert.True(t, r.Contains(offset), "offset %d in %s", offset, r)
			}
		}
	})

	t.Run("attribute value", func(t *testing.T) {
		r, ok := regions.At(result, 5)
		assert.True(t, ok)
		assert.Equal(t, region(regions.AttributeValue, 4, 8), r)
	})

	t.Run("past the end", func(t *testing.T) {
		_, ok := regions.At(result, len(src))
		assert.False(t, ok)
	})

	t.Run("negative offset", func(t *testing.T) {
		_, ok := regions.At(result, -1)
		assert.False(t, ok)
	})

	t.Run("empty list", func(t *testing.T) {
		_, ok := regions.At(nil, 0)
		assert.False(t, ok)
	})
}
