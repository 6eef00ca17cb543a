package segment_test

import (
	"testing"

	"github.com/aretw0/selector/pkg/segment"
	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		delimiter string
		want      []string
	}{
		{"trims and keeps order", "red | green | blue", "|", []string{"red", "green", "blue"}},
		{"drops blanks", "a||  |b|", "|", []string{"a", "b"}},
		{"empty input", "", "|", []string{}},
		{"all blank", "   ", "|", []string{}},
		{"only delimiters", "| | |", "|", []string{}},
		{"literal not regex", "a.b.c", ".", []string{"a", "b", "c"}},
		{"multi char delimiter", "one, two,,three", ",", []string{"one", "two", "three"}},
		{"newline delimiter", "first\nsecond\n\nthird\n", "\n", []string{"first", "second", "third"}},
		{"no delimiter present", "  solo  ", "|", []string{"solo"}},
		{"empty delimiter keeps whole text", "  a|b  ", "", []string{"a|b"}},
		{"empty delimiter blank text", "  ", "", []string{}},
		{"regex metacharacters", "x[*]y[*]z", "[*]", []string{"x", "y", "z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segment.Split(tt.text, tt.delimiter)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, segment.Equal([]string{"a", "b"}, []string{"a", "b"}))
	assert.True(t, segment.Equal(nil, []string{}))
	assert.False(t, segment.Equal([]string{"a", "b"}, []string{"b", "a"}), "order sensitive")
	assert.False(t, segment.Equal([]string{"a", "b", "c"}, []string{"a", "b", "c", "d"}))
	assert.False(t, segment.Equal(nil, []string{"a"}))
}
