package jsonpointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndCompile(t *testing.T) {
	tests := []struct {
		name    string
		pointer string
		path    Path
	}{
		{name: "root", pointer: "", path: Path{}},
		{name: "simple", pointer: "/a/b", path: Path{"a", "b"}},
		{name: "index", pointer: "/items/0", path: Path{"items", "0"}},
		{name: "escaped slash", pointer: "/a~1b", path: Path{"a/b"}},
		{name: "escaped tilde", pointer: "/m~0n", path: Path{"m~n"}},
		{name: "empty key", pointer: "/", path: Path{""}},
		{name: "tilde one literal", pointer: "/~01", path: Path{"~1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.pointer)
			require.NoError(t, err)
			assert.Equal(t, tt.path, got)
			assert.Equal(t, tt.pointer, Compile(got))
		})
	}
}

func TestParseRejectsRelativePointer(t *testing.T) {
	_, err := Parse("a/b")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPointer)
}

func TestPathHelpers(t *testing.T) {
	p := New("items", 2, "name")
	assert.Equal(t, "/items/2/name", p.String())
	assert.Equal(t, Path{"items", "2"}, p.Parent())
	assert.Equal(t, "name", p.Last())
	assert.True(t, p.HasPrefix(Path{"items"}))
	assert.False(t, p.HasPrefix(Path{"item"}))
	assert.True(t, Path{}.IsRoot())

	// Append must not write into the parent's backing array.
	parent := p.Parent()
	a := parent.Append("x")
	b := parent.Append("y")
	assert.Equal(t, "x", a.Last())
	assert.Equal(t, "y", b.Last())
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, Path{"a"}, CommonPrefix(Path{"a", "b"}, Path{"a", "c"}))
	assert.Equal(t, Path{}, CommonPrefix(Path{"x"}, Path{"y"}))
	assert.Equal(t, Path{"a", "b"}, CommonPrefix(Path{"a", "b"}, Path{"a", "b", "c"}))
}

func TestIndex(t *testing.T) {
	i, ok := Index("12")
	assert.True(t, ok)
	assert.Equal(t, 12, i)

	for _, bad := range []string{"", "01", "-1", "1a", "-", "+3", "99999999999999999999999"} {
		_, ok := Index(bad)
		assert.False(t, ok, bad)
	}
}
