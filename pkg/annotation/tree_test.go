package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

type note struct {
	path string
	text string
}

func notePath(n note) jsonpointer.Path { return jsonpointer.MustParse(n.path) }

func TestBuild(t *testing.T) {
	value := jsonvalue.MustParse(`{"a":{"b":[1,2]},"c":"x"}`)
	notes := []note{
		{path: "", text: "root"},
		{path: "/a/b/1", text: "second"},
		{path: "/a/b/1", text: "again"},
		{path: "/c", text: "leaf"},
	}
	tree := Build(value, notes, notePath)

	assert.Equal(t, KindObject, tree.Kind)
	assert.Equal(t, 4, tree.Total)
	assert.Len(t, tree.Items, 1)

	b := tree.Lookup(jsonpointer.MustParse("/a/b"))
	require.NotNil(t, b)
	assert.Equal(t, KindArray, b.Kind)
	assert.Equal(t, 2, b.Total)
	assert.Empty(t, b.Items)

	second := b.Child("1")
	require.NotNil(t, second)
	assert.Equal(t, KindValue, second.Kind)
	assert.Equal(t, []note{notes[1], notes[2]}, second.Items)

	assert.True(t, tree.Child("a").Has())
	assert.False(t, tree.Child("missing").Has())
	assert.Nil(t, tree.Lookup(jsonpointer.MustParse("/a/b/0")))
}

func TestBuildOutsideDocument(t *testing.T) {
	value := jsonvalue.MustParse(`{"a":{}}`)
	tree := Build(value, []note{{path: "/a/gone/deeper", text: "stale"}}, notePath)
	n := tree.Lookup(jsonpointer.MustParse("/a/gone"))
	require.NotNil(t, n)
	assert.Equal(t, KindValue, n.Kind)
	assert.Len(t, tree.Flatten(), 1)
}

func TestFlattenRoundTrip(t *testing.T) {
	value := jsonvalue.MustParse(`{"k":{"x":"1","y":["a","b"]},"z":null}`)
	tests := []struct {
		name  string
		notes []note
	}{
		{name: "empty", notes: nil},
		{name: "single", notes: []note{{path: "/z"}}},
		{name: "document order", notes: []note{
			{path: "/k", text: "key"},
			{path: "/k/x", text: "1"},
			{path: "/k/x", text: "2"},
			{path: "/k/y/0"},
			{path: "/k/y/1"},
			{path: "/z"},
		}},
		{name: "interleaved", notes: []note{
			{path: "/k/x", text: "first"},
			{path: "/z"},
			{path: "/k/y/1"},
			{path: "", text: "root"},
			{path: "/k/x", text: "last"},
		}},
		{name: "reverse order", notes: []note{
			{path: "/z"},
			{path: "/k/y/0"},
			{path: "/k"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(value, tt.notes, notePath).Flatten()
			if len(tt.notes) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.notes, got)
		})
	}
}
