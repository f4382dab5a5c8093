package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpatch"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

func ptr(s string) jsonpointer.Path { return jsonpointer.MustParse(s) }

func fixture(t *testing.T) (any, docstate.State) {
	t.Helper()
	value := jsonvalue.MustParse(`{"a":1,"b":{"c":2,"d":[10,20]},"e":"three"}`)
	return value, docstate.New(value, docstate.ExpandAll)
}

func pointers(paths []jsonpointer.Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}

func TestResolveRange(t *testing.T) {
	value, s := fixture(t)
	tests := []struct {
		name   string
		anchor string
		focus  string
		want   []string
	}{
		{name: "same path", anchor: "/a", focus: "/a", want: []string{"/a"}},
		{name: "siblings", anchor: "/a", focus: "/e", want: []string{"/a", "/b", "/e"}},
		{name: "reversed", anchor: "/e", focus: "/b", want: []string{"/b", "/e"}},
		{name: "parent and child", anchor: "/b", focus: "/b/c", want: []string{"/b"}},
		{name: "array items", anchor: "/b/d/1", focus: "/b/d/0", want: []string{"/b/d/0", "/b/d/1"}},
		{name: "diverging below", anchor: "/a", focus: "/b/c", want: []string{"/a", "/b"}},
		{name: "missing", anchor: "/a", focus: "/x", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRange(value, s, ptr(tt.anchor), ptr(tt.focus))
			assert.Equal(t, tt.want, pointers(got))
		})
	}
}

func TestResolveRangeFollowsDisplayOrder(t *testing.T) {
	value, s := fixture(t)
	updated, s, err := docstate.Patch(value, s, []jsonpatch.Operation{
		{Op: jsonpatch.Move, From: "/a", Path: "/z"},
	})
	require.NoError(t, err)
	got := ResolveRange(updated, s, ptr("/z"), ptr("/b"))
	assert.Equal(t, []string{"/z", "/b"}, pointers(got))
}

func TestUpDown(t *testing.T) {
	value, s := fixture(t)
	tests := []struct {
		name       string
		sel        *Selection
		up         bool
		keepAnchor bool
		want       *Selection
	}{
		{name: "value up", sel: NewValue(ptr("/b/c")), up: true, want: NewValue(ptr("/b"))},
		{name: "key up", sel: NewKey(ptr("/b/c")), up: true, want: NewKey(ptr("/b"))},
		{name: "key down into array item", sel: NewKey(ptr("/b/d")), want: NewValue(ptr("/b/d/0"))},
		{name: "value down", sel: NewValue(ptr("/b/d/1")), want: NewValue(ptr("/e"))},
		{name: "up from root", sel: NewValue(jsonpointer.Root), up: true, want: nil},
		{name: "down from last", sel: NewValue(ptr("/e")), want: nil},
		{name: "after up", sel: NewAfter(ptr("/a")), up: true, want: NewMulti(ptr("/a"), ptr("/a"))},
		{name: "after down", sel: NewAfter(ptr("/a")), want: NewMulti(ptr("/b"), ptr("/b"))},
		{name: "inside down", sel: NewInside(ptr("/b")), want: NewMulti(ptr("/b/c"), ptr("/b/c"))},
		{name: "inside up", sel: NewInside(ptr("/b")), up: true, want: NewMulti(ptr("/b"), ptr("/b"))},
		{name: "multi up", sel: NewMulti(ptr("/a"), ptr("/b")), up: true, want: NewMulti(jsonpointer.Root, jsonpointer.Root)},
		{name: "multi down", sel: NewMulti(ptr("/a"), ptr("/b")), want: NewMulti(ptr("/e"), ptr("/e"))},
		{name: "extend up", sel: NewMulti(ptr("/e"), ptr("/e")), up: true, keepAnchor: true, want: NewMulti(ptr("/e"), ptr("/b/d/1"))},
		{name: "extend down", sel: NewMulti(ptr("/a"), ptr("/a")), keepAnchor: true, want: NewMulti(ptr("/a"), ptr("/b"))},
		{name: "nil", sel: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *Selection
			if tt.up {
				got = Up(value, s, tt.sel, tt.keepAnchor)
			} else {
				got = Down(value, s, tt.sel, tt.keepAnchor)
			}
			assert.True(t, tt.want.Equal(got), "want %+v, got %+v", tt.want, got)
		})
	}
}

func TestExtendedRangeResolvesToSiblings(t *testing.T) {
	value, s := fixture(t)
	sel := Up(value, s, NewMulti(ptr("/e"), ptr("/e")), true)
	assert.Equal(t, []string{"/b", "/e"}, pointers(Paths(value, s, sel)))
}

func TestLeftRight(t *testing.T) {
	value, s := fixture(t)
	tests := []struct {
		name       string
		sel        *Selection
		left       bool
		keepAnchor bool
		want       *Selection
	}{
		{name: "value to key", sel: NewValue(ptr("/a")), left: true, want: NewKey(ptr("/a"))},
		{name: "array item value", sel: NewValue(ptr("/b/d/0")), left: true, want: NewMulti(ptr("/b/d/0"), ptr("/b/d/0"))},
		{name: "key to previous after", sel: NewKey(ptr("/b")), left: true, want: NewAfter(ptr("/a"))},
		{name: "first key to inside", sel: NewKey(ptr("/a")), left: true, want: NewInside(jsonpointer.Root)},
		{name: "after to value", sel: NewAfter(ptr("/a")), left: true, want: NewValue(ptr("/a"))},
		{name: "inside to value", sel: NewInside(ptr("/b")), left: true, want: NewValue(ptr("/b"))},
		{name: "multi to key", sel: NewMulti(ptr("/a"), ptr("/b")), left: true, want: NewKey(ptr("/b"))},
		{name: "multi of items has no key", sel: NewMulti(ptr("/b/d/0"), ptr("/b/d/1")), left: true, want: nil},
		{name: "keep anchor", sel: NewValue(ptr("/a")), left: true, keepAnchor: true, want: NewMulti(ptr("/a"), ptr("/a"))},
		{name: "key to value", sel: NewKey(ptr("/a")), want: NewValue(ptr("/a"))},
		{name: "value to after", sel: NewValue(ptr("/a")), want: NewAfter(ptr("/a"))},
		{name: "after to next key", sel: NewAfter(ptr("/a")), want: NewKey(ptr("/b"))},
		{name: "after last item", sel: NewAfter(ptr("/b/d/1")), want: NewAfter(ptr("/b/d"))},
		{name: "after last node", sel: NewAfter(ptr("/e")), want: nil},
		{name: "inside", sel: NewInside(ptr("/b")), want: nil},
		{name: "multi to after", sel: NewMulti(ptr("/b"), ptr("/a")), want: NewAfter(ptr("/b"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *Selection
			if tt.left {
				got = Left(value, s, tt.sel, tt.keepAnchor)
			} else {
				got = Right(value, s, tt.sel, tt.keepAnchor)
			}
			assert.True(t, tt.want.Equal(got), "want %+v, got %+v", tt.want, got)
		})
	}
}

func TestInitial(t *testing.T) {
	value, s := fixture(t)
	assert.True(t, NewKey(ptr("/a")).Equal(Initial(value, s)))

	nested := jsonvalue.MustParse(`[[1,2],3]`)
	assert.True(t, NewValue(ptr("/0/0")).Equal(Initial(nested, docstate.New(nested, docstate.ExpandAll))))

	assert.True(t, NewValue(jsonpointer.Root).Equal(Initial(value, docstate.New(value, docstate.ExpandNone))))
}

func TestFromOperations(t *testing.T) {
	value := jsonvalue.MustParse(`{"x":1,"b":2,"e":3,"list":[1,2,3]}`)
	tests := []struct {
		name string
		ops  []jsonpatch.Operation
		want *Selection
	}{
		{name: "empty", ops: nil, want: nil},
		{name: "replace", ops: []jsonpatch.Operation{{Op: jsonpatch.Replace, Path: "/b", Value: 2}}, want: NewValue(ptr("/b"))},
		{name: "rename batch", ops: []jsonpatch.Operation{
			{Op: jsonpatch.Move, From: "/a", Path: "/x"},
			{Op: jsonpatch.Move, From: "/b", Path: "/b"},
			{Op: jsonpatch.Move, From: "/e", Path: "/e"},
		}, want: NewKey(ptr("/x"))},
		{name: "adds", ops: []jsonpatch.Operation{
			{Op: jsonpatch.Add, Path: "/b", Value: 2},
			{Op: jsonpatch.Add, Path: "/e", Value: 3},
		}, want: NewMulti(ptr("/b"), ptr("/e"))},
		{name: "append resolves to last item", ops: []jsonpatch.Operation{
			{Op: jsonpatch.Add, Path: "/list/-", Value: 2},
			{Op: jsonpatch.Add, Path: "/list/-", Value: 3},
		}, want: NewMulti(ptr("/list/2"), ptr("/list/2"))},
		{name: "removes only", ops: []jsonpatch.Operation{
			{Op: jsonpatch.Remove, Path: "/gone"},
			{Op: jsonpatch.Remove, Path: "/other"},
		}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromOperations(value, tt.ops)
			assert.True(t, tt.want.Equal(got), "want %+v, got %+v", tt.want, got)
		})
	}
}

func TestToPartialJSON(t *testing.T) {
	value, s := fixture(t)
	tests := []struct {
		name string
		sel  *Selection
		want string
	}{
		{name: "key", sel: NewKey(ptr("/b/c")), want: "c"},
		{name: "string value is raw", sel: NewValue(ptr("/e")), want: "three"},
		{name: "number value", sel: NewValue(ptr("/a")), want: "1"},
		{name: "object value", sel: NewValue(ptr("/b")), want: `{"c":2,"d":[10,20]}`},
		{name: "items", sel: NewMulti(ptr("/b/d/0"), ptr("/b/d/1")), want: "10,\n20,"},
		{name: "single item", sel: NewMulti(ptr("/b/d/1"), ptr("/b/d/1")), want: "20"},
		{name: "entries", sel: NewMulti(ptr("/a"), ptr("/e")), want: "\"a\": 1,\n\"b\": {\"c\":2,\"d\":[10,20]},\n\"e\": \"three\","},
		{name: "whole document", sel: SelectAll(), want: `{"a":1,"b":{"c":2,"d":[10,20]},"e":"three"}`},
		{name: "after caret", sel: NewAfter(ptr("/a")), want: ""},
		{name: "nothing", sel: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToPartialJSON(value, s, tt.sel, "", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepair(t *testing.T) {
	value, s := fixture(t)
	collapsed := docstate.CollapsePath(s, ptr("/b"))

	assert.True(t, NewValue(ptr("/b")).Equal(Repair(value, collapsed, NewValue(ptr("/b/d/0")))))
	assert.True(t, NewValue(ptr("/b")).Equal(Repair(value, collapsed, NewInside(ptr("/b")))))
	assert.Nil(t, Repair(value, s, NewValue(ptr("/gone"))))

	kept := NewMulti(ptr("/a"), ptr("/e"))
	assert.Same(t, kept, Repair(value, s, kept))
	assert.True(t, IsInside(NewValue(ptr("/b/d/0")), ptr("/b")))
	assert.False(t, IsInside(NewValue(ptr("/b")), ptr("/b")))
}

func TestRemoveOperations(t *testing.T) {
	value, s := fixture(t)
	assert.Equal(t, []jsonpatch.Operation{
		{Op: jsonpatch.Remove, Path: "/b"},
		{Op: jsonpatch.Remove, Path: "/a"},
	}, RemoveOperations(value, s, NewMulti(ptr("/a"), ptr("/b"))))
	assert.Equal(t, []jsonpatch.Operation{{Op: jsonpatch.Replace, Path: "/a", Value: ""}}, RemoveOperations(value, s, NewValue(ptr("/a"))))
	assert.Equal(t, []jsonpatch.Operation{{Op: jsonpatch.Remove, Path: "/a"}}, RemoveOperations(value, s, NewKey(ptr("/a"))))
	assert.Equal(t, []jsonpatch.Operation{{Op: jsonpatch.Replace, Path: "", Value: ""}}, RemoveOperations(value, s, SelectAll()))
	assert.Nil(t, RemoveOperations(value, s, NewAfter(ptr("/a"))))
}

func TestInsertOperations(t *testing.T) {
	value, s := fixture(t)

	ops := InsertOperations(value, s, NewAfter(ptr("/b/d/0")), 15)
	assert.Equal(t, []jsonpatch.Operation{{Op: jsonpatch.Add, Path: "/b/d/1", Value: 15}}, ops)

	ops = InsertOperations(value, s, NewInside(ptr("/b")), jsonvalue.NewObject("z", 1))
	updated, next, err := docstate.Patch(value, s, ops)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "c", "d"}, docstate.Keys(updated, next, ptr("/b")))
	b, _ := jsonvalue.GetIn(updated, ptr("/b"))
	assert.Equal(t, `{"z":1,"c":2,"d":[10,20]}`, jsonvalue.Stringify(b, ""))

	ops = InsertOperations(value, s, NewMulti(ptr("/a"), ptr("/b")), jsonvalue.NewObject("n", true))
	updated, next, err = docstate.Patch(value, s, ops)
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "e"}, docstate.Keys(updated, next, jsonpointer.Root))

	assert.Nil(t, InsertOperations(value, s, NewAfter(ptr("/a")), "not an object"))
}

func TestTrack(t *testing.T) {
	value := jsonvalue.MustParse(`{"list":[10,20,30,40],"obj":{"a":1,"b":2},"z":true}`)
	op := func(o jsonpatch.Op, path, from string) jsonpatch.Operation {
		return jsonpatch.Operation{Op: o, Path: path, From: from, Value: 0}
	}
	tests := []struct {
		name string
		sel  *Selection
		ops  []jsonpatch.Operation
		want *Selection
	}{
		{
			name: "remove before shifts down",
			sel:  NewValue(ptr("/list/2")),
			ops:  []jsonpatch.Operation{op(jsonpatch.Remove, "/list/0", "")},
			want: NewValue(ptr("/list/1")),
		},
		{
			name: "remove after keeps index",
			sel:  NewKey(ptr("/list/1")),
			ops:  []jsonpatch.Operation{op(jsonpatch.Remove, "/list/3", "")},
			want: NewKey(ptr("/list/1")),
		},
		{
			name: "insert before shifts up",
			sel:  NewAfter(ptr("/list/1")),
			ops:  []jsonpatch.Operation{op(jsonpatch.Add, "/list/1", "")},
			want: NewAfter(ptr("/list/2")),
		},
		{
			name: "append leaves index",
			sel:  NewValue(ptr("/list/3")),
			ops:  []jsonpatch.Operation{op(jsonpatch.Add, "/list/-", "")},
			want: NewValue(ptr("/list/3")),
		},
		{
			name: "removed item falls back to previous sibling",
			sel:  NewValue(ptr("/list/2")),
			ops:  []jsonpatch.Operation{op(jsonpatch.Remove, "/list/2", "")},
			want: NewValue(ptr("/list/1")),
		},
		{
			name: "removed first item falls back to parent",
			sel:  NewValue(ptr("/list/0")),
			ops:  []jsonpatch.Operation{op(jsonpatch.Remove, "/list/0", "")},
			want: NewValue(ptr("/list")),
		},
		{
			name: "removed key falls back to previous key",
			sel:  NewKey(ptr("/obj/b")),
			ops:  []jsonpatch.Operation{op(jsonpatch.Remove, "/obj/b", "")},
			want: NewValue(ptr("/obj/a")),
		},
		{
			name: "removed ancestor",
			sel:  NewValue(ptr("/obj/a")),
			ops:  []jsonpatch.Operation{op(jsonpatch.Remove, "/obj", "")},
			want: NewValue(ptr("/list")),
		},
		{
			name: "moved node is followed",
			sel:  NewValue(ptr("/list/0")),
			ops:  []jsonpatch.Operation{op(jsonpatch.Move, "/list/3", "/list/0")},
			want: NewValue(ptr("/list/3")),
		},
		{
			name: "move across shifts siblings",
			sel:  NewValue(ptr("/list/2")),
			ops:  []jsonpatch.Operation{op(jsonpatch.Move, "/z", "/list/0")},
			want: NewValue(ptr("/list/1")),
		},
		{
			name: "multi keeps its range",
			sel:  NewMulti(ptr("/list/1"), ptr("/list/3")),
			ops: []jsonpatch.Operation{
				op(jsonpatch.Remove, "/list/0", ""),
				op(jsonpatch.Remove, "/list/1", ""),
			},
			want: NewMulti(ptr("/list/0"), ptr("/list/1")),
		},
		{
			name: "fallback keeps tracking",
			sel:  NewValue(ptr("/list/3")),
			ops: []jsonpatch.Operation{
				op(jsonpatch.Remove, "/list/3", ""),
				op(jsonpatch.Remove, "/list/0", ""),
			},
			want: NewValue(ptr("/list/1")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Track(value, tt.sel, tt.ops)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(got), "got %+v", got)
		})
	}
	assert.Nil(t, Track(value, nil, []jsonpatch.Operation{op(jsonpatch.Remove, "/z", "")}))
}
