package jsonpatch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		ops  []Operation
		want string
	}{
		{
			name: "add object key appends",
			doc:  `{"a":2,"b":3}`,
			ops:  []Operation{{Op: Add, Path: "/c", Value: json.Number("42")}},
			want: `{"a":2,"b":3,"c":42}`,
		},
		{
			name: "add array item",
			doc:  `[1,2,3]`,
			ops:  []Operation{{Op: Add, Path: "/1", Value: "x"}},
			want: `[1,"x",2,3]`,
		},
		{
			name: "append with dash",
			doc:  `[1]`,
			ops:  []Operation{{Op: Add, Path: "/-", Value: json.Number("2")}},
			want: `[1,2]`,
		},
		{
			name: "remove",
			doc:  `{"a":1,"b":2}`,
			ops:  []Operation{{Op: Remove, Path: "/a"}},
			want: `{"b":2}`,
		},
		{
			name: "replace keeps key position",
			doc:  `{"a":1,"b":2}`,
			ops:  []Operation{{Op: Replace, Path: "/a", Value: true}},
			want: `{"a":true,"b":2}`,
		},
		{
			name: "replace root",
			doc:  `{"a":1}`,
			ops:  []Operation{{Op: Replace, Path: "", Value: []any{}}},
			want: `[]`,
		},
		{
			name: "move renames to end",
			doc:  `{"before":1,"name":2,"after":3}`,
			ops:  []Operation{{Op: Move, From: "/name", Path: "/name*"}},
			want: `{"before":1,"after":3,"name*":2}`,
		},
		{
			name: "move onto itself reorders to end",
			doc:  `{"a":1,"b":2}`,
			ops:  []Operation{{Op: Move, From: "/a", Path: "/a"}},
			want: `{"b":2,"a":1}`,
		},
		{
			name: "move within array",
			doc:  `[0,1,2,3]`,
			ops:  []Operation{{Op: Move, From: "/0", Path: "/3"}},
			want: `[1,2,3,0]`,
		},
		{
			name: "copy",
			doc:  `{"a":{"x":1}}`,
			ops:  []Operation{{Op: Copy, From: "/a", Path: "/b"}},
			want: `{"a":{"x":1},"b":{"x":1}}`,
		},
		{
			name: "test passes",
			doc:  `{"a":[1,2]}`,
			ops:  []Operation{{Op: Test, Path: "/a", Value: []any{1, 2}}},
			want: `{"a":[1,2]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := jsonvalue.MustParse(tt.doc)
			got, err := Apply(doc, tt.ops)
			require.NoError(t, err)
			assert.Equal(t, tt.want, jsonvalue.Stringify(got, ""))
			assert.Equal(t, jsonvalue.Stringify(jsonvalue.MustParse(tt.doc), ""), jsonvalue.Stringify(doc, ""), "input must not change")
		})
	}
}

func TestApplyFailuresAbortBatch(t *testing.T) {
	doc := jsonvalue.MustParse(`{"a":1}`)

	tests := []struct {
		name    string
		ops     []Operation
		wantErr error
	}{
		{
			name:    "test mismatch",
			ops:     []Operation{{Op: Add, Path: "/b", Value: 2}, {Op: Test, Path: "/a", Value: 5}},
			wantErr: ErrTestFailed,
		},
		{
			name:    "missing path",
			ops:     []Operation{{Op: Remove, Path: "/nope"}},
			wantErr: ErrPathNotFound,
		},
		{
			name:    "missing parent",
			ops:     []Operation{{Op: Add, Path: "/x/y", Value: 1}},
			wantErr: ErrPathNotFound,
		},
		{
			name:    "bad pointer",
			ops:     []Operation{{Op: Add, Path: "a", Value: 1}},
			wantErr: ErrInvalidPointer,
		},
		{
			name:    "unknown op",
			ops:     []Operation{{Op: "frobnicate", Path: "/a"}},
			wantErr: ErrInvalidOperation,
		},
		{
			name:    "move into own child",
			ops:     []Operation{{Op: Move, From: "", Path: "/a"}},
			wantErr: ErrInvalidOperation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(doc, tt.ops)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.wantErr)

			var patchErr *PatchError
			require.ErrorAs(t, err, &patchErr)
			assert.Equal(t, `{"a":1}`, jsonvalue.Stringify(doc, ""))
		})
	}
}

func TestHooks(t *testing.T) {
	var seen []string
	hooks := &Hooks{
		Before: func(doc any, op Operation) (Operation, error) {
			seen = append(seen, "before "+op.Path)
			if op.Op == Add {
				op.Value = "rewritten"
			}
			return op, nil
		},
		After: func(doc any, op Operation, previous any) (any, error) {
			seen = append(seen, "after "+op.Path)
			return doc, nil
		},
	}
	got, err := Immutable(jsonvalue.MustParse(`{}`), []Operation{{Op: Add, Path: "/a", Value: 1}}, hooks)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"rewritten"}`, jsonvalue.Stringify(got, ""))
	assert.Equal(t, []string{"before /a", "after /a"}, seen)
}

func TestEmptyBatchIsNoop(t *testing.T) {
	doc := jsonvalue.MustParse(`{"a":1}`)
	got, err := Apply(doc, nil)
	require.NoError(t, err)
	assert.Same(t, doc.(*jsonvalue.Object), got.(*jsonvalue.Object))
}

func TestDecodeEncode(t *testing.T) {
	ops, err := Decode([]byte(`[
		{"op":"add","path":"/a","value":{"z":1,"y":null}},
		{"op":"move","from":"/a","path":"/b"},
		{"op":"replace","path":"/b/y","value":null}
	]`))
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, Move, ops[1].Op)
	assert.Equal(t, "/a", ops[1].From)

	data, err := Encode(ops)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"op":"add","path":"/a","value":{"z":1,"y":null}},
		{"op":"move","from":"/a","path":"/b"},
		{"op":"replace","path":"/b/y","value":null}
	]`, string(data))

	_, err = Decode([]byte(`[{"op":"add","value":1}]`))
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestRevert(t *testing.T) {
	doc := jsonvalue.MustParse(`{"a":1,"arr":[1,2],"obj":{"k":"v"}}`)
	ops := []Operation{
		{Op: Replace, Path: "/a", Value: 2},
		{Op: Add, Path: "/arr/-", Value: 3},
		{Op: Remove, Path: "/obj/k"},
		{Op: Move, From: "/a", Path: "/b"},
	}
	patched, err := Apply(doc, ops)
	require.NoError(t, err)

	reverted, err := Revert(doc, ops)
	require.NoError(t, err)

	restored, err := Apply(patched, reverted)
	require.NoError(t, err)
	assert.True(t, jsonvalue.Equal(doc, restored), jsonvalue.Stringify(restored, ""))
}
