package sorting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpatch"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

func TestCompareStrings(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "B", -1},
		{"item2", "item10", -1},
		{"item10", "item2", 1},
		{"Item02", "item2", 0},
		{"abc", "ab", 1},
		{"", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			got := CompareStrings(tt.a, tt.b)
			switch {
			case tt.want < 0:
				assert.Negative(t, got)
			case tt.want > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}

func TestCompareMixedTypes(t *testing.T) {
	values := []any{jsonvalue.NewObject(), []any{}, "s", 3, true, nil}
	for i := 1; i < len(values); i++ {
		assert.Positive(t, Compare(values[i-1], values[i]), "%v vs %v", values[i-1], values[i])
	}
	assert.Negative(t, Compare(jsonvalue.StringConvert("2"), 10))
}

func TestArrayOperations(t *testing.T) {
	value := jsonvalue.MustParse(`{"list":[{"n":3},{"n":1},{"x":0},{"n":2}]}`)
	s := docstate.New(value, docstate.ExpandAll)

	tests := []struct {
		name      string
		direction Direction
		want      string
	}{
		{name: "ascending", direction: Ascending, want: `{"list":[{"n":1},{"n":2},{"n":3},{"x":0}]}`},
		{name: "descending", direction: Descending, want: `{"list":[{"x":0},{"n":3},{"n":2},{"n":1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := ArrayOperations(value, jsonpointer.MustParse("/list"), jsonpointer.MustParse("/n"), tt.direction)
			sorted, _, err := docstate.FastPatchSort(value, s, ops)
			require.NoError(t, err)
			assert.Equal(t, tt.want, jsonvalue.Stringify(sorted, ""))

			patched, _, err := docstate.Patch(value, s, ops)
			require.NoError(t, err)
			assert.True(t, jsonvalue.Equal(sorted, patched))
		})
	}
}

func TestArrayOperationsSortedOrMissing(t *testing.T) {
	value := jsonvalue.MustParse(`[1,2,3]`)
	assert.Nil(t, ArrayOperations(value, jsonpointer.Root, jsonpointer.Root, Ascending))
	assert.Nil(t, ArrayOperations(value, jsonpointer.MustParse("/0"), jsonpointer.Root, Ascending))
	assert.Equal(t, []jsonpatch.Operation{
		{Op: jsonpatch.Move, From: "/2", Path: "/0"},
		{Op: jsonpatch.Move, From: "/2", Path: "/1"},
	}, ArrayOperations(value, jsonpointer.Root, jsonpointer.Root, Descending))
}

func TestObjectOperations(t *testing.T) {
	value := jsonvalue.MustParse(`{"b":1,"A":2,"c10":3,"c9":4}`)
	s := docstate.New(value, docstate.ExpandAll)

	ops := ObjectOperations(value, jsonpointer.Root, Ascending)
	sorted, next, err := docstate.Patch(value, s, ops)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "b", "c9", "c10"}, docstate.Keys(sorted, next, jsonpointer.Root))
	assert.Equal(t, `{"A":2,"b":1,"c9":4,"c10":3}`, jsonvalue.Stringify(sorted, ""))

	assert.Nil(t, ObjectOperations(sorted, jsonpointer.Root, Ascending))
	assert.Nil(t, ObjectOperations(value, jsonpointer.MustParse("/b"), Ascending))
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("DESC")
	require.NoError(t, err)
	assert.Equal(t, Descending, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
